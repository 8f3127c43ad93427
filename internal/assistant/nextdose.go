package assistant

import (
	"context"
	"fmt"

	"github.com/elliotchance/pie/v2"

	"github.com/2339036/medication-adherence-system/internal/services"
)

func (e *Engine) nextDose(ctx context.Context, t *turn) (Response, error) {
	if t.token == "" {
		return Text(msgLoginNextDose), nil
	}

	reminders, err := e.reminders.List(ctx, t.token)
	if err != nil {
		return Response{}, err
	}
	if len(reminders) == 0 {
		return Navigate(RouteMedications, msgNoReminders), nil
	}

	// HH:MM is zero padded, so string order is time order.
	sorted := pie.SortStableUsing(reminders, func(a, b services.Reminder) bool {
		return a.Time < b.Time
	})

	now := e.now()
	clock, today := now.Format("15:04"), now.Format("2006-01-02")

	idx := pie.FindFirstUsing(sorted, func(r services.Reminder) bool { return r.Time > clock })
	wrapped := idx < 0
	if wrapped {
		idx = 0
	}
	chosen := sorted[idx]

	history, err := e.adherence.List(ctx, t.token)
	if err != nil {
		return Response{}, err
	}

	dose := doseIndex(sorted, idx)
	taken := pie.Any(history, func(a services.AdherenceRecord) bool {
		return a.Taken && a.Day() == today && a.MedicationID == chosen.MedicationID && a.DoseIndex == dose
	})
	if !taken {
		return Text(fmt.Sprintf(fmtNextDose, chosen.MedicationName, chosen.Time, tomorrow(wrapped))), nil
	}

	nextIdx := (idx + 1) % len(sorted)
	next := sorted[nextIdx]
	return Text(fmt.Sprintf(fmtAlreadyTaken,
		chosen.Time, chosen.MedicationName,
		next.MedicationName, next.Time, tomorrow(wrapped || nextIdx <= idx),
	)), nil
}

// doseIndex is the zero-based position of sorted[idx] among the reminders
// for the same medication, in time order.
func doseIndex(sorted []services.Reminder, idx int) int {
	n := 0
	for i := 0; i < idx; i++ {
		if sorted[i].MedicationID == sorted[idx].MedicationID {
			n++
		}
	}
	return n
}

func tomorrow(b bool) string {
	if b {
		return suffixTomorrow
	}
	return ""
}
