package devstack

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/2339036/medication-adherence-system/internal/storage"
)

// --- Medications ---

type medicationJSON struct {
	ID        string `json:"_id"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	CreatedAt string `json:"createdAt"`
}

func toMedicationJSON(m storage.Medication) medicationJSON {
	return medicationJSON{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		Dosage:    m.Dosage,
		Frequency: m.Frequency,
		CreatedAt: isoTime(m.CreatedAt),
	}
}

type createMedicationRequest struct {
	Name      string `json:"name" validate:"required"`
	Dosage    string `json:"dosage" validate:"required"`
	Frequency string `json:"frequency" validate:"required"`
}

func (s *server) handleListMedications(w http.ResponseWriter, r *http.Request) {
	meds, err := s.store.ListMedications(userID(r))
	if err != nil {
		storeError(w, "medication", err)
		return
	}
	out := make([]medicationJSON, len(meds))
	for i, m := range meds {
		out[i] = toMedicationJSON(m)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleCreateMedication(w http.ResponseWriter, r *http.Request) {
	var req createMedicationRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.store.CreateMedication(storage.Medication{
		UserID:    userID(r),
		Name:      req.Name,
		Dosage:    req.Dosage,
		Frequency: req.Frequency,
	})
	if err != nil {
		storeError(w, "medication", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Medication added",
		"medication": toMedicationJSON(m),
	})
}

func (s *server) handleDeleteMedication(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMedication(userID(r), chi.URLParam(r, "id")); err != nil {
		storeError(w, "medication", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Medication deleted"})
}

// --- Reminders ---

type reminderJSON struct {
	ID             string `json:"_id"`
	UserID         string `json:"userId"`
	MedicationID   string `json:"medicationId"`
	MedicationName string `json:"medicationName"`
	Time           string `json:"time"`
	Sent           bool   `json:"sent"`
	CreatedAt      string `json:"createdAt"`
}

func toReminderJSON(rem storage.Reminder) reminderJSON {
	return reminderJSON{
		ID:             rem.ID,
		UserID:         rem.UserID,
		MedicationID:   rem.MedicationID,
		MedicationName: rem.MedicationName,
		Time:           rem.Time,
		Sent:           rem.Sent,
		CreatedAt:      isoTime(rem.CreatedAt),
	}
}

type createReminderRequest struct {
	MedicationID   string `json:"medicationId" validate:"required"`
	MedicationName string `json:"medicationName" validate:"required"`
	Time           string `json:"time" validate:"required,hhmm"`
}

type markReminderRequest struct {
	Sent *bool `json:"sent" validate:"required"`
}

func (s *server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	rems, err := s.store.ListReminders(userID(r))
	if err != nil {
		storeError(w, "reminder", err)
		return
	}
	out := make([]reminderJSON, len(rems))
	for i, rem := range rems {
		out[i] = toReminderJSON(rem)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if !s.decode(w, r, &req) {
		return
	}
	rem, err := s.store.CreateReminder(storage.Reminder{
		UserID:         userID(r),
		MedicationID:   req.MedicationID,
		MedicationName: req.MedicationName,
		Time:           req.Time,
	})
	if err != nil {
		storeError(w, "reminder", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Reminder created",
		"reminder": toReminderJSON(rem),
	})
}

func (s *server) handleMarkReminder(w http.ResponseWriter, r *http.Request) {
	var req markReminderRequest
	if !s.decode(w, r, &req) {
		return
	}
	rem, err := s.store.MarkReminderSent(userID(r), chi.URLParam(r, "id"), *req.Sent)
	if err != nil {
		storeError(w, "reminder", err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderJSON(rem))
}

func (s *server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReminder(userID(r), chi.URLParam(r, "id")); err != nil {
		storeError(w, "reminder", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Reminder deleted"})
}

// --- Adherence ---

type adherenceJSON struct {
	ID           string `json:"_id"`
	UserID       string `json:"userId"`
	MedicationID string `json:"medicationId"`
	Date         string `json:"date"`
	DoseIndex    int    `json:"doseIndex"`
	Taken        bool   `json:"taken"`
}

func toAdherenceJSON(a storage.AdherenceRecord) adherenceJSON {
	return adherenceJSON{
		ID:           a.ID,
		UserID:       a.UserID,
		MedicationID: a.MedicationID,
		Date:         isoTime(a.Date),
		DoseIndex:    a.DoseIndex,
		Taken:        a.Taken,
	}
}

type recordAdherenceRequest struct {
	MedicationID string `json:"medicationId" validate:"required"`
	Date         string `json:"date" validate:"required"`
	DoseIndex    *int   `json:"doseIndex" validate:"required,min=0"`
	Taken        *bool  `json:"taken" validate:"required"`
}

// parseDay accepts a calendar date or a full timestamp; only the date part
// of the input is kept.
func parseDay(s string) (time.Time, bool) {
	if len(s) < len("2006-01-02") {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (s *server) handleListAdherence(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListAdherence(userID(r))
	if err != nil {
		storeError(w, "adherence record", err)
		return
	}
	out := make([]adherenceJSON, len(recs))
	for i, a := range recs {
		out[i] = toAdherenceJSON(a)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleRecordAdherence(w http.ResponseWriter, r *http.Request) {
	var req recordAdherenceRequest
	if !s.decode(w, r, &req) {
		return
	}
	day, ok := parseDay(req.Date)
	if !ok {
		httpError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	rec, err := s.store.RecordAdherence(storage.AdherenceRecord{
		UserID:       userID(r),
		MedicationID: req.MedicationID,
		Date:         day,
		DoseIndex:    *req.DoseIndex,
		Taken:        *req.Taken,
	})
	if err != nil {
		storeError(w, "adherence record", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Adherence recorded",
		"record":  toAdherenceJSON(rec),
	})
}
