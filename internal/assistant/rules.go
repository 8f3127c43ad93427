package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/elliotchance/pie/v2"

	"github.com/2339036/medication-adherence-system/internal/faq"
	"github.com/2339036/medication-adherence-system/internal/intent"
	"github.com/2339036/medication-adherence-system/internal/services"
)

// turn carries per-request state between rules.
type turn struct {
	message string
	token   string
	context intent.Context

	polarity intent.Polarity
	reminder intent.SetReminder
	answer   faq.Entry
	faqTried bool
}

type rule struct {
	name   string
	match  func(t *turn) bool
	handle func(ctx context.Context, t *turn) (Response, error)
}

func reply(r Response) func(context.Context, *turn) (Response, error) {
	return func(context.Context, *turn) (Response, error) { return r, nil }
}

func keywordRule(name string, keywords []string, msg string) rule {
	return rule{
		name:   name,
		match:  func(t *turn) bool { return faq.IncludesAny(t.message, keywords) },
		handle: reply(Text(msg)),
	}
}

// buildRules returns the dispatch table. The first matching rule answers.
func (e *Engine) buildRules() []rule {
	return []rule{
		{
			name:   "empty",
			match:  func(t *turn) bool { return t.message == "" },
			handle: reply(Text(msgEmpty)),
		},
		{
			name: "log_event",
			match: func(t *turn) bool {
				p, ok := intent.LogEvent(t.context.Message)
				t.polarity = p
				return ok
			},
			handle: func(_ context.Context, t *turn) (Response, error) {
				if t.polarity == intent.Missed {
					return Navigate(RouteAdherence, msgMissed), nil
				}
				return Navigate(RouteAdherence, msgTaken), nil
			},
		},
		{
			// A question asked outside a reminder dialogue is informational.
			name: "question_faq",
			match: func(t *turn) bool {
				if !intent.IsQuestion(t.message) || t.context.InReminderContext {
					return false
				}
				return e.matchFAQ(t)
			},
			handle: e.answerFAQ,
		},
		{
			name: "set_reminder",
			match: func(t *turn) bool {
				r, ok := intent.ParseSetReminder(t.context.Message)
				if !ok {
					return false
				}
				t.reminder = r
				return t.context.InReminderContext || intent.IsActionRequest(t.context.Message)
			},
			handle: e.setReminder,
		},
		{
			name:   "next_dose",
			match:  func(t *turn) bool { return intent.IsNextDose(t.context.Message) },
			handle: e.nextDose,
		},
		{
			name: "faq",
			match: func(t *turn) bool {
				if t.faqTried {
					return false
				}
				return e.matchFAQ(t)
			},
			handle: e.answerFAQ,
		},
		keywordRule("greeting", greetingKeywords, msgGreeting),
		keywordRule("logging_help", loggingKeywords, msgLoggingHelp),
		keywordRule("reminder_help", reminderKeywords, msgReminderHelp),
		keywordRule("safety", safetyKeywords, msgSafety),
		{
			name:   "default",
			match:  func(*turn) bool { return true },
			handle: reply(Text(msgNotUnderstood)),
		},
	}
}

func (e *Engine) matchFAQ(t *turn) bool {
	t.faqTried = true
	entry, ok := e.kb.Best(t.message)
	t.answer = entry
	return ok
}

func (e *Engine) answerFAQ(_ context.Context, t *turn) (Response, error) {
	return Text(t.answer.Answer), nil
}

func (e *Engine) setReminder(ctx context.Context, t *turn) (Response, error) {
	r := t.reminder
	switch {
	case r.MissingTime:
		return Text(msgAskTime), nil
	case !r.HasMedication():
		return Text(msgAskMedication), nil
	case t.token == "":
		return Text(msgLoginReminder), nil
	}

	meds, err := e.meds.List(ctx, t.token)
	if err != nil {
		return Response{}, err
	}
	want := strings.ToLower(r.MedicationName)
	i := pie.FindFirstUsing(meds, func(m services.Medication) bool {
		return strings.Contains(strings.ToLower(m.Name), want)
	})
	if i < 0 {
		return Text(fmt.Sprintf(fmtNotFound, r.MedicationName)), nil
	}
	med := meds[i]

	if _, err := e.reminders.Create(ctx, t.token, services.NewReminder{
		MedicationID:   med.ID,
		MedicationName: med.Name,
		Time:           r.Time,
	}); err != nil {
		return Response{}, err
	}
	return Navigate(RouteMedications, fmt.Sprintf(fmtReminderSet, med.Name, r.Time)), nil
}
