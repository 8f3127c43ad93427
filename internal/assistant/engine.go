// Package assistant turns one chat message plus the transcript so far into a
// single reply, calling the medications, notifications and adherence
// collaborators when the message asks for an action.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2339036/medication-adherence-system/internal/faq"
	"github.com/2339036/medication-adherence-system/internal/intent"
	"github.com/2339036/medication-adherence-system/internal/services"
)

// Medications lists the caller's medications.
type Medications interface {
	List(ctx context.Context, token string) ([]services.Medication, error)
}

// Reminders lists and creates the caller's reminders.
type Reminders interface {
	List(ctx context.Context, token string) ([]services.Reminder, error)
	Create(ctx context.Context, token string, r services.NewReminder) (services.Reminder, error)
}

// Adherence lists the caller's dose history.
type Adherence interface {
	List(ctx context.Context, token string) ([]services.AdherenceRecord, error)
}

// TurnObserver is told which rule answered each turn.
type TurnObserver interface {
	ObserveTurn(rule string)
}

// Deps holds the collaborators and knowledge base the engine uses.
type Deps struct {
	Medications Medications
	Reminders   Reminders
	Adherence   Adherence
	FAQ         *faq.KnowledgeBase // nil uses faq.Default()
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, which decides the next dose and "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithObserver reports the answering rule of every turn to o.
func WithObserver(o TurnObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// Request is one inbound chat message.
type Request struct {
	Message string
	// History is the transcript before Message, oldest first. It is only read.
	History []intent.Turn
	// Authorization is the raw Authorization header, possibly empty.
	Authorization string
}

// Engine is safe for concurrent use; it holds no per-conversation state.
type Engine struct {
	meds      Medications
	reminders Reminders
	adherence Adherence
	kb        *faq.KnowledgeBase
	now       func() time.Time
	observer  TurnObserver
	rules     []rule
}

// New creates an Engine.
func New(deps Deps, opts ...Option) *Engine {
	e := &Engine{
		meds:      deps.Medications,
		reminders: deps.Reminders,
		adherence: deps.Adherence,
		kb:        deps.FAQ,
		now:       time.Now,
	}
	if e.kb == nil {
		e.kb = faq.Default()
	}
	for _, o := range opts {
		o(e)
	}
	e.rules = e.buildRules()
	return e
}

// RuleNames returns the dispatch order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.name
	}
	return names
}

// Chat answers one message. Only collaborator failures produce an error;
// every other outcome, including missing credentials, is a Response.
func (e *Engine) Chat(ctx context.Context, req Request) (Response, error) {
	t := &turn{
		message: strings.TrimSpace(req.Message),
		token:   BearerToken(req.Authorization),
	}
	if t.message != "" {
		t.context = intent.Rewrite(req.History, t.message)
	}

	for _, r := range e.rules {
		if !r.match(t) {
			continue
		}
		slog.Debug("chat turn matched",
			"rule", r.name,
			"in_reminder_context", t.context.InReminderContext,
			"rewritten", t.context.Message != t.message,
		)
		resp, err := r.handle(ctx, t)
		if err != nil {
			return Response{}, fmt.Errorf("handling %s: %w", r.name, err)
		}
		if e.observer != nil {
			e.observer.ObserveTurn(r.name)
		}
		return resp, nil
	}
	return Text(msgNotUnderstood), nil
}

// BearerToken extracts the credential from an Authorization header value.
// Browsers holding no token send "Bearer null", which counts as absent.
func BearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") {
		return ""
	}
	switch fields[1] {
	case "null", "undefined":
		return ""
	}
	return fields[1]
}
