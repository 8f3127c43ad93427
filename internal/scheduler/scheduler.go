// Package scheduler finds reminders whose time of day has arrived and marks
// them sent. Delivery is a log record; the sent flags clear at local midnight
// so every reminder fires once a day.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/2339036/medication-adherence-system/internal/storage"
)

const (
	scanSpec  = "* * * * *"
	resetSpec = "0 0 * * *"
)

// Store is the reminder persistence the scanner needs.
type Store interface {
	ListAllReminders() ([]storage.Reminder, error)
	MarkReminderSent(userID, id string, sent bool) (storage.Reminder, error)
	ResetRemindersSent() (int64, error)
}

// DueObserver is told how many reminders each scan delivered.
type DueObserver interface {
	ObserveDue(n int)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// WithObserver reports delivered counts to o.
func WithObserver(o DueObserver) Option {
	return func(s *Scanner) { s.observer = o }
}

// Scanner runs the due-reminder and midnight-reset jobs.
type Scanner struct {
	store    Store
	cron     *cron.Cron
	now      func() time.Time
	observer DueObserver
}

// New creates a Scanner with both jobs registered. Call Run to start it.
func New(store Store, opts ...Option) (*Scanner, error) {
	s := &Scanner{
		store: store,
		cron:  cron.New(cron.WithLocation(time.Local)),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	if _, err := s.cron.AddFunc(scanSpec, func() {
		if _, err := s.Scan(); err != nil {
			slog.Error("reminder scan failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("scheduling reminder scan: %w", err)
	}
	if _, err := s.cron.AddFunc(resetSpec, func() {
		if err := s.Reset(); err != nil {
			slog.Error("reminder reset failed", "error", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("scheduling reminder reset: %w", err)
	}
	return s, nil
}

// Run starts the jobs and blocks until ctx is done, then waits for any
// running job to finish.
func (s *Scanner) Run(ctx context.Context) error {
	s.cron.Start()
	slog.Info("reminder scheduler started", "jobs", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// Scan delivers every unsent reminder whose time equals the current HH:MM and
// returns how many were delivered.
func (s *Scanner) Scan() (int, error) {
	clock := s.now().Format("15:04")

	reminders, err := s.store.ListAllReminders()
	if err != nil {
		return 0, fmt.Errorf("listing reminders: %w", err)
	}

	delivered := 0
	for _, r := range reminders {
		if r.Sent || r.Time != clock {
			continue
		}
		slog.Info("reminder due",
			"user", r.UserID,
			"reminder_id", r.ID,
			"medication", r.MedicationName,
			"time", r.Time,
		)
		if _, err := s.store.MarkReminderSent(r.UserID, r.ID, true); err != nil {
			return delivered, fmt.Errorf("marking reminder %s sent: %w", r.ID, err)
		}
		delivered++
	}

	if s.observer != nil && delivered > 0 {
		s.observer.ObserveDue(delivered)
	}
	return delivered, nil
}

// Reset clears every sent flag.
func (s *Scanner) Reset() error {
	n, err := s.store.ResetRemindersSent()
	if err != nil {
		return fmt.Errorf("resetting reminders: %w", err)
	}
	slog.Info("reminders reset for new day", "count", n)
	return nil
}
