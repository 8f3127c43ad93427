// Package devstack serves local stand-ins for the medications, notifications
// and adherence services, backed by SQLite. The bearer token of each request
// is used as the owning user key; no verification is performed.
package devstack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/2339036/medication-adherence-system/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Store is the persistence the devstack needs.
type Store interface {
	CreateMedication(m storage.Medication) (storage.Medication, error)
	ListMedications(userID string) ([]storage.Medication, error)
	DeleteMedication(userID, id string) error

	CreateReminder(r storage.Reminder) (storage.Reminder, error)
	ListReminders(userID string) ([]storage.Reminder, error)
	DeleteReminder(userID, id string) error
	MarkReminderSent(userID, id string, sent bool) (storage.Reminder, error)

	RecordAdherence(a storage.AdherenceRecord) (storage.AdherenceRecord, error)
	ListAdherence(userID string) ([]storage.AdherenceRecord, error)
}

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmRe.MatchString(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

type server struct {
	store    Store
	validate *validator.Validate
}

// NewHandler returns the three collaborator APIs mounted at
// /api/medications, /api/notifications and /api/adherence.
func NewHandler(store Store) http.Handler {
	s := &server{store: store, validate: newValidator()}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/medications", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", s.handleListMedications)
		r.Post("/create", s.handleCreateMedication)
		r.Delete("/{id}", s.handleDeleteMedication)
	})

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", s.handleListReminders)
		r.Post("/create", s.handleCreateReminder)
		r.Put("/{id}", s.handleMarkReminder)
		r.Delete("/{id}", s.handleDeleteReminder)
	})

	r.Route("/api/adherence", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", s.handleListAdherence)
		r.Post("/record", s.handleRecordAdherence)
	})

	return r
}

type userKey struct{}

// requireUser rejects requests without a bearer credential and stores the
// credential as the user key.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields := strings.Fields(r.Header.Get("Authorization"))
		if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") || fields[1] == "null" {
			httpError(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, fields[1])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userKey{}).(string)
	return id
}

// decode reads a JSON body into v and validates it, writing a 400 on failure.
func (s *server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		httpError(w, http.StatusBadRequest, "%s", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "hhmm":
		return fmt.Sprintf("%s must be HH:MM", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// storeError maps repository errors to responses.
func storeError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		httpError(w, http.StatusNotFound, "%s not found", what)
		return
	}
	slog.Error("devstack store error", "entity", what, "error", err)
	httpError(w, http.StatusInternalServerError, "Server error")
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]string{"message": fmt.Sprintf(format, args...)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// isoTime renders t the way a document store's JSON encoder does.
func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
