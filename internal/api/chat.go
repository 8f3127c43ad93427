package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/2339036/medication-adherence-system/internal/assistant"
	"github.com/2339036/medication-adherence-system/internal/intent"
	"github.com/2339036/medication-adherence-system/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ChatEngine answers one chat turn.
type ChatEngine interface {
	Chat(ctx context.Context, req assistant.Request) (assistant.Response, error)
}

// ErrorObserver is told about turns that failed.
type ErrorObserver interface {
	ObserveError()
}

// Deps holds dependencies for the chat HTTP handler.
type Deps struct {
	Engine         ChatEngine
	Errors         ErrorObserver // optional
	Metrics        http.Handler  // optional; served at /metrics
	AllowedOrigins []string      // "*" allows any origin
}

// ChatRequest is the body of POST /api/chatbot/chat.
type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []intent.Turn `json:"conversationHistory"`
}

// NewHandler returns the assistant's HTTP API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(CORS(deps.AllowedOrigins))

	r.Get("/health", handleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/chatbot", func(r chi.Router) {
		r.Get("/health", handleHealth)
		r.Post("/chat", handleChat(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Debug("rejecting chat request", "error", err)
			writeJSON(w, http.StatusBadRequest, assistant.Text("Invalid request body."))
			return
		}

		resp, err := deps.Engine.Chat(r.Context(), assistant.Request{
			Message:       req.Message,
			History:       req.ConversationHistory,
			Authorization: r.Header.Get("Authorization"),
		})
		if err != nil {
			logChatError(r.Context(), err)
			if deps.Errors != nil {
				deps.Errors.ObserveError()
			}
			writeJSON(w, http.StatusInternalServerError, assistant.ServerError())
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// logChatError logs the cause of a failed turn with whatever structure the
// error carries.
func logChatError(ctx context.Context, err error) {
	attrs := []any{"error", err}
	var apiErr *services.Error
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "service", apiErr.Service, "status", apiErr.StatusCode)
	}
	if oe, ok := oops.AsOops(err); ok {
		attrs = append(attrs, "detail", oe)
	}
	slog.ErrorContext(ctx, "chat turn failed", attrs...)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// CORS allows browser calls from origins. An empty list disables CORS
// headers entirely.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAny = true
		}
		if o != "" {
			allowed[o] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAny || allowed[origin]) {
				h := w.Header()
				if allowAny {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
