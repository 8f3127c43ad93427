package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the assistant. Each
// Metrics owns its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	ChatTurns           *prometheus.CounterVec
	ChatErrors          prometheus.Counter
	CollaboratorCalls   *prometheus.CounterVec
	CollaboratorLatency *prometheus.HistogramVec
	DueReminders        prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry prefixed with
// namespace, so several instances can coexist in one process.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ChatTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by the rule that answered them.",
		}, []string{"rule"}),
		ChatErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_errors_total",
			Help:      "Chat turns that failed with a server error.",
		}),
		CollaboratorCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_requests_total",
			Help:      "Outbound collaborator calls by service and outcome.",
		}, []string{"service", "outcome"}),
		CollaboratorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_request_duration_seconds",
			Help:      "Latency of outbound collaborator calls.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"service"}),
		DueReminders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "due_reminders_total",
			Help:      "Reminders the scanner found due.",
		}),
	}
}

// ObserveCall records one collaborator call.
func (m *Metrics) ObserveCall(service, outcome string, elapsed time.Duration) {
	m.CollaboratorCalls.WithLabelValues(service, outcome).Inc()
	m.CollaboratorLatency.WithLabelValues(service).Observe(elapsed.Seconds())
}

// ObserveTurn records which rule answered a chat turn.
func (m *Metrics) ObserveTurn(rule string) {
	m.ChatTurns.WithLabelValues(rule).Inc()
}

// ObserveError records a failed chat turn.
func (m *Metrics) ObserveError() {
	m.ChatErrors.Inc()
}

// ObserveDue records reminders found due by the scanner.
func (m *Metrics) ObserveDue(n int) {
	m.DueReminders.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
