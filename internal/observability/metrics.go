package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Session states used as the "state" label of the sessions gauge.
const (
	StatePending       = "pending"
	StateAuthenticated = "authenticated"
)

// Command outcomes used as the "outcome" label of the commands counter.
const (
	OutcomeOK           = "ok"
	OutcomeUnknownVerb  = "unknown_verb"
	OutcomeBadArguments = "bad_arguments"
	OutcomeError        = "error"
)

// Metrics holds the Prometheus collectors for the game server.
// Each Metrics owns its registry so independent servers (and tests) never collide.
type Metrics struct {
	registry *prometheus.Registry

	Sessions        *prometheus.GaugeVec
	Connections     prometheus.Counter
	Logins          *prometheus.CounterVec
	Commands        *prometheus.CounterVec
	EventsDelivered prometheus.Counter
	EventsSkipped   prometheus.Counter
	QueueDepth      prometheus.Gauge
	TickDuration    prometheus.Histogram
}

// NewMetrics creates and registers the server collectors on a private registry.
//
// Postcondition: Returns a Metrics whose collectors are all registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "verbmud_sessions",
			Help: "Live sessions by authentication state.",
		}, []string{"state"}),
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verbmud_connections_total",
			Help: "Connections accepted since server start.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verbmud_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verbmud_commands_total",
			Help: "Command lines processed by outcome.",
		}, []string{"outcome"}),
		EventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verbmud_event_messages_delivered_total",
			Help: "Queued messages written to a recipient session.",
		}),
		EventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verbmud_event_messages_skipped_total",
			Help: "Queued messages whose recipient was absent or unreachable.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "verbmud_event_queue_depth",
			Help: "Events waiting in the event queue after the last tick.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "verbmud_tick_duration_seconds",
			Help:    "Wall time spent in one scheduler tick.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	m.registry.MustRegister(
		m.Sessions,
		m.Connections,
		m.Logins,
		m.Commands,
		m.EventsDelivered,
		m.EventsSkipped,
		m.QueueDepth,
		m.TickDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler exposing the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
