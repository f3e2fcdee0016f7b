package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LedgerTransitions       *prometheus.CounterVec
	NotificationsSuppressed *prometheus.CounterVec

	RealtimePublished   *prometheus.CounterVec
	RealtimeDropped     *prometheus.CounterVec
	RealtimeConnections prometheus.Gauge
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process metrics, registering them on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "nano_social",
					Name:      "http_requests_total",
					Help:      "HTTP requests by method, route and status",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "nano_social",
					Name:      "http_request_duration_seconds",
					Help:      "HTTP request latency",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"method", "route"},
			),
			LedgerTransitions: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "nano_social",
					Subsystem: "notifications",
					Name:      "ledger_transitions_total",
					Help:      "Saved ledger changes by alert type and transition",
				},
				[]string{"alert_type", "transition"},
			),
			NotificationsSuppressed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "nano_social",
					Subsystem: "notifications",
					Name:      "self_suppressed_total",
					Help:      "Events dropped because the actor owns the subject",
				},
				[]string{"kind"},
			),
			RealtimePublished: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "nano_social",
					Subsystem: "realtime",
					Name:      "published_total",
					Help:      "Realtime events published by topic",
				},
				[]string{"topic"},
			),
			RealtimeDropped: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "nano_social",
					Subsystem: "realtime",
					Name:      "dropped_total",
					Help:      "Realtime events dropped by reason",
				},
				[]string{"reason"},
			),
			RealtimeConnections: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "nano_social",
					Subsystem: "realtime",
					Name:      "connections",
					Help:      "Open websocket connections",
				},
			),
		}
	})
	return instance
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
