// Package telemetry provides Prometheus counters for the hostlink client.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every hostlink collector plus the Go runtime and process
// collectors.
var Registry = prometheus.NewRegistry()

var (
	factory = promauto.With(Registry)

	// Command metrics
	commandsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostlink_commands_total",
			Help: "Total commands received from the peer",
		},
		[]string{"command"},
	)

	unknownMessagesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "hostlink_unknown_messages_total",
			Help: "Total messages that matched no command",
		},
	)

	// Transfer metrics
	transferBytesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostlink_transfer_bytes_total",
			Help: "Total file bytes moved",
		},
		[]string{"direction"},
	)

	transfersTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostlink_transfers_total",
			Help: "Total transfers by outcome",
		},
		[]string{"direction", "status"},
	)

	transferDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hostlink_transfer_duration_seconds",
			Help:    "Transfer duration in seconds, hashing included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"direction"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler returns the Prometheus metrics HTTP handler for Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordCommand counts one parsed command by kind.
func RecordCommand(command string) {
	commandsTotal.WithLabelValues(command).Inc()
}

// RecordUnknown counts one unrecognized message.
func RecordUnknown() {
	unknownMessagesTotal.Inc()
}

// RecordTransfer records the outcome, size and duration of one transfer.
func RecordTransfer(direction, status string, bytes int64, duration time.Duration) {
	transfersTotal.WithLabelValues(direction, status).Inc()
	if bytes > 0 {
		transferBytesTotal.WithLabelValues(direction).Add(float64(bytes))
	}
	transferDuration.WithLabelValues(direction).Observe(duration.Seconds())
}
