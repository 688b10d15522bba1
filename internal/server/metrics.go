package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server-level Prometheus collectors.
type Metrics struct {
	// CommandsTotal counts processed command lines by command keyword.
	CommandsTotal *prometheus.CounterVec

	// OpenConnections tracks currently connected clients.
	OpenConnections prometheus.Gauge

	// TruncatedReads counts reads that filled the whole buffer and may
	// have cut a command line short.
	TruncatedReads prometheus.Counter
}

// NewMetrics registers the server collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splitwise",
			Name:      "commands_total",
			Help:      "Number of command lines processed, by command keyword.",
		}, []string{"command"}),
		OpenConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "splitwise",
			Name:      "open_connections",
			Help:      "Number of currently open client connections.",
		}),
		TruncatedReads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "splitwise",
			Name:      "truncated_reads_total",
			Help:      "Number of reads that filled the buffer and may have truncated a command.",
		}),
	}
}
