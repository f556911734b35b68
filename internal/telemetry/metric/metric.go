package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	// Connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Command metrics
	CommandsTotal *prometheus.CounterVec

	// Protocol metrics
	ProtocolErrorsTotal prometheus.Counter
}

// NewRegistry creates the application metrics and registers them with reg.
// A nil reg falls back to the default registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Registry{
		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "cachelet_connections_active",
			Help: "Number of currently open client connections.",
		}),
		ConnectionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "cachelet_connections_total",
			Help: "Total number of accepted client connections.",
		}),
		CommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cachelet_commands_total",
			Help: "Total number of commands applied, by command name.",
		}, []string{"command"}),
		ProtocolErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "cachelet_protocol_errors_total",
			Help: "Total number of connections dropped for malformed input.",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
