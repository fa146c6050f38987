package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for RequestsTotal.
const (
	ResultSuccess     = "success"
	ResultClientError = "client_error"
	ResultConflict    = "conflict"
	ResultServerError = "server_error"
)

// Metrics provides observability for the self-registration module.
// Tracks registration outcomes and the latency of the gateway call.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	GatewayDuration prometheus.Histogram
}

// New creates the self-registration metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_selfreg_requests_total",
			Help: "Total number of lite self-registration requests by result",
		}, []string{"result"}),
		GatewayDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "credo_selfreg_gateway_duration_seconds",
			Help:    "Duration of registration gateway calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementResult records one finished registration request.
func (m *Metrics) IncrementResult(result string) {
	m.RequestsTotal.WithLabelValues(result).Inc()
}

// ObserveGateway records the duration of a gateway call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGateway(start time.Time) {
	m.GatewayDuration.Observe(time.Since(start).Seconds())
}
