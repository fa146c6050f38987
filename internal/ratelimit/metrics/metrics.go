package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitedTotal prometheus.Counter
	CheckErrorsTotal prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "credo_selfreg_rate_limited_total",
			Help: "Total number of registration requests rejected by the per-IP rate limit",
		}),
		CheckErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "credo_selfreg_rate_limit_check_errors_total",
			Help: "Total number of rate limit checks that failed and were let through",
		}),
	}
}

func (m *Metrics) IncrementRateLimited() {
	m.RateLimitedTotal.Inc()
}

func (m *Metrics) IncrementCheckErrors() {
	m.CheckErrorsTotal.Inc()
}
