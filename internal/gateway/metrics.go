package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks gateway-level counters on a private registry so tests can
// run gateways side by side without collisions.
type Metrics struct {
	registry    *prometheus.Registry
	invocations *prometheus.CounterVec
	denials     prometheus.Counter
}

// NewMetrics creates the counter set with its backing registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return &Metrics{
		registry: reg,
		invocations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "botman",
			Name:      "invocations_total",
			Help:      "Manager invocations by action and outcome.",
		}, []string{"action", "outcome"}),
		denials: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "botman",
			Name:      "access_denied_total",
			Help:      "Invocations rejected by secret or source IP validation.",
		}),
	}
}

// RecordInvocation counts one completed invocation.
func (m *Metrics) RecordInvocation(action, outcome string) {
	m.invocations.WithLabelValues(action, outcome).Inc()
}

// RecordAccessDenied counts one rejected invocation.
func (m *Metrics) RecordAccessDenied() {
	m.denials.Inc()
}
