package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Resolutions *prometheus.CounterVec
}

// New registers the identity collectors on the default registry. Call it once per process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "siappa_identity_resolutions_total",
			Help: "Principal resolutions by outcome role",
		}, []string{"role"}),
	}
}

func (m *Metrics) IncrementResolution(role string) {
	m.Resolutions.WithLabelValues(role).Inc()
}
