package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Rejections    *prometheus.CounterVec
	StoreErrors   prometheus.Counter
	FallbackState prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "siappa_ratelimit_rejections_total",
			Help: "Requests refused by the per-IP rate limit, by endpoint class",
		}, []string{"class"}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "siappa_ratelimit_store_errors_total",
			Help: "Failed checks against the primary bucket store",
		}),
		FallbackState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "siappa_ratelimit_fallback_active",
			Help: "1 while rate limiting is served from the in-process fallback",
		}),
	}
}

func (m *Metrics) IncrementRejections(class string) {
	m.Rejections.WithLabelValues(class).Inc()
}

func (m *Metrics) IncrementStoreErrors() {
	m.StoreErrors.Inc()
}

func (m *Metrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackState.Set(1)
		return
	}
	m.FallbackState.Set(0)
}
