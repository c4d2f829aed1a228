// Package publisher emits case events with fail-closed semantics: when the
// event cannot be persisted the caller's operation must fail and roll back.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "siappa/pkg/domain"
	audit "siappa/pkg/platform/audit"
	"siappa/pkg/requestcontext"
)

// Metrics tracks event emission.
type Metrics struct {
	emitted  *prometheus.CounterVec
	failures prometheus.Counter
	latency  prometheus.Histogram
}

// NewMetrics registers the publisher collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "siappa_case_events_emitted_total",
			Help: "Case events persisted, by action",
		}, []string{"action"}),
		failures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "siappa_case_events_failed_total",
			Help: "Case events that could not be persisted",
		}),
		latency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "siappa_case_event_append_duration_seconds",
			Help:    "Latency of case event persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// Publisher writes case events synchronously.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit validates and persists event. The request ID and timestamp are filled
// from ctx when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.CaseEvent) error {
	if event.CaseID.IsNil() {
		return fmt.Errorf("case event requires CaseID")
	}
	if !event.Action.IsValid() {
		return fmt.Errorf("case event has unknown action %q", event.Action)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	start := time.Now()
	err := p.store.Append(ctx, event)
	if p.metrics != nil {
		p.metrics.latency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.failures.Inc()
		}
		p.logger.ErrorContext(ctx, "failed to persist case event",
			"request_id", event.RequestID,
			"case_id", event.CaseID.String(),
			"action", string(event.Action),
			"error", err,
		)
		return fmt.Errorf("persist case event: %w", err)
	}
	if p.metrics != nil {
		p.metrics.emitted.WithLabelValues(string(event.Action)).Inc()
	}
	return nil
}

// History returns a case's events oldest first.
func (p *Publisher) History(ctx context.Context, caseID id.CaseID) ([]audit.CaseEvent, error) {
	return p.store.ListByCase(ctx, caseID)
}
