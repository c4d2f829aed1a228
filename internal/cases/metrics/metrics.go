package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the case module.
type Metrics struct {
	CasesCreated      prometheus.Counter
	CasesDeleted      prometheus.Counter
	TicketCollisions  prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	TrackLookups      *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers the case module collectors. Call once per process.
func New() *Metrics {
	return &Metrics{
		CasesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "siappa_cases_created_total",
			Help: "Total number of cases reported",
		}),
		CasesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "siappa_cases_deleted_total",
			Help: "Total number of cases hard-deleted",
		}),
		TicketCollisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "siappa_ticket_collisions_total",
			Help: "Ticket codes regenerated after a uniqueness violation",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "siappa_case_status_transitions_total",
			Help: "Applied status updates by source and target status",
		}, []string{"from", "to"}),
		TrackLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "siappa_case_track_lookups_total",
			Help: "Public ticket lookups by outcome",
		}, []string{"result"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "siappa_case_operation_duration_seconds",
			Help:    "Duration of case service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementCreated() {
	m.CasesCreated.Inc()
}

func (m *Metrics) IncrementDeleted() {
	m.CasesDeleted.Inc()
}

func (m *Metrics) IncrementTicketCollision() {
	m.TicketCollisions.Inc()
}

func (m *Metrics) IncrementTransition(from, to string) {
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

// IncrementTrackLookup records a public lookup outcome: found, not_found or error.
func (m *Metrics) IncrementTrackLookup(result string) {
	m.TrackLookups.WithLabelValues(result).Inc()
}

// ObserveOperation records how long operation took.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
