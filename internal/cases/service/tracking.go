package service

import (
	"context"
	"errors"
	"log/slog"

	"siappa/internal/cases/metrics"
	"siappa/internal/cases/models"
	catalog "siappa/internal/catalog/models"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/requestcontext"
)

// TicketStore is the read the tracker needs.
type TicketStore interface {
	FindByTicket(ctx context.Context, code string) (*models.Case, error)
}

// CategoryLookup resolves a case's category for display.
type CategoryLookup interface {
	Category(ctx context.Context, categoryID id.CategoryID) (*catalog.Category, error)
}

// Tracker answers anonymous ticket lookups. It never returns anything a
// ticket holder should not see, and it answers malformed, unknown and deleted
// tickets with the same NotFound.
type Tracker struct {
	store      TicketStore
	categories CategoryLookup
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type TrackerOption func(*Tracker)

func WithTrackerLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithTrackerMetrics(m *metrics.Metrics) TrackerOption {
	return func(t *Tracker) {
		t.metrics = m
	}
}

func NewTracker(store TicketStore, categories CategoryLookup, opts ...TrackerOption) *Tracker {
	t := &Tracker{store: store, categories: categories, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrackByTicket returns the public view of the case holding code.
func (t *Tracker) TrackByTicket(ctx context.Context, code string) (*models.PublicCaseView, error) {
	ctx, span := tracer.Start(ctx, "cases.TrackByTicket")
	defer span.End()

	code = models.NormalizeTicket(code)
	if !models.IsWellFormedTicket(code) {
		t.record("not_found")
		return nil, errTicketNotFound()
	}

	c, err := t.store.FindByTicket(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			t.record("not_found")
			return nil, errTicketNotFound()
		}
		t.record("error")
		span.RecordError(err)
		t.logger.ErrorContext(ctx, "ticket lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.New(dErrors.CodeInternal, "lookup failed")
	}

	category := models.CategoryRef{ID: c.CategoryID}
	if cat, err := t.categories.Category(ctx, c.CategoryID); err == nil {
		category.Group = string(cat.Group)
		category.Name = cat.Name
	} else {
		t.logger.WarnContext(ctx, "category lookup failed for tracked case",
			"request_id", requestcontext.RequestID(ctx),
			"category_id", int(c.CategoryID),
			"error", err,
		)
	}

	t.record("found")
	return models.NewPublicView(c, category), nil
}

func (t *Tracker) record(result string) {
	if t.metrics != nil {
		t.metrics.IncrementTrackLookup(result)
	}
}

func errTicketNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "ticket not found")
}
