// Package service implements the case repository operations: intake, scoped
// reads, lifecycle updates and deletion. Every mutation appends a case event
// inside the same transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"siappa/internal/cases/metrics"
	"siappa/internal/cases/models"
	catalog "siappa/internal/catalog/models"
	identity "siappa/internal/identity/models"
	id "siappa/pkg/domain"
	dErrors "siappa/pkg/domain-errors"
	audit "siappa/pkg/platform/audit"
	"siappa/pkg/platform/sentinel"
	"siappa/pkg/platform/tx"
	"siappa/pkg/requestcontext"
)

// maxTicketAttempts bounds ticket regeneration after a uniqueness violation.
const maxTicketAttempts = 3

var tracer = otel.Tracer("siappa/internal/cases/service")

// Store is the case persistence port. See the store package for the error contract.
type Store interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	FindByTicket(ctx context.Context, code string) (*models.Case, error)
	List(ctx context.Context, scope identity.Scope, filter models.ListFilter) ([]*models.Case, error)
	CountByStatus(ctx context.Context, scope identity.Scope) (map[models.Status]int, error)
	Execute(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error, mutate func(*models.Case)) (*models.Case, error)
	Delete(ctx context.Context, caseID id.CaseID, validate func(*models.Case) error) (*models.Case, error)
}

// Catalog resolves the reference data a report points at.
type Catalog interface {
	Category(ctx context.Context, categoryID id.CategoryID) (*catalog.Category, error)
	ResolveVillage(ctx context.Context, name string) (*catalog.Village, error)
}

// EventLog records case history.
type EventLog interface {
	Emit(ctx context.Context, event audit.CaseEvent) error
	History(ctx context.Context, caseID id.CaseID) ([]audit.CaseEvent, error)
}

// Service owns every case mutation.
type Service struct {
	store   Store
	catalog Catalog
	events  EventLog
	tx      tx.Runner
	tickets models.TicketGenerator
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTicketGenerator replaces the crypto/rand ticket source.
func WithTicketGenerator(gen models.TicketGenerator) Option {
	return func(s *Service) {
		s.tickets = gen
	}
}

// WithTicketLocation takes ticket years in loc instead of UTC.
func WithTicketLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.tickets = models.NewTicketGenerator(nil, loc)
	}
}

func New(store Store, catalog Catalog, events EventLog, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		events:  events,
		tx:      runner,
		tickets: models.NewTicketGenerator(nil, nil),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates a public report, issues its ticket and stores it as Pending.
func (s *Service) Create(ctx context.Context, in models.CreateInput) (*models.Case, error) {
	ctx, span := tracer.Start(ctx, "cases.Create")
	defer span.End()
	defer s.observe("create", time.Now())

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	reporterStatus, err := models.ParseReporterStatus(in.ReporterStatus)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.Category(ctx, in.CategoryID); err != nil {
		return nil, referenceErr(err, "category_id")
	}
	village, err := s.catalog.ResolveVillage(ctx, in.IncidentLocation)
	if err != nil {
		return nil, referenceErr(err, "incident_location")
	}

	now := requestcontext.Now(ctx)
	c := &models.Case{
		CategoryID:       in.CategoryID,
		ReporterStatus:   reporterStatus,
		ReporterName:     in.ReporterName,
		IsAnonymous:      in.IsAnonymous,
		ReporterContact:  in.ReporterContact,
		VillageID:        village.ID,
		IncidentLocation: village.Name,
		Chronology:       in.Chronology,
		Status:           models.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.EvidenceRef != "" {
		ref := in.EvidenceRef
		c.EvidenceRef = &ref
	}

	for attempt := 1; attempt <= maxTicketAttempts; attempt++ {
		code, err := s.tickets(now)
		if err != nil {
			return nil, s.fail(ctx, span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue ticket"))
		}
		c.ID = id.NewCaseID()
		c.TicketCode = code

		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.store.Create(ctx, c); err != nil {
				return err
			}
			return s.events.Emit(ctx, newEvent(c, audit.ActionCaseCreated, "", identity.Principal{}))
		})
		if err == nil {
			if s.metrics != nil {
				s.metrics.IncrementCreated()
			}
			span.SetAttributes(attribute.String("case.ticket", c.TicketCode))
			s.logger.InfoContext(ctx, "case created",
				"request_id", requestcontext.RequestID(ctx),
				"case_id", c.ID.String(),
				"village_id", int(c.VillageID),
			)
			return c, nil
		}
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, s.fail(ctx, span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save case"))
		}
		if s.metrics != nil {
			s.metrics.IncrementTicketCollision()
		}
		s.logger.WarnContext(ctx, "ticket collision, regenerating",
			"request_id", requestcontext.RequestID(ctx),
			"attempt", attempt,
		)
	}
	return nil, s.fail(ctx, span, dErrors.New(dErrors.CodeInternal, "could not allocate a unique ticket code"))
}

// Get returns a case visible to p. Cases outside p's scope are NotFound.
func (s *Service) Get(ctx context.Context, p identity.Principal, caseID id.CaseID) (*models.Case, error) {
	ctx, span := s.start(ctx, "cases.Get", p)
	defer span.End()

	if err := p.RequireResolved(); err != nil {
		return nil, err
	}
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		return nil, s.fail(ctx, span, wrapCaseErr(err, "failed to load case"))
	}
	if !p.Scope().Permits(c.VillageID) {
		return nil, errCaseNotFound()
	}
	return c, nil
}

// GetByTicket is Get keyed by ticket code, matched case-insensitively.
func (s *Service) GetByTicket(ctx context.Context, p identity.Principal, code string) (*models.Case, error) {
	ctx, span := s.start(ctx, "cases.GetByTicket", p)
	defer span.End()

	if err := p.RequireResolved(); err != nil {
		return nil, err
	}
	code = models.NormalizeTicket(code)
	if !models.IsWellFormedTicket(code) {
		return nil, errCaseNotFound()
	}
	c, err := s.store.FindByTicket(ctx, code)
	if err != nil {
		return nil, s.fail(ctx, span, wrapCaseErr(err, "failed to load case"))
	}
	if !p.Scope().Permits(c.VillageID) {
		return nil, errCaseNotFound()
	}
	return c, nil
}

// ListForScope returns the cases p may see, newest first.
func (s *Service) ListForScope(ctx context.Context, p identity.Principal, filter models.ListFilter) ([]*models.Case, error) {
	ctx, span := s.start(ctx, "cases.ListForScope", p)
	defer span.End()
	defer s.observe("list", time.Now())

	if err := p.RequireResolved(); err != nil {
		return nil, err
	}
	cases, err := s.store.List(ctx, p.Scope(), filter)
	if err != nil {
		return nil, s.fail(ctx, span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases"))
	}
	return cases, nil
}

// UpdateStatus applies a lifecycle move. Legality is checked against the
// persisted state while the store holds the row.
func (s *Service) UpdateStatus(ctx context.Context, p identity.Principal, caseID id.CaseID, update models.StatusUpdate) (*models.Case, error) {
	ctx, span := s.start(ctx, "cases.UpdateStatus", p)
	defer span.End()
	defer s.observe("update_status", time.Now())
	span.SetAttributes(attribute.String("case.to_status", string(update.Status)))

	if err := p.RequireResolved(); err != nil {
		return nil, err
	}
	scope := p.Scope()
	now := requestcontext.Now(ctx)

	var from models.Status
	var updated *models.Case
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.store.Execute(ctx, caseID,
			func(c *models.Case) error {
				if !scope.Permits(c.VillageID) {
					return errCaseNotFound()
				}
				from = c.Status
				return c.CheckStatusUpdate(update)
			},
			func(c *models.Case) {
				c.ApplyStatusUpdate(update, now)
			},
		)
		if err != nil {
			return err
		}
		updated = c

		action := audit.ActionStatusChanged
		if from == c.Status {
			action = audit.ActionNotesUpdated
		}
		return s.events.Emit(ctx, newEvent(c, action, from, p))
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeIllegalTransition) || dErrors.HasCode(err, dErrors.CodeValidation) {
			s.logger.InfoContext(ctx, "status update rejected",
				"request_id", requestcontext.RequestID(ctx),
				"case_id", caseID.String(),
				"to_status", string(update.Status),
				"error", err,
			)
		}
		return nil, s.fail(ctx, span, wrapCaseErr(err, "failed to update case"))
	}

	if s.metrics != nil {
		s.metrics.IncrementTransition(string(from), string(updated.Status))
	}
	s.logger.InfoContext(ctx, "case status updated",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID.String(),
		"from_status", string(from),
		"to_status", string(updated.Status),
		"actor_role", p.Role.String(),
	)
	return updated, nil
}

// Delete removes a case permanently. The event log keeps a case_deleted entry.
func (s *Service) Delete(ctx context.Context, p identity.Principal, caseID id.CaseID) error {
	ctx, span := s.start(ctx, "cases.Delete", p)
	defer span.End()

	if err := p.RequireResolved(); err != nil {
		return err
	}
	scope := p.Scope()
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		deleted, err := s.store.Delete(ctx, caseID, func(c *models.Case) error {
			if !scope.Permits(c.VillageID) {
				return errCaseNotFound()
			}
			return nil
		})
		if err != nil {
			return err
		}
		return s.events.Emit(ctx, newEvent(deleted, audit.ActionCaseDeleted, deleted.Status, p))
	})
	if err != nil {
		return s.fail(ctx, span, wrapCaseErr(err, "failed to delete case"))
	}
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	s.logger.InfoContext(ctx, "case deleted",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID.String(),
		"actor_role", p.Role.String(),
	)
	return nil
}

// Stats counts the cases in p's scope per status.
func (s *Service) Stats(ctx context.Context, p identity.Principal) (models.Stats, error) {
	ctx, span := s.start(ctx, "cases.Stats", p)
	defer span.End()

	if err := p.RequireResolved(); err != nil {
		return models.Stats{}, err
	}
	counts, err := s.store.CountByStatus(ctx, p.Scope())
	if err != nil {
		return models.Stats{}, s.fail(ctx, span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count cases"))
	}
	return models.NewStats(counts), nil
}

// Dashboard loads the per-status counts and the most recent cases in parallel.
func (s *Service) Dashboard(ctx context.Context, p identity.Principal) (*models.Dashboard, error) {
	if err := p.RequireResolved(); err != nil {
		return nil, err
	}

	var out models.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.Stats(gctx, p)
		out.Stats = stats
		return err
	})
	g.Go(func() error {
		cases, err := s.ListForScope(gctx, p, models.ListFilter{})
		if len(cases) > models.DashboardRecent {
			cases = cases[:models.DashboardRecent]
		}
		out.Recent = cases
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the event log of a case visible to p, oldest first.
func (s *Service) History(ctx context.Context, p identity.Principal, caseID id.CaseID) ([]audit.CaseEvent, error) {
	ctx, span := s.start(ctx, "cases.History", p)
	defer span.End()

	if _, err := s.Get(ctx, p, caseID); err != nil {
		return nil, err
	}
	events, err := s.events.History(ctx, caseID)
	if err != nil {
		return nil, s.fail(ctx, span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case history"))
	}
	return events, nil
}

func (s *Service) start(ctx context.Context, name string, p identity.Principal) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("principal.role", p.Role.String()),
		attribute.String("principal.scope", p.Scope().String()),
	))
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}

// fail records internal errors on the span and in the log. Client errors pass through quietly.
func (s *Service) fail(ctx context.Context, span trace.Span, err error) error {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "internal error")
	s.logger.ErrorContext(ctx, "case operation failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	return err
}

func newEvent(c *models.Case, action audit.Action, from models.Status, actor identity.Principal) audit.CaseEvent {
	return audit.CaseEvent{
		CaseID:         c.ID,
		TicketCode:     c.TicketCode,
		VillageID:      c.VillageID,
		Action:         action,
		FromStatus:     string(from),
		ToStatus:       string(c.Status),
		ReferralAgency: c.ReferralAgency,
		ActorID:        actor.ID,
		ActorRole:      string(actor.Role),
	}
}

func errCaseNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "case not found")
}

// wrapCaseErr keeps domain errors raised inside store callbacks and maps store facts.
func wrapCaseErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return errCaseNotFound()
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

// referenceErr turns an unknown category or village into a validation error on field.
func referenceErr(err error, field string) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) || errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.NewValidation(field)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve "+field)
}
