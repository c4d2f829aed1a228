// Package service enforces per-IP sliding-window budgets on the public
// endpoints. When a fallback is configured, a circuit breaker routes checks
// to it while the primary bucket store is failing.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"siappa/internal/ratelimit/metrics"
	"siappa/internal/ratelimit/models"
	dErrors "siappa/pkg/domain-errors"
	"siappa/pkg/platform/circuit"
	"siappa/pkg/requestcontext"
)

type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Service struct {
	primary  BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	limits   map[models.EndpointClass]models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
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

// WithFallback serves checks from fallback while breaker is open.
func WithFallback(fallback BucketStore, breaker *circuit.Breaker) Option {
	return func(s *Service) {
		s.fallback = fallback
		s.breaker = breaker
	}
}

// WithClock overrides time.Now for Retry-After computation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(primary BucketStore, limits map[models.EndpointClass]models.Limit, opts ...Option) (*Service, error) {
	if primary == nil {
		return nil, fmt.Errorf("bucket store is required")
	}
	for class, l := range limits {
		if !class.IsValid() {
			return nil, fmt.Errorf("unknown endpoint class %q", class)
		}
		if _, err := models.NewLimit(l.RequestsPerWindow, l.Window); err != nil {
			return nil, fmt.Errorf("limit for %s: %w", class, err)
		}
	}
	s := &Service{
		primary: primary,
		limits:  limits,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if (s.fallback == nil) != (s.breaker == nil) {
		return nil, fmt.Errorf("fallback store and circuit breaker must be configured together")
	}
	return s, nil
}

// CheckIP counts one request from ip against class. An unconfigured class
// is always allowed.
func (s *Service) CheckIP(ctx context.Context, ip string, class models.EndpointClass) (*models.RateLimitResult, error) {
	limit, ok := s.limits[class]
	if !ok {
		return &models.RateLimitResult{Allowed: true}, nil
	}

	result, err := s.allow(ctx, models.NewIPKey(class, ip), limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rate limit check failed")
	}
	result.Limit = limit.RequestsPerWindow
	if !result.Allowed {
		result.RetryAfter = retryAfterSeconds(result.ResetAt, s.now())
		if s.metrics != nil {
			s.metrics.IncrementRejections(string(class))
		}
		s.logger.InfoContext(ctx, "rate limit exceeded",
			"request_id", requestcontext.RequestID(ctx),
			"class", class,
			"retry_after", result.RetryAfter,
		)
	}
	return result, nil
}

func (s *Service) allow(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, error) {
	result, err := s.primary.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
	if s.breaker == nil {
		return result, err
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementStoreErrors()
		}
		useFallback, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "rate limit store failing, switching to in-process fallback",
				"breaker", s.breaker.Name(),
				"error", err,
			)
			s.setFallbackActive(true)
		}
		if !useFallback {
			return nil, err
		}
		return s.fromFallback(ctx, key, limit)
	}

	usePrimary, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.logger.InfoContext(ctx, "rate limit store recovered", "breaker", s.breaker.Name())
		s.setFallbackActive(false)
	}
	if !usePrimary {
		return s.fromFallback(ctx, key, limit)
	}
	return result, nil
}

func (s *Service) fromFallback(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, error) {
	result, err := s.fallback.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
	if err != nil {
		return nil, err
	}
	result.Degraded = true
	return result, nil
}

func (s *Service) setFallbackActive(active bool) {
	if s.metrics != nil {
		s.metrics.SetFallbackActive(active)
	}
}

func retryAfterSeconds(resetAt, now time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	return max(secs, 1)
}
