package models

import (
	"time"

	dErrors "siappa/pkg/domain-errors"
)

// EndpointClass groups anonymous endpoints that share a per-IP budget.
type EndpointClass string

const (
	// ClassReport covers public case submission.
	ClassReport EndpointClass = "report"
	// ClassTrack covers public ticket lookups, the brute-force guessing surface.
	ClassTrack EndpointClass = "track"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassReport, ClassTrack:
		return true
	}
	return false
}

// Limit is a sliding-window request budget.
type Limit struct {
	RequestsPerWindow int
	Window            time.Duration
}

// NewLimit validates a budget.
func NewLimit(requests int, window time.Duration) (Limit, error) {
	if requests <= 0 {
		return Limit{}, dErrors.New(dErrors.CodeInvariantViolation, "requests per window must be positive")
	}
	if window <= 0 {
		return Limit{}, dErrors.New(dErrors.CodeInvariantViolation, "window must be positive")
	}
	return Limit{RequestsPerWindow: requests, Window: window}, nil
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
	// Degraded is set when the answer came from the in-process fallback.
	Degraded bool `json:"-"`
}
