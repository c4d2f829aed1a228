package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	GetLastResponseStatus() int
	GetLastResponseHeader(key string) string
}

// RegisterSteps registers per-IP rate limiting steps for the public tracking endpoint
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}
	ctx.Step(`^I look up the ticket "([^"]*)" (\d+) times$`, steps.lookUpNTimes)
	ctx.Step(`^every lookup before the limit should return (\d+)$`, steps.earlierLookupsReturned)
	ctx.Step(`^the response header "([^"]*)" should be present$`, steps.headerPresent)
}

type ratelimitSteps struct {
	tc       TestContext
	statuses []int
}

func (s *ratelimitSteps) lookUpNTimes(ctx context.Context, ticket string, n int) error {
	s.statuses = s.statuses[:0]
	for range n {
		if err := s.tc.GET("/api/laporan/lacak/" + ticket); err != nil {
			return err
		}
		s.statuses = append(s.statuses, s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *ratelimitSteps) earlierLookupsReturned(ctx context.Context, want int) error {
	if len(s.statuses) < 2 {
		return fmt.Errorf("need at least two lookups, got %d", len(s.statuses))
	}
	for i, got := range s.statuses[:len(s.statuses)-1] {
		if got != want {
			return fmt.Errorf("lookup %d returned %d, want %d", i+1, got, want)
		}
	}
	return nil
}

func (s *ratelimitSteps) headerPresent(ctx context.Context, key string) error {
	if s.tc.GetLastResponseHeader(key) == "" {
		return fmt.Errorf("response has no %s header", key)
	}
	return nil
}
