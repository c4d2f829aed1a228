package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siappa/internal/ratelimit/models"
	"siappa/internal/ratelimit/service"
	"siappa/internal/ratelimit/store/bucket"
	"siappa/pkg/platform/middleware/metadata"
	"siappa/pkg/testutil"
)

type failingLimiter struct{}

func (failingLimiter) CheckIP(context.Context, string, models.EndpointClass) (*models.RateLimitResult, error) {
	return nil, errors.New("store down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTrackLimited(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	return newTrackLimitedBehind(t, metadata.ClientMetadata, opts...)
}

func newTrackLimitedBehind(t *testing.T, clientIPs func(http.Handler) http.Handler, opts ...Option) http.Handler {
	t.Helper()
	svc, err := service.New(bucket.NewInMemory(), map[models.EndpointClass]models.Limit{
		models.ClassTrack: {RequestsPerWindow: 2, Window: time.Minute},
	})
	require.NoError(t, err)
	mw := New(svc, discardLogger(), opts...)
	return clientIPs(mw.RateLimit(models.ClassTrack)(okHandler()))
}

func trackRequest(t *testing.T, ip string) *http.Request {
	req := testutil.NewJSONRequest(t, http.MethodGet, "/api/laporan/lacak/TIKET-2025-ABCDEFGHJ", nil)
	req.RemoteAddr = ip + ":51234"
	return req
}

func TestRateLimit(t *testing.T) {
	h := newTrackLimited(t)

	testutil.Given(t, "a client within its budget", func(t *testing.T) {
		rr := testutil.DoRequest(h, trackRequest(t, "192.0.2.10"))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rr.Header().Get("X-RateLimit-Reset"))
	})

	testutil.When(t, "the same client exceeds the budget", func(t *testing.T) {
		testutil.DoRequest(h, trackRequest(t, "192.0.2.10"))
		rr := testutil.DoRequest(h, trackRequest(t, "192.0.2.10"))

		testutil.Then(t, "the request is refused with 429", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusTooManyRequests, "rate_limited")
			assert.NotEmpty(t, rr.Header().Get("Retry-After"))
			assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
		})
	})

	testutil.Then(t, "another client is unaffected", func(t *testing.T) {
		rr := testutil.DoRequest(h, trackRequest(t, "192.0.2.11"))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mw := New(failingLimiter{}, discardLogger())
	rr := testutil.DoRequest(mw.RateLimit(models.ClassTrack)(okHandler()), trackRequest(t, "192.0.2.10"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_Disabled(t *testing.T) {
	h := newTrackLimited(t, WithDisabled(true))
	for range 5 {
		rr := testutil.DoRequest(h, trackRequest(t, "192.0.2.10"))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimit_IgnoresSpoofedForwardedFor(t *testing.T) {
	res, err := metadata.NewIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	h := newTrackLimitedBehind(t, res.Middleware)

	testutil.When(t, "a direct caller rotates X-Forwarded-For on every request", func(t *testing.T) {
		allowed := 0
		for i := range 50 {
			req := trackRequest(t, "192.0.2.10")
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
			if testutil.DoRequest(h, req).Code == http.StatusOK {
				allowed++
			}
		}

		testutil.Then(t, "the budget of the socket peer applies", func(t *testing.T) {
			assert.Equal(t, 2, allowed)
		})
	})

	testutil.When(t, "a trusted proxy forwards distinct callers", func(t *testing.T) {
		for i := range 3 {
			req := trackRequest(t, "10.0.0.2")
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
			rr := testutil.DoRequest(h, req)

			testutil.Then(t, "each caller gets its own budget", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
			})
		}
	})
}
