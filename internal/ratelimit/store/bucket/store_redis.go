package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"siappa/internal/ratelimit/models"
)

// slidingWindowScript trims, counts and conditionally records in one round
// trip so concurrent replicas cannot both take the last slot.
// Returns {allowed, count, reset_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// Redis keeps one sorted set of request timestamps per key.
type Redis struct {
	client redis.UniversalClient
	now    func() time.Time
}

type RedisOption func(*Redis)

// WithRedisClock overrides time.Now.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *Redis) {
		s.now = now
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	s := &Redis{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow records one request against key when it fits in the window.
func (s *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	res, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("sliding window %s: %w", key, err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("sliding window %s: unexpected reply length %d", key, len(res))
	}
	return &models.RateLimitResult{
		Allowed:   res[0] == 1,
		Limit:     limit,
		Remaining: max(limit-int(res[1]), 0),
		ResetAt:   time.UnixMilli(res[2]),
	}, nil
}
