package bucket

import (
	"context"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"selfreg/internal/ratelimit/models"
)

// TokenBucketStore keeps one token bucket per key. Buckets that stay idle for
// the configured TTL are evicted, so a scan of random IPs cannot grow memory
// without bound.
type TokenBucketStore struct {
	buckets *cache.Cache
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type Option func(*TokenBucketStore)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenBucketStore) {
		s.now = now
	}
}

// New creates a store refilling rps tokens per second up to burst.
func New(rps float64, burst int, idleTTL time.Duration, opts ...Option) *TokenBucketStore {
	if burst < 1 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	s := &TokenBucketStore{
		buckets: cache.New(idleTTL, idleTTL/2),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow takes one token from the bucket for key.
func (s *TokenBucketStore) Allow(_ context.Context, key string) (*models.Result, error) {
	now := s.now()
	lim := s.bucket(key)

	result := &models.Result{Limit: s.burst}
	if lim.AllowN(now, 1) {
		result.Allowed = true
		result.Remaining = int(math.Floor(lim.TokensAt(now)))
		result.ResetAt = now.Add(s.refillDuration(float64(s.burst) - lim.TokensAt(now)))
		return result, nil
	}

	missing := 1 - lim.TokensAt(now)
	wait := s.refillDuration(missing)
	result.ResetAt = now.Add(wait)
	result.RetryAfter = int(math.Ceil(wait.Seconds()))
	if result.RetryAfter < 1 {
		result.RetryAfter = 1
	}
	return result, nil
}

// Len reports the number of live buckets.
func (s *TokenBucketStore) Len() int {
	return s.buckets.ItemCount()
}

func (s *TokenBucketStore) bucket(key string) *rate.Limiter {
	if v, ok := s.buckets.Get(key); ok {
		s.buckets.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(s.limit, s.burst)
	if err := s.buckets.Add(key, lim, cache.DefaultExpiration); err != nil {
		// lost the race to another request for the same key
		if v, ok := s.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func (s *TokenBucketStore) refillDuration(tokens float64) time.Duration {
	if tokens <= 0 || s.limit <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(s.limit) * float64(time.Second))
}
