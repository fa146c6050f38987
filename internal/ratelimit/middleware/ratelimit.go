package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"selfreg/internal/ratelimit/metrics"
	"selfreg/internal/ratelimit/models"
	"selfreg/internal/ratelimit/observability"
	"selfreg/pkg/platform/audit"
	"selfreg/pkg/platform/httputil"
	"selfreg/pkg/requestcontext"
)

// CodeRateLimited is the error code returned with 429 responses.
const CodeRateLimited = "RATE_LIMITED"

type RateLimiter interface {
	Allow(ctx context.Context, key string) (*models.Result, error)
}

type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditor  observability.AuditPublisher
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func WithAuditPublisher(publisher observability.AuditPublisher) Option {
	return func(m *Middleware) {
		m.auditor = publisher
	}
}

func New(limiter RateLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.limiter == nil {
		m.disabled = true
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimitIP limits requests per client IP as recorded by the metadata
// middleware. Limiter errors fail open.
func (m *Middleware) RateLimitIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.limiter.Allow(ctx, models.NewIPKey(ip))
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check IP rate limit", "error", err)
			if m.metrics != nil {
				m.metrics.IncrementCheckErrors()
			}
			next.ServeHTTP(w, r)
			return
		}

		// headers go out regardless of outcome
		addRateLimitHeaders(w, result)

		if !result.Allowed {
			if m.metrics != nil {
				m.metrics.IncrementRateLimited()
			}
			observability.LogAudit(ctx, m.logger, m.auditor, audit.EventRateLimitExceeded,
				"ip", ip,
				"reason", "ip_rate_limit",
			)
			writeRateLimitExceeded(w, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteErrorBody(w, http.StatusTooManyRequests, CodeRateLimited,
		"Too many registration attempts from this IP address. Please try again later.")
}
