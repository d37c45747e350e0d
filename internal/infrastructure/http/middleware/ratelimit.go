package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/harvestchef/harvest/pkg/errors"
)

// RateLimitConfig allows Requests per Window for each client.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter decides whether a client key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a sliding-window limiter shared by every API replica.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	config RateLimitConfig
}

// NewRedisLimiter creates a limiter storing one sorted set per client.
func NewRedisLimiter(client redis.UniversalClient, prefix string, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix + "rate_limit:", config: config}
}

// Allow records the request and reports whether it fits in the window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	windowStart := now.Add(-l.config.Window)
	redisKey := l.prefix + key

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	count := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, redisKey, 2*l.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	// count excludes the request just added
	seen := int(count.Val()) + 1
	return Decision{
		Allowed:   seen <= l.config.Requests,
		Limit:     l.config.Requests,
		Remaining: max(l.config.Requests-seen, 0),
		Reset:     now.Add(l.config.Window),
	}, nil
}

// LocalLimiter is a per-process token bucket per client.
type LocalLimiter struct {
	config  RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// maxBuckets bounds memory; idle buckets are swept once it is reached.
const maxBuckets = 10000

// NewLocalLimiter creates an in-memory limiter refilling Requests tokens per Window.
func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{config: config, buckets: make(map[string]*bucket)}
}

// Allow takes a token from the client's bucket.
func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := time.Now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxBuckets {
			l.sweep(now)
		}
		every := l.config.Window / time.Duration(l.config.Requests)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), l.config.Requests)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	allowed := b.limiter.AllowN(now, 1)
	return Decision{
		Allowed:   allowed,
		Limit:     l.config.Requests,
		Remaining: max(int(b.limiter.TokensAt(now)), 0),
		Reset:     now.Add(l.config.Window / time.Duration(l.config.Requests)),
	}, nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.config.Window {
			delete(l.buckets, key)
		}
	}
}

// RateLimit rejects clients over their budget with 429. Limiter failures
// let the request through. A nil limiter disables the middleware.
func RateLimit(limiter Limiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			decision, err := limiter.Allow(r.Context(), "ip:"+ip)
			if err != nil {
				logger.Error("Rate limit check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

			if !decision.Allowed {
				retryAfter := time.Until(decision.Reset).Round(time.Second)
				if retryAfter < time.Second {
					retryAfter = time.Second
				}

				logger.Warn("Rate limit exceeded",
					zap.String("ip", ip),
					zap.String("path", r.URL.Path),
					zap.String("user_agent", r.UserAgent()),
				)

				appErr := errors.NewTooManyRequestsError(retryAfter)
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				writeError(w, r, appErr.StatusCode(), appErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port that RemoteAddr carries unless RealIP rewrote it.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
