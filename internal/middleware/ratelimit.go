package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/rizqapp/rizq-server/internal/config"
)

// Limiter answers whether one more request under key is within budget.
// retryAfter is only meaningful when ok is false.
type Limiter interface {
	Allow(ctx context.Context, key string) (ok bool, retryAfter time.Duration, err error)
}

// MemoryLimiter is a sliding-window limiter keeping per-key request
// timestamps in process.  Suitable for single-instance deployments; with
// several replicas each instance enforces its own budget.
type MemoryLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewMemoryLimiter returns a limiter allowing max requests per window.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:    max,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a hit when under budget.  Timestamps older than the window
// are dropped on every call, which also bounds memory per key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.hits[key] = kept
		retry := kept[0].Add(l.window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return false, retry, nil
	}

	l.hits[key] = append(kept, now)
	return true, 0, nil
}

// redisLimiterScript is a token bucket evaluated atomically in Redis: state
// lives in a hash per key, refilled in whole intervals since the last
// refill.  Shared across instances.
var redisLimiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, retry_after_ms }
`)

// RedisLimiter is a token-bucket limiter with shared state in Redis.  The
// bucket refills back to capacity once per window, which approximates the
// same max-per-window budget the memory limiter enforces.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

// NewRedisLimiter returns a limiter allowing max requests per window,
// counted in Redis.
func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: max, window: window}
}

// Allow runs the bucket script.  Errors are returned so the middleware can
// decide whether to fail open.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	args := []interface{}{
		time.Now().UnixMilli(),
		l.max,
		l.max,
		l.window.Milliseconds(),
		int64(2 * l.window / time.Second),
	}
	vals, err := redisLimiterScript.Run(ctx, l.rdb, []string{key}, args...).Result()
	if err != nil {
		return false, 0, err
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 2 {
		return true, 0, nil
	}
	allowed, _ := arr[0].(int64)
	retryMs, _ := arr[1].(int64)
	return allowed == 1, time.Duration(retryMs) * time.Millisecond, nil
}

// NewLimiter picks the backend from configuration.  When Redis is
// requested but unavailable, the in-process limiter is used so budgets
// degrade instead of disappearing.
func NewLimiter(cfg config.RateLimitConfig, max int, rdb *redis.Client) Limiter {
	if cfg.Backend == "redis" && rdb != nil {
		return NewRedisLimiter(rdb, max, cfg.Window)
	}
	return NewMemoryLimiter(max, cfg.Window)
}

// KeyFunc derives the budget key for a request: the identifier whose
// budget the route spends (tutor id, phone, lesson id).
type KeyFunc func(c echo.Context) string

// RateLimit wraps a route with a limiter.  A missing key skips the check;
// a limiter error fails open, since losing Redis must not take booking
// down with it.
func RateLimit(limiter Limiter, prefix string, key KeyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := key(c)
			if k == "" {
				return next(c)
			}
			ok, retry, err := limiter.Allow(c.Request().Context(), prefix+":"+k)
			if err != nil {
				c.Logger().Warnf("rate limiter unavailable for key=%s: %v", k, err)
				return next(c)
			}
			if !ok {
				secs := int(retry / time.Second)
				if retry%time.Second > 0 {
					secs++
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}
