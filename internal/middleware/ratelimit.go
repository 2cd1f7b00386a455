package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/config"
)

// takeScript refills the bucket stored at KEYS[1] for the whole intervals
// elapsed since its last refill, then tries to take one token.
// ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_seconds.
// Returns {allowed (0|1), tokens left, ms until the next refill}.
var takeScript = redis.NewScript(`
local now, cap, refill, every, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last_ms'))
if tokens == nil or last == nil then
    tokens, last = cap, now
end
local n = math.floor(math.max(0, now - last) / every)
if n > 0 then
    tokens = math.min(cap, tokens + n * refill)
    last = last + n * every
end
local allowed = 0
if tokens > 0 then
    allowed, tokens = 1, tokens - 1
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_ms', last)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, math.max(0, every - (now - last))}
`)

// bucketResult is the outcome of one take.
type bucketResult struct {
	Allowed   bool
	Remaining int64
	RetryIn   time.Duration
}

// tokenBucket is a Redis-backed bucket shared by every instance.
type tokenBucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
}

func (b tokenBucket) take(ctx context.Context, key string, now time.Time) (bucketResult, error) {
	vals, err := takeScript.Run(ctx, b.rdb, []string{key},
		now.UnixMilli(), b.cfg.Capacity, b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(), int64(b.cfg.TTL/time.Second)).Int64Slice()
	if err != nil {
		return bucketResult{}, err
	}
	if len(vals) != 3 {
		return bucketResult{}, fmt.Errorf("unexpected script result %v", vals)
	}
	return bucketResult{
		Allowed:   vals[0] == 1,
		Remaining: vals[1],
		RetryIn:   time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// NewTokenBucket limits each client to cfg.Capacity requests, refilled by
// cfg.RefillTokens every cfg.RefillInterval. With no Redis client, or on a
// Redis error, the request is let through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	bucket := tokenBucket{cfg: cfg, rdb: rdb}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			res, err := bucket.take(c.Request().Context(), key, time.Now())
			if err != nil {
				logger.Warn("rate limit unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res.Allowed {
				return next(c)
			}

			secs := int(math.Ceil(res.RetryIn.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			logger.Debug("rate limited", zap.String("key", key), zap.Int("retry_after", secs))
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"status":      "fail",
				"message":     "Too many requests from this IP, please try again in an hour!",
				"retry_after": secs,
			})
		}
	}
}

// rateKey names the bucket of a request. The limiter runs before any
// session guard, so clients are told apart by IP only.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return cfg.Prefix + ":ip:" + ip
}
