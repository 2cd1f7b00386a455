package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/tour-booking/internal/config"
)

// cachedResponse is what a cache entry holds: enough to replay the
// original answer byte for byte.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body into buf until limit is exceeded,
// after which the response is marked too large to cache.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	tooLarge bool
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if !r.tooLarge {
		if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
			r.tooLarge = true
			r.buf.Reset()
		} else {
			r.buf.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// cacheKey is prefix:group:sha1(method, path[, query]). The group segment
// lets CachePurger drop every entry of a group by pattern.
func cacheKey(cfg config.CacheConfig, group string, r *http.Request) string {
	material := r.Method + " " + r.URL.Path
	if !strings.EqualFold(cfg.KeyStrategy, "route") {
		material += "?" + r.URL.RawQuery
	}
	return fmt.Sprintf("%s:%s:%x", cfg.Prefix, group, sha1.Sum([]byte(material)))
}

// perRequestHeaders belong to the request that produced them. They are
// never stored, and on a hit the values set for the current request stay.
var perRequestHeaders = []string{
	echo.HeaderContentLength,
	echo.HeaderXRequestID,
	echo.HeaderRetryAfter,
	"X-Cache",
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"X-RateLimit-Key",
}

func perRequest(key string) bool {
	for _, h := range perRequestHeaders {
		if strings.EqualFold(key, h) {
			return true
		}
	}
	return false
}

// storedHeader copies h without the per-request headers.
func storedHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, vs := range h {
		if !perRequest(k) {
			out[k] = append([]string(nil), vs...)
		}
	}
	return out
}

// replay writes a cached entry to the client. Stored headers replace any
// the handler chain already set, except the per-request ones.
func replay(c echo.Context, e cachedResponse) error {
	h := c.Response().Header()
	for k, vs := range e.Header {
		if perRequest(k) {
			continue
		}
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	h.Set("X-Cache", "HIT")
	c.Response().WriteHeader(e.Status)
	_, err := c.Response().Write(e.Body)
	return err
}

// NewRedisCache caches successful responses of the configured methods in
// Redis under group. Writes that change what the group shows must purge it
// through CachePurger.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, group string) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !cfg.Methods[req.Method] {
				return next(c)
			}
			key := cacheKey(cfg, group, req)

			if raw, err := rdb.Get(req.Context(), key).Bytes(); err == nil {
				var e cachedResponse
				if json.Unmarshal(raw, &e) == nil && e.Status != 0 {
					return replay(c, e)
				}
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK || rec.tooLarge {
				return nil
			}

			e := cachedResponse{Status: rec.status, Header: storedHeader(c.Response().Header()), Body: rec.buf.Bytes()}
			if raw, err := json.Marshal(e); err == nil {
				// the request context may already be done once the body is sent
				_ = rdb.Set(context.Background(), key, raw, ttl).Err()
			}
			return nil
		}
	}
}

// CachePurger deletes every cached response of a group. A nil client makes
// it a no-op.
type CachePurger struct {
	rdb    *redis.Client
	prefix string
}

func NewCachePurger(cfg config.CacheConfig, rdb *redis.Client) *CachePurger {
	if !cfg.Enabled {
		rdb = nil
	}
	return &CachePurger{rdb: rdb, prefix: cfg.Prefix}
}

// Purge scans prefix:group:* and deletes the matches in batches.
func (p *CachePurger) Purge(ctx context.Context, group string) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	iter := p.rdb.Scan(ctx, 0, fmt.Sprintf("%s:%s:*", p.prefix, group), 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := p.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return p.rdb.Del(ctx, batch...).Err()
	}
	return nil
}
