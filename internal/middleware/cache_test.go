package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/config"
)

func TestCacheKeyGroupsAndQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "tb", KeyStrategy: "route_query"}
	key := func(target string) string {
		return cacheKey(cfg, "tours", httptest.NewRequest(http.MethodGet, target, nil))
	}

	a, b := key("/api/v1/tours?page=1"), key("/api/v1/tours?page=2")
	if a == b {
		t.Fatal("different queries share a cache key")
	}
	if a != key("/api/v1/tours?page=1") {
		t.Fatal("cache key is not stable")
	}
	if !strings.HasPrefix(a, "tb:tours:") {
		t.Errorf("key %q is not filed under its group", a)
	}
	if key("/api/v1/tours/1") == key("/api/v1/tours/2") {
		t.Fatal("different tours share a cache key")
	}

	cfg.KeyStrategy = "route"
	if key("/api/v1/tours?page=1") != key("/api/v1/tours?page=2") {
		t.Error("route strategy must ignore the query")
	}
}

func TestReplayRestoresResponse(t *testing.T) {
	c := newCtx(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
	e := cachedResponse{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": {"application/json"}, "Content-Length": {"999"}},
		Body:   []byte(`{"status":"success"}`),
	}
	if err := replay(c, e); err != nil {
		t.Fatal(err)
	}
	rec := c.Response().Writer.(*httptest.ResponseRecorder)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"success"}` {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "HIT" || rec.Header().Get("Content-Length") != "" {
		t.Errorf("headers = %v", rec.Header())
	}
}

func TestReplayKeepsPerRequestHeaders(t *testing.T) {
	c := newCtx(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
	h := c.Response().Header()
	h.Set(echo.HeaderXRequestID, "current")
	h.Set("X-RateLimit-Remaining", "41")
	h.Set(echo.HeaderContentType, "text/plain")

	e := cachedResponse{
		Status: http.StatusOK,
		Header: http.Header{
			"Content-Type":          {"application/json"},
			"X-Request-Id":          {"original"},
			"X-Ratelimit-Remaining": {"99"},
			"X-Ratelimit-Limit":     {"100"},
		},
		Body: []byte(`{}`),
	}
	if err := replay(c, e); err != nil {
		t.Fatal(err)
	}
	got := c.Response().Writer.(*httptest.ResponseRecorder).Header()
	tests := []struct {
		key  string
		want []string
	}{
		{echo.HeaderXRequestID, []string{"current"}},
		{"X-RateLimit-Remaining", []string{"41"}},
		{"X-RateLimit-Limit", nil},
		{echo.HeaderContentType, []string{"application/json"}},
	}
	for _, tt := range tests {
		if vs := got.Values(tt.key); strings.Join(vs, "|") != strings.Join(tt.want, "|") {
			t.Errorf("%s = %q, want %q", tt.key, vs, tt.want)
		}
	}
}

func TestStoredHeaderDropsPerRequestValues(t *testing.T) {
	h := http.Header{}
	h.Set(echo.HeaderContentType, "application/json")
	h.Set(echo.HeaderXRequestID, "abc")
	h.Set(echo.HeaderRetryAfter, "36")
	h.Set("X-Cache", "MISS")
	h.Set("X-RateLimit-Key", "ip:1.2.3.4")

	out := storedHeader(h)
	if len(out) != 1 || out.Get(echo.HeaderContentType) != "application/json" {
		t.Errorf("stored %v, want only Content-Type", out)
	}
	if h.Get(echo.HeaderXRequestID) != "abc" {
		t.Error("storedHeader modified the live header")
	}
}

func TestBodyRecorderLimit(t *testing.T) {
	rec := &bodyRecorder{ResponseWriter: httptest.NewRecorder(), limit: 8}
	_, _ = rec.Write([]byte("12345"))
	if rec.tooLarge || rec.buf.String() != "12345" {
		t.Fatalf("recorded %q, tooLarge = %v", rec.buf.String(), rec.tooLarge)
	}
	_, _ = rec.Write([]byte("6789"))
	if !rec.tooLarge {
		t.Error("body over the limit still cacheable")
	}
}

func TestCacheDisabledPassesThrough(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil, "tours")
	c := newCtx(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
	var called bool
	if err := mw(reached(&called))(c); err != nil || !called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
	if c.Response().Header().Get("X-Cache") != "" {
		t.Error("disabled cache set X-Cache")
	}

	if err := NewCachePurger(config.CacheConfig{Enabled: true}, nil).Purge(context.Background(), "tours"); err != nil {
		t.Errorf("Purge without redis: %v", err)
	}
}
