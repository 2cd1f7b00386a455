package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/config"
)

func TestRateKeyPerClientIP(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.7")
	if got := rateKey(cfg, newCtx(req)); got != "rl:ip:203.0.113.7" {
		t.Errorf("rateKey = %q", got)
	}
}

func TestTokenBucketWithoutRedisAdmits(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, zap.NewNop())
	for i := 0; i < 3; i++ {
		c := newCtx(httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil))
		var called bool
		if err := mw(reached(&called))(c); err != nil || !called {
			t.Fatalf("request %d: err = %v, called = %v", i, err, called)
		}
	}
}
