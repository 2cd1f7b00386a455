package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestSessionTokenRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)
	s := NewSessionTokens("secret", time.Hour).WithClock(fixedClock(now))

	tok, err := s.Issue(42, time.Time{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := s.Verify(tok.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if !claims.IssuedAt.Equal(now.Truncate(time.Second)) {
		t.Errorf("IssuedAt = %v, want %v", claims.IssuedAt, now.Truncate(time.Second))
	}
}

func TestSessionTokenExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionTokens("secret", time.Minute).WithClock(fixedClock(now))
	tok, err := s.Issue(7, time.Time{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	s.WithClock(fixedClock(now.Add(2 * time.Minute)))
	if _, err := s.Verify(tok.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify after expiry: err = %v, want ErrTokenExpired", err)
	}
}

func TestSessionTokenNotBefore(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	changed := now.Add(3 * time.Second)
	s := NewSessionTokens("secret", time.Hour).WithClock(fixedClock(now))

	tok, err := s.Issue(1, changed)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.IssuedAt.Before(changed) {
		t.Errorf("IssuedAt %v earlier than notBefore %v", tok.IssuedAt, changed)
	}
}

func TestSessionTokenInvalid(t *testing.T) {
	now := time.Now()
	s := NewSessionTokens("secret", time.Hour).WithClock(fixedClock(now))
	good, err := s.Issue(1, time.Time{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewSessionTokens("other-secret", time.Hour).WithClock(fixedClock(now))
	forged, _ := other.Issue(1, time.Time{})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	missingSub, _ := noSub.SignedString([]byte("secret"))
	// same claims as a foreign token, signature lifted from the good one
	spliceSignature := func(payloadFrom, sigFrom string) string {
		p, s := strings.Split(payloadFrom, "."), strings.Split(sigFrom, ".")
		return p[0] + "." + p[1] + "." + s[2]
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", forged.Token},
		{"alg none", unsigned},
		{"missing subject", missingSub},
		{"tampered payload", spliceSignature(missingSub, good.Token)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Verify(tt.raw); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("Verify: err = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
