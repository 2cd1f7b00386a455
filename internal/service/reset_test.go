package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/iliyamo/tour-booking/internal/model"
)

func TestResetTokenRedeemOnce(t *testing.T) {
	users := newMemUsers()
	ctx := context.Background()
	id, _ := users.Create(ctx, model.User{Email: "r@example.com", Name: "R"})
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewResetTokens(users, 0)
	r.Now = c.Now

	if r.TTL != DefaultResetTTL {
		t.Fatalf("TTL = %v, want default %v", r.TTL, DefaultResetTTL)
	}
	raw, err := r.Issue(ctx, users.get(id))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	u, err := r.Redeem(ctx, raw)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if u.ID != id {
		t.Fatalf("redeemed user %d, want %d", u.ID, id)
	}

	// the password write clears the token; it cannot be used again
	if err := users.SavePassword(ctx, id, "hash", nil); err != nil {
		t.Fatal(err)
	}
	_, err = r.Redeem(ctx, raw)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestResetTokenExpired(t *testing.T) {
	users := newMemUsers()
	ctx := context.Background()
	id, _ := users.Create(ctx, model.User{Email: "e@example.com", Name: "E"})
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := NewResetTokens(users, 10*time.Minute)
	r.Now = c.Now

	raw, err := r.Issue(ctx, users.get(id))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	c.advance(10*time.Minute + time.Second)
	_, err = r.Redeem(ctx, raw)
	wantStatus(t, err, http.StatusBadRequest)
}

func TestResetTokenUnknownAndEmpty(t *testing.T) {
	r := NewResetTokens(newMemUsers(), time.Minute)
	for _, raw := range []string{"", "deadbeef"} {
		_, err := r.Redeem(context.Background(), raw)
		wantStatus(t, err, http.StatusBadRequest)
	}
}
