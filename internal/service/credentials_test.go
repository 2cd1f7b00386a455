package service

import (
	"net/http"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/tour-booking/internal/model"
)

func TestSetPassword(t *testing.T) {
	now := time.Date(2024, 2, 2, 10, 0, 0, 900_000_000, time.UTC)
	creds := Credentials{Cost: bcrypt.MinCost}

	t.Run("mismatch", func(t *testing.T) {
		var u model.User
		err := creds.SetPassword(&u, "pass1234", "pass4321", false, now)
		wantStatus(t, err, http.StatusBadRequest)
		if u.PasswordHash != "" {
			t.Error("hash must stay empty on validation failure")
		}
	})

	t.Run("new user keeps nil change time", func(t *testing.T) {
		var u model.User
		if err := creds.SetPassword(&u, "pass1234", "pass1234", true, now); err != nil {
			t.Fatal(err)
		}
		if u.PasswordChangedAt != nil {
			t.Error("PasswordChangedAt must be nil for a new user")
		}
		if !creds.Check(u, "pass1234") {
			t.Error("Check must accept the new password")
		}
	})

	t.Run("existing user records the next whole second", func(t *testing.T) {
		var u model.User
		if err := creds.SetPassword(&u, "pass1234", "pass1234", false, now); err != nil {
			t.Fatal(err)
		}
		want := time.Date(2024, 2, 2, 10, 0, 1, 0, time.UTC)
		if u.PasswordChangedAt == nil || !u.PasswordChangedAt.Equal(want) {
			t.Errorf("PasswordChangedAt = %v, want %v", u.PasswordChangedAt, want)
		}
	})
}
