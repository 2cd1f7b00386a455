package service

import (
	"time"
	"unicode/utf8"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/utils"
)

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 8

// Credentials hashes and replaces user passwords.
type Credentials struct {
	Cost int
}

// SetPassword checks plain against confirm and, when they match, stores a
// fresh hash on u. For an existing user PasswordChangedAt is set to the
// whole second after now: JWT iat values carry whole seconds, so every token
// issued before the change, including earlier in the same second, has an
// iat below it. New users keep a nil PasswordChangedAt.
func (c Credentials) SetPassword(u *model.User, plain, confirm string, isNew bool, now time.Time) error {
	if utf8.RuneCountInString(plain) < MinPasswordLength {
		return apperror.Validation("Password must have at least 8 characters")
	}
	if plain != confirm {
		return apperror.Validation("Passwords are not the same!")
	}
	hash, err := utils.HashPassword(plain, c.Cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if !isNew {
		changed := now.UTC().Truncate(time.Second).Add(time.Second)
		u.PasswordChangedAt = &changed
	}
	return nil
}

// Check reports whether plain matches u's stored hash.
func (c Credentials) Check(u model.User, plain string) bool {
	return utils.VerifyPassword(u.PasswordHash, plain)
}
