package model

import "time"

// Role is one of the fixed account roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// User mirrors a row of the `users` table. It is used internally by the
// repository and service layers and is never serialised directly; handlers
// answer with PublicUser instead.
//
// Fields:
//  PasswordHash         – bcrypt hash of the password.
//  PasswordChangedAt    – last password change, nil if never changed after signup.
//  PasswordResetToken   – sha256 hex of the outstanding reset token, nil when none.
//  PasswordResetExpires – expiry of the reset token, nil when none.
//  Active               – false once the account is soft-deleted.
type User struct {
	ID                   uint64
	Name                 string
	Email                string
	Photo                string
	Role                 Role
	PasswordHash         string
	PasswordChangedAt    *time.Time
	PasswordResetToken   *string
	PasswordResetExpires *time.Time
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ChangedPasswordAfter reports whether the password was changed after a
// session token issued at iat. Both sides compare at second precision since
// JWT timestamps carry whole seconds.
func (u User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return iat.Unix() < u.PasswordChangedAt.Unix()
}

// PublicUser is the only shape of a user that leaves the process.
type PublicUser struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo,omitempty"`
	Role  Role   `json:"role"`
}

// Public projects u onto PublicUser.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo, Role: u.Role}
}
