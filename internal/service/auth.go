package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/utils"
)

// Messages surfaced by the access guard.
const (
	MsgNotLoggedIn    = "You are not logged in! Please log in to get access."
	MsgInvalidToken   = "Invalid token. Please log in again!"
	MsgExpiredToken   = "Your token has expired! Please log in again."
	MsgUserGone       = "The user belonging to this token does no longer exist."
	MsgPasswordChange = "User recently changed password! Please log in again."
)

// AuthService implements signup, login, password management and session
// token verification.
type AuthService struct {
	Users  UserStore
	Resets *ResetTokens
	Tokens *utils.SessionTokens
	Creds  Credentials
	Mailer ResetMailer
	Logger *zap.Logger
	Now    func() time.Time
}

// Session is a signed-in user together with a fresh session token.
type Session struct {
	User  model.User
	Token utils.SessionToken
}

// SignupInput carries the fields accepted at signup. Role is not among
// them; every new account starts as a plain user.
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IssueFor mints a session token for u. The token's iat is never earlier
// than u's last password change.
func (s *AuthService) IssueFor(u model.User) (Session, error) {
	var notBefore time.Time
	if u.PasswordChangedAt != nil {
		notBefore = *u.PasswordChangedAt
	}
	tok, err := s.Tokens.Issue(u.ID, notBefore)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok}, nil
}

// Signup creates a user with role "user" and signs them in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (Session, error) {
	u := model.User{
		Name:   strings.TrimSpace(in.Name),
		Email:  strings.ToLower(strings.TrimSpace(in.Email)),
		Role:   model.RoleUser,
		Photo:  "default.jpg",
		Active: true,
	}
	if u.Name == "" || u.Email == "" {
		return Session{}, apperror.Validation("Please provide your name and email")
	}
	if err := s.Creds.SetPassword(&u, in.Password, in.PasswordConfirm, true, s.now()); err != nil {
		return Session{}, err
	}
	id, err := s.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, apperror.Wrap(http.StatusBadRequest, "Duplicate field value: "+u.Email+". Please use another value!", err)
		}
		return Session{}, err
	}
	u.ID = id
	return s.IssueFor(u)
}

// Login checks email and password and signs the user in.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, apperror.Validation("Please provide email and password!")
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Session{}, err
	}
	if err != nil || !s.Creds.Check(u, password) {
		return Session{}, apperror.Authentication("Incorrect email or password")
	}
	return s.IssueFor(u)
}

// ForgotPassword issues a reset token for the account at email and mails
// resetURL(token) to it. If the mail cannot be sent the token is cleared
// again before the error is returned.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("There is no user with email address.")
	}
	if err != nil {
		return err
	}

	raw, err := s.Resets.Issue(ctx, u)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendPasswordReset(u.Email, u.Name, resetURL(raw), s.Resets.TTL); err != nil {
		if cerr := s.Resets.Clear(ctx, u.ID); cerr != nil {
			s.Logger.Error("clear reset token after mail failure", zap.Uint64("user_id", u.ID), zap.Error(cerr))
		}
		s.Logger.Error("send reset email", zap.Uint64("user_id", u.ID), zap.Error(err))
		return apperror.Wrap(http.StatusInternalServerError, "There was an error sending the email. Try again later!", err)
	}
	return nil
}

// ResetPassword redeems a reset token, sets the new password and signs the
// user in. The token is cleared by the same write that stores the hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) (Session, error) {
	u, err := s.Resets.Redeem(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if err := s.Creds.SetPassword(&u, password, confirm, false, s.now()); err != nil {
		return Session{}, err
	}
	if err := s.Users.SavePassword(ctx, u.ID, u.PasswordHash, u.PasswordChangedAt); err != nil {
		return Session{}, err
	}
	u.PasswordResetToken, u.PasswordResetExpires = nil, nil
	return s.IssueFor(u)
}

// UpdatePassword changes the password of an authenticated user after
// checking the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, me model.User, current, password, confirm string) (Session, error) {
	u, err := s.Users.GetByID(ctx, me.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, apperror.Authentication(MsgUserGone)
		}
		return Session{}, err
	}
	if !s.Creds.Check(u, current) {
		return Session{}, apperror.Authentication("Your current password is wrong.")
	}
	if err := s.Creds.SetPassword(&u, password, confirm, false, s.now()); err != nil {
		return Session{}, err
	}
	if err := s.Users.SavePassword(ctx, u.ID, u.PasswordHash, u.PasswordChangedAt); err != nil {
		return Session{}, err
	}
	return s.IssueFor(u)
}

// Authenticate resolves a raw session token to its user. Every failure is a
// 401 AppError whose message names the failing step.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.User, error) {
	if raw == "" {
		return model.User{}, apperror.Authentication(MsgNotLoggedIn)
	}
	claims, err := s.Tokens.Verify(raw)
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return model.User{}, apperror.Authentication(MsgExpiredToken)
	case err != nil:
		return model.User{}, apperror.Authentication(MsgInvalidToken)
	}

	u, err := s.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, apperror.Authentication(MsgUserGone)
	}
	if err != nil {
		return model.User{}, err
	}
	if u.ChangedPasswordAfter(claims.IssuedAt) {
		return model.User{}, apperror.Authentication(MsgPasswordChange)
	}
	return u, nil
}
