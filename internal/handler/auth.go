package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/config"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg  config.Config
	Auth *service.AuthService
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth}
}

// ----- DTOs -----

type signupReq struct {
	Name            string `json:"name" form:"name" validate:"required,max=100"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" form:"passwordConfirm" validate:"required"`
}
type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}
type forgotReq struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}
type resetReq struct {
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}
type updatePasswordReq struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// sendSession sets the jwt cookie and answers with the token and user.
func (h *AuthHandler) sendSession(c echo.Context, code int, s service.Session) error {
	setSessionCookie(c, s.Token.Token, time.Now().Add(h.Cfg.CookieTTL()), h.Cfg.IsProduction())
	return c.JSON(code, echo.Map{
		"status": "success",
		"token":  s.Token.Token,
		"data":   echo.Map{"user": s.User.Public()},
	})
}

// Signup: create user (role "user") and sign them in.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Signup(ctx, service.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusCreated, s)
}

// Login: verify credentials and issue a session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, s)
}

// Logout overwrites the session cookie with a short-lived placeholder.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearSessionCookie(c, h.Cfg.IsProduction())
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}

// ForgotPassword mails a reset link to the account owner.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	resetURL := func(token string) string {
		return fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", c.Scheme(), c.Request().Host, token)
	}
	if err := h.Auth.ForgotPassword(ctx, req.Email, resetURL); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "message": "Token sent to email!"})
}

// ResetPassword redeems the token in the path and signs the user in.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.ResetPassword(ctx, c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, s)
}

// UpdatePassword changes the password of the signed-in user.
func (h *AuthHandler) UpdatePassword(c echo.Context, me model.User) error {
	var req updatePasswordReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.UpdatePassword(ctx, me, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}
	return h.sendSession(c, http.StatusOK, s)
}
