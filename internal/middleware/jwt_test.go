package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/apperror"
	"github.com/iliyamo/tour-booking/internal/model"
)

// stubAuth accepts exactly one token.
type stubAuth struct {
	valid string
	user  model.User
	seen  []string
}

func (s *stubAuth) Authenticate(_ context.Context, raw string) (model.User, error) {
	s.seen = append(s.seen, raw)
	if raw == "" {
		return model.User{}, apperror.Authentication("You are not logged in! Please log in to get access.")
	}
	if raw != s.valid {
		return model.User{}, apperror.Authentication("Invalid token. Please log in again!")
	}
	return s.user, nil
}

func newCtx(req *http.Request) echo.Context {
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func reached(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.NoContent(http.StatusOK)
	}
}

func TestProtect(t *testing.T) {
	alice := model.User{ID: 7, Name: "Alice", Role: model.RoleUser}

	tests := []struct {
		name   string
		header string
		cookie string
		wantOK bool
	}{
		{"bearer", "Bearer good", "", true},
		{"cookie", "", "good", true},
		{"bearer wins over cookie", "Bearer good", "bad", true},
		{"bad bearer", "Bearer bad", "good", false},
		{"missing", "", "", false},
		{"not a bearer scheme", "Basic good", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &stubAuth{valid: "good", user: alice}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			c := newCtx(req)

			var called bool
			err := Protect(auth)(reached(&called))(c)
			if tt.wantOK {
				if err != nil || !called {
					t.Fatalf("err = %v, called = %v", err, called)
				}
				if u, ok := CurrentUser(c); !ok || u.ID != alice.ID {
					t.Errorf("CurrentUser = %+v, %v", u, ok)
				}
				return
			}
			ae, ok := apperror.As(err)
			if !ok || ae.StatusCode != http.StatusUnauthorized {
				t.Fatalf("err = %v, want 401", err)
			}
			if called {
				t.Error("handler ran for a rejected request")
			}
		})
	}
}

func TestIsLoggedInNeverRejects(t *testing.T) {
	auth := &stubAuth{valid: "good", user: model.User{ID: 3}}

	for _, cookie := range []string{"", "bad", "good"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
		}
		c := newCtx(req)
		var called bool
		if err := IsLoggedIn(auth)(reached(&called))(c); err != nil || !called {
			t.Fatalf("cookie %q: err = %v, called = %v", cookie, err, called)
		}
		_, ok := CurrentUser(c)
		if ok != (cookie == "good") {
			t.Errorf("cookie %q: identity set = %v", cookie, ok)
		}
	}
	if len(auth.seen) != 2 {
		t.Errorf("Authenticate called %d times, want 2 (skipped without a token)", len(auth.seen))
	}
}

func TestRestrictTo(t *testing.T) {
	tests := []struct {
		name   string
		user   *model.User
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &model.User{ID: 1, Role: model.RoleUser}, http.StatusForbidden},
		{"lead guide", &model.User{ID: 2, Role: model.RoleLeadGuide}, 0},
		{"admin", &model.User{ID: 3, Role: model.RoleAdmin}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCtx(httptest.NewRequest(http.MethodPost, "/api/v1/tours", nil))
			if tt.user != nil {
				SetUser(c, *tt.user)
			}
			var called bool
			err := RestrictTo(model.RoleAdmin, model.RoleLeadGuide)(reached(&called))(c)
			if tt.status == 0 {
				if err != nil || !called {
					t.Fatalf("err = %v, called = %v", err, called)
				}
				return
			}
			var ae *apperror.AppError
			if !errors.As(err, &ae) || ae.StatusCode != tt.status {
				t.Fatalf("err = %v, want %d", err, tt.status)
			}
			if called {
				t.Error("handler ran for a rejected request")
			}
		})
	}
}
