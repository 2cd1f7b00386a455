package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mw "github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
	"github.com/iliyamo/tour-booking/internal/service"
)

// ViewHandler renders the HTML pages.
type ViewHandler struct {
	Tours *service.TourService
	Users *service.UserService
}

func NewViewHandler(tours *service.TourService, users *service.UserService) *ViewHandler {
	return &ViewHandler{Tours: tours, Users: users}
}

// page builds template data; User is set when the request is signed in.
func page(c echo.Context, title string, kv ...any) echo.Map {
	data := echo.Map{"Title": title}
	if u, ok := mw.CurrentUser(c); ok {
		data["User"] = u.Public()
	}
	for i := 0; i+1 < len(kv); i += 2 {
		data[kv[i].(string)] = kv[i+1]
	}
	return data
}

// Overview lists all tours.
func (h *ViewHandler) Overview(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	tours, _, err := h.Tours.List(ctx, repository.TourQuery{Page: 1, Limit: 100})
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "overview", page(c, "All Tours", "Tours", tours))
}

// Tour shows one tour by slug.
func (h *ViewHandler) Tour(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tours.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "tour", page(c, t.Name+" Tour", "Tour", t))
}

// Login shows the login form.
func (h *ViewHandler) Login(c echo.Context) error {
	return c.Render(http.StatusOK, "login", page(c, "Log into your account"))
}

// Account shows the signed-in user's settings.
func (h *ViewHandler) Account(c echo.Context, me model.User) error {
	return c.Render(http.StatusOK, "account", page(c, "Your account"))
}

type userDataForm struct {
	Name  string `form:"name"`
	Email string `form:"email" validate:"required,email"`
}

// SubmitUserData updates name and email from the account form.
func (h *ViewHandler) SubmitUserData(c echo.Context, me model.User) error {
	var f userDataForm
	if err := bindAndValidate(c, &f); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.UpdateMe(ctx, me, service.UpdateMeInput{Name: &f.Name, Email: &f.Email})
	if err != nil {
		return err
	}
	mw.SetUser(c, u)
	return c.Render(http.StatusOK, "account", page(c, "Your account"))
}
