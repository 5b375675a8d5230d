package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/pins/backend/internal/service"
	"github.com/anonto42/pins/backend/pkg/api"
)

// UserHandler handles user profile procedures
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers the user procedures. protected middleware
// is applied to user.byId only.
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group, protected ...echo.MiddlewareFunc) {
	g.GET("/"+api.ProcUserByID, h.GetProfile, protected...)
	g.GET("/"+api.ProcUserPins, h.GetUserPins)
}

// GetProfile returns a user with pin, like and comment counts
func (h *UserHandler) GetProfile(c echo.Context) error {
	var in api.IDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	profile, err := h.users.ByID(c.Request().Context(), caller(c), in.ID)
	if err != nil {
		return err
	}
	return ok(c, profile)
}

// GetUserPins returns the user's pins, newest first
func (h *UserHandler) GetUserPins(c echo.Context) error {
	var in api.UserIDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	pins, err := h.users.Pins(c.Request().Context(), in.UserID)
	if err != nil {
		return err
	}
	return ok(c, pins)
}
