package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/pins/backend/internal/service"
	"github.com/anonto42/pins/backend/pkg/api"
)

// LikeHandler serves the like toggle
type LikeHandler struct {
	pins *service.PinService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(pins *service.PinService) *LikeHandler {
	return &LikeHandler{pins: pins}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, mutation ...echo.MiddlewareFunc) {
	g.POST("/"+api.ProcPinLike, h.ToggleLike, mutation...)
}

// ToggleLike likes the pin for the caller, or unlikes it when the caller
// already likes it.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	var in api.IDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	res, err := h.pins.Like(c.Request().Context(), caller(c), in.ID)
	if err != nil {
		return err
	}
	return ok(c, res)
}
