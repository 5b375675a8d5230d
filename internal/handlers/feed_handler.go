package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/pins/backend/internal/service"
	"github.com/anonto42/pins/backend/pkg/api"
)

// FeedHandler serves the infinite pin feed
type FeedHandler struct {
	pins *service.PinService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(pins *service.PinService) *FeedHandler {
	return &FeedHandler{pins: pins}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/"+api.ProcPinInfinite, h.GetFeed)
}

// GetFeed returns one page of pins. The page starts at the cursor pin;
// nextCursor is absent on the last page.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	var in api.InfiniteInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	page, err := h.pins.Infinite(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return ok(c, page)
}
