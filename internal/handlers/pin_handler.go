package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/pins/backend/internal/service"
	"github.com/anonto42/pins/backend/pkg/api"
)

// PinHandler serves the pin.* procedures except pin.infinite and pin.like.
type PinHandler struct {
	pins *service.PinService
}

// NewPinHandler creates a new PinHandler
func NewPinHandler(pins *service.PinService) *PinHandler {
	return &PinHandler{pins: pins}
}

// RegisterPinRoutes registers the pin procedures. mutation middleware is
// applied to the mutations only.
func (h *PinHandler) RegisterPinRoutes(g *echo.Group, mutation ...echo.MiddlewareFunc) {
	g.GET("/"+api.ProcPinAll, h.All)
	g.GET("/"+api.ProcPinByID, h.ByID)
	g.GET("/"+api.ProcPinByCommunity, h.ByCommunity)
	g.GET("/"+api.ProcPinByUser, h.ByUser)
	g.POST("/"+api.ProcPinCreate, h.Create, mutation...)
	g.POST("/"+api.ProcPinDelete, h.Delete, mutation...)
	g.POST("/"+api.ProcPinComment, h.Comment, mutation...)
}

func (h *PinHandler) All(c echo.Context) error {
	var in api.EmptyInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	pins, err := h.pins.All(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, pins)
}

// ByID answers null for an unknown id.
func (h *PinHandler) ByID(c echo.Context) error {
	var in api.IDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	pin, err := h.pins.ByID(c.Request().Context(), in.ID)
	if err != nil {
		return err
	}
	return ok(c, pin)
}

func (h *PinHandler) ByCommunity(c echo.Context) error {
	var in api.CommunityIDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	pins, err := h.pins.ByCommunity(c.Request().Context(), in.CommunityID)
	if err != nil {
		return err
	}
	return ok(c, pins)
}

func (h *PinHandler) ByUser(c echo.Context) error {
	var in api.UserIDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	pins, err := h.pins.ByUser(c.Request().Context(), in.UserID)
	if err != nil {
		return err
	}
	return ok(c, pins)
}

func (h *PinHandler) Create(c echo.Context) error {
	var in api.CreatePinInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	pin, err := h.pins.Create(c.Request().Context(), caller(c), in)
	if err != nil {
		return err
	}
	return ok(c, pin)
}

func (h *PinHandler) Delete(c echo.Context) error {
	var in api.IDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	pin, err := h.pins.Delete(c.Request().Context(), caller(c), in.ID)
	if err != nil {
		return err
	}
	return ok(c, pin)
}

func (h *PinHandler) Comment(c echo.Context) error {
	var in api.CommentInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	comment, err := h.pins.Comment(c.Request().Context(), caller(c), in)
	if err != nil {
		return err
	}
	return ok(c, comment)
}
