package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/pins/backend/internal/service"
	"github.com/anonto42/pins/backend/pkg/api"
)

// CommentHandler serves the comment.* procedures
type CommentHandler struct {
	pins *service.PinService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(pins *service.PinService) *CommentHandler {
	return &CommentHandler{pins: pins}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.GET("/"+api.ProcCommentByPinID, h.GetCommentsByPinID)
}

func (h *CommentHandler) GetCommentsByPinID(c echo.Context) error {
	var in api.PinIDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	comments, err := h.pins.CommentsByPin(c.Request().Context(), in.PinID)
	if err != nil {
		return err
	}
	return ok(c, comments)
}
