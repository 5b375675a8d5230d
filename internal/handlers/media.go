package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/storage"
)

// MediaHandler streams stored images for backends without a public URL.
type MediaHandler struct {
	store storage.ObjectStore
}

func NewMediaHandler(store storage.ObjectStore) *MediaHandler {
	return &MediaHandler{store: store}
}

func (h *MediaHandler) RegisterMediaRoutes(e *echo.Echo) {
	e.GET("/media/*", h.Serve)
}

// Serve writes the object under the wildcard path. Objects are content
// addressed, so responses are cacheable forever.
func (h *MediaHandler) Serve(c echo.Context) error {
	publicID := c.Param("*")
	if !storage.ValidPublicID(publicID) {
		return domainerrors.NotFound("media not found")
	}

	rc, obj, err := h.store.Open(c.Request().Context(), publicID)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return domainerrors.NotFound("media not found")
		}
		return domainerrors.Upstream(err, "media unavailable")
	}
	defer rc.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderCacheControl, "public, max-age=31536000, immutable")
	if obj.Size > 0 {
		header.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	}
	return c.Stream(http.StatusOK, obj.ContentType, rc)
}
