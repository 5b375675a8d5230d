package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/anonto42/pins/backend/internal/service"
	"github.com/anonto42/pins/backend/pkg/api"
)

type CommunityHandler struct {
	communities *service.CommunityService
}

func NewCommunityHandler(communities *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{communities: communities}
}

func (h *CommunityHandler) RegisterCommunityRoutes(g *echo.Group) {
	g.GET("/"+api.ProcCommunityAll, h.All)
	g.GET("/"+api.ProcCommunityByID, h.ByID)
	g.GET("/"+api.ProcCommunityByName, h.ByName)
}

func (h *CommunityHandler) All(c echo.Context) error {
	var in api.EmptyInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	communities, err := h.communities.All(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, communities)
}

func (h *CommunityHandler) ByID(c echo.Context) error {
	var in api.IDInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	community, err := h.communities.ByID(c.Request().Context(), in.ID)
	if err != nil {
		return err
	}
	return ok(c, community)
}

func (h *CommunityHandler) ByName(c echo.Context) error {
	var in api.NameInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	community, err := h.communities.ByName(c.Request().Context(), in.Name)
	if err != nil {
		return err
	}
	return ok(c, community)
}
