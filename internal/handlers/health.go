package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// HealthHandler reports whether the service's databases answer.
type HealthHandler struct {
	db    *gorm.DB
	mongo *mongo.Client
}

// NewHealthHandler creates a HealthHandler. mg may be nil when no
// MongoDB is configured.
func NewHealthHandler(db *gorm.DB, mg *mongo.Client) *HealthHandler {
	return &HealthHandler{db: db, mongo: mg}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"database": "ok"}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "unreachable"
		healthy = false
	}
	if h.mongo != nil {
		checks["mongo"] = "ok"
		if err := h.mongo.Ping(ctx, nil); err != nil {
			checks["mongo"] = "unreachable"
			healthy = false
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]any{
		"status":  status,
		"service": "pins-api",
		"checks":  checks,
	})
}
