package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports liveness and database reachability --> /api/health
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	database := "up"
	if err := h.db.PingContext(ctx); err != nil {
		logger.Warn().Err(err).Msg("Database ping failed")
		database = "down"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"service":  "weather-service",
		"database": database,
		"time":     time.Now().Format(time.RFC3339),
	})
}
