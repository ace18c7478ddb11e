package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"weather-service/internal/service"
)

// respondError writes err as {"error": ...} with the status of its kind.
func respondError(c echo.Context, err error) error {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		logger.Error().Err(err).Msg("Unclassified error")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
	return c.JSON(statusOf(err), map[string]string{"error": svcErr.Message})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
