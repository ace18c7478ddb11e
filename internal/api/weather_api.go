package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"weather-service/internal/entity"
	"weather-service/internal/service"
)

type WeatherHandler struct {
	weatherService *service.WeatherService
}

// NewWeatherHandler creates a new instance of WeatherHandler
func NewWeatherHandler(weatherService *service.WeatherService) *WeatherHandler {
	return &WeatherHandler{weatherService: weatherService}
}

// CreateWeather adds a record --> POST /api/weather
func (h *WeatherHandler) CreateWeather(c echo.Context) error {
	record := entity.WeatherRecord{}
	if err := c.Bind(&record); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := h.weatherService.CreateWeather(c.Request().Context(), &record); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "weather data added successfully"})
}

// UpdateWeather changes the record for a city and date --> PUT /api/weather
func (h *WeatherHandler) UpdateWeather(c echo.Context) error {
	record := entity.WeatherRecord{}
	if err := c.Bind(&record); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if err := h.weatherService.UpdateWeather(c.Request().Context(), &record); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "weather data updated successfully"})
}

// QueryWeather lists records by city and/or date --> GET /api/weather?city=&date=
func (h *WeatherHandler) QueryWeather(c echo.Context) error {
	filter := entity.WeatherFilter{}
	if err := c.Bind(&filter); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid query parameters"})
	}

	records, err := h.weatherService.QueryWeather(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, records)
}
