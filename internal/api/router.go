package api

import (
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"weather-service/internal/docs"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "api").Logger()

// NewRouter builds the echo instance with every route and middleware.
func NewRouter(userHandler *UserHandler, weatherHandler *WeatherHandler, healthHandler *HealthHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := logger.Info()
			if v.Error != nil {
				evt = logger.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))

	// Routes
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", userHandler.Register)
	auth.POST("/login", userHandler.Login)
	auth.PUT("/update", userHandler.Update)
	auth.DELETE("/delete/:email", userHandler.Delete)

	api.POST("/weather", weatherHandler.CreateWeather)
	api.PUT("/weather", weatherHandler.UpdateWeather)
	api.GET("/weather", weatherHandler.QueryWeather)

	api.GET("/health", healthHandler.Health)

	// Docs: bundled Swagger UI against the embedded description
	e.GET("/api-docs", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/api-docs/index.html")
	})
	e.GET("/api-docs/swagger.json", func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, docs.SwaggerJSON)
	})
	e.GET("/api-docs/*", echoSwagger.EchoWrapHandler(echoSwagger.URL("/api-docs/swagger.json")))

	return e
}
