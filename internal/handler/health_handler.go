package handler

import (
	"net/http"

	"agrointel-service/internal/advisor"
	"agrointel-service/internal/classifier"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports service status and which optional dependencies
// are available.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":             "healthy",
		"service":            "agrointel-service",
		"version":            "2.0.0",
		"model_loaded":       classifier.Loaded(),
		"advisor_configured": advisor.Get().Configured(),
		"weather_provider":   "open-meteo",
	})
}
