package handler

import (
	"net/http"
	"strconv"
	"time"

	"agrointel-service/internal/weather"
	"agrointel-service/pkg/logger"
	"agrointel-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Forecast returns the reduced weather summary for a location
func Forecast(c echo.Context) error {
	log := logger.FromContext(c)

	lat, err := strconv.ParseFloat(c.QueryParam("latitude"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "latitude must be between -90 and 90"})
	}
	lon, err := strconv.ParseFloat(c.QueryParam("longitude"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "longitude must be between -180 and 180"})
	}

	defer prometheus.TrackExternalCall("weather")(time.Now())
	summary, err := weather.Get().Fetch(c.Request().Context(), lat, lon)
	if err != nil {
		log.Error("Weather fetch failed", zap.Error(err), zap.Float64("lat", lat), zap.Float64("lon", lon))
		prometheus.RecordUpstreamError("weather")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to fetch weather data"})
	}

	return c.JSON(http.StatusOK, summary)
}
