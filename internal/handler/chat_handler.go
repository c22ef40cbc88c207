package handler

import (
	"net/http"
	"time"

	"agrointel-service/internal/advisor"
	"agrointel-service/internal/classifier"
	"agrointel-service/internal/middleware"
	"agrointel-service/internal/model"
	"agrointel-service/internal/weather"
	"agrointel-service/pkg/database"
	"agrointel-service/pkg/logger"
	"agrointel-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// chatMaxTokens bounds the assistant's reply length
const chatMaxTokens = 800

// Placeholder soil values used for per-zone crop suggestions until real
// nutrient sensors exist. Zone temperature and moisture are used when
// reported; these stand in for the rest. Known limitation: suggestions
// built from placeholders are indicative only.
const (
	proxyN        = 60.0
	proxyP        = 45.0
	proxyK        = 40.0
	proxyPH       = 6.5
	proxyRainfall = 100.0

	defaultZoneTemp     = 25.0
	defaultZoneMoisture = 60.0
)

// ChatRequest is one conversation turn. History is client-held: the
// full history must be resent every turn, nothing is persisted.
type ChatRequest struct {
	Message   string            `json:"message"`
	History   []advisor.Message `json:"history"`
	Latitude  *float64          `json:"latitude"`
	Longitude *float64          `json:"longitude"`
}

// Chat answers a conversation turn grounded on the caller's farm state
func Chat(c echo.Context) error {
	log := logger.FromContext(c)

	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse chat request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message is required"})
	}

	if !advisor.Get().Configured() {
		prometheus.RecordUpstreamError("advisor")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "advisor not configured, set DEEPSEEK_API_KEY"})
	}

	// Load the caller's farm state
	defer prometheus.TrackDBOperation("query")(time.Now())
	farmName := "Fazenda"
	areaMapped := false
	var farm model.Farm
	if result := database.GetDB().First(&farm, user.FarmID); result.Error == nil {
		farmName = farm.Name
		areaMapped = farm.Polygon != nil && *farm.Polygon != "" && *farm.Polygon != "[]"
	}

	var zones []model.SensorZone
	if result := database.GetDB().Where("farm_id = ?", user.FarmID).Order("id").Find(&zones); result.Error != nil {
		log.Error("Failed to load zones", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load farm data"})
	}

	zoneCtx := make([]advisor.ZoneContext, 0, len(zones))
	for _, z := range zones {
		zoneCtx = append(zoneCtx, advisor.ZoneContext{
			Zone:          z,
			SuggestedCrop: suggestCropForZone(&z),
		})
	}

	// Optional weather context; a provider failure degrades to a note
	// instead of failing the chat turn.
	weatherLine := ""
	if req.Latitude != nil && req.Longitude != nil {
		stopWeather := prometheus.TrackExternalCall("weather")
		summary, err := weather.Get().Fetch(c.Request().Context(), *req.Latitude, *req.Longitude)
		stopWeather(time.Now())
		if err != nil {
			log.Warn("Weather fetch for chat context failed", zap.Error(err))
			prometheus.RecordUpstreamError("weather")
			weatherLine = "  Failed to fetch weather data."
		} else {
			weatherLine = advisor.WeatherLine(summary)
		}
	}

	system := advisor.BuildChatSystemPrompt(&advisor.ChatContext{
		FarmName:    farmName,
		UserName:    user.Name,
		UserEmail:   user.Email,
		AreaMapped:  areaMapped,
		Zones:       zoneCtx,
		WeatherLine: weatherLine,
	})

	messages := make([]advisor.Message, 0, len(req.History)+2)
	messages = append(messages, advisor.Message{Role: advisor.RoleSystem, Content: system})
	messages = append(messages, req.History...)
	messages = append(messages, advisor.Message{Role: advisor.RoleUser, Content: req.Message})

	stopAdvisor := prometheus.TrackExternalCall("advisor")
	reply, err := advisor.Get().Complete(c.Request().Context(), messages, chatMaxTokens)
	stopAdvisor(time.Now())
	if err != nil {
		log.Error("Advisor call failed", zap.Error(err))
		prometheus.RecordUpstreamError("advisor")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "advisor call failed"})
	}

	updatedHistory := append(req.History,
		advisor.Message{Role: advisor.RoleUser, Content: req.Message},
		advisor.Message{Role: advisor.RoleAssistant, Content: reply},
	)

	log.Info("Chat turn answered",
		zap.Uint("farm_id", user.FarmID),
		zap.Int("history_len", len(updatedHistory)))

	return c.JSON(http.StatusOK, echo.Map{
		"reply":   reply,
		"history": updatedHistory,
	})
}

// suggestCropForZone runs the classifier with the zone's telemetry plus
// placeholder nutrient values.
func suggestCropForZone(z *model.SensorZone) string {
	if !classifier.Loaded() {
		return "unavailable"
	}

	temp := defaultZoneTemp
	if z.Temp != 0 {
		temp = float64(z.Temp)
	}
	moisture := defaultZoneMoisture
	if z.Moisture != 0 {
		moisture = float64(z.Moisture)
	}

	label, err := classifier.Get().Predict([]float64{proxyN, proxyP, proxyK, temp, moisture, proxyPH, proxyRainfall})
	if err != nil {
		return "unavailable"
	}
	return classifier.DisplayName(label)
}
