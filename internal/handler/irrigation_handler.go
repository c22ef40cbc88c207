package handler

import (
	"net/http"
	"time"

	"agrointel-service/internal/advisor"
	"agrointel-service/internal/classifier"
	"agrointel-service/internal/weather"
	"agrointel-service/pkg/logger"
	"agrointel-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// planMaxTokens bounds the advisor's irrigation plan length
const planMaxTokens = 2000

// IrrigationRequest extends the soil parameters with the location and
// optional farmer-supplied context. When Crop is empty the classifier
// picks one.
type IrrigationRequest struct {
	SoilParams
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Crop             string   `json:"crop"`
	AreaHectares     *float64 `json:"area_hectares"`
	SoilType         string   `json:"soil_type"`
	IrrigationSystem string   `json:"irrigation_system"`
}

// Validate extends the soil checks with coordinate ranges
func (r *IrrigationRequest) Validate() error {
	if err := r.SoilParams.Validate(); err != nil {
		return err
	}
	if r.Latitude < -90 || r.Latitude > 90 {
		return errLatitudeRange
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return errLongitudeRange
	}
	return nil
}

// Irrigate produces a full irrigation recommendation: live forecast,
// crop (supplied or predicted) and an advisor-written plan.
func Irrigate(c echo.Context) error {
	log := logger.FromContext(c)

	var req IrrigationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse irrigation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	// Configuration precondition, checked before doing any work
	if !advisor.Get().Configured() {
		prometheus.RecordUpstreamError("advisor")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "advisor not configured, set DEEPSEEK_API_KEY"})
	}

	response, status, err := buildIrrigationPlan(c, &req)
	if err != nil {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, response)
}

// FullAnalysis combines crop prediction and the irrigation plan in one
// call; the predicted crop feeds the plan.
func FullAnalysis(c echo.Context) error {
	log := logger.FromContext(c)

	var req IrrigationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse analysis request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	if !advisor.Get().Configured() {
		prometheus.RecordUpstreamError("advisor")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "advisor not configured, set DEEPSEEK_API_KEY"})
	}

	prometheus.PredictionCounter.Inc()
	prediction, err := classifier.Get().Classify(req.Features())
	if err != nil {
		log.Error("Prediction failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "prediction failed"})
	}

	req.Crop = prediction.CropDisplay
	irrigation, status, err := buildIrrigationPlan(c, &req)
	if err != nil {
		return c.JSON(status, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"prediction": prediction,
		"irrigation": irrigation,
	})
}

// buildIrrigationPlan runs the weather fetch, optional crop prediction
// and the advisor call shared by Irrigate and FullAnalysis. On failure
// it returns the HTTP status the caller should answer with.
func buildIrrigationPlan(c echo.Context, req *IrrigationRequest) (echo.Map, int, error) {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	stopWeather := prometheus.TrackExternalCall("weather")
	summary, err := weather.Get().Fetch(ctx, req.Latitude, req.Longitude)
	stopWeather(time.Now())
	if err != nil {
		log.Error("Weather fetch failed", zap.Error(err))
		prometheus.RecordUpstreamError("weather")
		return nil, http.StatusBadGateway, errWeatherUnavailable
	}

	crop := req.Crop
	if crop == "" {
		label, err := classifier.Get().Predict(req.Features())
		if err != nil {
			log.Error("Prediction failed", zap.Error(err))
			return nil, http.StatusInternalServerError, errPredictionFailed
		}
		crop = classifier.DisplayName(label)
	}

	promptCtx := advisor.IrrigationContext{
		N:                req.N,
		P:                req.P,
		K:                req.K,
		Temperature:      req.Temperature,
		Humidity:         req.Humidity,
		PH:               req.PH,
		Rainfall:         req.Rainfall,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Crop:             crop,
		AreaHectares:     req.AreaHectares,
		SoilType:         req.SoilType,
		IrrigationSystem: req.IrrigationSystem,
	}
	system, user := advisor.BuildIrrigationPrompts(&promptCtx, summary)

	stopAdvisor := prometheus.TrackExternalCall("advisor")
	plan, err := advisor.Get().Complete(ctx, []advisor.Message{
		{Role: advisor.RoleSystem, Content: system},
		{Role: advisor.RoleUser, Content: user},
	}, planMaxTokens)
	stopAdvisor(time.Now())
	if err != nil {
		log.Error("Advisor call failed", zap.Error(err))
		prometheus.RecordUpstreamError("advisor")
		return nil, http.StatusBadGateway, errAdvisorFailed
	}

	analyzed := echo.Map{
		"soil": echo.Map{
			"N": req.N, "P": req.P, "K": req.K,
			"temperature":         req.Temperature,
			"humidity":            req.Humidity,
			"ph":                  req.PH,
			"historical_rainfall": req.Rainfall,
		},
		"location": echo.Map{
			"latitude":  req.Latitude,
			"longitude": req.Longitude,
		},
		"weather_fetched_at": time.Now().UTC().Format(time.RFC3339),
	}
	if req.AreaHectares != nil {
		analyzed["area_hectares"] = *req.AreaHectares
	}
	if req.SoilType != "" {
		analyzed["soil_type"] = req.SoilType
	}
	if req.IrrigationSystem != "" {
		analyzed["irrigation_system"] = req.IrrigationSystem
	}

	log.Info("Irrigation plan produced",
		zap.String("crop", crop),
		zap.Bool("irrigate_now", summary.Decision.IrrigateNow))

	return echo.Map{
		"recommended_crop": crop,
		"quick_decision":   summary.Decision,
		"weather_summary":  summary.Hourly,
		"irrigation_plan":  plan,
		"analyzed_params":  analyzed,
	}, 0, nil
}
