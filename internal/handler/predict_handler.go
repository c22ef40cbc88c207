package handler

import (
	"fmt"
	"net/http"

	"agrointel-service/internal/classifier"
	"agrointel-service/pkg/logger"
	"agrointel-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SoilParams are the seven features the crop model was trained on.
// Ranges mirror the training data; out-of-range input is rejected
// before anything else happens.
type SoilParams struct {
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
}

// Validate checks every feature against its training range
func (p *SoilParams) Validate() error {
	checks := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{"N", p.N, 0, 200},
		{"P", p.P, 0, 200},
		{"K", p.K, 0, 300},
		{"temperature", p.Temperature, 0, 60},
		{"humidity", p.Humidity, 0, 100},
		{"ph", p.PH, 0, 14},
		{"rainfall", p.Rainfall, 0, 500},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return fmt.Errorf("%s must be between %g and %g", c.name, c.min, c.max)
		}
	}
	return nil
}

// Features returns the values in the model's fixed feature order
func (p *SoilParams) Features() []float64 {
	return []float64{p.N, p.P, p.K, p.Temperature, p.Humidity, p.PH, p.Rainfall}
}

// Predict returns the most suitable crop for the given soil parameters
func Predict(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.PredictionCounter.Inc()

	var params SoilParams
	if err := c.Bind(&params); err != nil {
		log.Error("Failed to parse soil parameters", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := params.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	prediction, err := classifier.Get().Classify(params.Features())
	if err != nil {
		log.Error("Prediction failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "prediction failed"})
	}

	log.Info("Crop predicted",
		zap.String("crop", prediction.Crop),
		zap.Float64("confidence", prediction.Confidence))
	return c.JSON(http.StatusOK, prediction)
}
