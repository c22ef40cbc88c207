package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const irrigationBody = `{
	"N": 80, "P": 45, "K": 40,
	"temperature": 24, "humidity": 82, "ph": 6.4, "rainfall": 230,
	"latitude": -8.83, "longitude": 13.23,
	"crop": "Arroz", "soil_type": "argiloso"
}`

func TestIrrigationRequestValidateCoordinates(t *testing.T) {
	valid := IrrigationRequest{
		SoilParams: SoilParams{N: 80, P: 45, K: 40, Temperature: 24, Humidity: 82, PH: 6.4, Rainfall: 230},
		Latitude:   -8.83,
		Longitude:  13.23,
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Latitude = 90.5
	require.ErrorIs(t, bad.Validate(), errLatitudeRange)

	bad = valid
	bad.Longitude = -180.5
	require.ErrorIs(t, bad.Validate(), errLongitudeRange)
}

func TestIrrigateWithoutAdvisorAnswers503(t *testing.T) {
	setupAdvisor(t, "", "unused")

	c, rec := newContext(t, http.MethodPost, "/irrigar", irrigationBody)
	require.NoError(t, Irrigate(c))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "advisor not configured")
}

func TestIrrigateProducesPlan(t *testing.T) {
	setupClassifier(t)
	setupWeather(t, http.StatusOK, testForecastBody)
	setupAdvisor(t, "secret-key", "Regue 5mm ao amanhecer.")

	c, rec := newContext(t, http.MethodPost, "/irrigar", irrigationBody)
	require.NoError(t, Irrigate(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Arroz", body["recommended_crop"])
	require.Equal(t, "Regue 5mm ao amanhecer.", body["irrigation_plan"])

	decision := body["quick_decision"].(map[string]any)
	require.Equal(t, true, decision["irrigate_now"])

	analyzed := body["analyzed_params"].(map[string]any)
	require.Equal(t, "argiloso", analyzed["soil_type"])
}

func TestIrrigatePredictsCropWhenMissing(t *testing.T) {
	setupClassifier(t)
	setupWeather(t, http.StatusOK, testForecastBody)
	setupAdvisor(t, "secret-key", "ok")

	// Soil features sit on the rice mean of the test model
	c, rec := newContext(t, http.MethodPost, "/irrigar", `{
		"N": 80, "P": 45, "K": 40,
		"temperature": 24, "humidity": 82, "ph": 6.4, "rainfall": 230,
		"latitude": -8.83, "longitude": 13.23
	}`)
	require.NoError(t, Irrigate(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Arroz", decodeBody(t, rec)["recommended_crop"])
}

func TestIrrigateWeatherFailureAnswers502(t *testing.T) {
	setupClassifier(t)
	setupWeather(t, http.StatusServiceUnavailable, "down")
	setupAdvisor(t, "secret-key", "unused")

	c, rec := newContext(t, http.MethodPost, "/irrigar", irrigationBody)
	require.NoError(t, Irrigate(c))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "failed to fetch weather data", decodeBody(t, rec)["error"])
}

func TestFullAnalysisCombinesPredictionAndPlan(t *testing.T) {
	setupClassifier(t)
	setupWeather(t, http.StatusOK, testForecastBody)
	setupAdvisor(t, "secret-key", "Plano de rega.")

	c, rec := newContext(t, http.MethodPost, "/analise-completa", `{
		"N": 80, "P": 45, "K": 40,
		"temperature": 24, "humidity": 82, "ph": 6.4, "rainfall": 230,
		"latitude": -8.83, "longitude": 13.23
	}`)
	require.NoError(t, FullAnalysis(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	prediction := body["prediction"].(map[string]any)
	require.Equal(t, "rice", prediction["crop"])
	require.Equal(t, "Arroz", prediction["crop_display"])

	irrigation := body["irrigation"].(map[string]any)
	require.Equal(t, "Arroz", irrigation["recommended_crop"])
	require.Equal(t, "Plano de rega.", irrigation["irrigation_plan"])
}

func TestFullAnalysisRejectsBadCoordinates(t *testing.T) {
	c, rec := newContext(t, http.MethodPost, "/analise-completa", `{
		"N": 80, "P": 45, "K": 40,
		"temperature": 24, "humidity": 82, "ph": 6.4, "rainfall": 230,
		"latitude": 95, "longitude": 13.23
	}`)
	require.NoError(t, FullAnalysis(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "latitude must be between -90 and 90", decodeBody(t, rec)["error"])
}
