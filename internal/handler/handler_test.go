package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agrointel-service/internal/advisor"
	"agrointel-service/internal/classifier"
	"agrointel-service/internal/weather"
	"agrointel-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// newContext builds an echo context for a JSON request
func newContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// setupClassifier loads a small three-class model into the singleton
func setupClassifier(t *testing.T) {
	t.Helper()
	m := classifier.GaussianNB{
		ClassLabels: []string{"rice", "maize", "coffee"},
		Priors:      []float64{0.4, 0.3, 0.3},
		Means: [][]float64{
			{80, 45, 40, 24, 82, 6.4, 230},
			{70, 50, 20, 22, 65, 6.2, 85},
			{100, 28, 30, 25, 58, 6.8, 160},
		},
		Variances: [][]float64{
			{100, 25, 25, 4, 16, 0.25, 400},
			{100, 25, 25, 4, 16, 0.25, 400},
			{100, 25, 25, 4, 16, 0.25, 400},
		},
	}
	data, err := json.Marshal(&m)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "naive_bayes.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	require.NoError(t, classifier.Initialize(&config.ModelConfig{Path: path}))
}

const testForecastBody = `{
	"timezone": "Africa/Luanda",
	"hourly": {
		"time": ["2026-08-29T00:00"],
		"temperature_2m": [24.0],
		"relative_humidity_2m": [80],
		"precipitation_probability": [5],
		"precipitation": [0.0],
		"rain": [0.0],
		"evapotranspiration": [0.2],
		"wind_speed_10m": [10.0],
		"soil_moisture_0_to_1cm": [0.3],
		"soil_moisture_1_to_3cm": [0.27]
	},
	"daily": {
		"time": ["2026-08-29"],
		"temperature_2m_max": [29.0],
		"temperature_2m_min": [19.0],
		"precipitation_sum": [0.0],
		"precipitation_probability_max": [5],
		"rain_sum": [0.0],
		"et0_fao_evapotranspiration": [3.1]
	}
}`

// setupWeather points the weather singleton at a stub provider
func setupWeather(t *testing.T, status int, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	weather.Initialize(&config.WeatherConfig{
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		ForecastDays: 3,
		CacheTTL:     time.Minute,
	})
}

// setupAdvisor points the advisor singleton at a stub completions API.
// An empty apiKey leaves it unconfigured.
func setupAdvisor(t *testing.T, apiKey, reply string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	advisor.Initialize(&config.AdvisorConfig{
		APIKey:  apiKey,
		BaseURL: srv.URL,
		Model:   "deepseek-chat",
		Timeout: 5 * time.Second,
	})
}
