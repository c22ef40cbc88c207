package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHealthCheckReportsDependencies(t *testing.T) {
	setupClassifier(t)
	setupAdvisor(t, "", "unused")

	c, rec := newContext(t, http.MethodGet, "/health", "")
	require.NoError(t, HealthCheck(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, "2.0.0", body["version"])
	require.Equal(t, true, body["model_loaded"])
	require.Equal(t, false, body["advisor_configured"])
	require.Equal(t, "open-meteo", body["weather_provider"])
}
