package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"agrointel-service/internal/model"
	"agrointel-service/pkg/config"

	gocache "github.com/patrickmn/go-cache"
)

// Fixed variable sets requested from Open-Meteo. The aggregation in
// summary.go depends on exactly these series being present.
var (
	hourlyVariables = strings.Join([]string{
		"temperature_2m",
		"relative_humidity_2m",
		"precipitation_probability",
		"precipitation",
		"rain",
		"evapotranspiration",
		"wind_speed_10m",
		"soil_moisture_0_to_1cm",
		"soil_moisture_1_to_3cm",
	}, ",")

	dailyVariables = strings.Join([]string{
		"temperature_2m_max",
		"temperature_2m_min",
		"precipitation_sum",
		"precipitation_probability_max",
		"rain_sum",
		"et0_fao_evapotranspiration",
	}, ",")
)

// Client fetches forecasts from Open-Meteo. Successful summaries are
// cached for a short TTL so bursts of requests for the same coordinates
// hit the provider once.
type Client struct {
	baseURL      string
	forecastDays int
	httpClient   *http.Client
	cache        *gocache.Cache
}

var client *Client

// Initialize sets up the process-wide weather client
func Initialize(cfg *config.WeatherConfig) {
	client = NewClient(cfg)
}

// Get returns the process-wide weather client
func Get() *Client {
	return client
}

// NewClient creates a weather client with the configured timeout and cache
func NewClient(cfg *config.WeatherConfig) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		forecastDays: cfg.ForecastDays,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		cache:        gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

// Fetch returns the reduced forecast summary for the given coordinates.
// A single attempt is made: transport errors and non-2xx responses both
// surface as ErrUpstreamUnavailable, never a silent retry.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*Summary, error) {
	key := cacheKey(lat, lon)
	if cached, ok := c.cache.Get(key); ok {
		s := cached.(Summary)
		return &s, nil
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", hourlyVariables)
	q.Set("daily", dailyVariables)
	q.Set("timezone", "auto")
	q.Set("forecast_days", strconv.Itoa(c.forecastDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: provider returned status %d", model.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var raw Forecast
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", model.ErrUpstreamUnavailable, err)
	}

	summary := Reduce(&raw, lat, lon)
	summary.Decision = Decide(&summary)

	c.cache.Set(key, summary, gocache.DefaultExpiration)
	return &summary, nil
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}
