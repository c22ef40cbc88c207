package weather

import (
	"fmt"
	"math"
)

// significantRainMm is the hourly precipitation threshold used to detect
// the next significant rain event.
const significantRainMm = 1.0

// Forecast is the raw Open-Meteo payload. Hourly samples can be null, so
// every series is decoded as pointers; aggregation treats nil as zero.
type Forecast struct {
	Timezone string       `json:"timezone"`
	Hourly   HourlySeries `json:"hourly"`
	Daily    DailySeries  `json:"daily"`
}

// HourlySeries holds the fixed hourly variable set requested from the provider
type HourlySeries struct {
	Time                []string   `json:"time"`
	Temperature         []*float64 `json:"temperature_2m"`
	Humidity            []*float64 `json:"relative_humidity_2m"`
	PrecipProbability   []*float64 `json:"precipitation_probability"`
	Precipitation       []*float64 `json:"precipitation"`
	Rain                []*float64 `json:"rain"`
	Evapotranspiration  []*float64 `json:"evapotranspiration"`
	WindSpeed           []*float64 `json:"wind_speed_10m"`
	SoilMoistureSurface []*float64 `json:"soil_moisture_0_to_1cm"`
	SoilMoistureDeep    []*float64 `json:"soil_moisture_1_to_3cm"`
}

// DailySeries holds the daily aggregates for the 3-day horizon
type DailySeries struct {
	Time              []string   `json:"time"`
	TempMax           []*float64 `json:"temperature_2m_max"`
	TempMin           []*float64 `json:"temperature_2m_min"`
	PrecipitationSum  []*float64 `json:"precipitation_sum"`
	PrecipProbability []*float64 `json:"precipitation_probability_max"`
	RainSum           []*float64 `json:"rain_sum"`
	ET0               []*float64 `json:"et0_fao_evapotranspiration"`
}

// Location echoes the queried coordinates back to the caller
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Window6h summarizes the first six hourly buckets
type Window6h struct {
	RainTotalMm    float64  `json:"rain_total_mm"`
	AvgTempC       *float64 `json:"avg_temp_c"`
	AvgHumidityPct *float64 `json:"avg_humidity_pct"`
}

// Window12h summarizes the first twelve hourly buckets
type Window12h struct {
	RainTotalMm float64 `json:"rain_total_mm"`
}

// Window24h carries the irrigation-relevant 24h water balance
type Window24h struct {
	RainTotalMm          float64 `json:"rain_total_mm"`
	EvapotranspirationMm float64 `json:"evapotranspiration_mm"`
	WaterBalanceMm       float64 `json:"water_balance_mm"`
}

// Window48h summarizes the first 48 hourly buckets
type Window48h struct {
	RainTotalMm float64 `json:"rain_total_mm"`
}

// Outlook groups the rolling windows
type Outlook struct {
	Next6h  Window6h  `json:"next_6h"`
	Next12h Window12h `json:"next_12h"`
	Next24h Window24h `json:"next_24h"`
	Next48h Window48h `json:"next_48h"`
}

// NextRain describes the first hourly bucket with precipitation >= 1.0mm,
// scanning forward from now.
type NextRain struct {
	At             string   `json:"at"`
	HoursFromNow   int      `json:"hours_from_now"`
	AmountMm       float64  `json:"amount_mm"`
	ProbabilityPct *float64 `json:"probability_pct"`
}

// SoilMoisture carries the current satellite soil moisture samples
type SoilMoisture struct {
	Surface *float64 `json:"surface_0_1cm"`
	Deep    *float64 `json:"deep_1_3cm"`
}

// DailyOutlook is the per-day forecast block passed through to clients
type DailyOutlook struct {
	Days              []string   `json:"days"`
	TempMaxC          []*float64 `json:"temp_max_c"`
	TempMinC          []*float64 `json:"temp_min_c"`
	PrecipitationMm   []*float64 `json:"precipitation_mm"`
	PrecipProbability []*float64 `json:"precip_probability_max"`
	RainMm            []*float64 `json:"rain_mm"`
	ET0Mm             []*float64 `json:"et0_mm"`
}

// Decision is the boolean irrigation call with its justification
type Decision struct {
	IrrigateNow bool   `json:"irrigate_now"`
	Reason      string `json:"reason"`
}

// Summary is the reduced, windowed view of the raw forecast
type Summary struct {
	Location       Location     `json:"location"`
	Hourly         Outlook      `json:"hourly_summary"`
	NextRain       *NextRain    `json:"next_rain"`
	SoilMoisture   SoilMoisture `json:"soil_moisture"`
	Daily          DailyOutlook `json:"daily"`
	Decision       Decision     `json:"decision"`
	CurrentWindKmh *float64     `json:"current_wind_kmh"`
}

// Reduce aggregates a raw forecast into rolling windows. It is
// deterministic: the same input always produces the same summary.
// Missing samples count as zero in totals and are excluded from means.
func Reduce(raw *Forecast, lat, lon float64) Summary {
	h := raw.Hourly

	rain24 := round2(sumWindow(h.Rain, 24))
	et24 := round2(sumWindow(h.Evapotranspiration, 24))

	s := Summary{
		Location: Location{
			Latitude:  lat,
			Longitude: lon,
			Timezone:  raw.Timezone,
		},
		Hourly: Outlook{
			Next6h: Window6h{
				RainTotalMm:    round2(sumWindow(h.Rain, 6)),
				AvgTempC:       meanWindow(h.Temperature, 6),
				AvgHumidityPct: meanWindow(h.Humidity, 6),
			},
			Next12h: Window12h{
				RainTotalMm: round2(sumWindow(h.Rain, 12)),
			},
			Next24h: Window24h{
				RainTotalMm:          rain24,
				EvapotranspirationMm: et24,
				WaterBalanceMm:       round2(rain24 - et24),
			},
			Next48h: Window48h{
				RainTotalMm: round2(sumWindow(h.Rain, 48)),
			},
		},
		NextRain: nextSignificantRain(&h),
		SoilMoisture: SoilMoisture{
			Surface: firstSample(h.SoilMoistureSurface),
			Deep:    firstSample(h.SoilMoistureDeep),
		},
		Daily: DailyOutlook{
			Days:              raw.Daily.Time,
			TempMaxC:          raw.Daily.TempMax,
			TempMinC:          raw.Daily.TempMin,
			PrecipitationMm:   raw.Daily.PrecipitationSum,
			PrecipProbability: raw.Daily.PrecipProbability,
			RainMm:            raw.Daily.RainSum,
			ET0Mm:             raw.Daily.ET0,
		},
		CurrentWindKmh: firstSample(h.WindSpeed),
	}

	return s
}

// Decide turns a summary into an irrigate/don't-irrigate call.
// Tie-break order, first match wins:
//  1. significant rain within 6 hours postpones irrigation
//  2. >= 10mm over 24h makes irrigation unnecessary
//  3. >= 5mm over 24h keeps irrigation on at reduced volume
//  4. otherwise irrigate
func Decide(s *Summary) Decision {
	if s.NextRain != nil && s.NextRain.HoursFromNow <= 6 {
		return Decision{
			IrrigateNow: false,
			Reason: fmt.Sprintf("Rain expected in ~%dh (%.1fmm), postpone irrigation.",
				s.NextRain.HoursFromNow, s.NextRain.AmountMm),
		}
	}

	rain24 := s.Hourly.Next24h.RainTotalMm
	if rain24 >= 10 {
		return Decision{
			IrrigateNow: false,
			Reason:      fmt.Sprintf("%.1fmm of rain forecast over the next 24h, irrigation unnecessary.", rain24),
		}
	}
	if rain24 >= 5 {
		return Decision{
			IrrigateNow: true,
			Reason:      fmt.Sprintf("Moderate rain expected (%.1fmm/24h), reduce irrigation volume.", rain24),
		}
	}

	return Decision{
		IrrigateNow: true,
		Reason:      "No significant rain expected, irrigation recommended.",
	}
}

// nextSignificantRain scans the precipitation series for the first bucket
// at or above the 1.0mm threshold. Returns nil when no such bucket exists
// in the forecast horizon.
func nextSignificantRain(h *HourlySeries) *NextRain {
	for i, p := range h.Precipitation {
		if p == nil || *p < significantRainMm {
			continue
		}

		nr := &NextRain{
			HoursFromNow: i,
			AmountMm:     *p,
		}
		if i < len(h.Time) {
			nr.At = h.Time[i]
		}
		if i < len(h.PrecipProbability) {
			nr.ProbabilityPct = h.PrecipProbability[i]
		}
		return nr
	}
	return nil
}

// sumWindow totals the first n samples, treating nil as zero
func sumWindow(vals []*float64, n int) float64 {
	if n > len(vals) {
		n = len(vals)
	}
	var total float64
	for _, v := range vals[:n] {
		if v != nil {
			total += *v
		}
	}
	return total
}

// meanWindow averages the non-nil samples among the first n.
// Returns nil when every sample in the window is missing.
func meanWindow(vals []*float64, n int) *float64 {
	if n > len(vals) {
		n = len(vals)
	}
	var total float64
	var count int
	for _, v := range vals[:n] {
		if v != nil {
			total += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	m := round1(total / float64(count))
	return &m
}

func firstSample(vals []*float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
