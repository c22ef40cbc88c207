package weather

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 {
	return &v
}

// series builds an hourly series of n samples, all set to v
func series(n int, v float64) []*float64 {
	out := make([]*float64, n)
	for i := range out {
		out[i] = fp(v)
	}
	return out
}

func hours(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "2026-08-29T00:00"
	}
	return out
}

func TestReduceWindows(t *testing.T) {
	raw := &Forecast{
		Timezone: "Africa/Luanda",
		Hourly: HourlySeries{
			Time:               hours(48),
			Rain:               series(48, 0.5),
			Evapotranspiration: series(48, 0.2),
			Temperature:        series(48, 25),
			Humidity:           series(48, 80),
		},
	}

	s := Reduce(raw, -8.83, 13.23)

	require.Equal(t, -8.83, s.Location.Latitude)
	require.Equal(t, 13.23, s.Location.Longitude)
	require.Equal(t, "Africa/Luanda", s.Location.Timezone)

	require.Equal(t, 3.0, s.Hourly.Next6h.RainTotalMm)
	require.Equal(t, 6.0, s.Hourly.Next12h.RainTotalMm)
	require.Equal(t, 12.0, s.Hourly.Next24h.RainTotalMm)
	require.Equal(t, 24.0, s.Hourly.Next48h.RainTotalMm)

	require.Equal(t, 4.8, s.Hourly.Next24h.EvapotranspirationMm)
	require.Equal(t, 7.2, s.Hourly.Next24h.WaterBalanceMm)

	require.NotNil(t, s.Hourly.Next6h.AvgTempC)
	require.Equal(t, 25.0, *s.Hourly.Next6h.AvgTempC)
	require.NotNil(t, s.Hourly.Next6h.AvgHumidityPct)
	require.Equal(t, 80.0, *s.Hourly.Next6h.AvgHumidityPct)
}

func TestReduceNilSamplesCountAsZeroInTotals(t *testing.T) {
	rain := series(24, 1.0)
	rain[0] = nil
	rain[5] = nil

	s := Reduce(&Forecast{Hourly: HourlySeries{Time: hours(24), Rain: rain}}, 0, 0)

	require.Equal(t, 4.0, s.Hourly.Next6h.RainTotalMm)
	require.Equal(t, 22.0, s.Hourly.Next24h.RainTotalMm)
}

func TestReduceAllNilAveragesAreNil(t *testing.T) {
	s := Reduce(&Forecast{Hourly: HourlySeries{
		Time:        hours(6),
		Temperature: make([]*float64, 6),
		Humidity:    make([]*float64, 6),
	}}, 0, 0)

	require.Nil(t, s.Hourly.Next6h.AvgTempC)
	require.Nil(t, s.Hourly.Next6h.AvgHumidityPct)
}

func TestReduceMeanSkipsNilSamples(t *testing.T) {
	temps := []*float64{fp(20), nil, fp(30), nil, nil, nil}

	s := Reduce(&Forecast{Hourly: HourlySeries{Time: hours(6), Temperature: temps}}, 0, 0)

	require.NotNil(t, s.Hourly.Next6h.AvgTempC)
	require.Equal(t, 25.0, *s.Hourly.Next6h.AvgTempC)
}

func TestReduceShortSeries(t *testing.T) {
	// A horizon shorter than the window must not panic and just sums
	// what exists.
	s := Reduce(&Forecast{Hourly: HourlySeries{Time: hours(10), Rain: series(10, 1.0)}}, 0, 0)

	require.Equal(t, 10.0, s.Hourly.Next24h.RainTotalMm)
	require.Equal(t, 10.0, s.Hourly.Next48h.RainTotalMm)
}

func TestReduceNextSignificantRain(t *testing.T) {
	precip := series(24, 0.0)
	precip[3] = fp(2.0)
	precip[10] = fp(5.0)
	prob := series(24, 60.0)

	s := Reduce(&Forecast{Hourly: HourlySeries{
		Time:              hours(24),
		Precipitation:     precip,
		PrecipProbability: prob,
	}}, 0, 0)

	require.NotNil(t, s.NextRain)
	require.Equal(t, 3, s.NextRain.HoursFromNow)
	require.Equal(t, 2.0, s.NextRain.AmountMm)
	require.NotNil(t, s.NextRain.ProbabilityPct)
	require.Equal(t, 60.0, *s.NextRain.ProbabilityPct)
}

func TestReduceNextRainBelowThresholdIsNil(t *testing.T) {
	s := Reduce(&Forecast{Hourly: HourlySeries{
		Time:          hours(24),
		Precipitation: series(24, 0.9),
	}}, 0, 0)

	require.Nil(t, s.NextRain)
}

func TestReduceNextRainSkipsNilBuckets(t *testing.T) {
	precip := make([]*float64, 24)
	precip[7] = fp(1.0)

	s := Reduce(&Forecast{Hourly: HourlySeries{Time: hours(24), Precipitation: precip}}, 0, 0)

	require.NotNil(t, s.NextRain)
	require.Equal(t, 7, s.NextRain.HoursFromNow)
	require.Equal(t, 1.0, s.NextRain.AmountMm)
}

func TestReduceSoilMoistureAndWind(t *testing.T) {
	s := Reduce(&Forecast{Hourly: HourlySeries{
		Time:                hours(2),
		SoilMoistureSurface: []*float64{fp(0.31), fp(0.30)},
		SoilMoistureDeep:    []*float64{fp(0.28), fp(0.29)},
		WindSpeed:           []*float64{fp(12.5), fp(10.0)},
	}}, 0, 0)

	require.Equal(t, 0.31, *s.SoilMoisture.Surface)
	require.Equal(t, 0.28, *s.SoilMoisture.Deep)
	require.Equal(t, 12.5, *s.CurrentWindKmh)
}

func TestReduceIsDeterministic(t *testing.T) {
	raw := &Forecast{Hourly: HourlySeries{
		Time:               hours(48),
		Rain:               series(48, 0.37),
		Evapotranspiration: series(48, 0.11),
		Temperature:        series(48, 23.4),
	}}

	a := Reduce(raw, 1.5, 2.5)
	b := Reduce(raw, 1.5, 2.5)
	require.Equal(t, a, b)
}

func TestDecidePostponesForImminentRain(t *testing.T) {
	s := &Summary{
		NextRain: &NextRain{HoursFromNow: 3, AmountMm: 2.0},
	}
	s.Hourly.Next24h.RainTotalMm = 20 // imminent rain wins over volume

	d := Decide(s)
	require.False(t, d.IrrigateNow)
	require.Equal(t, "Rain expected in ~3h (2.0mm), postpone irrigation.", d.Reason)
}

func TestDecideRainBeyondSixHoursDoesNotPostpone(t *testing.T) {
	s := &Summary{
		NextRain: &NextRain{HoursFromNow: 7, AmountMm: 2.0},
	}

	d := Decide(s)
	require.True(t, d.IrrigateNow)
	require.Equal(t, "No significant rain expected, irrigation recommended.", d.Reason)
}

func TestDecideHeavyRainMakesIrrigationUnnecessary(t *testing.T) {
	s := &Summary{}
	s.Hourly.Next24h.RainTotalMm = 10.0

	d := Decide(s)
	require.False(t, d.IrrigateNow)
	require.Equal(t, "10.0mm of rain forecast over the next 24h, irrigation unnecessary.", d.Reason)
}

func TestDecideModerateRainReducesVolume(t *testing.T) {
	s := &Summary{}
	s.Hourly.Next24h.RainTotalMm = 9.99

	d := Decide(s)
	require.True(t, d.IrrigateNow)
	require.Equal(t, "Moderate rain expected (10.0mm/24h), reduce irrigation volume.", d.Reason)
}

func TestDecideModerateBoundary(t *testing.T) {
	s := &Summary{}
	s.Hourly.Next24h.RainTotalMm = 5.0

	d := Decide(s)
	require.True(t, d.IrrigateNow)
	require.Equal(t, "Moderate rain expected (5.0mm/24h), reduce irrigation volume.", d.Reason)
}

func TestDecideDefaultIrrigates(t *testing.T) {
	s := &Summary{}
	s.Hourly.Next24h.RainTotalMm = 4.99

	d := Decide(s)
	require.True(t, d.IrrigateNow)
	require.Equal(t, "No significant rain expected, irrigation recommended.", d.Reason)
}
