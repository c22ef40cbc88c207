package advisor

import (
	"fmt"
	"strings"

	"agrointel-service/internal/model"
	"agrointel-service/internal/weather"
)

// IrrigationContext carries everything the advisor needs to write an
// irrigation plan: the soil analysis, the location and the optional
// farmer-supplied details.
type IrrigationContext struct {
	N           float64
	P           float64
	K           float64
	Temperature float64
	Humidity    float64
	PH          float64
	Rainfall    float64

	Latitude  float64
	Longitude float64

	Crop             string
	AreaHectares     *float64
	SoilType         string
	IrrigationSystem string
}

// BuildIrrigationPrompts renders the system and user prompts for an
// irrigation plan request.
func BuildIrrigationPrompts(p *IrrigationContext, s *weather.Summary) (string, string) {
	system := "You are an agronomist specialized in irrigation and tropical agriculture, " +
		"with deep experience in Angola, Mozambique and Brazil. " +
		"Answer in Portuguese, in plain text without any Markdown formatting, " +
		"and keep the advice clear and practical."

	var b strings.Builder
	b.WriteString("The farmer wants to know: SHOULD I IRRIGATE NOW? HOW MUCH? HOW?\n\n")

	b.WriteString("SOIL DATA:\n")
	fmt.Fprintf(&b, "- Nitrogen (N): %g mg/kg\n", p.N)
	fmt.Fprintf(&b, "- Phosphorus (P): %g mg/kg\n", p.P)
	fmt.Fprintf(&b, "- Potassium (K): %g mg/kg\n", p.K)
	fmt.Fprintf(&b, "- Soil temperature: %g°C\n", p.Temperature)
	fmt.Fprintf(&b, "- Relative humidity: %g%%\n", p.Humidity)
	fmt.Fprintf(&b, "- Soil pH: %g\n", p.PH)
	fmt.Fprintf(&b, "- Historical rainfall: %g mm\n", p.Rainfall)
	if p.SoilType != "" {
		fmt.Fprintf(&b, "- Soil type: %s\n", p.SoilType)
	}
	if p.AreaHectares != nil {
		fmt.Fprintf(&b, "- Area: %g hectares\n", *p.AreaHectares)
	}
	if p.IrrigationSystem != "" {
		fmt.Fprintf(&b, "- Current irrigation system: %s\n", p.IrrigationSystem)
	}

	fmt.Fprintf(&b, "\nRECOMMENDED CROP: %s\n", p.Crop)

	fmt.Fprintf(&b, "\nWEATHER FORECAST (LIVE):\nLocation: %g, %g\n", p.Latitude, p.Longitude)

	fmt.Fprintf(&b, "\nNext 6h:\n")
	fmt.Fprintf(&b, "  - Expected rain: %.2f mm\n", s.Hourly.Next6h.RainTotalMm)
	fmt.Fprintf(&b, "  - Average temperature: %s°C\n", fmtSample(s.Hourly.Next6h.AvgTempC))
	fmt.Fprintf(&b, "  - Average humidity: %s%%\n", fmtSample(s.Hourly.Next6h.AvgHumidityPct))

	fmt.Fprintf(&b, "\nNext 24h:\n")
	fmt.Fprintf(&b, "  - Expected rain: %.2f mm\n", s.Hourly.Next24h.RainTotalMm)
	fmt.Fprintf(&b, "  - Evapotranspiration: %.2f mm\n", s.Hourly.Next24h.EvapotranspirationMm)
	fmt.Fprintf(&b, "  - Water balance: %.2f mm\n", s.Hourly.Next24h.WaterBalanceMm)

	fmt.Fprintf(&b, "\nNext 48h:\n")
	fmt.Fprintf(&b, "  - Total expected rain: %.2f mm\n", s.Hourly.Next48h.RainTotalMm)

	b.WriteString("\nNext significant rain (>=1mm):\n  ")
	if s.NextRain != nil {
		fmt.Fprintf(&b, "In ~%dh, %.1fmm (probability: %s%%)\n",
			s.NextRain.HoursFromNow, s.NextRain.AmountMm, fmtSample(s.NextRain.ProbabilityPct))
	} else {
		b.WriteString("No significant rain expected within the forecast horizon\n")
	}

	b.WriteString("\nSoil moisture (satellite):\n")
	fmt.Fprintf(&b, "  - Surface (0-1cm): %s\n", fmtSample(s.SoilMoisture.Surface))
	fmt.Fprintf(&b, "  - Deep (1-3cm): %s\n", fmtSample(s.SoilMoisture.Deep))

	fmt.Fprintf(&b, "\nCurrent wind: %s km/h\n", fmtSample(s.CurrentWindKmh))

	if len(s.Daily.Days) > 0 {
		b.WriteString("\nDaily forecast:\n")
		for i, day := range s.Daily.Days {
			fmt.Fprintf(&b, "  %s: %s-%s°C, rain: %smm, ET0: %smm\n",
				day,
				fmtSampleAt(s.Daily.TempMinC, i),
				fmtSampleAt(s.Daily.TempMaxC, i),
				fmtSampleAt(s.Daily.PrecipitationMm, i),
				fmtSampleAt(s.Daily.ET0Mm, i))
		}
	}

	b.WriteString(`
ANSWER WITH THIS STRUCTURE:

IMMEDIATE DECISION
Irrigate now: YES or NO, and why, considering the forecast

IRRIGATION PLAN
- Recommended volume: liters/plant/day or mm/week
- Frequency: every how many days
- Best time of day, considering temperature and evapotranspiration
- Adjustment for the expected rain

RECOMMENDED METHOD
Which irrigation system to use and why
`)
	if p.IrrigationSystem != "" {
		fmt.Fprintf(&b, "Evaluate the current system (%s)\n", p.IrrigationSystem)
	}
	b.WriteString(`
SOIL ANALYSIS
Quick assessment of N, P, K and pH for this crop

ALERTS
Risks of over-irrigation, under-irrigation or adverse weather

PRACTICAL TIPS
2-3 concrete actions the farmer can take today

Be DIRECT and PRACTICAL.`)

	return system, b.String()
}

// zoneStatusText maps zone statuses to the wording used in chat context
var zoneStatusText = map[string]string{
	model.ZoneStatusOptimal:    "optimal",
	model.ZoneStatusAttention:  "needs attention",
	model.ZoneStatusCritical:   "critical",
	model.ZoneStatusIrrigating: "irrigating",
}

// ZoneContext pairs a sensor zone with the crop the classifier suggests
// for it.
type ZoneContext struct {
	Zone          model.SensorZone
	SuggestedCrop string
}

// ChatContext is the tenant state the chat assistant is grounded on
type ChatContext struct {
	FarmName    string
	UserName    string
	UserEmail   string
	AreaMapped  bool
	Zones       []ZoneContext
	WeatherLine string
}

// BuildChatSystemPrompt renders the system prompt carrying the caller's
// live farm state.
func BuildChatSystemPrompt(ctx *ChatContext) string {
	var zones strings.Builder
	if len(ctx.Zones) == 0 {
		zones.WriteString("  No sensors registered yet.")
	} else {
		for i, zc := range ctx.Zones {
			z := zc.Zone
			if i > 0 {
				zones.WriteString("\n")
			}
			status := zoneStatusText[z.Status]
			if status == "" {
				status = z.Status
			}
			pump := "off"
			if z.PumpOn {
				pump = "ON"
			}
			ai := "inactive"
			if z.AIMode {
				ai = "active"
			}
			crop := z.Crop
			if crop == "" {
				crop = "undefined"
			}
			fmt.Fprintf(&zones,
				"  - [%s] %s: moisture=%d%%, temp=%d°C, current crop=%s, status=%s, pump=%s, battery=%d%%, signal=%s, rain forecast=%s, AI mode=%s, ML suggested crop=%s",
				capitalize(z.Type), z.Name, z.Moisture, z.Temp, crop, status, pump,
				z.Battery, orND(z.Signal), orND(z.RainForecast), ai, zc.SuggestedCrop)
		}
	}

	mapped := "No"
	if ctx.AreaMapped {
		mapped = "Yes"
	}

	weatherLine := ctx.WeatherLine
	if weatherLine == "" {
		weatherLine = "  Weather data not available (no location)."
	}

	return fmt.Sprintf(`You are AgroIntel, the farm assistant of HydroSync.
Always answer in Portuguese, clearly and directly, in plain text without any Markdown formatting.
You have live access to the user's farm data below. Always use it to personalize your answers.
When asked about sensors, soil, irrigation or crops, ground the answer in this data and cite the sensor readings explicitly.
If the user asks which crop to plant, use the ML suggested crops from the sensor state instead of asking for more data.
If you lack data, say so honestly and suggest next steps. Keep answers to at most 4 paragraphs.

=== FARM CONTEXT ===
Name: %s
User: %s (%s)
Area mapped: %s
Registered sensors/equipment: %d

=== SENSOR STATE ===
%s

=== WEATHER ===
%s`,
		ctx.FarmName, ctx.UserName, ctx.UserEmail, mapped, len(ctx.Zones), zones.String(), weatherLine)
}

// WeatherLine condenses a forecast summary to the single line the chat
// prompt carries.
func WeatherLine(s *weather.Summary) string {
	return fmt.Sprintf("  Current temp: %s°C | Air humidity: %s%% | Rain 24h: %.1fmm | Decision: %s",
		fmtSample(s.Hourly.Next6h.AvgTempC),
		fmtSample(s.Hourly.Next6h.AvgHumidityPct),
		s.Hourly.Next24h.RainTotalMm,
		s.Decision.Reason)
}

func fmtSample(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *v)
}

func fmtSampleAt(vals []*float64, i int) string {
	if i >= len(vals) {
		return "N/A"
	}
	return fmtSample(vals[i])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orND(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
