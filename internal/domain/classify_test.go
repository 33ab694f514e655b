package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// neutralObs returns an observation that triggers no alerts on its own.
func neutralObs() Observation {
	return Observation{
		Temperature: 18,
		FeelsLike:   18,
		WindSpeed:   10,
		WindGust:    15,
		Humidity:    40,
		WeatherCode: 0,
		IsDay:       true,
	}
}

func TestClassify_NoAlerts(t *testing.T) {
	result := Classify(neutralObs(), 10, Celsius)

	assert.False(t, result.IsSevere)
	assert.Empty(t, result.Alerts)
}

func TestClassify_TemperatureAlerts(t *testing.T) {
	tests := []struct {
		name        string
		tempC       float64
		unit        TemperatureUnit
		wantSev     Severity
		wantMessage string
	}{
		{"extreme cold metric", -15, Celsius, SeverityExtreme, "Extreme cold temperature of -15°C"},
		{"cold boundary metric", 0, Celsius, SeverityModerate, "Cold temperature of 0°C"},
		{"cold metric", -5, Celsius, SeverityModerate, "Cold temperature of -5°C"},
		{"extreme heat metric", 38, Celsius, SeverityExtreme, "Extreme heat of 38°C"},
		{"extreme heat boundary metric", 35, Celsius, SeverityExtreme, "Extreme heat of 35°C"},
		{"high temperature metric", 31, Celsius, SeverityModerate, "High temperature of 31°C"},
		// 38°C = 100.4°F, above the 95°F veryHot threshold.
		{"extreme heat imperial", 38, Fahrenheit, SeverityExtreme, "Extreme heat of 100°F"},
		// -12°C = 10.4°F, below the 14°F veryCold threshold.
		{"extreme cold imperial", -12, Fahrenheit, SeverityExtreme, "Extreme cold temperature of 10°F"},
		// 1°C = 33.8°F, above freezing in °F but at most "cold" in neither system.
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := neutralObs()
			obs.Temperature = tt.tempC

			result := Classify(obs, 10, tt.unit)

			require.Len(t, result.Alerts, 1)
			alert := result.Alerts[0]
			assert.Equal(t, AlertTemperature, alert.Type)
			assert.Equal(t, tt.wantSev, alert.Severity)
			assert.Equal(t, tt.wantMessage, alert.Message)
			assert.Equal(t, ContextCurrent, alert.TimeContext)
			assert.True(t, result.IsSevere)
		})
	}
}

func TestClassify_ComfortableRangeNoTemperatureAlert(t *testing.T) {
	// Temperatures strictly between cold and hot produce no temperature alert.
	for _, tempC := range []float64{0.5, 5, 10, 18, 25, 29.5} {
		obs := neutralObs()
		obs.Temperature = tempC

		result := Classify(obs, 10, Celsius)
		for _, alert := range result.Alerts {
			assert.NotEqual(t, AlertTemperature, alert.Type, "temp %v fired %v", tempC, alert)
		}
	}
}

func TestClassify_ConditionCodeTiers(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		wantSev Severity
	}{
		{"thunderstorm", 95, SeverityExtreme},
		{"thunderstorm slight hail", 96, SeverityExtreme},
		{"thunderstorm heavy hail", 99, SeverityExtreme},
		{"heavy snow fall", 75, SeveritySevere},
		{"violent rain showers", 82, SeveritySevere},
		{"heavy snow showers", 86, SeveritySevere},
		{"heavy rain", 65, SeverityModerate},
		{"snow grains", 77, SeverityModerate},
		{"foggy", 45, SeverityAdvisory},
		{"light drizzle", 51, SeverityAdvisory},
		{"moderate rain showers", 81, SeverityAdvisory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := neutralObs()
			obs.WeatherCode = tt.code

			result := Classify(obs, 10, Celsius)

			require.Len(t, result.Alerts, 1)
			alert := result.Alerts[0]
			assert.Equal(t, AlertCondition, alert.Type)
			assert.Equal(t, tt.wantSev, alert.Severity)
			assert.Equal(t, DayCondition(tt.code), alert.Message)
		})
	}
}

func TestClassify_EveryCodeInTableMatchesDeclaredTier(t *testing.T) {
	// For every code in the condition table, a snapshot built from that code
	// alone yields exactly one condition alert at the code's declared tier,
	// or none when the code is in no tier set.
	for code := range wmoConditions {
		obs := neutralObs()
		obs.WeatherCode = code

		result := Classify(obs, 10, Celsius)

		wantSev, inTier := conditionSeverity(code)
		if !inTier {
			assert.Empty(t, result.Alerts, "code %d", code)
			continue
		}
		require.Len(t, result.Alerts, 1, "code %d", code)
		assert.Equal(t, wantSev, result.Alerts[0].Severity, "code %d", code)
	}
}

func TestClassify_WindGustTiers(t *testing.T) {
	tests := []struct {
		name        string
		gustKmh     float64
		unit        TemperatureUnit
		wantSev     Severity
		wantMessage string
	}{
		{"moderate gusts metric", 45, Celsius, SeverityModerate, "Moderate wind gusts of 45 km/h"},
		{"strong gusts metric", 55, Celsius, SeveritySevere, "Strong wind gusts of 55 km/h"},
		{"dangerous gusts metric", 75, Celsius, SeverityExtreme, "Dangerous wind gusts of 75 km/h"},
		// 72 km/h ≈ 44.7 mph, above the 43 mph imperial extreme threshold.
		{"dangerous gusts imperial", 72, Fahrenheit, SeverityExtreme, "Dangerous wind gusts of 45 mph"},
		// 45 km/h ≈ 28 mph, moderate in imperial (≥25) as in metric.
		{"moderate gusts imperial", 45, Fahrenheit, SeverityModerate, "Moderate wind gusts of 28 mph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := neutralObs()
			obs.WindGust = tt.gustKmh

			result := Classify(obs, 10, tt.unit)

			require.Len(t, result.Alerts, 1)
			alert := result.Alerts[0]
			assert.Equal(t, AlertWind, alert.Type)
			assert.Equal(t, tt.wantSev, alert.Severity)
			assert.Equal(t, tt.wantMessage, alert.Message)
		})
	}
}

func TestClassify_HumidityTiers(t *testing.T) {
	tests := []struct {
		name     string
		humidity float64
		wantLen  int
		wantSev  Severity
		wantMsg  string
	}{
		{"very high", 95, 1, SeveritySevere, "Very high humidity of 95%"},
		{"boundary very high", 90, 1, SeveritySevere, "Very high humidity of 90%"},
		{"high", 85, 1, SeverityModerate, "High humidity of 85%"},
		{"below threshold", 79, 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := neutralObs()
			obs.Humidity = tt.humidity

			result := Classify(obs, 10, Celsius)

			require.Len(t, result.Alerts, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, AlertHumidity, result.Alerts[0].Type)
				assert.Equal(t, tt.wantSev, result.Alerts[0].Severity)
				assert.Equal(t, tt.wantMsg, result.Alerts[0].Message)
			}
		})
	}
}

func TestClassify_PrecipitationLabelQuirk(t *testing.T) {
	// The ≥90% tier is labeled "severe", not "extreme" — pinned product
	// behavior, inconsistent with the other rule families.
	t.Run("very high probability maps to severe", func(t *testing.T) {
		result := Classify(neutralObs(), 95, Celsius)

		require.Len(t, result.Alerts, 1)
		alert := result.Alerts[0]
		assert.Equal(t, AlertPrecipitation, alert.Type)
		assert.Equal(t, SeveritySevere, alert.Severity)
		assert.Equal(t, "Very high precipitation probability of 95%", alert.Message)
		assert.Equal(t, ContextUpcoming, alert.TimeContext)
	})

	t.Run("high probability maps to moderate", func(t *testing.T) {
		result := Classify(neutralObs(), 75, Celsius)

		require.Len(t, result.Alerts, 1)
		assert.Equal(t, SeverityModerate, result.Alerts[0].Severity)
		assert.Equal(t, "High precipitation probability of 75%", result.Alerts[0].Message)
	})

	t.Run("below threshold", func(t *testing.T) {
		result := Classify(neutralObs(), 69, Celsius)
		assert.Empty(t, result.Alerts)
	})
}

func TestClassify_ExtremeHeatScenario(t *testing.T) {
	// 38°C, clear sky, light gusts, dry: exactly one alert, extreme temperature.
	obs := Observation{
		Temperature: 38,
		WindGust:    20,
		Humidity:    40,
		WeatherCode: 0,
		IsDay:       true,
	}

	result := Classify(obs, 10, Celsius)

	require.Len(t, result.Alerts, 1)
	assert.Equal(t, SeverityExtreme, result.Alerts[0].Severity)
	assert.Equal(t, AlertTemperature, result.Alerts[0].Type)
	assert.True(t, result.IsSevere)
}

func TestClassify_ThunderstormScenario(t *testing.T) {
	// Mild temperature, thunderstorm code, dangerous gusts: condition and wind
	// alerts, both extreme, in evaluation order.
	obs := Observation{
		Temperature: 18,
		WindGust:    75,
		Humidity:    50,
		WeatherCode: 95,
		IsDay:       true,
	}

	result := Classify(obs, 20, Celsius)

	require.Len(t, result.Alerts, 2)
	assert.Equal(t, AlertCondition, result.Alerts[0].Type)
	assert.Equal(t, SeverityExtreme, result.Alerts[0].Severity)
	assert.Equal(t, "Thunderstorm", result.Alerts[0].Message)
	assert.Equal(t, AlertWind, result.Alerts[1].Type)
	assert.Equal(t, SeverityExtreme, result.Alerts[1].Severity)
	assert.True(t, result.IsSevere)
}

func TestClassify_AlertsSortedBySeverityRank(t *testing.T) {
	// Cold (moderate), advisory condition, severe gusts, severe humidity,
	// moderate precipitation — output must be rank-ascending, stable within
	// ranks.
	obs := Observation{
		Temperature: -5,
		WindGust:    55,
		Humidity:    92,
		WeatherCode: 45,
		IsDay:       false,
	}

	result := Classify(obs, 75, Celsius)

	require.Len(t, result.Alerts, 5)
	for i := 1; i < len(result.Alerts); i++ {
		assert.LessOrEqual(t,
			result.Alerts[i-1].Severity.Rank(),
			result.Alerts[i].Severity.Rank(),
			"alert %d out of order", i)
	}

	// Severe tier first (wind then humidity, evaluation order), then the
	// moderate tier (temperature before precipitation), advisory last.
	assert.Equal(t, AlertWind, result.Alerts[0].Type)
	assert.Equal(t, AlertHumidity, result.Alerts[1].Type)
	assert.Equal(t, AlertTemperature, result.Alerts[2].Type)
	assert.Equal(t, AlertPrecipitation, result.Alerts[3].Type)
	assert.Equal(t, AlertCondition, result.Alerts[4].Type)
}

func TestClassify_Idempotent(t *testing.T) {
	obs := Observation{
		Temperature: -12,
		WindGust:    80,
		Humidity:    91,
		WeatherCode: 99,
		IsDay:       true,
	}

	first := Classify(obs, 95, Celsius)
	second := Classify(obs, 95, Celsius)

	assert.Equal(t, first, second)
}
