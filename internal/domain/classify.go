package domain

import (
	"fmt"
	"math"
	"sort"
)

// tierThresholds is a three-tier ascending threshold set for a wind metric.
type tierThresholds struct {
	moderate float64
	severe   float64
	extreme  float64
}

// temperatureThresholds bound the comfortable range for a unit system.
type temperatureThresholds struct {
	cold     float64
	veryCold float64
	hot      float64
	veryHot  float64
}

// thresholdTable holds the full severe-weather rule thresholds for one unit
// system. Metric and imperial are independent tables with their own values,
// not unit conversions of each other.
type thresholdTable struct {
	windGust    tierThresholds
	windSpeed   tierThresholds
	temperature temperatureThresholds
	windUnit    string
	degreeUnit  TemperatureUnit
}

var (
	metricThresholds = thresholdTable{
		windGust:    tierThresholds{moderate: 40, severe: 50, extreme: 70},  // km/h
		windSpeed:   tierThresholds{moderate: 25, severe: 30, extreme: 45},  // km/h
		temperature: temperatureThresholds{cold: 0, veryCold: -10, hot: 30, veryHot: 35},
		windUnit:    "km/h",
		degreeUnit:  Celsius,
	}
	imperialThresholds = thresholdTable{
		windGust:    tierThresholds{moderate: 25, severe: 31, extreme: 43}, // mph
		windSpeed:   tierThresholds{moderate: 15, severe: 19, extreme: 28}, // mph
		temperature: temperatureThresholds{cold: 32, veryCold: 14, hot: 86, veryHot: 95},
		windUnit:    "mph",
		degreeUnit:  Fahrenheit,
	}
)

// Humidity and precipitation thresholds are unitless percentages, shared
// across unit systems.
const (
	humidityHigh     = 80
	humidityVeryHigh = 90

	precipProbSevere  = 70
	precipProbExtreme = 90
)

// Classification is the result of evaluating one observation.
type Classification struct {
	Alerts   []WeatherAlert
	IsSevere bool
}

// Classify evaluates a raw metric observation and the day-0 forecast
// precipitation probability against the severe-weather ruleset for the given
// display unit. It is a pure function: no I/O, no clock, deterministic.
//
// Rules fire in a fixed order (temperature, condition, wind, humidity,
// precipitation) and the result is sorted ascending by severity rank with a
// stable sort, so ties keep that evaluation order. IsSevere is true iff any
// alert fired.
func Classify(obs Observation, day0PrecipProb float64, unit TemperatureUnit) Classification {
	table := metricThresholds
	if unit == Fahrenheit {
		table = imperialThresholds
	}

	var alerts []WeatherAlert
	alerts = appendTemperatureAlert(alerts, obs, table)
	alerts = appendConditionAlert(alerts, obs)
	alerts = appendWindAlert(alerts, obs, table)
	alerts = appendHumidityAlert(alerts, obs)
	alerts = appendPrecipitationAlert(alerts, day0PrecipProb)

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() < alerts[j].Severity.Rank()
	})

	return Classification{Alerts: alerts, IsSevere: len(alerts) > 0}
}

// appendTemperatureAlert emits at most one temperature alert. The four
// branches are mutually exclusive and checked cold-extreme, cold-moderate,
// hot-extreme, hot-moderate; the first match wins.
func appendTemperatureAlert(alerts []WeatherAlert, obs Observation, table thresholdTable) []WeatherAlert {
	temp := obs.Temperature
	if table.degreeUnit == Fahrenheit {
		temp = CelsiusToFahrenheit(temp)
	}
	t := table.temperature

	var message string
	var severity Severity
	switch {
	case temp <= t.veryCold:
		message = fmt.Sprintf("Extreme cold temperature of %d°%s", round(temp), table.degreeUnit)
		severity = SeverityExtreme
	case temp <= t.cold:
		message = fmt.Sprintf("Cold temperature of %d°%s", round(temp), table.degreeUnit)
		severity = SeverityModerate
	case temp >= t.veryHot:
		message = fmt.Sprintf("Extreme heat of %d°%s", round(temp), table.degreeUnit)
		severity = SeverityExtreme
	case temp >= t.hot:
		message = fmt.Sprintf("High temperature of %d°%s", round(temp), table.degreeUnit)
		severity = SeverityModerate
	default:
		return alerts
	}

	return append(alerts, WeatherAlert{
		Message:     message,
		Severity:    severity,
		Type:        AlertTemperature,
		TimeContext: ContextCurrent,
	})
}

// appendConditionAlert emits one alert when the weather code belongs to a
// severity set. The message is the code's day label regardless of is-day.
func appendConditionAlert(alerts []WeatherAlert, obs Observation) []WeatherAlert {
	severity, ok := conditionSeverity(obs.WeatherCode)
	if !ok {
		return alerts
	}
	return append(alerts, WeatherAlert{
		Message:     DayCondition(obs.WeatherCode),
		Severity:    severity,
		Type:        AlertCondition,
		TimeContext: ContextCurrent,
	})
}

// appendWindAlert emits at most one wind alert, driven by the gust reading.
// Sustained-speed thresholds exist in the table but only gusts produce alert
// text; the product rule set never surfaced sustained-wind messages.
func appendWindAlert(alerts []WeatherAlert, obs Observation, table thresholdTable) []WeatherAlert {
	gust := obs.WindGust
	if table.degreeUnit == Fahrenheit {
		gust = KmhToMph(gust)
	}

	var message string
	var severity Severity
	switch {
	case gust >= table.windGust.extreme:
		message = fmt.Sprintf("Dangerous wind gusts of %d %s", round(gust), table.windUnit)
		severity = SeverityExtreme
	case gust >= table.windGust.severe:
		message = fmt.Sprintf("Strong wind gusts of %d %s", round(gust), table.windUnit)
		severity = SeveritySevere
	case gust >= table.windGust.moderate:
		message = fmt.Sprintf("Moderate wind gusts of %d %s", round(gust), table.windUnit)
		severity = SeverityModerate
	default:
		return alerts
	}

	return append(alerts, WeatherAlert{
		Message:     message,
		Severity:    severity,
		Type:        AlertWind,
		TimeContext: ContextCurrent,
	})
}

func appendHumidityAlert(alerts []WeatherAlert, obs Observation) []WeatherAlert {
	var message string
	var severity Severity
	switch {
	case obs.Humidity >= humidityVeryHigh:
		message = fmt.Sprintf("Very high humidity of %d%%", round(obs.Humidity))
		severity = SeveritySevere
	case obs.Humidity >= humidityHigh:
		message = fmt.Sprintf("High humidity of %d%%", round(obs.Humidity))
		severity = SeverityModerate
	default:
		return alerts
	}

	return append(alerts, WeatherAlert{
		Message:     message,
		Severity:    severity,
		Type:        AlertHumidity,
		TimeContext: ContextCurrent,
	})
}

// appendPrecipitationAlert evaluates tomorrow's (day-0 forecast) maximum
// precipitation probability. The ≥90% tier maps to severity "severe" and the
// 70-89% tier to "moderate" — inconsistent with the other rules' top tier
// being "extreme", but pinned product behavior.
func appendPrecipitationAlert(alerts []WeatherAlert, precipProb float64) []WeatherAlert {
	var message string
	var severity Severity
	switch {
	case precipProb >= precipProbExtreme:
		message = fmt.Sprintf("Very high precipitation probability of %d%%", round(precipProb))
		severity = SeveritySevere
	case precipProb >= precipProbSevere:
		message = fmt.Sprintf("High precipitation probability of %d%%", round(precipProb))
		severity = SeverityModerate
	default:
		return alerts
	}

	return append(alerts, WeatherAlert{
		Message:     message,
		Severity:    severity,
		Type:        AlertPrecipitation,
		TimeContext: ContextUpcoming,
	})
}

// round rounds half away from zero, matching the display rounding used in
// alert message text.
func round(v float64) int {
	return int(math.Round(v))
}
