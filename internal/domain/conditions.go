package domain

import "slices"

// conditionLabels holds the human labels for a WMO weather code. Most codes
// share one label for day and night; the split exists for codes whose label
// differs with daylight in other products and keeps the table shape uniform.
type conditionLabels struct {
	day   string
	night string
}

// wmoConditions maps WMO weather codes (0-99 range, sparse) to labels.
var wmoConditions = map[int]conditionLabels{
	0:  {"Clear sky", "Clear sky"},
	1:  {"Mainly clear", "Mainly clear"},
	2:  {"Partly cloudy", "Partly cloudy"},
	3:  {"Overcast", "Overcast"},
	45: {"Foggy", "Foggy"},
	48: {"Depositing rime fog", "Depositing rime fog"},
	51: {"Light drizzle", "Light drizzle"},
	53: {"Moderate drizzle", "Moderate drizzle"},
	55: {"Dense drizzle", "Dense drizzle"},
	56: {"Light freezing drizzle", "Light freezing drizzle"},
	57: {"Dense freezing drizzle", "Dense freezing drizzle"},
	61: {"Slight rain", "Slight rain"},
	63: {"Moderate rain", "Moderate rain"},
	65: {"Heavy rain", "Heavy rain"},
	66: {"Light freezing rain", "Light freezing rain"},
	67: {"Heavy freezing rain", "Heavy freezing rain"},
	71: {"Slight snow fall", "Slight snow fall"},
	73: {"Moderate snow fall", "Moderate snow fall"},
	75: {"Heavy snow fall", "Heavy snow fall"},
	77: {"Snow grains", "Snow grains"},
	80: {"Slight rain showers", "Slight rain showers"},
	81: {"Moderate rain showers", "Moderate rain showers"},
	82: {"Violent rain showers", "Violent rain showers"},
	85: {"Slight snow showers", "Slight snow showers"},
	86: {"Heavy snow showers", "Heavy snow showers"},
	95: {"Thunderstorm", "Thunderstorm"},
	96: {"Thunderstorm with slight hail", "Thunderstorm with slight hail"},
	99: {"Thunderstorm with heavy hail", "Thunderstorm with heavy hail"},
}

// Condition returns the label for a weather code. Unknown codes fall back to
// code 0's labels rather than erroring; upstreams occasionally emit codes
// outside the published table.
func Condition(code int, isDay bool) string {
	labels, ok := wmoConditions[code]
	if !ok {
		labels = wmoConditions[0]
	}
	if isDay {
		return labels.day
	}
	return labels.night
}

// DayCondition returns the daytime label for a weather code, falling back to
// code 0. Alert messages and daily forecasts always use the day label.
func DayCondition(code int) string {
	labels, ok := wmoConditions[code]
	if !ok {
		labels = wmoConditions[0]
	}
	return labels.day
}

// Weather-code severity sets, checked in descending severity order by the
// classifier; the first set containing the code wins.
var (
	extremeCodes  = []int{95, 96, 99}                                     // thunderstorms with hail
	severeCodes   = []int{75, 82, 86}                                     // heavy snow, violent rain
	moderateCodes = []int{65, 67, 71, 73, 77, 85}                         // heavy rain, snow
	advisoryCodes = []int{45, 48, 51, 53, 55, 56, 57, 61, 63, 66, 80, 81} // fog, drizzle, light rain
)

// conditionSeverity reports the severity tier of a weather code, or false if
// the code is in no tier set.
func conditionSeverity(code int) (Severity, bool) {
	switch {
	case slices.Contains(extremeCodes, code):
		return SeverityExtreme, true
	case slices.Contains(severeCodes, code):
		return SeveritySevere, true
	case slices.Contains(moderateCodes, code):
		return SeverityModerate, true
	case slices.Contains(advisoryCodes, code):
		return SeverityAdvisory, true
	default:
		return "", false
	}
}
