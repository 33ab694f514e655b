package domain

import "time"

// TemperatureUnit selects the display unit system. The stored snapshot stays
// metric; the unit only affects alert message text and display conversion.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "C"
	Fahrenheit TemperatureUnit = "F"
)

// Severity is one of the four alert tiers.
type Severity string

const (
	SeverityExtreme  Severity = "extreme"
	SeveritySevere   Severity = "severe"
	SeverityModerate Severity = "moderate"
	SeverityAdvisory Severity = "advisory"
)

// Rank returns the sort rank of a severity: extreme=0, severe=1, moderate=2,
// advisory=3. Unknown severities sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityExtreme:
		return 0
	case SeveritySevere:
		return 1
	case SeverityModerate:
		return 2
	case SeverityAdvisory:
		return 3
	default:
		return 4
	}
}

// AlertType identifies which rule family produced an alert.
type AlertType string

const (
	AlertTemperature   AlertType = "temperature"
	AlertCondition     AlertType = "condition"
	AlertWind          AlertType = "wind"
	AlertHumidity      AlertType = "humidity"
	AlertPrecipitation AlertType = "precipitation"
)

// TimeContext distinguishes alerts about current conditions from alerts about
// the upcoming forecast window.
type TimeContext string

const (
	ContextCurrent  TimeContext = "current"
	ContextUpcoming TimeContext = "upcoming"
)

// WeatherAlert is one classified severe-weather condition. Alerts are
// ephemeral: recomputed wholesale on every fetch, never partially updated.
type WeatherAlert struct {
	Message     string      `json:"message"`
	Severity    Severity    `json:"severity"`
	Type        AlertType   `json:"type"`
	TimeContext TimeContext `json:"time_context"`
}

// Location is a tracked place. Identity is the opaque ID, but duplicate
// detection uses geographic proximity (see CloseEnough), never ID equality,
// because the geocoding resolver mints a fresh ID on every lookup.
type Location struct {
	ID      string  `json:"id"`
	City    string  `json:"city"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Region  string  `json:"region,omitempty"`
}

// Observation is the raw, provider-native (metric) reading for one location,
// used as classification input before any rounding or unit conversion.
type Observation struct {
	Temperature float64 // °C
	FeelsLike   float64 // °C
	WindSpeed   float64 // km/h, sustained
	WindGust    float64 // km/h
	WindDegrees float64 // meteorological degrees
	Humidity    float64 // percent
	WeatherCode int
	IsDay       bool
}

// DailyForecast is one day of the 7-day forecast.
type DailyForecast struct {
	Date          string `json:"date"`
	MaxTemp       int    `json:"max_temp"`
	MinTemp       int    `json:"min_temp"`
	Condition     string `json:"condition"`
	PrecipProb    int    `json:"precipitation_probability"`
	MaxWindGust   int    `json:"max_wind_gust"`
}

// WeatherSnapshot is the fused point-in-time weather record for one location.
// It is created or replaced wholesale on every successful fetch and removed
// with its location; it is never partially mutated.
type WeatherSnapshot struct {
	LocationID string  `json:"location_id"`
	City       string  `json:"city"`
	State      string  `json:"state,omitempty"`
	Country    string  `json:"country"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`

	Temperature   int    `json:"temperature"` // °C
	FeelsLike     int    `json:"feels_like"`
	Condition     string `json:"condition"`
	WindSpeed     int    `json:"wind_speed"` // km/h
	WindGust      int    `json:"wind_gust"`
	WindDirection string `json:"wind_direction"` // 8-point compass
	Humidity      int    `json:"humidity"`

	AQI            int    `json:"aqi"` // AQIUnavailable when the AQI fetch degraded
	AQIDescription string `json:"aqi_description"`

	Forecast       []DailyForecast `json:"forecast"`
	Alerts         []WeatherAlert  `json:"alerts"`
	HasSevereAlert bool            `json:"has_severe_alert"`

	FetchedAt time.Time `json:"fetched_at"`
}

// HistoricalDay is one day from the archive API.
type HistoricalDay struct {
	Date          string  `json:"date"`
	MaxTemp       int     `json:"max_temp"`
	MinTemp       int     `json:"min_temp"`
	AvgTemp       int     `json:"avg_temp"`
	Condition     string  `json:"condition"`
	Precipitation float64 `json:"precipitation"` // mm, one decimal place
	WindSpeed     int     `json:"wind_speed"`    // km/h, daily max
}

// YearlyComparison pairs a past year with the observation for today's date in
// that year.
type YearlyComparison struct {
	Year int           `json:"year"`
	Day  HistoricalDay `json:"day"`
}
