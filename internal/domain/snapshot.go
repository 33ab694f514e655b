package domain

// AQIReading is the (possibly degraded) air-quality result for a snapshot.
type AQIReading struct {
	AQI         int
	Description string
}

// UnavailableAQI is the degraded reading used when the air-quality fetch
// fails.
func UnavailableAQI() AQIReading {
	return AQIReading{AQI: AQIUnavailable, Description: AQIUnavailableDescription}
}

// BuildSnapshot fuses a location, its raw observation, the daily forecast,
// the air-quality reading, and the classification into a display-ready
// snapshot. Current metrics are rounded to the nearest integer; the raw
// values stay metric (Celsius, km/h) regardless of the display unit used for
// classification.
func BuildSnapshot(loc Location, obs Observation, forecast []DailyForecast, aqi AQIReading, cls Classification) WeatherSnapshot {
	return WeatherSnapshot{
		LocationID: loc.ID,
		City:       loc.City,
		State:      loc.State,
		Country:    loc.Country,
		Lat:        loc.Lat,
		Lon:        loc.Lon,

		Temperature:   round(obs.Temperature),
		FeelsLike:     round(obs.FeelsLike),
		Condition:     Condition(obs.WeatherCode, obs.IsDay),
		WindSpeed:     round(obs.WindSpeed),
		WindGust:      round(obs.WindGust),
		WindDirection: CompassDirection(obs.WindDegrees),
		Humidity:      round(obs.Humidity),

		AQI:            aqi.AQI,
		AQIDescription: aqi.Description,

		Forecast:       forecast,
		Alerts:         cls.Alerts,
		HasSevereAlert: cls.IsSevere,

		FetchedAt: clock.Now(),
	}
}
