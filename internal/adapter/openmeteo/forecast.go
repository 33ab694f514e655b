package openmeteo

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// ForecastClient fetches current conditions and the 7-day daily forecast.
type ForecastClient struct {
	caller  *caller
	baseURL string
}

// NewForecastClient creates a forecast API client.
func NewForecastClient(timeout time.Duration, logger *slog.Logger) *ForecastClient {
	return &ForecastClient{
		caller:  newCaller("open-meteo-forecast", timeout, logger),
		baseURL: "https://api.open-meteo.com/v1/forecast",
	}
}

// Forecast returns the raw forecast response for the given coordinates.
// All values are metric (Celsius, km/h).
func (c *ForecastClient) Forecast(ctx context.Context, lat, lon float64) (ForecastResponse, error) {
	params := url.Values{
		"latitude":      {formatCoord(lat)},
		"longitude":     {formatCoord(lon)},
		"current":       {"temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,wind_direction_10m,wind_gusts_10m,weather_code,is_day"},
		"daily":         {"temperature_2m_max,temperature_2m_min,weather_code,precipitation_probability_max,wind_gusts_10m_max"},
		"forecast_days": {"7"},
		"timezone":      {"auto"},
	}

	var resp ForecastResponse
	if err := c.caller.getJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return ForecastResponse{}, err
	}
	return resp, nil
}

// Forecast API response types.

type ForecastResponse struct {
	Current CurrentBlock `json:"current"`
	Daily   DailyBlock   `json:"daily"`
}

type CurrentBlock struct {
	Temperature         float64 `json:"temperature_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	Humidity            float64 `json:"relative_humidity_2m"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	WindDirection       float64 `json:"wind_direction_10m"`
	WindGusts           float64 `json:"wind_gusts_10m"`
	WeatherCode         int     `json:"weather_code"`
	IsDay               int     `json:"is_day"`
}

// DailyBlock holds parallel per-day series. precipitation_probability_max
// carries nulls for some locations, hence the pointer slice.
type DailyBlock struct {
	Time           []string   `json:"time"`
	TemperatureMax []float64  `json:"temperature_2m_max"`
	TemperatureMin []float64  `json:"temperature_2m_min"`
	WeatherCode    []int      `json:"weather_code"`
	PrecipProbMax  []*float64 `json:"precipitation_probability_max"`
	WindGustsMax   []float64  `json:"wind_gusts_10m_max"`
}
