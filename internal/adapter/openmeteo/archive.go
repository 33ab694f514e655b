package openmeteo

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// ArchiveClient fetches past daily observations from the historical archive.
type ArchiveClient struct {
	caller  *caller
	baseURL string
}

// NewArchiveClient creates an archive API client.
func NewArchiveClient(timeout time.Duration, logger *slog.Logger) *ArchiveClient {
	return &ArchiveClient{
		caller:  newCaller("open-meteo-archive", timeout, logger),
		baseURL: "https://archive-api.open-meteo.com/v1/archive",
	}
}

// Daily returns daily observations for the inclusive date range, formatted
// YYYY-MM-DD. All values are metric.
func (c *ArchiveClient) Daily(ctx context.Context, lat, lon float64, startDate, endDate string) (ArchiveResponse, error) {
	params := url.Values{
		"latitude":   {formatCoord(lat)},
		"longitude":  {formatCoord(lon)},
		"start_date": {startDate},
		"end_date":   {endDate},
		"daily":      {"temperature_2m_max,temperature_2m_min,temperature_2m_mean,weather_code,precipitation_sum,wind_speed_10m_max"},
		"timezone":   {"auto"},
	}

	var resp ArchiveResponse
	if err := c.caller.getJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return ArchiveResponse{}, err
	}
	return resp, nil
}

// Archive API response types. Recent dates fall outside the reanalysis
// window and come back as nulls, hence the pointer slices.

type ArchiveResponse struct {
	Daily ArchiveDaily `json:"daily"`
}

type ArchiveDaily struct {
	Time             []string   `json:"time"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	TemperatureMean  []*float64 `json:"temperature_2m_mean"`
	WeatherCode      []*int     `json:"weather_code"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
	WindSpeedMax     []*float64 `json:"wind_speed_10m_max"`
}
