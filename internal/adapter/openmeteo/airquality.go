package openmeteo

import (
	"context"
	"log/slog"
	"math"
	"net/url"
	"time"
)

// AirQualityClient fetches the current European AQI.
type AirQualityClient struct {
	caller  *caller
	baseURL string
}

// NewAirQualityClient creates an air-quality API client.
func NewAirQualityClient(timeout time.Duration, logger *slog.Logger) *AirQualityClient {
	return &AirQualityClient{
		caller:  newCaller("open-meteo-air-quality", timeout, logger),
		baseURL: "https://air-quality-api.open-meteo.com/v1/air-quality",
	}
}

// CurrentAQI returns the current European AQI for the given coordinates,
// rounded to the nearest integer.
func (c *AirQualityClient) CurrentAQI(ctx context.Context, lat, lon float64) (int, error) {
	params := url.Values{
		"latitude":  {formatCoord(lat)},
		"longitude": {formatCoord(lon)},
		"current":   {"european_aqi"},
	}

	var resp airQualityResponse
	if err := c.caller.getJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return 0, err
	}
	return int(math.Round(resp.Current.EuropeanAQI)), nil
}

type airQualityResponse struct {
	Current struct {
		EuropeanAQI float64 `json:"european_aqi"`
	} `json:"current"`
}
