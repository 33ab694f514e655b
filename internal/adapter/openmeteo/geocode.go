package openmeteo

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"
)

// GeocodeClient searches place names via the Open-Meteo geocoding API.
type GeocodeClient struct {
	caller  *caller
	baseURL string
}

// NewGeocodeClient creates a geocoding search client.
func NewGeocodeClient(timeout time.Duration, logger *slog.Logger) *GeocodeClient {
	return &GeocodeClient{
		caller:  newCaller("open-meteo-geocode", timeout, logger),
		baseURL: "https://geocoding-api.open-meteo.com/v1/search",
	}
}

// Search returns up to count matches for the given place name. A name with
// no matches returns an empty slice, not an error.
func (c *GeocodeClient) Search(ctx context.Context, name string, count int) ([]SearchResult, error) {
	return c.search(ctx, name, "", count)
}

// SearchInCountry restricts matches to the given country name.
func (c *GeocodeClient) SearchInCountry(ctx context.Context, name, country string, count int) ([]SearchResult, error) {
	return c.search(ctx, name, country, count)
}

func (c *GeocodeClient) search(ctx context.Context, name, country string, count int) ([]SearchResult, error) {
	params := url.Values{
		"name":     {name},
		"count":    {strconv.Itoa(count)},
		"language": {"en"},
		"format":   {"json"},
	}
	if country != "" {
		params.Set("country", country)
	}

	var resp searchResponse
	if err := c.caller.getJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchResult is one geocoding match.
type SearchResult struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Admin1      string  `json:"admin1"`
	Admin1ID    int64   `json:"admin1_id"`
	FeatureCode string  `json:"feature_code"`
	Population  int64   `json:"population"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}
