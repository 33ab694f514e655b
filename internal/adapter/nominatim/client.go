// Package nominatim provides a reverse-geocoding client for the OpenStreetMap
// Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Nominatim's usage policy requires an identifying User-Agent.
const userAgent = "skycast/1.0 (https://github.com/skycast-app/skycast)"

// Client resolves coordinates to address details.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a reverse-geocoding client.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://nominatim.openstreetmap.org/reverse",
		logger:     logger,
	}
}

// Reverse returns the address details for the given coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	params := url.Values{
		"format":         {"json"},
		"lat":            {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', 6, 64)},
		"addressdetails": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Address{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Address{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Address{}, fmt.Errorf("nominatim: status %d: %s", resp.StatusCode, body)
	}

	var nr reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return Address{}, fmt.Errorf("decode reverse geocode response: %w", err)
	}
	return nr.Address, nil
}

// Address holds the fields used to name a location. Which of the settlement
// fields is populated depends on the OSM place type at the coordinates.
type Address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	Suburb  string `json:"suburb"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type reverseResponse struct {
	Address Address `json:"address"`
}
