// Package openmeteo provides HTTP clients for the Open-Meteo forecast,
// air-quality, archive, and geocoding APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// Cooldown before retrying a request the upstream rejected with 429.
	rateLimitCooldown = 2 * time.Second

	// Bound on 429 retries within a single call.
	maxRateLimitRetries = 5
)

// caller wraps HTTP GET plus JSON decode with a circuit breaker and a
// bounded cooldown-retry loop for upstream 429 responses.
type caller struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cooldown   time.Duration
	maxRetries int
	logger     *slog.Logger
}

func newCaller(name string, timeout time.Duration, logger *slog.Logger) *caller {
	return &caller{
		name:       name,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		cooldown:   rateLimitCooldown,
		maxRetries: maxRateLimitRetries,
		logger:     logger,
	}
}

func (c *caller) getJSON(ctx context.Context, fullURL string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.fetch(ctx, fullURL, out)
	})
	return err
}

func (c *caller) fetch(ctx context.Context, fullURL string, out any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", c.name, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt >= c.maxRetries {
				return fmt.Errorf("%s: still rate limited after %d retries", c.name, c.maxRetries)
			}
			c.logger.Warn("upstream rate limited, cooling down",
				"api", c.name,
				"attempt", attempt+1,
				"cooldown", c.cooldown,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cooldown):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("%s: status %d: %s", c.name, resp.StatusCode, body)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode %s response: %w", c.name, err)
		}
		return nil
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
