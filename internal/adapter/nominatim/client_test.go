package nominatim

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Reverse_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(`{"address": {
			"city": "San Francisco",
			"state": "California",
			"country": "United States"
		}}`))
	}))
	defer srv.Close()

	addr, err := testClient(srv.URL).Reverse(context.Background(), 37.7749, -122.4194)
	require.NoError(t, err)
	assert.Equal(t, "San Francisco", addr.City)
	assert.Equal(t, "California", addr.State)
	assert.Equal(t, "United States", addr.Country)
}

func TestClient_Reverse_TownOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address": {"town": "Sausalito", "state": "California", "country": "United States"}}`))
	}))
	defer srv.Close()

	addr, err := testClient(srv.URL).Reverse(context.Background(), 37.8591, -122.4853)
	require.NoError(t, err)
	assert.Empty(t, addr.City)
	assert.Equal(t, "Sausalito", addr.Town)
}

func TestClient_Reverse_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Reverse(context.Background(), 37.7749, -122.4194)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
