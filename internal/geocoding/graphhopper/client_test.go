package graphhopper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/geocoding"
)

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    url,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})
}

func TestGeocode_FirstHitWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode", r.URL.Path)
		assert.Equal(t, "city hall san francisco", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		_, _ = w.Write([]byte(`{"hits":[
			{"point":{"lat":37.7793,"lng":-122.4193},"name":"San Francisco City Hall","city":"San Francisco","country":"United States"},
			{"point":{"lat":40.7128,"lng":-74.006},"name":"City Hall","city":"New York","country":"United States"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.Geocode(context.Background(), "city hall san francisco")
	require.NoError(t, err)

	assert.InDelta(t, 37.7793, result.Location.Lat, 1e-6)
	assert.InDelta(t, -122.4193, result.Location.Lon, 1e-6)
	assert.Equal(t, "San Francisco City Hall", result.Name)
	assert.Equal(t, "San Francisco", result.City)
}

func TestGeocode_NoHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Geocode(context.Background(), "xyzzy nowhere")
	assert.ErrorIs(t, err, geocoding.ErrNoResult)
}

func TestGeocode_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Geocode(context.Background(), "anywhere")
	assert.ErrorIs(t, err, geocoding.ErrProviderUnavailable)
}
