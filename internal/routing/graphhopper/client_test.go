package graphhopper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/routing"
	"github.com/safepath/safepath/pkg/geo"
	"github.com/safepath/safepath/pkg/polyline"
)

var (
	testOrigin      = geo.Point{Lat: 37.7793, Lon: -122.4193}
	testDestination = geo.Point{Lat: 37.7849, Lon: -122.4094}
)

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    url,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})
}

func encodedPath(points ...geo.Point) string {
	return polyline.Encode(points)
}

func TestGetRoutes_Success(t *testing.T) {
	pathA := encodedPath(testOrigin, geo.Point{Lat: 37.7810, Lon: -122.4150}, testDestination)
	pathB := encodedPath(testOrigin, geo.Point{Lat: 37.7830, Lon: -122.4180}, testDestination)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "foot", r.URL.Query().Get("vehicle"))
		assert.Equal(t, "alternative_route", r.URL.Query().Get("algorithm"))
		assert.Equal(t, "3", r.URL.Query().Get("alternative_route.max_paths"))
		assert.Len(t, r.URL.Query()["point"], 2)

		resp := ghRouteResponse{
			Paths: []ghPath{
				{Distance: 1260.5, Time: 15 * 60 * 1000, Points: pathA, PointsEncoded: true},
				{Distance: 1410.0, Time: 17 * 60 * 1000, Points: pathB, PointsEncoded: true},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Origin:          testOrigin,
		Destination:     testDestination,
		MaxAlternatives: 2,
	})
	require.NoError(t, err)

	require.Len(t, result.Routes, 2)
	assert.Equal(t, ProviderName, result.Provider)

	first := result.Routes[0]
	assert.Equal(t, 1260, first.DistanceMeters)
	assert.Equal(t, 15, first.DurationMinutes)
	require.Len(t, first.Path, 3)
	assert.InDelta(t, testOrigin.Lat, first.Path[0].Lat, 1e-5)
	assert.InDelta(t, testDestination.Lon, first.Path[2].Lon, 1e-5)
}

func TestGetRoutes_DurationRoundsHalfUp(t *testing.T) {
	path := encodedPath(testOrigin, testDestination)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ghRouteResponse{
			Paths: []ghPath{
				// 9 minutes 30 seconds rounds to 10.
				{Distance: 800, Time: 9*60*1000 + 30*1000, Points: path, PointsEncoded: true},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Origin:      testOrigin,
		Destination: testDestination,
	})
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, 10, result.Routes[0].DurationMinutes)
}

func TestGetRoutes_DropsDegeneratePaths(t *testing.T) {
	good := encodedPath(testOrigin, testDestination)
	degenerate := encodedPath(testOrigin)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ghRouteResponse{
			Paths: []ghPath{
				{Distance: 10, Time: 60000, Points: degenerate, PointsEncoded: true},
				{Distance: 900, Time: 600000, Points: good, PointsEncoded: true},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Origin:      testOrigin,
		Destination: testDestination,
	})
	require.NoError(t, err)
	require.Len(t, result.Routes, 1)
	assert.Equal(t, 900, result.Routes[0].DistanceMeters)
}

func TestGetRoutes_EmptyPathsIsNoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(ghRouteResponse{}))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Origin:      testOrigin,
		Destination: testDestination,
	})
	assert.ErrorIs(t, err, routing.ErrNoRouteFound)
}

func TestGetRoutes_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"message":"too many requests"}`, routing.ErrRateLimitExceeded},
		{"bad key", http.StatusUnauthorized, `{"message":"wrong credentials"}`, routing.ErrProviderUnavailable},
		{"no path", http.StatusBadRequest, `{"message":"Connection between locations not found"}`, routing.ErrNoRouteFound},
		{"server error", http.StatusBadGateway, ``, routing.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
				Origin:      testOrigin,
				Destination: testDestination,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var provErr *routing.Error
			require.True(t, errors.As(err, &provErr))
			assert.Equal(t, ProviderName, provErr.Provider)
		})
	}
}

func TestGetRoutes_InvalidCoordinatesRejectedLocally(t *testing.T) {
	client := newTestClient("http://unreachable.invalid")

	_, err := client.GetRoutes(context.Background(), routing.RoutesRequest{
		Origin:      geo.Point{Lat: 91, Lon: 0},
		Destination: testDestination,
	})
	assert.ErrorIs(t, err, routing.ErrInvalidCoordinates)
}
