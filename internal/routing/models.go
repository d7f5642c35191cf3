// Package routing provides candidate walking-route geometries from an
// external route provider. The engine only scores and ranks geometries; it
// never computes pathfinding itself.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/safepath/safepath/pkg/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no path exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates coordinates outside valid WGS84 ranges.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for route-geometry providers.
type Provider interface {
	// GetRoutes retrieves walking route alternatives between two points.
	GetRoutes(ctx context.Context, req RoutesRequest) (*RoutesResponse, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// RoutesRequest is the request for candidate route geometries.
type RoutesRequest struct {
	Origin      geo.Point
	Destination geo.Point

	// MaxAlternatives is the number of alternative paths requested on top
	// of the primary one (default: 4).
	MaxAlternatives int
}

// RoutesResponse contains the provider's route alternatives.
type RoutesResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is a single candidate geometry.
type Route struct {
	// Path is the ordered route geometry, origin first.
	Path []geo.Point

	DistanceMeters  int
	DurationMinutes int
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ValidateCoordinates checks that a point is within valid WGS84 ranges.
func ValidateCoordinates(p geo.Point) error {
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
