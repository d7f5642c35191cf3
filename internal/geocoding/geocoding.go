// Package geocoding resolves free-form addresses to coordinates.
package geocoding

import (
	"context"
	"errors"

	"github.com/safepath/safepath/pkg/geo"
)

// Sentinel errors for geocoding operations.
var (
	// ErrNoResult indicates the query matched no known place.
	ErrNoResult = errors.New("no geocoding result for query")
	// ErrProviderUnavailable indicates the geocoding provider is down.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
)

// Provider defines the interface for geocoding providers.
type Provider interface {
	// Geocode resolves an address or place name to a coordinate.
	Geocode(ctx context.Context, query string) (*Result, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Result is a resolved place.
type Result struct {
	Location geo.Point

	// Name is the display name the provider resolved the query to.
	Name string

	// City and Country give coarse context for disambiguation.
	City    string
	Country string
}
