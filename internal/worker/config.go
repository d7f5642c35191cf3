// Package worker provides background job processing for SafePath.
package worker

import (
	"time"

	"github.com/safepath/safepath/pkg/geo"
)

// Corridor represents a popular walking corridor whose route cache is
// kept warm.
type Corridor struct {
	// Name is the human-readable name of the corridor.
	Name string

	Origin      geo.Point
	Destination geo.Point

	// Priority determines warm order (lower = higher priority).
	Priority int
}

// RefreshConfig holds configuration for the cache refresh job.
type RefreshConfig struct {
	// Corridors are the walking corridors to keep warm.
	// If empty, uses DefaultCorridors.
	Corridors []Corridor

	// Concurrency is the number of concurrent warm operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each operation.
	// Default: 30 seconds
	Timeout time.Duration

	// RefreshIncidents enables forced incident source refresh.
	// Default: true
	RefreshIncidents bool

	// WarmRoutes enables route cache warming.
	// Default: true
	WarmRoutes bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Corridors:        DefaultCorridors(),
		Concurrency:      3,
		Timeout:          30 * time.Second,
		RefreshIncidents: true,
		WarmRoutes:       true,
	}
}

// DefaultCorridors returns the default corridors for San Francisco,
// covering the downtown and Mission walking routes with the most traffic.
func DefaultCorridors() []Corridor {
	return []Corridor{
		{
			Name:        "Civic Center to Union Square",
			Priority:    1,
			Origin:      geo.Point{Lat: 37.7793, Lon: -122.4193},
			Destination: geo.Point{Lat: 37.7880, Lon: -122.4075},
		},
		{
			Name:        "Powell Station to Ferry Building",
			Priority:    1,
			Origin:      geo.Point{Lat: 37.7844, Lon: -122.4080},
			Destination: geo.Point{Lat: 37.7955, Lon: -122.3937},
		},
		{
			Name:        "16th Mission to Dolores Park",
			Priority:    1,
			Origin:      geo.Point{Lat: 37.7648, Lon: -122.4198},
			Destination: geo.Point{Lat: 37.7596, Lon: -122.4269},
		},
		{
			Name:        "Caltrain to Oracle Park",
			Priority:    2,
			Origin:      geo.Point{Lat: 37.7765, Lon: -122.3942},
			Destination: geo.Point{Lat: 37.7786, Lon: -122.3893},
		},
		{
			Name:        "Chinatown to North Beach",
			Priority:    2,
			Origin:      geo.Point{Lat: 37.7941, Lon: -122.4078},
			Destination: geo.Point{Lat: 37.8001, Lon: -122.4098},
		},
		{
			Name:        "Haight to Castro",
			Priority:    3,
			Origin:      geo.Point{Lat: 37.7692, Lon: -122.4481},
			Destination: geo.Point{Lat: 37.7609, Lon: -122.4350},
		},
	}
}

// AllCorridors returns the corridors to warm.
func (c RefreshConfig) AllCorridors() []Corridor {
	return c.Corridors
}

// TotalCorridors returns the number of corridors to warm.
func (c RefreshConfig) TotalCorridors() int {
	return len(c.Corridors)
}
