// Package routeplan selects and ranks walking routes by safety under a
// user time budget.
package routeplan

import (
	"errors"

	"github.com/safepath/safepath/pkg/geo"
)

// CautionThreshold is the minimum safety score a route must meet to be
// considered at all.
const CautionThreshold = 60

// Sentinel errors for route planning.
var (
	// ErrNoRoutesAvailable indicates the geometry provider returned zero
	// candidates. Synthetic variants are never fabricated from nothing.
	ErrNoRoutesAvailable = errors.New("no routes available between the given points")
	// ErrNoGeocodingResult indicates an endpoint address could not be resolved.
	ErrNoGeocodingResult = errors.New("could not resolve address to a location")
)

// Preferences describe one route-selection request.
type Preferences struct {
	// Origin and Destination are used when already resolved. When an
	// address string is set instead, it is geocoded first.
	Origin      *geo.Point
	Destination *geo.Point

	OriginAddress      string
	DestinationAddress string

	// MaxExtraTimeMinutes is how many minutes beyond the fastest route
	// the user will accept for added safety (default: 5).
	MaxExtraTimeMinutes int
}

// RouteCandidate is one scored walking route.
type RouteCandidate struct {
	// Name labels the candidate in the ranked output.
	Name string `json:"name"`

	// Path is the ordered route geometry, origin first.
	Path []geo.Point `json:"path"`

	DistanceMeters  int `json:"distance_meters"`
	DurationMinutes int `json:"duration_minutes"`

	// SafetyScore is in [0,100], higher is safer.
	SafetyScore int `json:"safety_score"`

	// TimeAddedMinutes is the duration above the fastest candidate.
	TimeAddedMinutes int `json:"time_added_minutes"`

	// RiskFactors and SafetyGains are advisory descriptions only. They
	// never participate in ranking.
	RiskFactors []string `json:"risk_factors,omitempty"`
	SafetyGains []string `json:"safety_gains,omitempty"`

	// BelowSafetyThreshold flags a warning route selected because no
	// candidate met the caution threshold.
	BelowSafetyThreshold bool `json:"below_safety_threshold,omitempty"`

	// Synthetic flags a padded variant derived from a real candidate.
	Synthetic bool `json:"synthetic,omitempty"`
}

// RankedRouteSet holds exactly three populated route slots.
type RankedRouteSet struct {
	Primary      RouteCandidate `json:"primary"`
	Alternative1 RouteCandidate `json:"alternative1"`
	Alternative2 RouteCandidate `json:"alternative2"`
}

// Candidates returns the three slots in rank order.
func (s RankedRouteSet) Candidates() []RouteCandidate {
	return []RouteCandidate{s.Primary, s.Alternative1, s.Alternative2}
}
