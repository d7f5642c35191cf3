// Package safety converts nearby incidents into bounded numeric safety
// scores for points and routes.
package safety

import (
	"github.com/safepath/safepath/internal/incident"
)

// NeutralScore is the fallback score used when no geometry is available to
// judge. A route with no geometry cannot be penalized for unknown risk.
const NeutralScore = 85

// Metrics is the result of scoring a point or route. All four scores are
// independently clamped to [0,100]; they are computed from different incident
// subsets and no score is derived from the others.
type Metrics struct {
	SafetyScore     int
	CrimeScore      int
	SocialScore     int
	PedestrianScore int

	// Incidents is the deduplicated set of records that contributed.
	Incidents []incident.Incident
}

// NeutralMetrics returns the neutral default with an empty incident set.
func NeutralMetrics() Metrics {
	return Metrics{
		SafetyScore:     NeutralScore,
		CrimeScore:      NeutralScore,
		SocialScore:     NeutralScore,
		PedestrianScore: NeutralScore,
		Incidents:       []incident.Incident{},
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
