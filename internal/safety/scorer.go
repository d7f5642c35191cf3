package safety

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/pkg/geo"
)

// Severity deductions for the composite safety score.
const (
	highSeverityPenalty   = 15
	mediumSeverityPenalty = 8
	lowSeverityPenalty    = 3

	crimePenalty      = 10
	socialPenalty     = 12
	pedestrianPenalty = 5
)

// IncidentProvider supplies the cached incident set the scorer draws from.
type IncidentProvider interface {
	AllCached(ctx context.Context) []incident.Incident
}

// ScorerConfig holds configuration for the proximity risk scorer.
type ScorerConfig struct {
	// Incidents is the incident repository.
	Incidents IncidentProvider

	// Logger for scorer operations.
	Logger zerolog.Logger

	// SampleStride selects every Nth path point for route scoring
	// (default: 5).
	SampleStride int

	// SampleRadiusMeters is the incident search radius around each sample
	// point (default: 250).
	SampleRadiusMeters float64
}

// Scorer aggregates nearby incidents into safety metrics.
type Scorer struct {
	incidents    IncidentProvider
	logger       zerolog.Logger
	sampleStride int
	sampleRadius float64
}

// NewScorer creates a new proximity risk scorer.
func NewScorer(cfg ScorerConfig) *Scorer {
	stride := cfg.SampleStride
	if stride <= 0 {
		stride = 5
	}

	radius := cfg.SampleRadiusMeters
	if radius <= 0 {
		radius = 250
	}

	return &Scorer{
		incidents:    cfg.Incidents,
		logger:       cfg.Logger,
		sampleStride: stride,
		sampleRadius: radius,
	}
}

// ScoreLocation scores a single point against all cached incidents within
// radiusMeters. Absence of incident data yields full scores, never an error.
func (s *Scorer) ScoreLocation(ctx context.Context, point geo.Point, radiusMeters float64) Metrics {
	return scorePoint(point, radiusMeters, s.incidents.AllCached(ctx))
}

// scorePoint computes the four bounded scores from a pre-fetched incident set.
func scorePoint(point geo.Point, radiusMeters float64, all []incident.Incident) Metrics {
	var nearby []incident.Incident
	for _, inc := range all {
		if geo.WithinRadius(inc.Location, point, radiusMeters) {
			nearby = append(nearby, inc)
		}
	}

	var nHigh, nMedium, nLow, nCrime, nSocial int
	for _, inc := range nearby {
		switch inc.Severity {
		case incident.SeverityHigh:
			nHigh++
		case incident.SeverityMedium:
			nMedium++
		default:
			nLow++
		}

		switch inc.Category {
		case incident.CategoryCrime:
			nCrime++
		case incident.CategoryEncampment, incident.CategoryAggressiveBehavior:
			nSocial++
		}
	}

	if nearby == nil {
		nearby = []incident.Incident{}
	}

	return Metrics{
		SafetyScore:     clampScore(100 - highSeverityPenalty*nHigh - mediumSeverityPenalty*nMedium - lowSeverityPenalty*nLow),
		CrimeScore:      clampScore(100 - crimePenalty*nCrime),
		SocialScore:     clampScore(100 - socialPenalty*nSocial),
		PedestrianScore: clampScore(100 - pedestrianPenalty*len(nearby)),
		Incidents:       nearby,
	}
}

// ScoreRoute samples the path at the configured stride, scores each sample
// concurrently and averages the results. Samples score independently, so a
// slow or failed source degrades one sample, never the whole route. An empty
// path returns the neutral default.
func (s *Scorer) ScoreRoute(ctx context.Context, path []geo.Point) Metrics {
	samples := samplePath(path, s.sampleStride)
	if len(samples) == 0 {
		s.logger.Debug().Msg("scoring empty path, returning neutral metrics")
		return NeutralMetrics()
	}

	// One repository read shared by all samples; each sample filters and
	// scores independently.
	all := s.incidents.AllCached(ctx)

	results := make([]Metrics, len(samples))
	var wg sync.WaitGroup
	for i, sample := range samples {
		wg.Add(1)
		go func(i int, sample geo.Point) {
			defer wg.Done()
			results[i] = scorePoint(sample, s.sampleRadius, all)
		}(i, sample)
	}
	wg.Wait()

	var safetySum, crimeSum, socialSum, pedestrianSum int
	seen := make(map[string]struct{})
	contributing := []incident.Incident{}

	for _, m := range results {
		safetySum += m.SafetyScore
		crimeSum += m.CrimeScore
		socialSum += m.SocialScore
		pedestrianSum += m.PedestrianScore

		for _, inc := range m.Incidents {
			if _, dup := seen[inc.ID]; dup {
				continue
			}
			seen[inc.ID] = struct{}{}
			contributing = append(contributing, inc)
		}
	}

	n := len(results)
	metrics := Metrics{
		SafetyScore:     roundedMean(safetySum, n),
		CrimeScore:      roundedMean(crimeSum, n),
		SocialScore:     roundedMean(socialSum, n),
		PedestrianScore: roundedMean(pedestrianSum, n),
		Incidents:       contributing,
	}

	s.logger.Debug().
		Int("samples", n).
		Int("incidents", len(contributing)).
		Int("safety_score", metrics.SafetyScore).
		Msg("scored route")

	return metrics
}

// samplePath selects every strideth point. A non-empty path always yields at
// least one sample (the origin).
func samplePath(path []geo.Point, stride int) []geo.Point {
	if len(path) == 0 {
		return nil
	}

	var samples []geo.Point
	for i := 0; i < len(path); i += stride {
		samples = append(samples, path[i])
	}
	if len(samples) == 0 {
		samples = append(samples, path[0])
	}
	return samples
}

// roundedMean is the integer mean with half-up rounding.
func roundedMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return (sum + n/2) / n
}
