// Package riskmodel scores a route's static environmental features with a
// fixed-weight linear-logistic model. Weights are design constants carried in
// a versioned, immutable configuration; nothing is learned at scoring time.
package riskmodel

import (
	"math"
)

// Feature identifies one input of the model.
type Feature string

const (
	// FeatureIncidentCount is the number of recent incidents along the route.
	FeatureIncidentCount Feature = "incident_count"
	// FeatureCrimeCount is the number of reported crimes along the route.
	FeatureCrimeCount Feature = "crime_count"
	// FeatureEncampmentCount is the number of encampments along the route.
	FeatureEncampmentCount Feature = "encampment_count"
	// FeatureDistanceMeters is the total walking distance.
	FeatureDistanceMeters Feature = "distance_meters"
	// FeaturePoorlyLitSegments is the number of poorly lit route segments.
	FeaturePoorlyLitSegments Feature = "poorly_lit_segments"
	// FeatureIntersectionCount is the number of street crossings.
	FeatureIntersectionCount Feature = "intersection_count"
	// FeatureLowFootTraffic is 1 when the route runs through low foot
	// traffic areas, 0 otherwise.
	FeatureLowFootTraffic Feature = "low_foot_traffic"
	// FeatureNightTime is 1 when the walk happens at night, 0 otherwise.
	FeatureNightTime Feature = "night_time"
)

// modelFeatures fixes the feature iteration order for deterministic output.
var modelFeatures = []Feature{
	FeatureIncidentCount,
	FeatureCrimeCount,
	FeatureEncampmentCount,
	FeatureDistanceMeters,
	FeaturePoorlyLitSegments,
	FeatureIntersectionCount,
	FeatureLowFootTraffic,
	FeatureNightTime,
}

// FeatureVector maps features to raw (un-normalized) values.
type FeatureVector map[Feature]float64

// Band is one of the five ordered safety classifications.
type Band string

const (
	BandVerySafe  Band = "VERY_SAFE"
	BandSafe      Band = "SAFE"
	BandModerate  Band = "MODERATE"
	BandUnsafe    Band = "UNSAFE"
	BandDangerous Band = "DANGEROUS"
)

// ClassifyBand maps a probability to its safety band.
func ClassifyBand(p float64) Band {
	switch {
	case p >= 0.8:
		return BandVerySafe
	case p >= 0.6:
		return BandSafe
	case p >= 0.4:
		return BandModerate
	case p >= 0.2:
		return BandUnsafe
	default:
		return BandDangerous
	}
}

// ModelConfig is one immutable version of the model. Updates produce a new
// config with a bumped version instead of mutating shared state.
type ModelConfig struct {
	// Version increases monotonically with each weight update.
	Version int

	// Bias is the model intercept.
	Bias float64

	// Weights are the per-feature coefficients. All risk features carry
	// negative weights: more risk lowers the safety probability.
	Weights map[Feature]float64

	// Caps normalize raw feature values to [0,1]. They are part of the
	// model contract and must not change between versions silently.
	Caps map[Feature]float64

	// LearningRate controls the gradient step of the explicit online
	// update operation.
	LearningRate float64
}

// DefaultModelConfig returns version 1 of the model.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Version: 1,
		Bias:    2.0,
		Weights: map[Feature]float64{
			FeatureIncidentCount:     -1.5,
			FeatureCrimeCount:        -2.0,
			FeatureEncampmentCount:   -1.0,
			FeatureDistanceMeters:    -0.5,
			FeaturePoorlyLitSegments: -1.2,
			FeatureIntersectionCount: -0.6,
			FeatureLowFootTraffic:    -0.8,
			FeatureNightTime:         -0.7,
		},
		Caps: map[Feature]float64{
			FeatureIncidentCount:     10,
			FeatureCrimeCount:        10,
			FeatureEncampmentCount:   5,
			FeatureDistanceMeters:    5000,
			FeaturePoorlyLitSegments: 10,
			FeatureIntersectionCount: 20,
			FeatureLowFootTraffic:    1,
			FeatureNightTime:         1,
		},
		LearningRate: 0.1,
	}
}

// normalize maps a raw feature value into [0,1] via the configured cap.
func (c ModelConfig) normalize(f Feature, raw float64) float64 {
	cap := c.Caps[f]
	if cap <= 0 {
		return 0
	}
	v := raw / cap
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// probability evaluates the logistic model for a feature vector.
func (c ModelConfig) probability(features FeatureVector) float64 {
	z := c.Bias
	for _, f := range modelFeatures {
		z += c.Weights[f] * c.normalize(f, features[f])
	}
	return 1 / (1 + math.Exp(-z))
}

// clone copies the config so updates never alias live weight maps.
func (c ModelConfig) clone() ModelConfig {
	weights := make(map[Feature]float64, len(c.Weights))
	for f, w := range c.Weights {
		weights[f] = w
	}
	caps := make(map[Feature]float64, len(c.Caps))
	for f, v := range c.Caps {
		caps[f] = v
	}
	c.Weights = weights
	c.Caps = caps
	return c
}
