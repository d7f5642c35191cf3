package riskmodel

import (
	"sync"
)

// Result is the outcome of scoring one feature vector.
type Result struct {
	// Probability is the safety probability in [0,1], higher is safer.
	Probability float64

	// Band is the probability's classification.
	Band Band

	// ModelVersion identifies the config version that produced the score.
	ModelVersion int
}

// Winner identifies which route a comparison favored.
type Winner string

const (
	WinnerA Winner = "A"
	WinnerB Winner = "B"
)

// Comparison is the outcome of comparing two routes' feature vectors.
type Comparison struct {
	Winner Winner
	ScoreA Result
	ScoreB Result

	// SafetyDifference is winner probability minus loser probability, ≥0.
	SafetyDifference float64

	// Reasons describe the winner's advantages feature by feature. They
	// are advisory display text and never influence the winner decision.
	Reasons []string
}

// advantageReasons describe, per feature, why a lower value is better.
var advantageReasons = map[Feature]string{
	FeatureIncidentCount:     "fewer recent incidents nearby",
	FeatureCrimeCount:        "fewer reported crimes",
	FeatureEncampmentCount:   "fewer encampments along the way",
	FeatureDistanceMeters:    "shorter walking distance",
	FeaturePoorlyLitSegments: "better lit streets",
	FeatureIntersectionCount: "fewer street crossings",
	FeatureLowFootTraffic:    "more foot traffic around",
	FeatureNightTime:         "lower time-of-day risk",
}

// Scorer evaluates feature vectors against the current model config.
// Scoring is a pure function of the config and input; the only state change
// is the explicit Train operation, which swaps in a new config version.
type Scorer struct {
	mu     sync.RWMutex
	config ModelConfig
}

// NewScorer creates a scorer using the given model config.
// A zero-version config falls back to the default model.
func NewScorer(cfg ModelConfig) *Scorer {
	if cfg.Version == 0 {
		cfg = DefaultModelConfig()
	}
	return &Scorer{config: cfg.clone()}
}

// Config returns the model config currently in use.
func (s *Scorer) Config() ModelConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.clone()
}

// Score evaluates one feature vector.
func (s *Scorer) Score(features FeatureVector) Result {
	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	p := cfg.probability(features)
	return Result{
		Probability:  p,
		Band:         ClassifyBand(p),
		ModelVersion: cfg.Version,
	}
}

// Compare scores two feature vectors and picks the safer one.
// Ties favor A deterministically.
func (s *Scorer) Compare(a, b FeatureVector) Comparison {
	s.mu.RLock()
	cfg := s.config
	s.mu.RUnlock()

	scoreA := Result{Probability: cfg.probability(a), ModelVersion: cfg.Version}
	scoreA.Band = ClassifyBand(scoreA.Probability)
	scoreB := Result{Probability: cfg.probability(b), ModelVersion: cfg.Version}
	scoreB.Band = ClassifyBand(scoreB.Probability)

	comparison := Comparison{ScoreA: scoreA, ScoreB: scoreB}

	winner, loser := a, b
	if scoreB.Probability > scoreA.Probability {
		comparison.Winner = WinnerB
		comparison.SafetyDifference = scoreB.Probability - scoreA.Probability
		winner, loser = b, a
	} else {
		comparison.Winner = WinnerA
		comparison.SafetyDifference = scoreA.Probability - scoreB.Probability
	}

	// Pairwise feature advantages, in fixed model order.
	const eps = 1e-9
	for _, f := range modelFeatures {
		if cfg.normalize(f, winner[f])+eps < cfg.normalize(f, loser[f]) {
			comparison.Reasons = append(comparison.Reasons, advantageReasons[f])
		}
	}

	return comparison
}

// Train applies one logistic gradient-descent step for a labeled example
// (label 1 = walked safely, 0 = reported unsafe) and installs the result as
// a new model version. This is a rare administrative operation, not part of
// normal scoring.
func (s *Scorer) Train(features FeatureVector, label float64) ModelConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.config.clone()
	p := next.probability(features)
	gradient := label - p

	next.Bias += next.LearningRate * gradient
	for _, f := range modelFeatures {
		next.Weights[f] += next.LearningRate * gradient * next.normalize(f, features[f])
	}
	next.Version++

	s.config = next
	return next.clone()
}
