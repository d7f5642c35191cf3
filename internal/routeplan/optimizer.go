package routeplan

import (
	"sort"

	"github.com/rs/zerolog"
)

// Slot names for the ranked output.
const (
	namePrimary      = "primary"
	nameAlternative1 = "alternative-1"
	nameAlternative2 = "alternative-2"
)

// OptimizerConfig holds configuration for the route optimizer.
type OptimizerConfig struct {
	// SafetyThreshold is the minimum qualifying safety score
	// (default: CautionThreshold).
	SafetyThreshold int

	// EscalationMinutes is the one-time budget stretch applied when fewer
	// than three candidates qualify (default: 2).
	EscalationMinutes int

	// Logger for optimizer decisions.
	Logger zerolog.Logger
}

// Optimizer ranks scored route candidates under a time budget. It is
// stateless across calls.
type Optimizer struct {
	safetyThreshold   int
	escalationMinutes int
	logger            zerolog.Logger
}

// NewOptimizer creates a new optimizer.
func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	threshold := cfg.SafetyThreshold
	if threshold == 0 {
		threshold = CautionThreshold
	}
	escalation := cfg.EscalationMinutes
	if escalation == 0 {
		escalation = 2
	}
	return &Optimizer{
		safetyThreshold:   threshold,
		escalationMinutes: escalation,
		logger:            cfg.Logger,
	}
}

// Optimize selects and ranks exactly three route variants from scored
// candidates. Returns ErrNoRoutesAvailable when candidates is empty.
func (o *Optimizer) Optimize(candidates []RouteCandidate, maxExtraTimeMinutes int) (*RankedRouteSet, error) {
	if len(candidates) == 0 {
		return nil, ErrNoRoutesAvailable
	}

	fastest := candidates[0]
	for _, c := range candidates[1:] {
		if c.DurationMinutes < fastest.DurationMinutes {
			fastest = c
		}
	}

	for i := range candidates {
		candidates[i].TimeAddedMinutes = candidates[i].DurationMinutes - fastest.DurationMinutes
	}

	budget := fastest.DurationMinutes + maxExtraTimeMinutes
	qualified := o.qualify(candidates, budget)

	if len(qualified) < 3 {
		escalated := budget + o.escalationMinutes
		o.logger.Debug().
			Int("qualified", len(qualified)).
			Int("budget_minutes", budget).
			Int("escalated_minutes", escalated).
			Msg("stretching time budget for safety coverage")
		qualified = o.qualify(candidates, escalated)
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		if qualified[i].SafetyScore != qualified[j].SafetyScore {
			return qualified[i].SafetyScore > qualified[j].SafetyScore
		}
		return qualified[i].DurationMinutes < qualified[j].DurationMinutes
	})

	if len(qualified) == 0 {
		return o.warningSet(candidates), nil
	}

	return o.padded(qualified), nil
}

func (o *Optimizer) qualify(candidates []RouteCandidate, budgetMinutes int) []RouteCandidate {
	qualified := make([]RouteCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.SafetyScore >= o.safetyThreshold && c.DurationMinutes <= budgetMinutes {
			qualified = append(qualified, c)
		}
	}
	return qualified
}

// padded fills the three slots from the ranked list, deriving synthetic
// variants of the top candidate for any missing slot.
func (o *Optimizer) padded(ranked []RouteCandidate) *RankedRouteSet {
	set := &RankedRouteSet{}

	set.Primary = ranked[0]
	set.Primary.Name = namePrimary

	if len(ranked) > 1 {
		set.Alternative1 = ranked[1]
		set.Alternative1.Name = nameAlternative1
	} else {
		set.Alternative1 = syntheticVariant(ranked[0], nameAlternative1, 1, 2)
	}

	if len(ranked) > 2 {
		set.Alternative2 = ranked[2]
		set.Alternative2.Name = nameAlternative2
	} else {
		set.Alternative2 = syntheticVariant(ranked[0], nameAlternative2, 2, 4)
	}

	return set
}

// warningSet selects the globally safest candidate regardless of the time
// budget when nothing met the caution threshold.
func (o *Optimizer) warningSet(candidates []RouteCandidate) *RankedRouteSet {
	safest := candidates[0]
	for _, c := range candidates[1:] {
		if c.SafetyScore > safest.SafetyScore {
			safest = c
		}
	}

	o.logger.Warn().
		Int("safety_score", safest.SafetyScore).
		Int("threshold", o.safetyThreshold).
		Msg("no candidate met the caution threshold, returning warning route")

	safest.BelowSafetyThreshold = true
	safest.Name = namePrimary

	return &RankedRouteSet{
		Primary:      safest,
		Alternative1: syntheticVariant(safest, nameAlternative1, 1, 2),
		Alternative2: syntheticVariant(safest, nameAlternative2, 2, 4),
	}
}

func syntheticVariant(base RouteCandidate, name string, extraMinutes, scorePenalty int) RouteCandidate {
	v := base
	v.Name = name
	v.Synthetic = true
	v.DurationMinutes += extraMinutes
	v.TimeAddedMinutes += extraMinutes
	v.SafetyScore -= scorePenalty
	if v.SafetyScore < 0 {
		v.SafetyScore = 0
	}
	return v
}
