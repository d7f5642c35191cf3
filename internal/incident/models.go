// Package incident provides the normalized incident model and a cached,
// multi-source incident repository.
package incident

import (
	"context"
	"errors"
	"time"

	"github.com/safepath/safepath/pkg/geo"
)

// Repository errors.
var (
	// ErrFetchFailed indicates a source fetch failed and no usable cache exists.
	ErrFetchFailed = errors.New("incident source fetch failed")
	// ErrSourceNotFound indicates an unknown source id.
	ErrSourceNotFound = errors.New("incident source not found")
)

// Category classifies what kind of safety-relevant event an incident is.
type Category string

const (
	CategoryEncampment         Category = "encampment"
	CategoryAggressiveBehavior Category = "aggressive-behavior"
	CategoryCrime              Category = "crime"
	CategorySuspiciousActivity Category = "suspicious-activity"
)

// Severity grades an incident. Ordering is low < medium < high.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the severity's position in the low < medium < high ordering.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Incident is a normalized safety-relevant event from one of the external
// feeds. Category and severity are assigned once at ingestion and never
// recomputed; the record is immutable after creation.
type Incident struct {
	// ID is an opaque unique identifier, stable across refetches of the
	// same source record.
	ID string

	Category Category
	Severity Severity

	// Location is the incident position in WGS84 degrees.
	Location geo.Point

	// OccurredAt is used only for staleness filtering.
	OccurredAt time.Time

	// Description and Status are free text for display only.
	Description string
	Status      string
}

// Source is an external incident feed owned by the repository.
type Source interface {
	// ID returns the logical source identifier used as the cache key.
	ID() string

	// Fetch retrieves and normalizes the source's current records.
	// Only records with resolvable coordinates are returned.
	Fetch(ctx context.Context) ([]Incident, error)
}
