package models

// Incident represents a normalized safety incident.
type Incident struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Severity    string    `json:"severity"`
	Point       Point     `json:"point"`
	OccurredAt  Timestamp `json:"occurredAt"`
	Description string    `json:"description,omitempty"`
}

// IncidentsResponse is the response for listing recent incidents.
type IncidentsResponse struct {
	Items []Incident `json:"items"`

	// Stale indicates at least one source is serving cached data past
	// its refresh window.
	Stale bool `json:"stale,omitempty"`
}

// LocationScoreResponse reports safety metrics for a single point.
type LocationScoreResponse struct {
	SafetyScore     int        `json:"safetyScore"`
	CrimeScore      int        `json:"crimeScore"`
	SocialScore     int        `json:"socialScore"`
	PedestrianScore int        `json:"pedestrianScore"`
	Incidents       []Incident `json:"incidents"`
}
