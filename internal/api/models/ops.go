package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status  HealthStatus   `json:"status"`
	Time    Timestamp      `json:"time"`
	Sources []SourceStatus `json:"sources"`
}

// SourceStatus reports the cache state of one incident source.
type SourceStatus struct {
	Source    string       `json:"source"`
	Status    HealthStatus `json:"status"`
	FetchedAt *Timestamp   `json:"fetchedAt,omitempty"`
	Stale     bool         `json:"stale,omitempty"`
	Incidents int          `json:"incidents"`
}
