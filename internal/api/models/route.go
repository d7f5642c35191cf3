package models

// RouteOptimizeRequest is the request body for optimizing routes.
// Endpoints may be given as coordinates or as free-form addresses; at
// least one of each pair is required.
type RouteOptimizeRequest struct {
	Origin             *Point  `json:"origin,omitempty"`
	Destination        *Point  `json:"destination,omitempty"`
	OriginAddress      *string `json:"originAddress,omitempty"`
	DestinationAddress *string `json:"destinationAddress,omitempty"`

	// MaxExtraTimeMinutes is the time budget beyond the fastest route.
	MaxExtraTimeMinutes *int `json:"maxExtraTimeMinutes,omitempty" validate:"omitempty,gte=0,lte=60"`
}

// RouteOptimizeResponse is the response for route optimization. The three
// slots are always populated.
type RouteOptimizeResponse struct {
	GeneratedAt  Timestamp `json:"generatedAt"`
	Primary      Route     `json:"primary"`
	Alternative1 Route     `json:"alternative1"`
	Alternative2 Route     `json:"alternative2"`
	Warnings     []Warning `json:"warnings,omitempty"`
}

// Warning represents a non-fatal issue in the response.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Route represents a single scored route variant.
type Route struct {
	Name             string   `json:"name"`
	GeometryPolyline string   `json:"geometryPolyline"`
	DistanceMeters   int      `json:"distanceMeters"`
	DurationMinutes  int      `json:"durationMinutes"`
	SafetyScore      int      `json:"safetyScore"`
	TimeAddedMinutes int      `json:"timeAddedMinutes"`
	RiskFactors      []string `json:"riskFactors,omitempty"`
	SafetyGains      []string `json:"safetyGains,omitempty"`

	// BelowSafetyThreshold marks a route returned despite not meeting
	// the caution threshold, because nothing better existed.
	BelowSafetyThreshold bool `json:"belowSafetyThreshold,omitempty"`

	// Synthetic marks a padded variant derived from a real route.
	Synthetic bool `json:"synthetic,omitempty"`
}

// RouteCompareRequest asks for a feature-based comparison of two routes.
type RouteCompareRequest struct {
	RouteA RouteFeatures `json:"routeA" validate:"required"`
	RouteB RouteFeatures `json:"routeB" validate:"required"`
}

// RouteFeatures describes a route by static features for model scoring.
type RouteFeatures struct {
	IncidentCount     float64 `json:"incidentCount" validate:"gte=0"`
	CrimeCount        float64 `json:"crimeCount" validate:"gte=0"`
	EncampmentCount   float64 `json:"encampmentCount" validate:"gte=0"`
	DistanceMeters    float64 `json:"distanceMeters" validate:"gte=0"`
	PoorlyLitSegments float64 `json:"poorlyLitSegments" validate:"gte=0"`
	IntersectionCount float64 `json:"intersectionCount" validate:"gte=0"`
	LowFootTraffic    bool    `json:"lowFootTraffic"`
	NightTime         bool    `json:"nightTime"`
}

// RouteCompareResponse reports which route the model prefers.
type RouteCompareResponse struct {
	Winner           string       `json:"winner"`
	ScoreA           ModelScore   `json:"scoreA"`
	ScoreB           ModelScore   `json:"scoreB"`
	SafetyDifference float64      `json:"safetyDifference"`
	Reasons          []string     `json:"reasons,omitempty"`
}

// ModelScore is a logistic model result.
type ModelScore struct {
	Probability  float64 `json:"probability"`
	Band         string  `json:"band"`
	ModelVersion int     `json:"modelVersion"`
}
