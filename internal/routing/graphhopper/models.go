package graphhopper

// API response types (from the GraphHopper routing API).

type ghRouteResponse struct {
	Paths []ghPath `json:"paths"`
}

type ghPath struct {
	// Distance is the path length in meters.
	Distance float64 `json:"distance"`

	// Time is the travel time in milliseconds.
	Time int64 `json:"time"`

	// Points is the encoded polyline geometry (precision 5).
	Points string `json:"points"`

	PointsEncoded bool      `json:"points_encoded"`
	BBox          []float64 `json:"bbox"`
}

type ghErrorResponse struct {
	Message string `json:"message"`
}
