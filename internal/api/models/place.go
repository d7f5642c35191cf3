package models

// Place represents a saved location.
type Place struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Point     Point     `json:"point"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// PlaceCreateRequest is the request body for saving a place.
type PlaceCreateRequest struct {
	Label   string  `json:"label" validate:"required,max=80"`
	Point   Point   `json:"point" validate:"required"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=200"`
}

// PlaceUpdateRequest is the request body for updating a place.
type PlaceUpdateRequest struct {
	Label   *string `json:"label,omitempty" validate:"omitempty,max=80"`
	Point   *Point  `json:"point,omitempty"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=200"`
}

// PagedPlaces is a paginated list of saved places.
type PagedPlaces struct {
	Items []Place           `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
