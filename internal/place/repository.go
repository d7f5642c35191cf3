package place

import "context"

// ListOptions contains options for listing places.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing places.
type ListResult struct {
	Items      []*Place
	NextCursor string
}

// Repository defines the interface for place persistence.
type Repository interface {
	// Get retrieves a place by ID.
	// Returns ErrPlaceNotFound if the place doesn't exist.
	Get(ctx context.Context, id string) (*Place, error)

	// List retrieves all saved places with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Create creates a new place.
	Create(ctx context.Context, place *Place) error

	// Update updates an existing place.
	Update(ctx context.Context, place *Place) error

	// Delete deletes a place by ID.
	Delete(ctx context.Context, id string) error
}
