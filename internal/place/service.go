package place

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/pkg/geo"
)

// Validation constants.
const (
	MaxLabelLength   = 80
	MaxAddressLength = 200
)

// Service provides saved-place operations.
type Service struct {
	repo Repository
}

// NewService creates a new place service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves saved places.
func (s *Service) List(ctx context.Context, limit int) (*models.PagedPlaces, error) {
	result, err := s.repo.List(ctx, ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}

	items := make([]models.Place, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, s.toAPIPlace(p))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedPlaces{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a saved place by ID.
func (s *Service) Get(ctx context.Context, placeID string) (*models.Place, error) {
	place, err := s.repo.Get(ctx, placeID)
	if err != nil {
		return nil, err
	}

	result := s.toAPIPlace(place)
	return &result, nil
}

// Create saves a new place.
func (s *Service) Create(ctx context.Context, input *models.PlaceCreateRequest) (*models.Place, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	place := &Place{
		ID:        "plc_" + uuid.New().String()[:22],
		Label:     input.Label,
		Location:  geo.Point{Lat: input.Point.Lat, Lon: input.Point.Lon},
		Address:   input.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, place); err != nil {
		return nil, err
	}

	result := s.toAPIPlace(place)
	return &result, nil
}

// Update updates an existing saved place.
func (s *Service) Update(ctx context.Context, placeID string, input *models.PlaceUpdateRequest) (*models.Place, error) {
	place, err := s.repo.Get(ctx, placeID)
	if err != nil {
		return nil, err
	}

	if fieldErrors := s.validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Label != nil {
		place.Label = *input.Label
	}
	if input.Point != nil {
		place.Location = geo.Point{Lat: input.Point.Lat, Lon: input.Point.Lon}
	}
	if input.Address != nil {
		place.Address = input.Address
	}
	place.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, place); err != nil {
		return nil, err
	}

	result := s.toAPIPlace(place)
	return &result, nil
}

// Delete removes a saved place.
func (s *Service) Delete(ctx context.Context, placeID string) error {
	// Verify existence so callers get a 404 for unknown IDs.
	if _, err := s.repo.Get(ctx, placeID); err != nil {
		if errors.Is(err, ErrPlaceNotFound) {
			return ErrPlaceNotFound
		}
		return err
	}

	return s.repo.Delete(ctx, placeID)
}

// validateCreateInput validates the create place input.
func (s *Service) validateCreateInput(input *models.PlaceCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Label == "" {
		errs = append(errs, models.FieldError{Field: "label", Message: "is required"})
	} else if len(input.Label) > MaxLabelLength {
		errs = append(errs, models.FieldError{Field: "label", Message: "must be at most 80 characters"})
	}

	errs = append(errs, s.validatePoint(&input.Point)...)

	if input.Address != nil && len(*input.Address) > MaxAddressLength {
		errs = append(errs, models.FieldError{Field: "address", Message: "must be at most 200 characters"})
	}

	return errs
}

// validateUpdateInput validates the update place input.
func (s *Service) validateUpdateInput(input *models.PlaceUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Label != nil {
		if *input.Label == "" {
			errs = append(errs, models.FieldError{Field: "label", Message: "cannot be empty"})
		} else if len(*input.Label) > MaxLabelLength {
			errs = append(errs, models.FieldError{Field: "label", Message: "must be at most 80 characters"})
		}
	}

	if input.Point != nil {
		errs = append(errs, s.validatePoint(input.Point)...)
	}

	if input.Address != nil && len(*input.Address) > MaxAddressLength {
		errs = append(errs, models.FieldError{Field: "address", Message: "must be at most 200 characters"})
	}

	return errs
}

// validatePoint validates a place coordinate.
func (s *Service) validatePoint(p *models.Point) []models.FieldError {
	var errs []models.FieldError

	if p.Lat < -90 || p.Lat > 90 {
		errs = append(errs, models.FieldError{
			Field:   "point.lat",
			Message: "must be between -90 and 90",
		})
	}

	if p.Lon < -180 || p.Lon > 180 {
		errs = append(errs, models.FieldError{
			Field:   "point.lon",
			Message: "must be between -180 and 180",
		})
	}

	return errs
}

// toAPIPlace converts a domain Place to an API Place.
func (s *Service) toAPIPlace(p *Place) models.Place {
	return models.Place{
		ID:        p.ID,
		Label:     p.Label,
		Point:     models.Point{Lat: p.Location.Lat, Lon: p.Location.Lon},
		Address:   p.Address,
		CreatedAt: models.Timestamp(p.CreatedAt),
		UpdatedAt: models.Timestamp(p.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
