package place_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/place"
)

func newTestService() *place.Service {
	return place.NewService(place.NewInMemoryRepository())
}

func createRequest() *models.PlaceCreateRequest {
	address := "1 Dr Carlton B Goodlett Pl"
	return &models.PlaceCreateRequest{
		Label:   "Work",
		Point:   models.Point{Lat: 37.7793, Lon: -122.4193},
		Address: &address,
	}
}

func TestCreate_Success(t *testing.T) {
	svc := newTestService()

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(created.ID, "plc_"))
	assert.Equal(t, "Work", created.Label)
	assert.Equal(t, 37.7793, created.Point.Lat)
	require.NotNil(t, created.Address)
	assert.Equal(t, "1 Dr Carlton B Goodlett Pl", *created.Address)
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name      string
		mutate    func(*models.PlaceCreateRequest)
		wantField string
	}{
		{"missing label", func(r *models.PlaceCreateRequest) { r.Label = "" }, "label"},
		{"label too long", func(r *models.PlaceCreateRequest) { r.Label = strings.Repeat("x", 81) }, "label"},
		{"lat out of range", func(r *models.PlaceCreateRequest) { r.Point.Lat = 91 }, "point.lat"},
		{"lon out of range", func(r *models.PlaceCreateRequest) { r.Point.Lon = -181 }, "point.lon"},
		{"address too long", func(r *models.PlaceCreateRequest) {
			long := strings.Repeat("x", 201)
			r.Address = &long
		}, "address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createRequest()
			tt.mutate(req)

			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)

			var vErr *place.ValidationError
			require.ErrorAs(t, err, &vErr)

			found := false
			for _, fe := range vErr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			assert.True(t, found, "expected field error on %s, got %v", tt.wantField, vErr.Errors)
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Get(context.Background(), "plc_missing")
	assert.ErrorIs(t, err, place.ErrPlaceNotFound)
}

func TestUpdate_AppliesPartialChanges(t *testing.T) {
	svc := newTestService()

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	newLabel := "Home"
	updated, err := svc.Update(context.Background(), created.ID, &models.PlaceUpdateRequest{
		Label: &newLabel,
	})
	require.NoError(t, err)

	assert.Equal(t, "Home", updated.Label)
	// Unchanged fields persist.
	assert.Equal(t, created.Point, updated.Point)
	assert.Equal(t, created.Address, updated.Address)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService()

	label := "Home"
	_, err := svc.Update(context.Background(), "plc_missing", &models.PlaceUpdateRequest{Label: &label})
	assert.ErrorIs(t, err, place.ErrPlaceNotFound)
}

func TestDelete_RemovesPlace(t *testing.T) {
	svc := newTestService()

	created, err := svc.Create(context.Background(), createRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, place.ErrPlaceNotFound)
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService()

	err := svc.Delete(context.Background(), "plc_missing")
	assert.ErrorIs(t, err, place.ErrPlaceNotFound)
}

func TestList_PaginatesNewestFirst(t *testing.T) {
	svc := newTestService()

	for i := 0; i < 3; i++ {
		req := createRequest()
		req.Label = "Place " + string(rune('A'+i))
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), 2)
	require.NoError(t, err)

	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Meta.Limit)
	assert.NotNil(t, page.Meta.NextCursor)
}
