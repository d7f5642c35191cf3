package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/place"
)

// PlaceHandler handles saved place endpoints.
type PlaceHandler struct {
	places *place.Service
}

// NewPlaceHandler creates a new PlaceHandler.
func NewPlaceHandler(places *place.Service) *PlaceHandler {
	return &PlaceHandler{places: places}
}

// ListPlaces handles GET /v1/places - list saved places.
func (h *PlaceHandler) ListPlaces(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer"},
			})
			return
		}
		limit = n
	}

	paged, err := h.places.List(r.Context(), limit)
	if err != nil {
		response.InternalError(w, r, "failed to list places")
		return
	}

	response.JSON(w, r, http.StatusOK, paged)
}

// GetPlace handles GET /v1/places/{placeId} - fetch one saved place.
func (h *PlaceHandler) GetPlace(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeId")

	p, err := h.places.Get(r.Context(), placeID)
	if err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			response.NotFound(w, r, "place not found")
			return
		}
		response.InternalError(w, r, "failed to fetch place")
		return
	}

	response.JSON(w, r, http.StatusOK, p)
}

// CreatePlace handles POST /v1/places - save a place.
func (h *PlaceHandler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var input models.PlaceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	p, err := h.places.Create(r.Context(), &input)
	if err != nil {
		var validationErr *place.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		response.InternalError(w, r, "failed to create place")
		return
	}

	response.Created(w, r, "/v1/places/"+p.ID, p)
}

// UpdatePlace handles PATCH /v1/places/{placeId} - update a saved place.
func (h *PlaceHandler) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeId")

	var input models.PlaceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	p, err := h.places.Update(r.Context(), placeID, &input)
	if err != nil {
		var validationErr *place.ValidationError
		switch {
		case errors.As(err, &validationErr):
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
		case errors.Is(err, place.ErrPlaceNotFound):
			response.NotFound(w, r, "place not found")
		default:
			response.InternalError(w, r, "failed to update place")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, p)
}

// DeletePlace handles DELETE /v1/places/{placeId} - delete a saved place.
func (h *PlaceHandler) DeletePlace(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeId")

	if err := h.places.Delete(r.Context(), placeID); err != nil {
		if errors.Is(err, place.ErrPlaceNotFound) {
			response.NotFound(w, r, "place not found")
			return
		}
		response.InternalError(w, r, "failed to delete place")
		return
	}

	response.NoContent(w, r)
}
