package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/routing"
	"github.com/safepath/safepath/internal/safety"
	"github.com/safepath/safepath/pkg/geo"
)

const (
	defaultIncidentMaxAge = 24 * time.Hour
	maxIncidentAge        = 7 * 24 * time.Hour
	defaultIncidentLimit  = 100
	maxIncidentLimit      = 500

	defaultScoreRadiusMeters = 250
	maxScoreRadiusMeters     = 1000
)

// IncidentLister serves cached incidents from the configured sources.
type IncidentLister interface {
	RecentIncidents(ctx context.Context, maxAge time.Duration, limit int) []incident.Incident
	CacheStatuses() []incident.CacheStatus
}

// LocationScorer scores a single point for pedestrian safety.
type LocationScorer interface {
	ScoreLocation(ctx context.Context, point geo.Point, radiusMeters float64) safety.Metrics
}

// IncidentHandler handles incident endpoints.
type IncidentHandler struct {
	incidents IncidentLister
	scorer    LocationScorer
}

// NewIncidentHandler creates a new IncidentHandler.
func NewIncidentHandler(incidents IncidentLister, scorer LocationScorer) *IncidentHandler {
	return &IncidentHandler{
		incidents: incidents,
		scorer:    scorer,
	}
}

// ListIncidents handles GET /v1/incidents - recent incidents near the city.
func (h *IncidentHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	maxAge := defaultIncidentMaxAge
	if raw := r.URL.Query().Get("maxAgeHours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "maxAgeHours", Message: "must be a positive integer"},
			})
			return
		}
		maxAge = time.Duration(hours) * time.Hour
		if maxAge > maxIncidentAge {
			maxAge = maxIncidentAge
		}
	}

	limit := defaultIncidentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer"},
			})
			return
		}
		limit = n
		if limit > maxIncidentLimit {
			limit = maxIncidentLimit
		}
	}

	items := h.incidents.RecentIncidents(r.Context(), maxAge, limit)

	resp := models.IncidentsResponse{
		Items: make([]models.Incident, 0, len(items)),
		Stale: anySourceStale(h.incidents.CacheStatuses()),
	}
	for _, inc := range items {
		resp.Items = append(resp.Items, toAPIIncident(inc))
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, resp)
}

// ScoreLocation handles GET /v1/incidents:score - safety score for a point.
func (h *IncidentHandler) ScoreLocation(w http.ResponseWriter, r *http.Request) {
	point, fieldErrors := parsePointQuery(r)
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	radius := float64(defaultScoreRadiusMeters)
	if raw := r.URL.Query().Get("radiusMeters"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > maxScoreRadiusMeters {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "radiusMeters", Message: "must be between 1 and 1000"},
			})
			return
		}
		radius = v
	}

	metrics := h.scorer.ScoreLocation(r.Context(), point, radius)

	resp := models.LocationScoreResponse{
		SafetyScore:     metrics.SafetyScore,
		CrimeScore:      metrics.CrimeScore,
		SocialScore:     metrics.SocialScore,
		PedestrianScore: metrics.PedestrianScore,
		Incidents:       make([]models.Incident, 0, len(metrics.Incidents)),
	}
	for _, inc := range metrics.Incidents {
		resp.Incidents = append(resp.Incidents, toAPIIncident(inc))
	}

	response.JSON(w, r, http.StatusOK, resp)
}

func parsePointQuery(r *http.Request) (geo.Point, []models.FieldError) {
	var fieldErrors []models.FieldError
	var point geo.Point

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lat", Message: "must be a valid latitude",
		})
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lon", Message: "must be a valid longitude",
		})
	}
	if len(fieldErrors) > 0 {
		return point, fieldErrors
	}

	point = geo.Point{Lat: lat, Lon: lon}
	if err := routing.ValidateCoordinates(point); err != nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lat", Message: "coordinates out of range",
		})
	}
	return point, fieldErrors
}

func toAPIIncident(inc incident.Incident) models.Incident {
	return models.Incident{
		ID:          inc.ID,
		Category:    string(inc.Category),
		Severity:    string(inc.Severity),
		Point:       models.Point{Lat: inc.Location.Lat, Lon: inc.Location.Lon},
		OccurredAt:  models.Timestamp(inc.OccurredAt),
		Description: inc.Description,
	}
}

func anySourceStale(statuses []incident.CacheStatus) bool {
	for _, s := range statuses {
		if s.HasData && s.IsExpired {
			return true
		}
	}
	return false
}
