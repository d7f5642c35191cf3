package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/riskmodel"
	"github.com/safepath/safepath/internal/routeplan"
	"github.com/safepath/safepath/internal/routing"
	"github.com/safepath/safepath/pkg/geo"
	"github.com/safepath/safepath/pkg/polyline"
)

// RoutePlanner produces a ranked set of walking routes.
type RoutePlanner interface {
	OptimizeRoute(ctx context.Context, prefs routeplan.Preferences) (*routeplan.RankedRouteSet, error)
}

// RouteComparer scores two routes against the logistic safety model.
type RouteComparer interface {
	Compare(a, b riskmodel.FeatureVector) riskmodel.Comparison
}

// RouteHandler handles routing endpoints.
type RouteHandler struct {
	planner  RoutePlanner
	comparer RouteComparer
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(planner RoutePlanner, comparer RouteComparer) *RouteHandler {
	return &RouteHandler{
		planner:  planner,
		comparer: comparer,
	}
}

// OptimizeRoute handles POST /v1/routes:optimize - rank walking routes by safety.
func (h *RouteHandler) OptimizeRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteOptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := validateOptimizeRequest(&input); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	prefs := routeplan.Preferences{}
	if input.Origin != nil {
		prefs.Origin = &geo.Point{Lat: input.Origin.Lat, Lon: input.Origin.Lon}
	}
	if input.Destination != nil {
		prefs.Destination = &geo.Point{Lat: input.Destination.Lat, Lon: input.Destination.Lon}
	}
	if input.OriginAddress != nil {
		prefs.OriginAddress = *input.OriginAddress
	}
	if input.DestinationAddress != nil {
		prefs.DestinationAddress = *input.DestinationAddress
	}
	if input.MaxExtraTimeMinutes != nil {
		prefs.MaxExtraTimeMinutes = *input.MaxExtraTimeMinutes
	}

	ranked, err := h.planner.OptimizeRoute(r.Context(), prefs)
	if err != nil {
		switch {
		case errors.Is(err, routeplan.ErrNoGeocodingResult):
			response.BadRequest(w, r, "could not geocode the given address", nil)
		case errors.Is(err, routeplan.ErrNoRoutesAvailable):
			response.Unprocessable(w, r, "no walking routes available between the given endpoints")
		case errors.Is(err, routing.ErrRateLimitExceeded):
			response.TooManyRequests(w, r, "routing provider quota exceeded, try again later")
		default:
			response.InternalError(w, r, "failed to optimize route")
		}
		return
	}

	resp := models.RouteOptimizeResponse{
		GeneratedAt:  models.Timestamp(time.Now()),
		Primary:      toAPIRoute(ranked.Primary),
		Alternative1: toAPIRoute(ranked.Alternative1),
		Alternative2: toAPIRoute(ranked.Alternative2),
		Warnings:     routeWarnings(ranked),
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, resp)
}

// CompareRoutes handles POST /v1/routes:compare - model-based comparison of
// two routes described by static features.
func (h *RouteHandler) CompareRoutes(w http.ResponseWriter, r *http.Request) {
	var input models.RouteCompareRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := validateFeatures("routeA", input.RouteA); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}
	if fieldErrors := validateFeatures("routeB", input.RouteB); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return
	}

	cmp := h.comparer.Compare(toFeatureVector(input.RouteA), toFeatureVector(input.RouteB))

	resp := models.RouteCompareResponse{
		Winner:           string(cmp.Winner),
		ScoreA:           toModelScore(cmp.ScoreA),
		ScoreB:           toModelScore(cmp.ScoreB),
		SafetyDifference: cmp.SafetyDifference,
		Reasons:          cmp.Reasons,
	}

	response.JSON(w, r, http.StatusOK, resp)
}

func validateOptimizeRequest(input *models.RouteOptimizeRequest) []models.FieldError {
	var fieldErrors []models.FieldError

	if input.Origin == nil && input.OriginAddress == nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "origin", Message: "origin or originAddress is required",
		})
	}
	if input.Destination == nil && input.DestinationAddress == nil {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "destination", Message: "destination or destinationAddress is required",
		})
	}
	if input.MaxExtraTimeMinutes != nil {
		if *input.MaxExtraTimeMinutes < 0 || *input.MaxExtraTimeMinutes > 60 {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field: "maxExtraTimeMinutes", Message: "must be between 0 and 60",
			})
		}
	}

	return fieldErrors
}

func validateFeatures(field string, f models.RouteFeatures) []models.FieldError {
	var fieldErrors []models.FieldError

	counts := map[string]float64{
		"incidentCount":     f.IncidentCount,
		"crimeCount":        f.CrimeCount,
		"encampmentCount":   f.EncampmentCount,
		"distanceMeters":    f.DistanceMeters,
		"poorlyLitSegments": f.PoorlyLitSegments,
		"intersectionCount": f.IntersectionCount,
	}
	for name, v := range counts {
		if v < 0 {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field: field + "." + name, Message: "must not be negative",
			})
		}
	}

	return fieldErrors
}

func toFeatureVector(f models.RouteFeatures) riskmodel.FeatureVector {
	v := riskmodel.FeatureVector{
		riskmodel.FeatureIncidentCount:     f.IncidentCount,
		riskmodel.FeatureCrimeCount:        f.CrimeCount,
		riskmodel.FeatureEncampmentCount:   f.EncampmentCount,
		riskmodel.FeatureDistanceMeters:    f.DistanceMeters,
		riskmodel.FeaturePoorlyLitSegments: f.PoorlyLitSegments,
		riskmodel.FeatureIntersectionCount: f.IntersectionCount,
	}
	if f.LowFootTraffic {
		v[riskmodel.FeatureLowFootTraffic] = 1
	}
	if f.NightTime {
		v[riskmodel.FeatureNightTime] = 1
	}
	return v
}

func toModelScore(r riskmodel.Result) models.ModelScore {
	return models.ModelScore{
		Probability:  r.Probability,
		Band:         string(r.Band),
		ModelVersion: r.ModelVersion,
	}
}

func toAPIRoute(c routeplan.RouteCandidate) models.Route {
	return models.Route{
		Name:                 c.Name,
		GeometryPolyline:     polyline.Encode(c.Path),
		DistanceMeters:       c.DistanceMeters,
		DurationMinutes:      c.DurationMinutes,
		SafetyScore:          c.SafetyScore,
		TimeAddedMinutes:     c.TimeAddedMinutes,
		RiskFactors:          c.RiskFactors,
		SafetyGains:          c.SafetyGains,
		BelowSafetyThreshold: c.BelowSafetyThreshold,
		Synthetic:            c.Synthetic,
	}
}

func routeWarnings(ranked *routeplan.RankedRouteSet) []models.Warning {
	var warnings []models.Warning
	if ranked.Primary.BelowSafetyThreshold {
		warnings = append(warnings, models.Warning{
			Code:    "BELOW_SAFETY_THRESHOLD",
			Message: "No route met the safety threshold within the time budget; the safest available route is returned.",
		})
	}
	return warnings
}
