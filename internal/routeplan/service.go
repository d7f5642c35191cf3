package routeplan

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/geocoding"
	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/routing"
	"github.com/safepath/safepath/internal/safety"
	"github.com/safepath/safepath/pkg/geo"
)

// RouteFetcher retrieves candidate route geometries.
type RouteFetcher interface {
	GetRoutes(ctx context.Context, req routing.RoutesRequest) (*routing.RoutesResponse, error)
}

// SafetyScorer scores a route geometry against cached incidents.
type SafetyScorer interface {
	ScoreRoute(ctx context.Context, path []geo.Point) safety.Metrics
}

// ServiceConfig holds configuration for the route planning service.
type ServiceConfig struct {
	// Geocoder resolves address strings to coordinates. Optional when
	// callers always provide coordinates.
	Geocoder geocoding.Provider

	// Routes provides candidate geometries (required).
	Routes RouteFetcher

	// Scorer scores each candidate geometry (required).
	Scorer SafetyScorer

	// Optimizer ranks scored candidates. Defaults to NewOptimizer.
	Optimizer *Optimizer

	// MaxAlternatives is how many alternative geometries to request on
	// top of the primary one (default: 4).
	MaxAlternatives int

	// DefaultMaxExtraTime applies when preferences leave the time budget
	// unset (default: 5 minutes).
	DefaultMaxExtraTime int

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service orchestrates the route-selection flow: resolve endpoints, fetch
// candidate geometries, score each concurrently, then rank under the time
// budget.
type Service struct {
	geocoder            geocoding.Provider
	routes              RouteFetcher
	scorer              SafetyScorer
	optimizer           *Optimizer
	maxAlternatives     int
	defaultMaxExtraTime int
	logger              zerolog.Logger
}

// NewService creates a new route planning service.
func NewService(cfg ServiceConfig) *Service {
	optimizer := cfg.Optimizer
	if optimizer == nil {
		optimizer = NewOptimizer(OptimizerConfig{Logger: cfg.Logger})
	}
	maxAlternatives := cfg.MaxAlternatives
	if maxAlternatives == 0 {
		maxAlternatives = 4
	}
	defaultMaxExtraTime := cfg.DefaultMaxExtraTime
	if defaultMaxExtraTime == 0 {
		defaultMaxExtraTime = 5
	}
	return &Service{
		geocoder:            cfg.Geocoder,
		routes:              cfg.Routes,
		scorer:              cfg.Scorer,
		optimizer:           optimizer,
		maxAlternatives:     maxAlternatives,
		defaultMaxExtraTime: defaultMaxExtraTime,
		logger:              cfg.Logger,
	}
}

// OptimizeRoute runs the full route-selection flow for one request.
func (s *Service) OptimizeRoute(ctx context.Context, prefs Preferences) (*RankedRouteSet, error) {
	origin, err := s.resolveEndpoint(ctx, prefs.Origin, prefs.OriginAddress)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := s.resolveEndpoint(ctx, prefs.Destination, prefs.DestinationAddress)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	maxExtra := prefs.MaxExtraTimeMinutes
	if maxExtra <= 0 {
		maxExtra = s.defaultMaxExtraTime
	}

	resp, err := s.routes.GetRoutes(ctx, routing.RoutesRequest{
		Origin:          *origin,
		Destination:     *destination,
		MaxAlternatives: s.maxAlternatives,
	})
	if err != nil {
		if errors.Is(err, routing.ErrNoRouteFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoRoutesAvailable, err)
		}
		if errors.Is(err, routing.ErrProviderUnavailable) || errors.Is(err, routing.ErrRateLimitExceeded) {
			s.logger.Warn().Err(err).Msg("route provider failed, using fallback geometry")
			resp = &routing.RoutesResponse{Routes: fallbackRoutes(*origin, *destination)}
		} else {
			return nil, err
		}
	}
	if len(resp.Routes) == 0 {
		return nil, ErrNoRoutesAvailable
	}

	candidates := s.scoreCandidates(ctx, resp.Routes)

	return s.optimizer.Optimize(candidates, maxExtra)
}

func (s *Service) resolveEndpoint(ctx context.Context, point *geo.Point, address string) (*geo.Point, error) {
	if point != nil {
		if err := routing.ValidateCoordinates(*point); err != nil {
			return nil, err
		}
		return point, nil
	}
	if address == "" {
		return nil, fmt.Errorf("%w: no coordinates or address given", ErrNoGeocodingResult)
	}
	if s.geocoder == nil {
		return nil, fmt.Errorf("%w: geocoding not configured", ErrNoGeocodingResult)
	}

	result, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, geocoding.ErrNoResult) {
			return nil, fmt.Errorf("%w: %q", ErrNoGeocodingResult, address)
		}
		return nil, err
	}
	return &result.Location, nil
}

// scoreCandidates scores all geometries concurrently and joins the results
// in input order.
func (s *Service) scoreCandidates(ctx context.Context, routes []routing.Route) []RouteCandidate {
	candidates := make([]RouteCandidate, len(routes))

	var wg sync.WaitGroup
	for i, route := range routes {
		wg.Add(1)
		go func(i int, route routing.Route) {
			defer wg.Done()
			metrics := s.scorer.ScoreRoute(ctx, route.Path)
			candidates[i] = RouteCandidate{
				Path:            route.Path,
				DistanceMeters:  route.DistanceMeters,
				DurationMinutes: route.DurationMinutes,
				SafetyScore:     metrics.SafetyScore,
				RiskFactors:     riskFactors(metrics),
				SafetyGains:     safetyGains(metrics),
			}
		}(i, route)
	}
	wg.Wait()

	return candidates
}

// riskFactors describes what drags a route's score down. Advisory only.
func riskFactors(m safety.Metrics) []string {
	var crimes, encampments, aggressive int
	for _, inc := range m.Incidents {
		switch inc.Category {
		case incident.CategoryCrime:
			crimes++
		case incident.CategoryEncampment:
			encampments++
		case incident.CategoryAggressiveBehavior:
			aggressive++
		}
	}

	var factors []string
	if crimes > 0 {
		factors = append(factors, fmt.Sprintf("%d recent crime reports near this route", crimes))
	}
	if encampments > 0 {
		factors = append(factors, fmt.Sprintf("%d reported encampments along the way", encampments))
	}
	if aggressive > 0 {
		factors = append(factors, fmt.Sprintf("%d reports of aggressive behavior nearby", aggressive))
	}
	if m.PedestrianScore < 70 {
		factors = append(factors, "high overall incident density for pedestrians")
	}
	return factors
}

// safetyGains describes what a route has going for it. Advisory only.
func safetyGains(m safety.Metrics) []string {
	var gains []string
	if m.CrimeScore >= 90 {
		gains = append(gains, "few reported crimes along this route")
	}
	if m.SocialScore >= 90 {
		gains = append(gains, "no reported encampments or aggressive behavior")
	}
	if len(m.Incidents) == 0 {
		gains = append(gains, "no recent incidents reported nearby")
	}
	return gains
}

// fallbackRoutes synthesizes straight-line geometries when the provider is
// unreachable. All variation is a deterministic function of the endpoints
// so repeated requests produce identical fallbacks.
func fallbackRoutes(origin, destination geo.Point) []routing.Route {
	const walkingMetersPerMinute = 80.0

	seed := endpointSeed(origin, destination)
	direct := geo.DistanceMeters(origin, destination)

	routes := make([]routing.Route, 0, 3)
	for i := 0; i < 3; i++ {
		// Detours grow per variant, jittered a few percent by the seed.
		detour := 1.0 + 0.1*float64(i) + float64((seed>>uint(8*i))%5)/100.0
		distance := direct * detour

		routes = append(routes, routing.Route{
			Path:            interpolatePath(origin, destination, 8, i),
			DistanceMeters:  int(distance),
			DurationMinutes: int(math.Round(distance / walkingMetersPerMinute)),
		})
	}
	return routes
}

func endpointSeed(origin, destination geo.Point) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.5f,%.5f:%.5f,%.5f", origin.Lat, origin.Lon, destination.Lat, destination.Lon)
	return h.Sum64()
}

// interpolatePath places evenly spaced points between the endpoints, with a
// small per-variant lateral offset so variants are not identical geometries.
func interpolatePath(origin, destination geo.Point, segments, variant int) []geo.Point {
	path := make([]geo.Point, 0, segments+1)
	offset := 0.0003 * float64(variant)

	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		p := geo.Point{
			Lat: origin.Lat + t*(destination.Lat-origin.Lat),
			Lon: origin.Lon + t*(destination.Lon-origin.Lon),
		}
		// Bow the middle of the path outward, endpoints stay fixed.
		p.Lat += offset * math.Sin(t*math.Pi)
		path = append(path, p)
	}
	return path
}
