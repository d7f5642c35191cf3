// Package api provides the HTTP API for SafePath.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api/handler"
	"github.com/safepath/safepath/internal/api/middleware"
	"github.com/safepath/safepath/internal/place"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	RoutePlanner    handler.RoutePlanner
	RouteComparer   handler.RouteComparer
	IncidentService handler.IncidentLister
	LocationScorer  handler.LocationScorer
	PlaceService    *place.Service
	SourceReporter  handler.SourceReporter
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "safepath-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.SourceReporter)
	routeHandler := handler.NewRouteHandler(cfg.RoutePlanner, cfg.RouteComparer)
	incidentHandler := handler.NewIncidentHandler(cfg.IncidentService, cfg.LocationScorer)
	placeHandler := handler.NewPlaceHandler(cfg.PlaceService)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Route endpoints - these fan out to the routing provider and
		// score every candidate, so rate limit them tightly
		r.Group(func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Post("/routes:optimize", routeHandler.OptimizeRoute)
			r.Post("/routes:compare", routeHandler.CompareRoutes)
		})

		// Incident endpoints
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/incidents", incidentHandler.ListIncidents)
			r.Get("/incidents:score", incidentHandler.ScoreLocation)
		})

		// Saved places
		r.Route("/places", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", placeHandler.ListPlaces)
			r.Post("/", placeHandler.CreatePlace)
			r.Route("/{placeId}", func(r chi.Router) {
				r.Get("/", placeHandler.GetPlace)
				r.Patch("/", placeHandler.UpdatePlace)
				r.Delete("/", placeHandler.DeletePlace)
			})
		})
	})

	return r
}
