// Package main provides the entrypoint for the SafePath API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/api"
	"github.com/safepath/safepath/internal/api/middleware"
	"github.com/safepath/safepath/internal/database"
	geocodegh "github.com/safepath/safepath/internal/geocoding/graphhopper"
	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/incident/datasf"
	"github.com/safepath/safepath/internal/place"
	"github.com/safepath/safepath/internal/riskmodel"
	"github.com/safepath/safepath/internal/routeplan"
	"github.com/safepath/safepath/internal/routing"
	routinggh "github.com/safepath/safepath/internal/routing/graphhopper"
	"github.com/safepath/safepath/internal/safety"
	"github.com/safepath/safepath/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "safepath-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SafePath API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Saved places: Postgres when configured, in-memory otherwise
	var placeRepo place.Repository
	if os.Getenv("DB_HOST") != "" {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		placeRepo = place.NewPostgresRepository(pool)
	} else {
		log.Warn().Msg("DB_HOST not set - saved places use in-memory storage")
		placeRepo = place.NewInMemoryRepository()
	}
	placeService := place.NewService(placeRepo)

	// Incident sources: SF dispatch feed plus 311 service requests
	datasfClient := datasf.NewClient(datasf.ClientConfig{
		AppToken: os.Getenv("DATASF_APP_TOKEN"),
		Logger:   log,
	})
	incidentService := incident.NewService(incident.ServiceConfig{
		Sources: []incident.Source{
			datasfClient.DispatchSource(),
			datasfClient.ServiceRequestSource(),
		},
		Logger: log,
	})
	log.Info().Msg("incident service initialized")

	// Proximity risk scorer over the incident cache
	safetyScorer := safety.NewScorer(safety.ScorerConfig{
		Incidents: incidentService,
		Logger:    log,
	})

	// Logistic route comparison model
	riskScorer := riskmodel.NewScorer(riskmodel.DefaultModelConfig())

	// Routing and geocoding via GraphHopper
	graphhopperKey := os.Getenv("GRAPHHOPPER_API_KEY")
	if graphhopperKey == "" {
		log.Warn().Msg("GRAPHHOPPER_API_KEY not set - routing falls back to direct-line estimates")
	}
	routingClient := routinggh.NewClient(routinggh.ClientConfig{
		APIKey: graphhopperKey,
		Logger: log,
	})
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: routingClient,
		Logger:   log,
	})
	geocoder := geocodegh.NewClient(geocodegh.ClientConfig{
		APIKey: graphhopperKey,
		Logger: log,
	})

	// Route planner ties routing, scoring and ranking together
	planner := routeplan.NewService(routeplan.ServiceConfig{
		Geocoder: geocoder,
		Routes:   routingService,
		Scorer:   safetyScorer,
		Logger:   log,
	})
	log.Info().Msg("route planner initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		RoutePlanner:    planner,
		RouteComparer:   riskScorer,
		IncidentService: incidentService,
		LocationScorer:  safetyScorer,
		PlaceService:    placeService,
		SourceReporter:  incidentService,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
