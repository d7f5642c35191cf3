package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/routing"
)

// IncidentRefresher force-refreshes the incident source caches.
type IncidentRefresher interface {
	Refresh(ctx context.Context) int
	CacheStatuses() []incident.CacheStatus
}

// RouteWarmer fetches routes, populating the route cache as a side effect.
type RouteWarmer interface {
	GetRoutes(ctx context.Context, req routing.RoutesRequest) (*routing.RoutesResponse, error)
}

// RefreshJob keeps the incident and route caches warm.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Either may be nil when not configured.
	incidents IncidentRefresher
	routes    RouteWarmer

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns        int64
	SourcesRefreshed int64
	CorridorsWarmed  int64
	FailedWarms      int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Incidents IncidentRefresher
	Routes    RouteWarmer
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Corridors) == 0 {
		config = DefaultRefreshConfig()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshJob{
		config:    config,
		logger:    cfg.Logger,
		incidents: cfg.Incidents,
		routes:    cfg.Routes,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	SourcesRefreshed int
	TotalCorridors   int
	CorridorsWarmed  int
	Failed           int
	Errors           []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Corridor string
	Error    string
}

// Run executes the refresh job: incident sources first so corridor
// warming scores against fresh data, then corridors through a worker pool.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:      startTime,
		TotalCorridors: j.config.TotalCorridors(),
	}

	j.logger.Info().
		Int("corridors", result.TotalCorridors).
		Int("concurrency", j.config.Concurrency).
		Msg("starting cache refresh job")

	if j.config.RefreshIncidents && j.incidents != nil {
		refreshCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
		result.SourcesRefreshed = j.incidents.Refresh(refreshCtx)
		cancel()

		j.logger.Info().
			Int("sources_refreshed", result.SourcesRefreshed).
			Msg("incident sources refreshed")
	}

	if j.config.WarmRoutes && j.routes != nil {
		j.warmCorridors(ctx, result)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("warmed", result.CorridorsWarmed).
		Int("failed", result.Failed).
		Msg("cache refresh job completed")

	return result
}

type corridorResult struct {
	corridor Corridor
	err      error
}

func (j *RefreshJob) warmCorridors(ctx context.Context, result *RefreshResult) {
	corridors := j.config.AllCorridors()

	corridorsChan := make(chan Corridor, len(corridors))
	resultsChan := make(chan corridorResult, len(corridors))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, corridorsChan, resultsChan)
		}()
	}

	for _, c := range corridors {
		corridorsChan <- c
	}
	close(corridorsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for cr := range resultsChan {
		if cr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				Corridor: cr.corridor.Name,
				Error:    cr.err.Error(),
			})
		} else {
			result.CorridorsWarmed++
		}
	}
}

func (j *RefreshJob) warmWorker(ctx context.Context, corridors <-chan Corridor, results chan<- corridorResult) {
	for corridor := range corridors {
		select {
		case <-ctx.Done():
			return
		default:
			results <- corridorResult{
				corridor: corridor,
				err:      j.warmCorridor(ctx, corridor),
			}
		}
	}
}

func (j *RefreshJob) warmCorridor(ctx context.Context, corridor Corridor) error {
	warmCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.routes.GetRoutes(warmCtx, routing.RoutesRequest{
		Origin:      corridor.Origin,
		Destination: corridor.Destination,
	})
	if err != nil {
		j.logger.Warn().Err(err).
			Str("corridor", corridor.Name).
			Msg("failed to warm corridor")
		return err
	}

	j.logger.Debug().
		Str("corridor", corridor.Name).
		Msg("corridor warmed")
	return nil
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SourcesRefreshed += int64(result.SourcesRefreshed)
	j.metrics.CorridorsWarmed += int64(result.CorridorsWarmed)
	j.metrics.FailedWarms += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:        j.metrics.TotalRuns,
		SourcesRefreshed: j.metrics.SourcesRefreshed,
		CorridorsWarmed:  j.metrics.CorridorsWarmed,
		FailedWarms:      j.metrics.FailedWarms,
		LastRunAt:        j.metrics.LastRunAt,
		LastRunDuration:  j.metrics.LastRunDuration,
		TotalDuration:    j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"sources_refreshed": m.SourcesRefreshed,
		"corridors_warmed":  m.CorridorsWarmed,
		"failed_warms":      m.FailedWarms,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
