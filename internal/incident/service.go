package incident

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ServiceConfig holds configuration for the incident repository service.
type ServiceConfig struct {
	// Sources are the external incident feeds, keyed internally by Source.ID().
	Sources []Source

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long a source payload stays fresh (default: 15 minutes).
	CacheTTL time.Duration

	// FetchTimeout bounds a single source fetch (default: 5 seconds).
	FetchTimeout time.Duration
}

// Service owns the per-source incident cache. It is the only mutable shared
// state in the scoring pipeline: entries are keyed by source id, written
// atomically, last completed fetch wins.
type Service struct {
	sources      map[string]Source
	order        []string
	logger       zerolog.Logger
	cacheTTL     time.Duration
	fetchTimeout time.Duration

	mu    sync.RWMutex
	cache map[string]*cacheEntry

	// group coalesces concurrent refreshes of the same source into one fetch.
	group singleflight.Group
}

type cacheEntry struct {
	incidents []Incident
	fetchedAt time.Time
}

// SourceData is the result of a cached source read.
type SourceData struct {
	Incidents []Incident
	FetchedAt time.Time

	// Stale is set when a refresh failed and the payload is older than the TTL.
	// Callers must treat stale data as best-effort, not authoritative.
	Stale bool
}

// NewService creates a new incident repository service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 5 * time.Second
	}

	sources := make(map[string]Source, len(cfg.Sources))
	order := make([]string, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		sources[src.ID()] = src
		order = append(order, src.ID())
	}

	return &Service{
		sources:      sources,
		order:        order,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		fetchTimeout: fetchTimeout,
		cache:        make(map[string]*cacheEntry),
	}
}

// SourceIDs returns the configured source ids in registration order.
func (s *Service) SourceIDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// GetCached returns the cached payload for a source, refreshing it first if
// the entry is missing or older than the TTL. Concurrent callers hitting an
// expired entry block on one shared fetch. When the refresh fails and an
// older payload exists, that payload is returned flagged as stale.
func (s *Service) GetCached(ctx context.Context, sourceID string) (SourceData, error) {
	src, ok := s.sources[sourceID]
	if !ok {
		return SourceData{}, ErrSourceNotFound
	}

	s.mu.RLock()
	entry, ok := s.cache[sourceID]
	s.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < s.cacheTTL {
		return SourceData{Incidents: entry.incidents, FetchedAt: entry.fetchedAt}, nil
	}

	return s.refresh(ctx, src, false)
}

// refresh performs a single-flight fetch for the source and stores the result.
func (s *Service) refresh(ctx context.Context, src Source, force bool) (SourceData, error) {
	v, err, _ := s.group.Do(src.ID(), func() (interface{}, error) {
		// Detach from the caller so an abandoned request cannot cancel a
		// fetch other callers are waiting on.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		// Another caller may have completed a refresh while we queued.
		if !force {
			s.mu.RLock()
			if entry, ok := s.cache[src.ID()]; ok && time.Since(entry.fetchedAt) < s.cacheTTL {
				s.mu.RUnlock()
				return SourceData{Incidents: entry.incidents, FetchedAt: entry.fetchedAt}, nil
			}
			s.mu.RUnlock()
		}

		incidents, fetchErr := src.Fetch(fetchCtx)
		if fetchErr != nil {
			s.logger.Error().Err(fetchErr).
				Str("source", src.ID()).
				Msg("incident source fetch failed")

			s.mu.RLock()
			entry, ok := s.cache[src.ID()]
			s.mu.RUnlock()
			if ok {
				s.logger.Warn().
					Str("source", src.ID()).
					Time("fetched_at", entry.fetchedAt).
					Msg("serving stale incident data after failed refresh")
				return SourceData{Incidents: entry.incidents, FetchedAt: entry.fetchedAt, Stale: true}, nil
			}

			return SourceData{}, ErrFetchFailed
		}

		now := time.Now()
		s.mu.Lock()
		s.cache[src.ID()] = &cacheEntry{incidents: incidents, fetchedAt: now}
		s.mu.Unlock()

		s.logger.Info().
			Str("source", src.ID()).
			Int("incidents", len(incidents)).
			Msg("incident source refreshed")

		return SourceData{Incidents: incidents, FetchedAt: now}, nil
	})
	if err != nil {
		return SourceData{}, err
	}
	return v.(SourceData), nil
}

// AllCached returns the merged, id-deduplicated incidents from every source.
// Sources are read concurrently; a failed source contributes nothing rather
// than aborting the merge.
func (s *Service) AllCached(ctx context.Context) []Incident {
	results := make([][]Incident, len(s.order))

	var wg sync.WaitGroup
	for i, id := range s.order {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			data, err := s.GetCached(ctx, id)
			if err != nil {
				return
			}
			results[i] = data.Incidents
		}(i, id)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var merged []Incident
	for _, incidents := range results {
		for _, inc := range incidents {
			if _, dup := seen[inc.ID]; dup {
				continue
			}
			seen[inc.ID] = struct{}{}
			merged = append(merged, inc)
		}
	}
	return merged
}

// RecentIncidents merges all cached sources, keeps incidents that occurred
// within maxAge, sorts them newest first and truncates to limit.
func (s *Service) RecentIncidents(ctx context.Context, maxAge time.Duration, limit int) []Incident {
	cutoff := time.Now().Add(-maxAge)

	merged := s.AllCached(ctx)
	recent := merged[:0]
	for _, inc := range merged {
		if inc.OccurredAt.After(cutoff) {
			recent = append(recent, inc)
		}
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].OccurredAt.After(recent[j].OccurredAt)
	})

	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

// Refresh forces a refresh of every source, tolerating per-source failures.
// Returns the number of sources that refreshed successfully.
func (s *Service) Refresh(ctx context.Context) int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	refreshed := 0

	for _, id := range s.order {
		src := s.sources[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if data, err := s.refresh(ctx, src, true); err == nil && !data.Stale {
				mu.Lock()
				refreshed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return refreshed
}

// CacheStatus describes the state of one source's cache entry.
type CacheStatus struct {
	SourceID  string
	HasData   bool
	FetchedAt time.Time
	IsExpired bool
	Incidents int
}

// CacheStatuses reports the cache state for every configured source.
func (s *Service) CacheStatuses() []CacheStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	statuses := make([]CacheStatus, 0, len(s.order))
	for _, id := range s.order {
		status := CacheStatus{SourceID: id}
		if entry, ok := s.cache[id]; ok {
			status.HasData = true
			status.FetchedAt = entry.fetchedAt
			status.IsExpired = now.Sub(entry.fetchedAt) >= s.cacheTTL
			status.Incidents = len(entry.incidents)
		}
		statuses = append(statuses, status)
	}
	return statuses
}
