package incident_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/pkg/geo"
)

// mockSource is a configurable test incident feed.
type mockSource struct {
	id         string
	incidents  []incident.Incident
	err        error
	fetchCount atomic.Int32
	fetchDelay time.Duration
}

func (m *mockSource) ID() string { return m.id }

func (m *mockSource) Fetch(ctx context.Context) ([]incident.Incident, error) {
	m.fetchCount.Add(1)
	if m.fetchDelay > 0 {
		select {
		case <-time.After(m.fetchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.incidents, nil
}

func testIncidents(prefix string, n int) []incident.Incident {
	incidents := make([]incident.Incident, 0, n)
	for i := 0; i < n; i++ {
		incidents = append(incidents, incident.Incident{
			ID:         prefix + string(rune('a'+i)),
			Category:   incident.CategoryCrime,
			Severity:   incident.SeverityMedium,
			Location:   geo.Point{Lat: 37.77, Lon: -122.41},
			OccurredAt: time.Now().Add(-time.Duration(i) * time.Hour),
		})
	}
	return incidents
}

func newTestService(sources ...incident.Source) *incident.Service {
	return incident.NewService(incident.ServiceConfig{
		Sources: sources,
		Logger:  zerolog.New(io.Discard),
	})
}

func TestService_GetCached_FetchesOnceWithinTTL(t *testing.T) {
	src := &mockSource{id: "datasf-311", incidents: testIncidents("sr", 3)}
	svc := newTestService(src)
	ctx := context.Background()

	first, err := svc.GetCached(ctx, "datasf-311")
	require.NoError(t, err)
	assert.Len(t, first.Incidents, 3)
	assert.False(t, first.Stale)

	second, err := svc.GetCached(ctx, "datasf-311")
	require.NoError(t, err)
	assert.Equal(t, first.Incidents, second.Incidents)
	assert.Equal(t, first.FetchedAt, second.FetchedAt)

	assert.Equal(t, int32(1), src.fetchCount.Load())
}

func TestService_GetCached_UnknownSource(t *testing.T) {
	svc := newTestService(&mockSource{id: "datasf-dispatch"})

	_, err := svc.GetCached(context.Background(), "nope")
	assert.ErrorIs(t, err, incident.ErrSourceNotFound)
}

func TestService_GetCached_FetchFailureWithoutCache(t *testing.T) {
	src := &mockSource{id: "datasf-dispatch", err: errors.New("boom")}
	svc := newTestService(src)

	_, err := svc.GetCached(context.Background(), "datasf-dispatch")
	assert.ErrorIs(t, err, incident.ErrFetchFailed)
}

func TestService_GetCached_ServesStaleOnFailedRefresh(t *testing.T) {
	src := &mockSource{id: "datasf-311", incidents: testIncidents("sr", 2)}
	svc := incident.NewService(incident.ServiceConfig{
		Sources:  []incident.Source{src},
		Logger:   zerolog.New(io.Discard),
		CacheTTL: 10 * time.Millisecond,
	})
	ctx := context.Background()

	first, err := svc.GetCached(ctx, "datasf-311")
	require.NoError(t, err)
	require.False(t, first.Stale)

	// Let the entry expire, then fail the refresh.
	time.Sleep(20 * time.Millisecond)
	src.err = errors.New("feed down")

	data, err := svc.GetCached(ctx, "datasf-311")
	require.NoError(t, err)
	assert.True(t, data.Stale)
	assert.Equal(t, first.Incidents, data.Incidents)
}

func TestService_GetCached_SingleFlight(t *testing.T) {
	src := &mockSource{
		id:         "datasf-dispatch",
		incidents:  testIncidents("cr", 1),
		fetchDelay: 30 * time.Millisecond,
	}
	svc := newTestService(src)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := svc.GetCached(ctx, "datasf-dispatch")
			assert.NoError(t, err)
			assert.Len(t, data.Incidents, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.fetchCount.Load())
}

func TestService_AllCached_MergesAndDeduplicates(t *testing.T) {
	shared := incident.Incident{
		ID:         "dup-1",
		Category:   incident.CategoryEncampment,
		Severity:   incident.SeverityMedium,
		OccurredAt: time.Now(),
	}
	a := &mockSource{id: "datasf-dispatch", incidents: append(testIncidents("cr", 2), shared)}
	b := &mockSource{id: "datasf-311", incidents: append(testIncidents("sr", 2), shared)}
	svc := newTestService(a, b)

	merged := svc.AllCached(context.Background())
	assert.Len(t, merged, 5)

	ids := make(map[string]int)
	for _, inc := range merged {
		ids[inc.ID]++
	}
	assert.Equal(t, 1, ids["dup-1"])
}

func TestService_AllCached_ToleratesFailedSource(t *testing.T) {
	ok := &mockSource{id: "datasf-311", incidents: testIncidents("sr", 2)}
	down := &mockSource{id: "datasf-dispatch", err: errors.New("feed down")}
	svc := newTestService(ok, down)

	merged := svc.AllCached(context.Background())
	assert.Len(t, merged, 2)
}

func TestService_RecentIncidents(t *testing.T) {
	now := time.Now()
	src := &mockSource{id: "datasf-311", incidents: []incident.Incident{
		{ID: "old", OccurredAt: now.Add(-48 * time.Hour)},
		{ID: "newest", OccurredAt: now.Add(-1 * time.Hour)},
		{ID: "newer", OccurredAt: now.Add(-2 * time.Hour)},
		{ID: "boundary", OccurredAt: now.Add(-23 * time.Hour)},
	}}
	svc := newTestService(src)

	recent := svc.RecentIncidents(context.Background(), 24*time.Hour, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "newest", recent[0].ID)
	assert.Equal(t, "newer", recent[1].ID)
}

func TestService_Refresh_ForcesFetch(t *testing.T) {
	src := &mockSource{id: "datasf-dispatch", incidents: testIncidents("cr", 1)}
	svc := newTestService(src)
	ctx := context.Background()

	_, err := svc.GetCached(ctx, "datasf-dispatch")
	require.NoError(t, err)
	require.Equal(t, int32(1), src.fetchCount.Load())

	refreshed := svc.Refresh(ctx)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, int32(2), src.fetchCount.Load())
}

func TestService_CacheStatuses(t *testing.T) {
	src := &mockSource{id: "datasf-311", incidents: testIncidents("sr", 3)}
	svc := newTestService(src, &mockSource{id: "datasf-dispatch"})

	_, err := svc.GetCached(context.Background(), "datasf-311")
	require.NoError(t, err)

	statuses := svc.CacheStatuses()
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].HasData)
	assert.Equal(t, 3, statuses[0].Incidents)
	assert.False(t, statuses[0].IsExpired)
	assert.False(t, statuses[1].HasData)
}
