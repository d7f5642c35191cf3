package datasf_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/incident/datasf"
)

const dispatchFixture = `[
	{
		"id": "251060001",
		"call_type_original_desc": "FIGHT W/WEAPONS",
		"call_type_final_desc": "ASSAULT / BATTERY",
		"intersection_name": "MARKET ST \\ 5TH ST",
		"intersection_point": {"type": "Point", "coordinates": [-122.4078, 37.7840]},
		"entry_datetime": "2026-08-30T22:15:00.000"
	},
	{
		"id": "251060002",
		"call_type_original_desc": "SUSPICIOUS PERSON",
		"intersection_point": {"type": "Point", "coordinates": [-122.4194, 37.7749]},
		"entry_datetime": "2026-08-30T21:05:00.000"
	},
	{
		"id": "251060003",
		"call_type_original_desc": "ROBBERY",
		"entry_datetime": "2026-08-30T20:00:00.000"
	}
]`

const serviceRequestFixture = `[
	{
		"service_request_id": "17512345",
		"service_name": "Encampment",
		"service_subtype": "Multiple structures",
		"status_description": "Open",
		"requested_datetime": "2026-08-30T18:30:00.000",
		"point_geom": {"type": "Point", "coordinates": [-122.4119, 37.7812]}
	},
	{
		"service_request_id": "17512346",
		"service_name": "Encampment",
		"service_subtype": "Tent",
		"status_description": "Closed",
		"requested_datetime": "2026-08-29T10:00:00.000",
		"point_geom": {"type": "Point", "coordinates": [-122.4192, 37.7793]}
	},
	{
		"service_request_id": "17512347",
		"service_name": "Aggressive/Threatening",
		"status_description": "Open",
		"requested_datetime": "2026-08-30T16:45:00.000",
		"point_geom": {"type": "Point", "coordinates": [-122.4196, 37.7650]}
	}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *datasf.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return datasf.NewClient(datasf.ClientConfig{
		BaseURL:    server.URL,
		AppToken:   "test-token",
		HTTPClient: server.Client(),
		Logger:     zerolog.New(io.Discard),
	})
}

func TestDispatchSource_Fetch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resource/gnap-fj3t.json", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-App-Token"))
		assert.Contains(t, r.URL.Query().Get("$order"), "entry_datetime")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(dispatchFixture))
	})

	src := client.DispatchSource()
	assert.Equal(t, datasf.DispatchSourceID, src.ID())

	incidents, err := src.Fetch(context.Background())
	require.NoError(t, err)

	// The record without coordinates is dropped.
	require.Len(t, incidents, 2)

	fight := incidents[0]
	assert.Equal(t, "datasf-dispatch:251060001", fight.ID)
	assert.Equal(t, incident.CategoryCrime, fight.Category)
	assert.Equal(t, incident.SeverityHigh, fight.Severity)
	assert.Equal(t, "ASSAULT / BATTERY", fight.Description)
	assert.InDelta(t, 37.7840, fight.Location.Lat, 1e-6)
	assert.InDelta(t, -122.4078, fight.Location.Lon, 1e-6)
	assert.False(t, fight.OccurredAt.IsZero())

	suspicious := incidents[1]
	assert.Equal(t, incident.CategorySuspiciousActivity, suspicious.Category)
	assert.Equal(t, incident.SeverityLow, suspicious.Severity)
	assert.Equal(t, "SUSPICIOUS PERSON", suspicious.Description)
}

func TestServiceRequestSource_Fetch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resource/vw6y-z8j6.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(serviceRequestFixture))
	})

	src := client.ServiceRequestSource()
	assert.Equal(t, datasf.ServiceRequestSourceID, src.ID())

	incidents, err := src.Fetch(context.Background())
	require.NoError(t, err)

	// The closed encampment is skipped.
	require.Len(t, incidents, 2)

	encampment := incidents[0]
	assert.Equal(t, incident.CategoryEncampment, encampment.Category)
	assert.Equal(t, incident.SeverityHigh, encampment.Severity) // multiple structures
	assert.Equal(t, "Open", encampment.Status)

	aggressive := incidents[1]
	assert.Equal(t, incident.CategoryAggressiveBehavior, aggressive.Category)
	assert.Equal(t, incident.SeverityHigh, aggressive.Severity)
}

func TestFetch_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.DispatchSource().Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetch_MalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	})

	_, err := client.ServiceRequestSource().Fetch(context.Background())
	assert.Error(t, err)
}
