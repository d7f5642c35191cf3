// Package handler provides HTTP handlers for the SafePath API.
package handler

import (
	"net/http"
	"time"

	"github.com/safepath/safepath/internal/api/models"
	"github.com/safepath/safepath/internal/api/response"
	"github.com/safepath/safepath/internal/incident"
)

// SourceReporter reports the cache state of the incident sources.
type SourceReporter interface {
	CacheStatuses() []incident.CacheStatus
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	sources   SourceReporter
}

// NewOpsHandler creates a new OpsHandler. sources may be nil when the
// incident service is not configured.
func NewOpsHandler(version, buildTime string, sources SourceReporter) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		sources:   sources,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Ready means
// at least one incident source has data; the service degrades rather than
// fails when sources are down, so readiness never reports hard failure
// from source state alone.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	if h.sources != nil && !anySourceReady(h.sources.CacheStatuses()) {
		status = models.HealthStatusDegraded
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - per-source cache status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())

	status := models.SystemStatus{
		Status: models.HealthStatusOK,
		Time:   now,
	}

	if h.sources != nil {
		for _, s := range h.sources.CacheStatuses() {
			status.Sources = append(status.Sources, toSourceStatus(s))
		}
	}
	for _, s := range status.Sources {
		if s.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
			break
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func toSourceStatus(s incident.CacheStatus) models.SourceStatus {
	out := models.SourceStatus{
		Source:    s.SourceID,
		Status:    models.HealthStatusOK,
		Stale:     s.IsExpired,
		Incidents: s.Incidents,
	}
	if !s.HasData {
		out.Status = models.HealthStatusFail
	} else if s.IsExpired {
		out.Status = models.HealthStatusDegraded
	}
	if s.HasData {
		fetchedAt := models.Timestamp(s.FetchedAt)
		out.FetchedAt = &fetchedAt
	}
	return out
}

func anySourceReady(statuses []incident.CacheStatus) bool {
	for _, s := range statuses {
		if s.HasData {
			return true
		}
	}
	return false
}
