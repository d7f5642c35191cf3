// Package datasf provides incident sources backed by the San Francisco Open
// Data (SODA) APIs: the police dispatch feed and the 311 service-request feed.
package datasf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepath/safepath/internal/incident"
	"github.com/safepath/safepath/internal/provider/resilience"
	"github.com/safepath/safepath/pkg/geo"
)

const (
	// DefaultBaseURL is the DataSF API base URL.
	DefaultBaseURL = "https://data.sfgov.org"

	// DispatchSourceID identifies the police dispatch (crime) feed.
	DispatchSourceID = "datasf-dispatch"

	// ServiceRequestSourceID identifies the 311 service-request feed.
	ServiceRequestSourceID = "datasf-311"

	dispatchResource       = "/resource/gnap-fj3t.json"
	serviceRequestResource = "/resource/vw6y-z8j6.json"

	// sodaTimeLayout is the floating timestamp format SODA returns.
	sodaTimeLayout = "2006-01-02T15:04:05.000"
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the DataSF client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// AppToken is the optional DataSF application token.
	AppToken string

	// HTTPClient is the HTTP client to use.
	// If nil, a default resilient client is created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 5s).
	Timeout time.Duration

	// Lookback bounds how far back records are requested (default: 72h).
	Lookback time.Duration

	// Limit is the maximum records per request (default: 1000).
	Limit int

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a DataSF SODA API client. Its two feeds are exposed as
// independent incident sources sharing one underlying HTTP client.
type Client struct {
	baseURL    string
	appToken   string
	httpClient HTTPDoer
	lookback   time.Duration
	limit      int
	logger     zerolog.Logger
}

// NewClient creates a new DataSF client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	lookback := cfg.Lookback
	if lookback == 0 {
		lookback = 72 * time.Hour
	}

	limit := cfg.Limit
	if limit == 0 {
		limit = 1000
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 5 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            "datasf",
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		appToken:   cfg.AppToken,
		httpClient: httpClient,
		lookback:   lookback,
		limit:      limit,
		logger:     cfg.Logger,
	}
}

// DispatchSource returns the police dispatch feed as an incident source.
func (c *Client) DispatchSource() incident.Source {
	return &dispatchSource{client: c}
}

// ServiceRequestSource returns the 311 feed as an incident source.
func (c *Client) ServiceRequestSource() incident.Source {
	return &serviceRequestSource{client: c}
}

// API response types (from DataSF).

type geoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

type dispatchRecord struct {
	ID                string        `json:"id"`
	CADNumber         string        `json:"cad_number"`
	CallTypeOriginal  string        `json:"call_type_original_desc"`
	CallTypeFinal     string        `json:"call_type_final_desc"`
	IntersectionName  string        `json:"intersection_name"`
	IntersectionPoint *geoJSONPoint `json:"intersection_point"`
	EntryDatetime     string        `json:"entry_datetime"`
}

type serviceRequestRecord struct {
	ServiceRequestID  string        `json:"service_request_id"`
	ServiceName       string        `json:"service_name"`
	ServiceSubtype    string        `json:"service_subtype"`
	StatusDescription string        `json:"status_description"`
	RequestedDatetime string        `json:"requested_datetime"`
	PointGeom         *geoJSONPoint `json:"point_geom"`
}

// fetchResource executes a SODA query and decodes the JSON array into out.
func (c *Client) fetchResource(ctx context.Context, resource, orderField string, out interface{}) error {
	since := time.Now().Add(-c.lookback).Format(sodaTimeLayout)

	query := url.Values{}
	query.Set("$limit", fmt.Sprintf("%d", c.limit))
	query.Set("$order", orderField+" DESC")
	query.Set("$where", fmt.Sprintf("%s > '%s'", orderField, since))

	reqURL := c.baseURL + resource + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", resource, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", resource, err)
	}
	return nil
}

// location resolves a GeoJSON point into a geo.Point, reporting whether the
// record carries usable coordinates.
func location(p *geoJSONPoint) (geo.Point, bool) {
	if p == nil || len(p.Coordinates) < 2 {
		return geo.Point{}, false
	}
	return geo.Point{Lat: p.Coordinates[1], Lon: p.Coordinates[0]}, true
}

func parseSODATime(value string) time.Time {
	if t, err := time.Parse(sodaTimeLayout, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}

// dispatchSource adapts the dispatch feed to the incident.Source interface.
type dispatchSource struct {
	client *Client
}

func (s *dispatchSource) ID() string { return DispatchSourceID }

func (s *dispatchSource) Fetch(ctx context.Context) ([]incident.Incident, error) {
	var records []dispatchRecord
	if err := s.client.fetchResource(ctx, dispatchResource, "entry_datetime", &records); err != nil {
		return nil, err
	}

	incidents := make([]incident.Incident, 0, len(records))
	for _, r := range records {
		loc, ok := location(r.IntersectionPoint)
		if !ok {
			continue
		}

		id := r.ID
		if id == "" {
			id = r.CADNumber
		}
		if id == "" {
			continue
		}

		category, severity := incident.Classify(r.CallTypeOriginal)

		description := r.CallTypeFinal
		if description == "" {
			description = r.CallTypeOriginal
		}

		incidents = append(incidents, incident.Incident{
			ID:          DispatchSourceID + ":" + id,
			Category:    category,
			Severity:    severity,
			Location:    loc,
			OccurredAt:  parseSODATime(r.EntryDatetime),
			Description: description,
			Status:      r.IntersectionName,
		})
	}

	s.client.logger.Debug().
		Int("records", len(records)).
		Int("incidents", len(incidents)).
		Msg("fetched dispatch feed")

	return incidents, nil
}

// serviceRequestSource adapts the 311 feed to the incident.Source interface.
type serviceRequestSource struct {
	client *Client
}

func (s *serviceRequestSource) ID() string { return ServiceRequestSourceID }

func (s *serviceRequestSource) Fetch(ctx context.Context) ([]incident.Incident, error) {
	var records []serviceRequestRecord
	if err := s.client.fetchResource(ctx, serviceRequestResource, "requested_datetime", &records); err != nil {
		return nil, err
	}

	incidents := make([]incident.Incident, 0, len(records))
	for _, r := range records {
		loc, ok := location(r.PointGeom)
		if !ok {
			continue
		}
		if r.ServiceRequestID == "" {
			continue
		}

		category, severity := incident.Classify(r.ServiceName)

		// Closed encampments no longer pose a risk.
		if category == incident.CategoryEncampment {
			if strings.EqualFold(r.StatusDescription, "closed") {
				continue
			}
			severity = incident.EncampmentSeverity(reportedEncampmentSeverity(r.ServiceSubtype))
		}

		incidents = append(incidents, incident.Incident{
			ID:          ServiceRequestSourceID + ":" + r.ServiceRequestID,
			Category:    category,
			Severity:    severity,
			Location:    loc,
			OccurredAt:  parseSODATime(r.RequestedDatetime),
			Description: r.ServiceName,
			Status:      r.StatusDescription,
		})
	}

	s.client.logger.Debug().
		Int("records", len(records)).
		Int("incidents", len(incidents)).
		Msg("fetched 311 feed")

	return incidents, nil
}

// reportedEncampmentSeverity maps the 311 subtype to a source-reported
// severity. Multi-structure encampments are reported high.
func reportedEncampmentSeverity(subtype string) incident.Severity {
	lower := strings.ToLower(subtype)
	if strings.Contains(lower, "multiple") || strings.Contains(lower, "large") {
		return incident.SeverityHigh
	}
	return incident.SeverityMedium
}
