package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gps-navigator/internal/common/log"
	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/navigation/domain"
)

// Retry policy: transient failures are retried twice with exponential
// backoff before surfacing ErrServiceUnavailable. A remote "no route"
// answer is definitive and never retried.
const (
	maxRetries  = 2
	backoffBase = 500 * time.Millisecond
)

// Ensure Client implements the domain.RouteService port.
var _ domain.RouteService = (*Client)(nil)

// Client is a stateless wrapper around the remote route service.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a route client. timeout bounds each individual attempt.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{},
		logger:  logger,
	}
}

type routeRequestWire struct {
	OriginLat      float64 `json:"origin_lat"`
	OriginLng      float64 `json:"origin_lng"`
	DestinationLat float64 `json:"destination_lat"`
	DestinationLng float64 `json:"destination_lng"`
	VehicleType    string  `json:"vehicle_type"`
}

type stepWire struct {
	Instruction    string  `json:"instruction"`
	DistanceMeters float64 `json:"distance_meters"`
}

type routeResponseWire struct {
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds float64     `json:"duration_seconds"`
	Steps           []stepWire  `json:"steps"`
	Geometry        [][]float64 `json:"geometry"` // [lng, lat] pairs
}

// ComputeRoute validates the request locally, then calls the remote route
// service with the configured retry policy.
func (c *Client) ComputeRoute(ctx context.Context, req nav.RouteRequest) (*nav.Route, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(routeRequestWire{
		OriginLat:      req.Origin.Latitude,
		OriginLng:      req.Origin.Longitude,
		DestinationLat: req.DestinationLat,
		DestinationLng: req.DestinationLng,
		VehicleType:    req.Vehicle.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal route request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffBase << (attempt - 1)
			log.Warn(ctx, c.logger, "route_retry",
				fmt.Sprintf("Retrying route request in %s (attempt %d/%d)", backoff, attempt, maxRetries), lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", nav.ErrServiceUnavailable, ctx.Err())
			}
		}

		route, retryable, err := c.attempt(ctx, req, payload)
		if err == nil {
			return route, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", nav.ErrServiceUnavailable, lastErr)
}

func (c *Client) attempt(ctx context.Context, req nav.RouteRequest, payload []byte) (*nav.Route, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+"/route", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("%w: %v", nav.ErrServiceUnavailable, ctx.Err())
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// the remote confirms no path exists; retrying cannot change that
		return nil, false, nav.ErrRouteNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, true, fmt.Errorf("route service returned %d", resp.StatusCode)
	}

	var wire routeResponseWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, true, fmt.Errorf("decode route response: %w", err)
	}

	route, err := buildRoute(req, wire)
	if err != nil {
		return nil, false, fmt.Errorf("%w: malformed route: %v", nav.ErrServiceUnavailable, err)
	}
	return route, false, nil
}

// buildRoute maps the wire response onto the domain route, synthesizing a
// straight-line geometry when the service omits one and assigning step
// geometry ranges proportionally to step distance.
func buildRoute(req nav.RouteRequest, wire routeResponseWire) (*nav.Route, error) {
	route := &nav.Route{
		DistanceMeters:  wire.DistanceMeters,
		DurationSeconds: wire.DurationSeconds,
	}

	for _, s := range wire.Steps {
		route.Steps = append(route.Steps, nav.Step{
			Instruction:    s.Instruction,
			DistanceMeters: s.DistanceMeters,
		})
	}

	for _, pair := range wire.Geometry {
		if len(pair) != 2 {
			return nil, fmt.Errorf("geometry pair has %d values", len(pair))
		}
		route.Geometry = append(route.Geometry, geo.Point{Latitude: pair[1], Longitude: pair[0]})
	}
	if len(route.Geometry) < 2 {
		route.Geometry = []geo.Point{
			{Latitude: req.Origin.Latitude, Longitude: req.Origin.Longitude},
			{Latitude: req.DestinationLat, Longitude: req.DestinationLng},
		}
	}

	assignGeometryRanges(route)

	if err := route.Validate(); err != nil {
		return nil, err
	}
	return route, nil
}

// assignGeometryRanges splits the polyline vertex indices across the steps
// so that each step covers the stretch matching its share of the total
// step distance.
func assignGeometryRanges(route *nav.Route) {
	if len(route.Steps) == 0 || len(route.Geometry) < 2 {
		return
	}

	// cumulative polyline length per vertex
	cum := make([]float64, len(route.Geometry))
	for i := 1; i < len(route.Geometry); i++ {
		cum[i] = cum[i-1] + geo.DistanceMeters(route.Geometry[i-1], route.Geometry[i])
	}
	total := cum[len(cum)-1]

	var stepTotal float64
	for _, s := range route.Steps {
		stepTotal += s.DistanceMeters
	}
	if stepTotal <= 0 || total <= 0 {
		// degenerate distances: give the whole polyline to the last step
		for i := range route.Steps {
			route.Steps[i].GeometryStart = 0
			route.Steps[i].GeometryEnd = 0
		}
		route.Steps[len(route.Steps)-1].GeometryEnd = len(route.Geometry) - 1
		return
	}

	start := 0
	var covered float64
	for i := range route.Steps {
		covered += route.Steps[i].DistanceMeters
		target := covered / stepTotal * total

		end := start
		for end < len(cum)-1 && cum[end] < target {
			end++
		}
		if i == len(route.Steps)-1 {
			end = len(route.Geometry) - 1
		}

		route.Steps[i].GeometryStart = start
		route.Steps[i].GeometryEnd = end
		start = end
	}
}
