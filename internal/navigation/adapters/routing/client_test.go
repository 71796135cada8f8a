package routing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parisRequest() nav.RouteRequest {
	return nav.RouteRequest{
		Origin:         geo.Position{Latitude: 48.8566, Longitude: 2.3522, TimestampMillis: 1700000000000},
		DestinationLat: 48.8606,
		DestinationLng: 2.3376,
		Vehicle:        nav.VehicleCar,
	}
}

func TestComputeRouteSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/route", r.URL.Path)

		var wire routeRequestWire
		require.NoError(t, json.NewDecoder(r.Body).Decode(&wire))
		assert.Equal(t, 48.8566, wire.OriginLat)
		assert.Equal(t, "CAR", wire.VehicleType)

		json.NewEncoder(w).Encode(routeResponseWire{
			DistanceMeters:  2500,
			DurationSeconds: 600,
			Steps: []stepWire{
				{Instruction: "Head north on Rue de Rivoli", DistanceMeters: 500},
				{Instruction: "Turn left toward the Louvre", DistanceMeters: 2000},
			},
			Geometry: [][]float64{{2.3522, 48.8566}, {2.3450, 48.8584}, {2.3376, 48.8606}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, newTestLogger())
	route, err := client.ComputeRoute(context.Background(), parisRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	assert.Equal(t, 2500.0, route.DistanceMeters)
	require.Len(t, route.Geometry, 3)
	// geometry pairs arrive [lng, lat]
	assert.Equal(t, 48.8566, route.Geometry[0].Latitude)
	assert.Equal(t, 2.3522, route.Geometry[0].Longitude)

	// step geometry ranges cover the polyline in traversal order
	require.Len(t, route.Steps, 2)
	assert.Equal(t, 0, route.Steps[0].GeometryStart)
	assert.Equal(t, len(route.Geometry)-1, route.Steps[1].GeometryEnd)
	assert.GreaterOrEqual(t, route.Steps[1].GeometryStart, route.Steps[0].GeometryEnd)
}

func TestComputeRouteSynthesizesGeometry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(routeResponseWire{
			DistanceMeters:  1200,
			DurationSeconds: 300,
			Steps:           []stepWire{{Instruction: "Head to destination", DistanceMeters: 1200}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, newTestLogger())
	route, err := client.ComputeRoute(context.Background(), parisRequest())
	require.NoError(t, err)

	// straight origin-to-destination line when the service omits geometry
	require.Len(t, route.Geometry, 2)
	assert.Equal(t, 48.8566, route.Geometry[0].Latitude)
	assert.Equal(t, 48.8606, route.Geometry[1].Latitude)
}

func TestComputeRouteNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, newTestLogger())
	_, err := client.ComputeRoute(context.Background(), parisRequest())
	assert.ErrorIs(t, err, nav.ErrRouteNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestComputeRouteRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, newTestLogger())
	_, err := client.ComputeRoute(context.Background(), parisRequest())
	assert.ErrorIs(t, err, nav.ErrServiceUnavailable)
	// initial attempt plus two retries
	assert.Equal(t, int32(3), calls.Load())
}

func TestComputeRouteRecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(routeResponseWire{
			DistanceMeters:  1200,
			DurationSeconds: 300,
			Steps:           []stepWire{{Instruction: "Head to destination", DistanceMeters: 1200}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, newTestLogger())
	route, err := client.ComputeRoute(context.Background(), parisRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1200.0, route.DistanceMeters)
}

func TestComputeRouteLocalValidation(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, newTestLogger())

	req := parisRequest()
	req.DestinationLat = 95
	_, err := client.ComputeRoute(context.Background(), req)
	assert.ErrorIs(t, err, nav.ErrInvalidRequest)
	// invalid requests never reach the service
	assert.Zero(t, calls.Load())
}

func TestComputeRouteMalformedResponse(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// steps missing entirely: the built route cannot validate
		json.NewEncoder(w).Encode(routeResponseWire{DistanceMeters: 1000, DurationSeconds: 100})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, newTestLogger())
	_, err := client.ComputeRoute(context.Background(), parisRequest())
	assert.ErrorIs(t, err, nav.ErrServiceUnavailable)
	// a malformed body is definitive, not retried
	assert.Equal(t, int32(1), calls.Load())
}
