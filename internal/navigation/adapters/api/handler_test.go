package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/domain/place"
	"gps-navigator/internal/general/jwt"
	"gps-navigator/internal/navigation/app"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubRoutes struct {
	route *nav.Route
	err   error
}

func (s *stubRoutes) ComputeRoute(ctx context.Context, req nav.RouteRequest) (*nav.Route, error) {
	return s.route, s.err
}

type memFavorites struct {
	mu    sync.Mutex
	next  int
	items []place.Favorite
}

func (m *memFavorites) List(ctx context.Context) ([]place.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]place.Favorite(nil), m.items...), nil
}

func (m *memFavorites) Add(ctx context.Context, favorite *place.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	favorite.ID = "fav_" + string(rune('0'+m.next))
	m.items = append(m.items, *favorite)
	return nil
}

func (m *memFavorites) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memHistory struct{}

func (memHistory) Archive(ctx context.Context, session *nav.Session) error { return nil }
func (memHistory) Recent(ctx context.Context, limit int) ([]nav.Session, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (http.Handler, *jwt.Manager, *app.Source) {
	t.Helper()

	logger := newTestLogger()
	source := app.NewSource(nil, logger)
	route := &nav.Route{
		DistanceMeters:  1200,
		DurationSeconds: 300,
		Steps:           []nav.Step{{Instruction: "Head to destination", DistanceMeters: 1200, GeometryStart: 0, GeometryEnd: 1}},
		Geometry: []geo.Point{
			{Latitude: 48.8566, Longitude: 2.3522},
			{Latitude: 48.8606, Longitude: 2.3376},
		},
	}
	svc := app.NewAppService(context.Background(), source, &stubRoutes{route: route},
		&memFavorites{}, memHistory{}, nil, nil, nil, logger)

	mgr := jwt.NewManager("handler-test-secret", time.Hour)
	handler := NewHandler(svc, nil, mgr, logger)
	return handler.Router(), mgr, source
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIngestPositionRequiresToken(t *testing.T) {
	router, mgr, _ := newTestRouter(t)

	body := `{"latitude":48.8566,"longitude":2.3522,"timestamp_millis":1700000000000}`
	rec := doJSON(t, router, http.MethodPost, "/api/gps/position", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := mgr.IssueDeviceToken("head-unit-01", "VH-1")
	require.NoError(t, err)

	rec = doJSON(t, router, http.MethodPost, "/api/gps/position", body,
		map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Accepted bool `json:"accepted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Accepted)
}

func TestCurrentPositionNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/gps/current", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCurrentPositionAfterIngest(t *testing.T) {
	router, _, source := newTestRouter(t)

	require.True(t, source.Offer(geo.Position{Latitude: 48.8566, Longitude: 2.3522, TimestampMillis: 1000}))

	rec := doJSON(t, router, http.MethodGet, "/api/gps/current", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Latitude        float64 `json:"latitude"`
		TimestampMillis int64   `json:"timestamp_millis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 48.8566, resp.Latitude)
	assert.Equal(t, int64(1000), resp.TimestampMillis)
}

func TestCalculateRouteWithoutFix(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/route/calculate",
		`{"destination_lat":48.8606,"destination_lng":2.3376,"vehicle_type":"CAR"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCalculateRouteAccepted(t *testing.T) {
	router, _, source := newTestRouter(t)
	source.Offer(geo.Position{Latitude: 48.8566, Longitude: 2.3522, TimestampMillis: 1000})

	rec := doJSON(t, router, http.MethodPost, "/api/route/calculate",
		`{"destination_lat":48.8606,"destination_lng":2.3376}`, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp snapshotWire
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	// the route request is async; the stub may already have answered
	assert.Contains(t, []string{
		nav.StatusRequestingRoute.String(),
		nav.StatusNavigating.String(),
	}, resp.Status)
}

func TestCalculateRouteBadVehicle(t *testing.T) {
	router, _, source := newTestRouter(t)
	source.Offer(geo.Position{Latitude: 48.8566, Longitude: 2.3522, TimestampMillis: 1000})

	rec := doJSON(t, router, http.MethodPost, "/api/route/calculate",
		`{"destination_lat":48.8606,"destination_lng":2.3376,"vehicle_type":"submarine"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelWithoutSession(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/navigation/cancel", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionSnapshotNotFound(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/navigation/session", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFavoritesEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/favorites",
		`{"name":"Home","address":"12 Rue de la Paix","latitude":48.869,"longitude":2.331}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created favoriteWire
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "general", created.Category)

	rec = doJSON(t, router, http.MethodGet, "/api/favorites", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Favorites []favoriteWire `json:"favorites"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Favorites, 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/favorites/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/favorites/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// invalid payloads map to 400
	rec = doJSON(t, router, http.MethodPost, "/api/favorites",
		`{"name":"","address":"x","latitude":0,"longitude":0}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
