package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/domain/place"
	"gps-navigator/internal/general/contracts"
	"gps-navigator/internal/navigation/domain"
)

type memFavorites struct {
	mu    sync.Mutex
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
	favorite.ID = "fav_1"
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

type memHistory struct {
	mu       sync.Mutex
	archived []nav.Session
}

func (m *memHistory) Archive(ctx context.Context, session *nav.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archived = append(m.archived, *session)
	return nil
}

func (m *memHistory) Recent(ctx context.Context, limit int) ([]nav.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.archived) > limit {
		return append([]nav.Session(nil), m.archived[:limit]...), nil
	}
	return append([]nav.Session(nil), m.archived...), nil
}

type memArchive struct {
	mu      sync.Mutex
	samples []geo.Position
}

func (m *memArchive) Archive(ctx context.Context, position geo.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, position)
	return nil
}

func (m *memArchive) Latest(ctx context.Context) (geo.Position, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.samples) == 0 {
		return geo.Position{}, false, nil
	}
	return m.samples[len(m.samples)-1], true, nil
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []any
}

func (b *recordingBroadcaster) Broadcast(msg any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

func newTestService(t *testing.T, routes domain.RouteService) (*AppService, *Source, *recordingBroadcaster, *memArchive) {
	t.Helper()
	source := NewSource(nil, newTestLogger())
	broadcaster := &recordingBroadcaster{}
	archive := &memArchive{}
	svc := NewAppService(context.Background(), source, routes,
		&memFavorites{}, &memHistory{}, archive, nil, broadcaster, newTestLogger())
	return svc, source, broadcaster, archive
}

func wireSample(ts int64) contracts.PositionWire {
	return contracts.PositionWire{Latitude: 48.8566, Longitude: 2.3522, TimestampMillis: ts}
}

func TestIngestPosition(t *testing.T) {
	svc, _, broadcaster, archive := newTestService(t, &stubRoutes{route: parisRoute()})
	ctx := context.Background()

	accepted, err := svc.IngestPosition(ctx, wireSample(1000))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, 1, broadcaster.count())
	assert.Len(t, archive.samples, 1)

	// stale sample: dropped silently, no side effects
	accepted, err = svc.IngestPosition(ctx, wireSample(1000))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, 1, broadcaster.count())
	assert.Len(t, archive.samples, 1)

	// invalid sample surfaces the validation error
	bad := wireSample(2000)
	bad.Latitude = 95
	_, err = svc.IngestPosition(ctx, bad)
	assert.ErrorIs(t, err, geo.ErrInvalidLatitude)
}

func TestCurrentPositionFallsBackToArchive(t *testing.T) {
	svc, _, _, archive := newTestService(t, &stubRoutes{route: parisRoute()})
	ctx := context.Background()

	_, ok, err := svc.CurrentPosition(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// an archived sample from a previous run is the fallback answer
	archive.samples = append(archive.samples, samplePosition(500))
	position, ok, err := svc.CurrentPosition(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(500), position.TimestampMillis)
}

func TestStartNavigationValidatesVehicle(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubRoutes{route: parisRoute()})

	_, err := svc.StartNavigation(context.Background(), 48.8606, 2.3376, "submarine")
	assert.ErrorIs(t, err, nav.ErrInvalidRequest)
}

func TestSessionReplacedAfterTerminal(t *testing.T) {
	svc, source, _, _ := newTestService(t, &stubRoutes{route: parisRoute()})
	ctx := context.Background()

	source.Offer(samplePosition(1000))
	first, err := svc.StartNavigation(ctx, 48.8606, 2.3376, "CAR")
	require.NoError(t, err)

	require.NoError(t, svc.CancelNavigation(ctx))
	snapshot, ok := svc.SessionSnapshot()
	require.True(t, ok)
	assert.Equal(t, nav.StatusCancelled, snapshot.State)

	// a new request after a terminal session gets a fresh session id
	second, err := svc.StartNavigation(ctx, 48.8606, 2.3376, "CAR")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestCancelWithoutSession(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubRoutes{route: parisRoute()})
	assert.ErrorIs(t, svc.CancelNavigation(context.Background()), nav.ErrSessionTerminal)

	_, ok := svc.SessionSnapshot()
	assert.False(t, ok)
}

func TestFavoritesRoundTrip(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubRoutes{route: parisRoute()})
	ctx := context.Background()

	favorite, err := svc.AddFavorite(ctx, "Home", "12 Rue de la Paix", 48.869, 2.331, "")
	require.NoError(t, err)
	assert.Equal(t, "general", favorite.Category)

	list, err := svc.ListFavorites(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := svc.DeleteFavorite(ctx, favorite.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeleteFavorite(ctx, "fav_missing")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.AddFavorite(ctx, " ", "addr", 0, 0, "")
	assert.ErrorIs(t, err, place.ErrEmptyName)
}
