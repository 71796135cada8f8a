package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gps-navigator/internal/common/contextx"
	"gps-navigator/internal/common/log"
	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/domain/place"
	"gps-navigator/internal/general/contracts"
	"gps-navigator/internal/navigation/domain"
)

const historyLimit = 50

// AppService orchestrates the navigation use cases: position ingestion,
// session lifecycle, favorites and history. It owns the current session
// engine; a new engine replaces a terminal one on the next navigation
// request.
type AppService struct {
	logger    *slog.Logger
	source    *Source
	routes    domain.RouteService
	favorites domain.FavoriteRepository
	history   domain.HistoryRepository
	positions domain.PositionArchive
	publisher domain.Publisher
	ws        domain.Broadcaster
	logCtx    context.Context

	mu     sync.Mutex
	engine *Engine
}

func NewAppService(
	ctx context.Context,
	source *Source,
	routes domain.RouteService,
	favorites domain.FavoriteRepository,
	history domain.HistoryRepository,
	positions domain.PositionArchive,
	publisher domain.Publisher,
	ws domain.Broadcaster,
	logger *slog.Logger,
) *AppService {
	return &AppService{
		logger:    logger,
		source:    source,
		routes:    routes,
		favorites: favorites,
		history:   history,
		positions: positions,
		publisher: publisher,
		ws:        ws,
		logCtx:    context.WithoutCancel(ctx),
	}
}

// IngestPosition feeds one device-reported sample into the position
// source. It returns false when the sample was dropped by the staleness
// rule. Accepted samples are archived, broadcast and published.
func (a *AppService) IngestPosition(ctx context.Context, wire contracts.PositionWire) (bool, error) {
	position := wire.ToPosition()
	if err := position.Validate(); err != nil {
		return false, err
	}

	if !a.source.Offer(position) {
		return false, nil
	}

	if a.positions != nil {
		if err := a.positions.Archive(ctx, position); err != nil {
			log.Error(ctx, a.logger, "position_archive_fail", "Failed to archive accepted position", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.PublishPosition(ctx, position); err != nil {
			log.Warn(ctx, a.logger, "position_publish_fail", "Failed to publish accepted position", err)
		}
	}
	if a.ws != nil {
		a.ws.Broadcast(contracts.WSGpsUpdate{Type: "gps_update", Data: contracts.PositionToWire(position)})
	}

	return true, nil
}

// CurrentPosition returns the merged last-known position, falling back to
// the most recent archived sample when nothing was accepted this run.
func (a *AppService) CurrentPosition(ctx context.Context) (geo.Position, bool, error) {
	if position, ok := a.source.Last(); ok {
		return position, true, nil
	}
	if a.positions == nil {
		return geo.Position{}, false, nil
	}
	return a.positions.Latest(ctx)
}

// PollDevicePosition performs the one-shot high-accuracy device fetch.
func (a *AppService) PollDevicePosition(ctx context.Context) (geo.Position, error) {
	return a.source.PollOnce(ctx)
}

// StartNavigation requests a route toward the destination. A fresh session
// engine is created when none exists or the previous one ended.
func (a *AppService) StartNavigation(ctx context.Context, destLat, destLng float64, vehicleType string) (domain.Snapshot, error) {
	vehicle, err := nav.ParseVehicleType(vehicleType)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", nav.ErrInvalidRequest, err)
	}

	engine := a.currentOrNewEngine(ctx)
	if err := engine.RequestNavigation(ctx, destLat, destLng, vehicle); err != nil {
		return engine.Snapshot(), err
	}
	return engine.Snapshot(), nil
}

// CancelNavigation cancels the active session.
func (a *AppService) CancelNavigation(ctx context.Context) error {
	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()

	if engine == nil {
		return nav.ErrSessionTerminal
	}
	engine.Cancel(ctx)
	return nil
}

// SessionSnapshot returns the view of the current session, if any.
func (a *AppService) SessionSnapshot() (domain.Snapshot, bool) {
	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()

	if engine == nil {
		return domain.Snapshot{}, false
	}
	return engine.Snapshot(), true
}

func (a *AppService) ListFavorites(ctx context.Context) ([]place.Favorite, error) {
	return a.favorites.List(ctx)
}

func (a *AppService) AddFavorite(ctx context.Context, name, address string, lat, lng float64, category string) (*place.Favorite, error) {
	favorite, err := place.NewFavorite(name, address, lat, lng, category)
	if err != nil {
		return nil, err
	}
	if err := a.favorites.Add(ctx, favorite); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return favorite, nil
}

func (a *AppService) DeleteFavorite(ctx context.Context, id string) (bool, error) {
	return a.favorites.Delete(ctx, id)
}

func (a *AppService) NavigationHistory(ctx context.Context) ([]nav.Session, error) {
	return a.history.Recent(ctx, historyLimit)
}

// ----- internals -----

// currentOrNewEngine returns the active engine, replacing it when the
// previous session reached a terminal state.
func (a *AppService) currentOrNewEngine(ctx context.Context) *Engine {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine != nil && !a.engine.Snapshot().State.Terminal() {
		return a.engine
	}

	if a.engine != nil {
		a.engine.Close()
	}

	engine := NewEngine(a.logCtx, NewSessionID(), a.routes, a.logger)
	engine.AttachSource(a.source)
	engine.OnChange(a.onSessionChanged)
	a.engine = engine

	log.Info(contextx.WithSessionID(ctx, engine.ID()), a.logger, "session_created", "New navigation session created")
	return engine
}

// onSessionChanged fans accepted transitions out to the WebSocket hub and
// the telemetry queue, and archives finished sessions. It runs inside the
// engine's serialized section and must not call back into the engine.
func (a *AppService) onSessionChanged(snapshot domain.Snapshot) {
	ctx := contextx.WithSessionID(a.logCtx, snapshot.SessionID)

	if a.ws != nil {
		update := contracts.WSSessionUpdate{
			Type:                    "session_update",
			SessionID:               snapshot.SessionID,
			Status:                  snapshot.State.String(),
			CurrentStepIndex:        snapshot.CurrentStepIndex,
			DistanceRemainingMeters: snapshot.DistanceRemainingMeters,
			OffRoute:                snapshot.OffRoute,
			Failure:                 snapshot.FailureReason(),
		}
		if snapshot.LastPosition != nil {
			wire := contracts.PositionToWire(*snapshot.LastPosition)
			update.LastPosition = &wire
		}
		a.ws.Broadcast(update)
	}

	if a.publisher != nil {
		if err := a.publisher.PublishSessionStatus(ctx, snapshot); err != nil {
			log.Warn(ctx, a.logger, "session_publish_fail", "Failed to publish session transition", err)
		}
	}

	if a.history != nil && (snapshot.State.Terminal() || snapshot.State == nav.StatusFailed) {
		a.archiveSession(ctx, snapshot)
	}
}

// archiveSession persists the finished session off the event path.
func (a *AppService) archiveSession(ctx context.Context, snapshot domain.Snapshot) {
	if snapshot.Origin == nil || snapshot.Destination == nil {
		// session ended before any navigation was requested; nothing to record
		return
	}

	record, err := nav.NewSession(snapshot.SessionID, *snapshot.Origin,
		snapshot.Destination.Latitude, snapshot.Destination.Longitude, snapshot.Vehicle)
	if err != nil {
		log.Error(ctx, a.logger, "session_record_fail", "Failed to build session record", err)
		return
	}
	record.StartedAt = snapshot.StartedAt
	if snapshot.Route != nil {
		record.RouteDistanceMeters = snapshot.Route.DistanceMeters
	}
	if err := record.Finish(snapshot.State, snapshot.FailureReason()); err != nil {
		log.Error(ctx, a.logger, "session_record_fail", "Failed to finish session record", err)
		return
	}

	go func() {
		if err := a.history.Archive(ctx, record); err != nil {
			log.Error(ctx, a.logger, "session_archive_fail", "Failed to archive session record", err)
		}
	}()
}
