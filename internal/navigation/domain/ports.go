package domain

import (
	"context"

	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/domain/place"
)

// RouteService computes a route through the remote route service. The
// implementation owns retry and timeout policy; it never mutates session
// state.
type RouteService interface {
	ComputeRoute(ctx context.Context, req nav.RouteRequest) (*nav.Route, error)
}

// DeviceLocator resolves a one-shot high-accuracy fix from the device
// sensor. Implementations must honor ctx cancellation.
type DeviceLocator interface {
	Locate(ctx context.Context) (geo.Position, error)
}

type FavoriteRepository interface {
	List(ctx context.Context) ([]place.Favorite, error)
	Add(ctx context.Context, favorite *place.Favorite) error
	Delete(ctx context.Context, id string) (bool, error)
}

type HistoryRepository interface {
	Archive(ctx context.Context, session *nav.Session) error
	Recent(ctx context.Context, limit int) ([]nav.Session, error)
}

type PositionArchive interface {
	Archive(ctx context.Context, position geo.Position) error
	Latest(ctx context.Context) (geo.Position, bool, error)
}

// Publisher forwards accepted positions and session transitions to the
// telemetry queue.
type Publisher interface {
	PublishSessionStatus(ctx context.Context, snapshot Snapshot) error
	PublishPosition(ctx context.Context, position geo.Position) error
}

// Broadcaster pushes a message to every connected observer client.
type Broadcaster interface {
	Broadcast(msg any)
}
