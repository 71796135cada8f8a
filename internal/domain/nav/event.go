package nav

import "gps-navigator/internal/domain/geo"

// EventType enumerates the inputs the session engine reacts to. All state
// mutation flows through a single transition function consuming these.
type EventType string

const (
	EventPositionAccepted EventType = "POSITION_ACCEPTED"
	EventRouteReady       EventType = "ROUTE_READY"
	EventRouteFailed      EventType = "ROUTE_FAILED"
	EventCancelRequested  EventType = "CANCEL_REQUESTED"
)

// Event is one unit of input for the session engine. Seq correlates route
// results with the request that produced them, so responses arriving after
// a cancellation or a newer request are discarded.
type Event struct {
	Type     EventType
	Position geo.Position // EventPositionAccepted
	Route    *Route       // EventRouteReady
	Err      error        // EventRouteFailed
	Seq      uint64       // EventRouteReady / EventRouteFailed
}
