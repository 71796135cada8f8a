package nav

import "errors"

// Failure taxonomy shared by the position source, the route client and the
// session engine. Stale position samples are logged and dropped, never
// surfaced through these.
var (
	ErrLocationUnavailable     = errors.New("location unavailable")
	ErrNoFixAvailable          = errors.New("no position fix available")
	ErrInvalidRequest          = errors.New("invalid route request")
	ErrRouteNotFound           = errors.New("no route found")
	ErrServiceUnavailable      = errors.New("route service unavailable")
	ErrSessionTerminal         = errors.New("session already ended")
	ErrRouteRequestInFlight    = errors.New("route request already in flight")
	ErrInvalidStatusTransition = errors.New("invalid session status transition")
)
