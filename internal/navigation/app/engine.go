package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gps-navigator/internal/common/contextx"
	"gps-navigator/internal/common/log"
	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/navigation/domain"
)

type observer struct {
	id int
	fn func(domain.Snapshot)
}

// Engine owns one navigation session: the state machine from IDLE through
// REQUESTING_ROUTE and NAVIGATING to ARRIVED, CANCELLED or FAILED.
//
// Hard invariant: apply is the sole mutator and runs under e.mu, so no two
// transitions are ever applied concurrently even though position samples
// and route results arrive from independent goroutines. Observer callbacks
// run synchronously inside that serialized section, at most once per
// transition, and must not call back into the engine.
type Engine struct {
	id     string
	logger *slog.Logger
	routes domain.RouteService
	logCtx context.Context

	mu                sync.Mutex
	state             nav.Status
	route             *nav.Route
	stepIndex         int
	lastPos           *geo.Position
	origin            *geo.Position
	dest              *geo.Point
	vehicle           nav.VehicleType
	startedAt         time.Time
	distanceRemaining float64
	offRoute          bool
	offRouteStrikes   int
	failure           error
	failurePending    bool
	reqSeq            uint64
	observers         []observer
	nextObsID         int
	unsubscribe       func()
}

// NewEngine creates a session engine in IDLE state. ctx outlives request
// scopes; it backs the route computation goroutines.
func NewEngine(ctx context.Context, id string, routes domain.RouteService, logger *slog.Logger) *Engine {
	return &Engine{
		id:     id,
		logger: logger,
		routes: routes,
		logCtx: context.WithoutCancel(ctx),
		state:  nav.StatusIdle,
	}
}

// NewSessionID mints a random session identifier.
func NewSessionID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("nav_%d", time.Now().UnixNano())
	}
	return "nav_" + hex.EncodeToString(b)
}

// ID returns the session identifier.
func (e *Engine) ID() string {
	return e.id
}

// AttachSource subscribes the engine to accepted position samples. The
// subscription is released by Close.
func (e *Engine) AttachSource(src *Source) {
	unsubscribe := src.Subscribe(func(position geo.Position) {
		e.apply(e.logCtx, nav.Event{Type: nav.EventPositionAccepted, Position: position})
	})

	e.mu.Lock()
	e.unsubscribe = unsubscribe
	e.mu.Unlock()
}

// OnChange registers an observer for session transitions. The returned
// handle removes it.
func (e *Engine) OnChange(fn func(domain.Snapshot)) (remove func()) {
	e.mu.Lock()
	id := e.nextObsID
	e.nextObsID++
	e.observers = append(e.observers, observer{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		for i, obs := range e.observers {
			if obs.id == id {
				e.observers = append(e.observers[:i], e.observers[i+1:]...)
				break
			}
		}
		e.mu.Unlock()
	}
}

// RequestNavigation starts a route request toward the destination. It is
// async: the session enters REQUESTING_ROUTE and returns immediately; the
// NAVIGATING or FAILED transition is observed via OnChange. Fails with
// ErrNoFixAvailable when no position was ever accepted.
func (e *Engine) RequestNavigation(ctx context.Context, destLat, destLng float64, vehicle nav.VehicleType) error {
	e.mu.Lock()

	if e.state.Terminal() {
		e.mu.Unlock()
		return nav.ErrSessionTerminal
	}
	if e.state == nav.StatusRequestingRoute {
		e.mu.Unlock()
		return nav.ErrRouteRequestInFlight
	}
	if e.state == nav.StatusFailed {
		// the unread failure is superseded by the new request
		e.state = nav.StatusIdle
		e.failurePending = false
	}
	if e.lastPos == nil {
		e.mu.Unlock()
		return nav.ErrNoFixAvailable
	}

	origin := *e.lastPos
	e.reqSeq++
	seq := e.reqSeq
	e.route = nil
	e.stepIndex = 0
	e.distanceRemaining = 0
	e.offRoute = false
	e.offRouteStrikes = 0
	e.failure = nil
	e.origin = &origin
	e.dest = &geo.Point{Latitude: destLat, Longitude: destLng}
	e.vehicle = vehicle
	e.startedAt = time.Now().UTC()
	e.transitionLocked(ctx, nav.StatusRequestingRoute)
	e.mu.Unlock()

	req := nav.RouteRequest{
		Origin:         origin,
		DestinationLat: destLat,
		DestinationLng: destLng,
		Vehicle:        vehicle,
	}

	// the route call must outlive the caller's request scope; keep only
	// the request id for log correlation
	runCtx := contextx.WithRequestID(e.logCtx, contextx.GetRequestID(ctx))
	go e.computeRoute(runCtx, seq, req)

	return nil
}

// Cancel requests cancellation. Cooperative: it takes effect before the
// next queued event is processed; an in-flight route response is discarded
// once the session is CANCELLED.
func (e *Engine) Cancel(ctx context.Context) {
	e.apply(ctx, nav.Event{Type: nav.EventCancelRequested})
}

// Snapshot returns the current session view. Reading a FAILED snapshot
// with no observer attached consumes the failure edge and resets the
// session to IDLE.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.snapshotLocked()
	if e.state == nav.StatusFailed && e.failurePending {
		e.state = nav.StatusIdle
		e.failurePending = false
	}
	return snap
}

// Close releases the position subscription.
func (e *Engine) Close() {
	e.mu.Lock()
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// ----- internals -----

func (e *Engine) computeRoute(ctx context.Context, seq uint64, req nav.RouteRequest) {
	route, err := e.routes.ComputeRoute(ctx, req)
	if err != nil {
		e.apply(ctx, nav.Event{Type: nav.EventRouteFailed, Err: err, Seq: seq})
		return
	}
	e.apply(ctx, nav.Event{Type: nav.EventRouteReady, Route: route, Seq: seq})
}

// apply is the single transition function; every mutation funnels through
// it in acceptance order.
func (e *Engine) apply(ctx context.Context, event nav.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch event.Type {
	case nav.EventPositionAccepted:
		e.applyPositionLocked(ctx, event.Position)

	case nav.EventRouteReady:
		if e.state != nav.StatusRequestingRoute || event.Seq != e.reqSeq {
			log.Debug(ctx, e.logger, "route_result_discarded",
				fmt.Sprintf("Discarding late route result seq=%d state=%s", event.Seq, e.state))
			return
		}
		// progress computation assumes a well-formed route; a broken
		// result from the route service is a failure, not a panic later
		if err := event.Route.Validate(); err != nil {
			e.failLocked(ctx, fmt.Errorf("%w: %v", nav.ErrServiceUnavailable, err))
			return
		}
		e.route = event.Route
		e.stepIndex = 0
		e.distanceRemaining = event.Route.DistanceMeters
		e.transitionLocked(ctx, nav.StatusNavigating)

	case nav.EventRouteFailed:
		if e.state != nav.StatusRequestingRoute || event.Seq != e.reqSeq {
			log.Debug(ctx, e.logger, "route_failure_discarded",
				fmt.Sprintf("Discarding late route failure seq=%d state=%s", event.Seq, e.state))
			return
		}
		e.failLocked(ctx, event.Err)

	case nav.EventCancelRequested:
		if e.state.Terminal() {
			return
		}
		e.transitionLocked(ctx, nav.StatusCancelled)
	}
}

// failLocked enters FAILED with the given reason. Edge-triggered: the
// snapshot is delivered to observers once, then the session is
// immediately usable again; with no observer the first Snapshot reader
// consumes the edge.
func (e *Engine) failLocked(ctx context.Context, err error) {
	e.failure = err
	e.transitionLocked(ctx, nav.StatusFailed)
	if len(e.observers) > 0 {
		e.state = nav.StatusIdle
	} else {
		e.failurePending = true
	}
}

func (e *Engine) applyPositionLocked(ctx context.Context, position geo.Position) {
	if e.state.Terminal() {
		return
	}

	p := position
	e.lastPos = &p

	if e.state != nav.StatusNavigating {
		return
	}

	pr := computeProgress(e.route, e.stepIndex, position)
	e.stepIndex = pr.stepIndex
	e.distanceRemaining = pr.distanceRemaining

	if pr.deviationMeters > offRouteThresholdMeters {
		e.offRouteStrikes++
		if e.offRouteStrikes >= offRouteStrikeLimit && !e.offRoute {
			e.offRoute = true // sticky until the next route request
			log.Warn(ctx, e.logger, "off_route",
				fmt.Sprintf("Position deviates %.0fm from route", pr.deviationMeters), nil)
		}
	} else {
		e.offRouteStrikes = 0
	}

	if e.route.FinalStep(e.stepIndex) && e.distanceRemaining < arrivalThresholdMeters {
		e.transitionLocked(ctx, nav.StatusArrived)
		return
	}

	e.transitionLocked(ctx, nav.StatusNavigating)
}

func (e *Engine) transitionLocked(ctx context.Context, next nav.Status) {
	if !e.state.CanTransitionTo(next) {
		log.Error(ctx, e.logger, "invalid_transition",
			fmt.Sprintf("Refusing transition %s -> %s", e.state, next), nav.ErrInvalidStatusTransition)
		return
	}
	e.state = next
	e.notifyLocked()
}

func (e *Engine) notifyLocked() {
	if len(e.observers) == 0 {
		return
	}
	snap := e.snapshotLocked()
	for _, obs := range e.observers {
		obs.fn(snap)
	}
}

func (e *Engine) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID:               e.id,
		State:                   e.state,
		StartedAt:               e.startedAt,
		Route:                   e.route,
		CurrentStepIndex:        e.stepIndex,
		Vehicle:                 e.vehicle,
		DistanceRemainingMeters: e.distanceRemaining,
		OffRoute:                e.offRoute,
		Failure:                 e.failure,
	}
	if e.lastPos != nil {
		p := *e.lastPos
		snap.LastPosition = &p
	}
	if e.origin != nil {
		p := *e.origin
		snap.Origin = &p
	}
	if e.dest != nil {
		d := *e.dest
		snap.Destination = &d
	}
	return snap
}
