package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gps-navigator/internal/common/contextx"
	"gps-navigator/internal/common/log"
	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
	"gps-navigator/internal/domain/place"
	"gps-navigator/internal/general/contracts"
	"gps-navigator/internal/navigation/domain"
)

// -------------------- WIRE SHAPES --------------------

type stepWire struct {
	Instruction    string  `json:"instruction"`
	DistanceMeters float64 `json:"distance_meters"`
}

type routeWire struct {
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds float64     `json:"duration_seconds"`
	Steps           []stepWire  `json:"steps"`
	Geometry        [][]float64 `json:"geometry"` // [lng, lat] pairs
}

type snapshotWire struct {
	SessionID               string                  `json:"session_id"`
	Status                  string                  `json:"status"`
	CurrentStepIndex        int                     `json:"current_step_index"`
	DistanceRemainingMeters float64                 `json:"distance_remaining_meters"`
	OffRoute                bool                    `json:"off_route"`
	Failure                 string                  `json:"failure,omitempty"`
	Route                   *routeWire              `json:"route,omitempty"`
	LastPosition            *contracts.PositionWire `json:"last_position,omitempty"`
}

type sessionWire struct {
	ID                  string  `json:"id"`
	StartedAt           string  `json:"started_at"`
	EndedAt             *string `json:"ended_at,omitempty"`
	OriginLat           float64 `json:"origin_lat"`
	OriginLng           float64 `json:"origin_lng"`
	DestinationLat      float64 `json:"destination_lat"`
	DestinationLng      float64 `json:"destination_lng"`
	VehicleType         string  `json:"vehicle_type"`
	Status              string  `json:"status"`
	RouteDistanceMeters float64 `json:"route_distance_meters"`
	FailureReason       *string `json:"failure_reason,omitempty"`
}

type favoriteWire struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Category  string  `json:"category"`
	CreatedAt string  `json:"created_at"`
}

func snapshotToWire(snapshot domain.Snapshot) snapshotWire {
	out := snapshotWire{
		SessionID:               snapshot.SessionID,
		Status:                  snapshot.State.String(),
		CurrentStepIndex:        snapshot.CurrentStepIndex,
		DistanceRemainingMeters: snapshot.DistanceRemainingMeters,
		OffRoute:                snapshot.OffRoute,
		Failure:                 snapshot.FailureReason(),
	}
	if snapshot.Route != nil {
		out.Route = routeToWire(snapshot.Route)
	}
	if snapshot.LastPosition != nil {
		wire := contracts.PositionToWire(*snapshot.LastPosition)
		out.LastPosition = &wire
	}
	return out
}

func routeToWire(route *nav.Route) *routeWire {
	steps := make([]stepWire, 0, len(route.Steps))
	for _, step := range route.Steps {
		steps = append(steps, stepWire{Instruction: step.Instruction, DistanceMeters: step.DistanceMeters})
	}
	geometry := make([][]float64, 0, len(route.Geometry))
	for _, point := range route.Geometry {
		geometry = append(geometry, []float64{point.Longitude, point.Latitude})
	}
	return &routeWire{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Steps:           steps,
		Geometry:        geometry,
	}
}

func sessionToWire(session *nav.Session) sessionWire {
	out := sessionWire{
		ID:                  session.ID,
		StartedAt:           session.StartedAt.UTC().Format(time.RFC3339),
		OriginLat:           session.OriginLat,
		OriginLng:           session.OriginLng,
		DestinationLat:      session.DestinationLat,
		DestinationLng:      session.DestinationLng,
		VehicleType:         session.Vehicle.String(),
		Status:              session.Status.String(),
		RouteDistanceMeters: session.RouteDistanceMeters,
		FailureReason:       session.FailureReason,
	}
	if session.EndedAt != nil {
		ended := session.EndedAt.UTC().Format(time.RFC3339)
		out.EndedAt = &ended
	}
	return out
}

func favoriteToWire(favorite *place.Favorite) favoriteWire {
	return favoriteWire{
		ID:        favorite.ID,
		Name:      favorite.Name,
		Address:   favorite.Address,
		Latitude:  favorite.Latitude,
		Longitude: favorite.Longitude,
		Category:  favorite.Category,
		CreatedAt: favorite.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// -------------------- ERROR HANDLING --------------------

func (h *Handler) handleAppError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, nav.ErrInvalidRequest):
		writeJSONError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, nav.ErrNoFixAvailable):
		writeJSONError(ctx, w, http.StatusConflict, "no position fix available")
	case errors.Is(err, nav.ErrRouteRequestInFlight):
		writeJSONError(ctx, w, http.StatusConflict, "route request already in flight")
	case errors.Is(err, nav.ErrSessionTerminal):
		writeJSONError(ctx, w, http.StatusConflict, "navigation session already ended")
	case errors.Is(err, nav.ErrRouteNotFound):
		writeJSONError(ctx, w, http.StatusNotFound, "no route found")
	case errors.Is(err, nav.ErrServiceUnavailable):
		writeJSONError(ctx, w, http.StatusBadGateway, "route service unavailable")
	case errors.Is(err, nav.ErrLocationUnavailable):
		writeJSONError(ctx, w, http.StatusServiceUnavailable, "location unavailable")
	case errors.Is(err, geo.ErrInvalidLatitude),
		errors.Is(err, geo.ErrInvalidLongitude),
		errors.Is(err, geo.ErrInvalidHeading),
		errors.Is(err, geo.ErrNegativeSpeed),
		errors.Is(err, geo.ErrZeroTimestamp):
		writeJSONError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, place.ErrEmptyName),
		errors.Is(err, place.ErrEmptyAddress),
		errors.Is(err, place.ErrInvalidLatitude),
		errors.Is(err, place.ErrInvalidLongitude):
		writeJSONError(ctx, w, http.StatusBadRequest, err.Error())
	default:
		log.Error(ctx, h.logger, "internal_error", "Unhandled application error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}

// -------------------- RESPONSE HELPERS --------------------

func writeJSONError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]any{
		"error":      message,
		"code":       status,
		"request_id": contextx.GetRequestID(ctx),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSONInfo(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
