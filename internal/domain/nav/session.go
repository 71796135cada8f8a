package nav

import (
	"errors"
	"strings"
	"time"

	"gps-navigator/internal/domain/geo"
)

// Session is the domain entity corresponding to the `navigation_sessions`
// table: the persisted record of one navigation attempt, from request to
// arrival, cancellation or failure.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time

	OriginLat      float64
	OriginLng      float64
	DestinationLat float64
	DestinationLng float64
	Vehicle        VehicleType

	Status              Status
	RouteDistanceMeters float64
	FailureReason       *string
}

var (
	ErrSessionIDRequired    = errors.New("session id is required")
	ErrSessionAlreadyEnded  = errors.New("session already ended")
	ErrInvalidSessionCoords = errors.New("session coordinates out of range")
)

// NewSession creates a session record in REQUESTING_ROUTE state starting "now".
func NewSession(id string, origin geo.Position, destLat, destLng float64, vehicle VehicleType) (*Session, error) {
	if id = strings.TrimSpace(id); id == "" {
		return nil, ErrSessionIDRequired
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if destLat < -90 || destLat > 90 || destLng < -180 || destLng > 180 {
		return nil, ErrInvalidSessionCoords
	}
	if !vehicle.Valid() {
		return nil, ErrInvalidVehicleType
	}

	return &Session{
		ID:             id,
		StartedAt:      time.Now().UTC(),
		OriginLat:      origin.Latitude,
		OriginLng:      origin.Longitude,
		DestinationLat: destLat,
		DestinationLng: destLng,
		Vehicle:        vehicle,
		Status:         StatusRequestingRoute,
	}, nil
}

// Finish stamps the session with its final status. Returns an error on
// double finish.
func (session *Session) Finish(status Status, failureReason string) error {
	if session.EndedAt != nil {
		return ErrSessionAlreadyEnded
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}

	now := time.Now().UTC()
	session.EndedAt = &now
	session.Status = status
	if reason := strings.TrimSpace(failureReason); reason != "" {
		session.FailureReason = &reason
	}
	return nil
}
