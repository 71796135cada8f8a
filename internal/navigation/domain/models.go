package domain

import (
	"time"

	"gps-navigator/internal/domain/geo"
	"gps-navigator/internal/domain/nav"
)

// Snapshot is the read-only view of a navigation session handed to
// observers. The engine owns the underlying state; readers must not
// mutate the referenced route.
type Snapshot struct {
	SessionID string
	State     nav.Status
	StartedAt time.Time

	Route            *nav.Route
	CurrentStepIndex int

	Origin       *geo.Position
	LastPosition *geo.Position
	Destination  *geo.Point
	Vehicle      nav.VehicleType

	DistanceRemainingMeters float64
	OffRoute                bool

	// Failure carries the route request failure while State is FAILED.
	// It is delivered exactly once; the session then returns to IDLE.
	Failure error
}

// FailureReason returns the failure message, or "" when the snapshot does
// not carry one.
func (snapshot Snapshot) FailureReason() string {
	if snapshot.Failure == nil {
		return ""
	}
	return snapshot.Failure.Error()
}
