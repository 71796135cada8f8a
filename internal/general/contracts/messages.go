package contracts

import (
	"gps-navigator/internal/domain/geo"
)

// PositionWire is the JSON shape of a position sample on every transport:
// the HTTP ingest endpoint, the push channel, the WebSocket broadcast and
// the location fanout queue.
type PositionWire struct {
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	SpeedMPS        *float64 `json:"speed_mps,omitempty"`
	HeadingDegrees  *float64 `json:"heading_degrees,omitempty"`
	TimestampMillis int64    `json:"timestamp_millis"`
}

// PositionToWire maps a domain position onto its wire shape.
func PositionToWire(position geo.Position) PositionWire {
	return PositionWire{
		Latitude:        position.Latitude,
		Longitude:       position.Longitude,
		SpeedMPS:        position.SpeedMPS,
		HeadingDegrees:  position.HeadingDegrees,
		TimestampMillis: position.TimestampMillis,
	}
}

// ToPosition maps the wire shape back onto the domain position.
func (w PositionWire) ToPosition() geo.Position {
	return geo.Position{
		Latitude:        w.Latitude,
		Longitude:       w.Longitude,
		SpeedMPS:        w.SpeedMPS,
		HeadingDegrees:  w.HeadingDegrees,
		TimestampMillis: w.TimestampMillis,
	}
}

// WSGpsUpdate mirrors "gps_update" frames broadcast to connected clients
// and delivered by the push channel.
type WSGpsUpdate struct {
	Type string       `json:"type"` // "gps_update"
	Data PositionWire `json:"data"`
}

// WSSessionUpdate mirrors "session_update" frames broadcast after each
// accepted session transition.
type WSSessionUpdate struct {
	Type                    string        `json:"type"` // "session_update"
	SessionID               string        `json:"session_id"`
	Status                  string        `json:"status"`
	CurrentStepIndex        int           `json:"current_step_index"`
	DistanceRemainingMeters float64       `json:"distance_remaining_meters"`
	OffRoute                bool          `json:"off_route"`
	Failure                 string        `json:"failure,omitempty"`
	LastPosition            *PositionWire `json:"last_position,omitempty"`
}

// QueueSessionStatus is the payload published to nav_topic on every
// session transition.
type QueueSessionStatus struct {
	SessionID               string  `json:"session_id"`
	Status                  string  `json:"status"`
	CurrentStepIndex        int     `json:"current_step_index"`
	DistanceRemainingMeters float64 `json:"distance_remaining_meters"`
	OffRoute                bool    `json:"off_route"`
	Failure                 string  `json:"failure,omitempty"`
	Timestamp               string  `json:"timestamp"` // ISO-8601
}
