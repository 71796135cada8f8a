package geo

import "errors"

// Position is a single resolved device fix.
// Speed and heading are optional; nil means the sensor did not report them.
type Position struct {
	Latitude        float64
	Longitude       float64
	SpeedMPS        *float64
	HeadingDegrees  *float64
	TimestampMillis int64
}

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
	ErrInvalidHeading   = errors.New("heading must be between 0 and 360")
	ErrNegativeSpeed    = errors.New("speed cannot be negative")
	ErrZeroTimestamp    = errors.New("timestamp must be positive")
)

// NewPosition constructs a Position and validates its invariants.
func NewPosition(latitude, longitude float64, timestampMillis int64) (Position, error) {
	position := Position{
		Latitude:        latitude,
		Longitude:       longitude,
		TimestampMillis: timestampMillis,
	}
	if err := position.Validate(); err != nil {
		return Position{}, err
	}
	return position, nil
}

// Validate checks invariants of the Position value.
func (position Position) Validate() error {
	if position.Latitude < -90 || position.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if position.Longitude < -180 || position.Longitude > 180 {
		return ErrInvalidLongitude
	}
	if position.SpeedMPS != nil && *position.SpeedMPS < 0 {
		return ErrNegativeSpeed
	}
	if position.HeadingDegrees != nil && (*position.HeadingDegrees < 0 || *position.HeadingDegrees > 360) {
		return ErrInvalidHeading
	}
	if position.TimestampMillis <= 0 {
		return ErrZeroTimestamp
	}
	return nil
}

// NewerThan reports whether the position was sampled strictly after other.
// Equal timestamps are not newer; the staleness rule drops them.
func (position Position) NewerThan(other Position) bool {
	return position.TimestampMillis > other.TimestampMillis
}

// Point returns the bare coordinate pair of the position.
func (position Position) Point() Point {
	return Point{Latitude: position.Latitude, Longitude: position.Longitude}
}
