package jwt

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims defines our canonical JWT claims payload. The subject is the head
// unit device id; VehicleID ties the token to the vehicle it reports for.
type Claims struct {
	VehicleID string `json:"vehicle_id"`
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)

// NewDeviceClaims constructs claims for a head unit device.
func NewDeviceClaims(deviceID, vehicleID string, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		VehicleID: vehicleID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   deviceID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}

// DeviceID returns the device identifier carried in the subject claim.
func (c *Claims) DeviceID() string {
	return c.Subject
}
