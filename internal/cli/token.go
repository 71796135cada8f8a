package cli

import (
	"fmt"
	"strings"
	"time"

	"gps-navigator/internal/general/jwt"
)

// GenerateDeviceToken mints a short-lived JWT for a head unit. It uses
// jwt.Manager and returns the raw token plus the claims.
//
// Typical use (dev-only):
//
//	token, _, err := cli.GenerateDeviceToken(secret, "head-unit-01", "VH-1234")
//
// Keep this package dev/internal only. Do not call it from production code paths.
func GenerateDeviceToken(secret, deviceID, vehicleID string) (string, jwt.Claims, error) {
	if strings.TrimSpace(deviceID) == "" {
		return "", jwt.Claims{}, fmt.Errorf("device id is required")
	}

	// set up a new JWT manager
	mgr := jwt.NewManager(secret, 2*time.Hour)

	// generate the JWT token for the device
	token, claims, err := mgr.IssueDeviceToken(deviceID, vehicleID)
	if err != nil {
		return "", jwt.Claims{}, fmt.Errorf("issue token: %w", err)
	}

	return token, *claims, nil
}
