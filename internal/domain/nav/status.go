package nav

import (
	"errors"
	"strings"
)

// Status is a navigation session state.
type Status string

const (
	StatusIdle            Status = "IDLE"
	StatusRequestingRoute Status = "REQUESTING_ROUTE"
	StatusNavigating      Status = "NAVIGATING"
	StatusArrived         Status = "ARRIVED"
	StatusCancelled       Status = "CANCELLED"
	StatusFailed          Status = "FAILED"
)

var ErrInvalidStatus = errors.New("invalid session status")

// ParseStatus normalizes (uppercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed session status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusIdle, StatusRequestingRoute, StatusNavigating, StatusArrived, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// CanTransitionTo specifies if the status can transition to the next status.
// NAVIGATING -> NAVIGATING is the progress self-loop on accepted positions;
// NAVIGATING -> REQUESTING_ROUTE is a re-route after going off-route.
func (status Status) CanTransitionTo(next Status) bool {
	switch status {
	case StatusIdle:
		return next == StatusRequestingRoute || next == StatusCancelled

	case StatusRequestingRoute:
		return next == StatusNavigating || next == StatusFailed || next == StatusCancelled

	case StatusNavigating:
		return next == StatusNavigating || next == StatusArrived ||
			next == StatusCancelled || next == StatusRequestingRoute

	case StatusFailed:
		return next == StatusIdle || next == StatusCancelled

	case StatusArrived, StatusCancelled:
		return false

	default:
		return false
	}
}

// Terminal indicates if the status ends the session instance.
func (status Status) Terminal() bool {
	return status == StatusArrived || status == StatusCancelled
}
