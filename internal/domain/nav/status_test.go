package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("  navigating ")
	require.NoError(t, err)
	assert.Equal(t, StatusNavigating, status)

	_, err = ParseStatus("DRIVING")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusIdle, StatusRequestingRoute},
		{StatusIdle, StatusCancelled},
		{StatusRequestingRoute, StatusNavigating},
		{StatusRequestingRoute, StatusFailed},
		{StatusRequestingRoute, StatusCancelled},
		{StatusNavigating, StatusNavigating}, // progress self-loop
		{StatusNavigating, StatusArrived},
		{StatusNavigating, StatusCancelled},
		{StatusNavigating, StatusRequestingRoute}, // re-route
		{StatusFailed, StatusIdle},
		{StatusFailed, StatusCancelled},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.CanTransitionTo(tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to Status }{
		{StatusIdle, StatusNavigating},
		{StatusIdle, StatusArrived},
		{StatusRequestingRoute, StatusRequestingRoute},
		{StatusArrived, StatusIdle},
		{StatusArrived, StatusRequestingRoute},
		{StatusCancelled, StatusRequestingRoute},
		{StatusFailed, StatusNavigating},
	}
	for _, tr := range denied {
		assert.False(t, tr.from.CanTransitionTo(tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusArrived.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	// FAILED is recoverable, not terminal
	assert.False(t, StatusFailed.Terminal())
	assert.False(t, StatusIdle.Terminal())
	assert.False(t, StatusNavigating.Terminal())
}

func TestParseVehicleType(t *testing.T) {
	vt, err := ParseVehicleType(" bike ")
	require.NoError(t, err)
	assert.Equal(t, VehicleBike, vt)

	_, err = ParseVehicleType("PLANE")
	assert.ErrorIs(t, err, ErrInvalidVehicleType)
}
