package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestPositionValidate(t *testing.T) {
	valid := Position{Latitude: 48.8566, Longitude: 2.3522, TimestampMillis: 1700000000000}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name     string
		position Position
		wantErr  error
	}{
		{"latitude too high", Position{Latitude: 90.1, Longitude: 0, TimestampMillis: 1}, ErrInvalidLatitude},
		{"latitude too low", Position{Latitude: -91, Longitude: 0, TimestampMillis: 1}, ErrInvalidLatitude},
		{"longitude out of range", Position{Latitude: 0, Longitude: 180.5, TimestampMillis: 1}, ErrInvalidLongitude},
		{"negative speed", Position{Latitude: 0, Longitude: 0, SpeedMPS: floatPtr(-1), TimestampMillis: 1}, ErrNegativeSpeed},
		{"heading out of range", Position{Latitude: 0, Longitude: 0, HeadingDegrees: floatPtr(361), TimestampMillis: 1}, ErrInvalidHeading},
		{"zero timestamp", Position{Latitude: 0, Longitude: 0}, ErrZeroTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.position.Validate(), tt.wantErr)
		})
	}
}

func TestNewPosition(t *testing.T) {
	position, err := NewPosition(48.8566, 2.3522, 1700000000000)
	require.NoError(t, err)
	assert.Equal(t, 48.8566, position.Latitude)
	assert.Nil(t, position.SpeedMPS)

	_, err = NewPosition(120, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidLatitude)
}

func TestNewerThan(t *testing.T) {
	older := Position{Latitude: 0, Longitude: 0, TimestampMillis: 1000}
	newer := Position{Latitude: 0, Longitude: 0, TimestampMillis: 1001}
	equal := Position{Latitude: 1, Longitude: 1, TimestampMillis: 1000}

	assert.True(t, newer.NewerThan(older))
	assert.False(t, older.NewerThan(newer))
	// equal timestamps are not newer
	assert.False(t, equal.NewerThan(older))
}
