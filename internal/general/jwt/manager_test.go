package jwt

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateDeviceToken(t *testing.T) {
	mgr := NewManager("unit-test-secret", time.Hour)

	token, claims, err := mgr.IssueDeviceToken("head-unit-01", "VH-1234")
	require.NoError(t, err)
	assert.Equal(t, "head-unit-01", claims.DeviceID())
	assert.Equal(t, "VH-1234", claims.VehicleID)

	_, parsed, err := mgr.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "head-unit-01", parsed.DeviceID())
	assert.Equal(t, "VH-1234", parsed.VehicleID)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewManager("secret-a", time.Hour).IssueDeviceToken("dev", "veh")
	require.NoError(t, err)

	_, _, err = NewManager("secret-b", time.Hour).ParseAndValidate(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	mgr := NewManager("unit-test-secret", -time.Minute)
	token, _, err := mgr.IssueDeviceToken("dev", "veh")
	require.NoError(t, err)

	_, _, err = mgr.ParseAndValidate(token)
	assert.Error(t, err)
}

func TestIssueDeviceTokenRequiresDeviceID(t *testing.T) {
	mgr := NewManager("unit-test-secret", time.Hour)
	_, _, err := mgr.IssueDeviceToken("  ", "veh")
	assert.Error(t, err)
}

func TestFromAuthorization(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/gps/current", nil)
		r.Header.Set("Authorization", "Bearer tok123")
		raw, err := FromAuthorization(r)
		require.NoError(t, err)
		assert.Equal(t, "tok123", raw)
	})

	t.Run("query parameter with scheme", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/ws?Authorization=Bearer%20tok456", nil)
		raw, err := FromAuthorization(r)
		require.NoError(t, err)
		assert.Equal(t, "tok456", raw)
	})

	t.Run("bare query parameter", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/ws?Authorization=tok789", nil)
		raw, err := FromAuthorization(r)
		require.NoError(t, err)
		assert.Equal(t, "tok789", raw)
	})

	t.Run("missing", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/gps/current", nil)
		_, err := FromAuthorization(r)
		assert.Error(t, err)
	})
}

func TestValidateWSAuth(t *testing.T) {
	mgr := NewManager("unit-test-secret", time.Hour)
	token, _, err := mgr.IssueDeviceToken("head-unit-01", "VH-1234")
	require.NoError(t, err)

	t.Run("valid frame", func(t *testing.T) {
		frame := []byte(`{"type":"auth","token":"Bearer ` + token + `"}`)
		result, err := ValidateWSAuth(frame, mgr)
		require.NoError(t, err)
		assert.Equal(t, "head-unit-01", result.Claims.DeviceID())
		assert.Equal(t, token, result.Raw)
	})

	t.Run("wrong type", func(t *testing.T) {
		frame := []byte(`{"type":"hello","token":"Bearer ` + token + `"}`)
		_, err := ValidateWSAuth(frame, mgr)
		assert.ErrorIs(t, err, ErrBadAuthMsg)
	})

	t.Run("missing bearer wrap", func(t *testing.T) {
		frame := []byte(`{"type":"auth","token":"` + token + `"}`)
		_, err := ValidateWSAuth(frame, mgr)
		assert.ErrorIs(t, err, ErrBadTokenWrap)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ValidateWSAuth([]byte("auth please"), mgr)
		assert.ErrorIs(t, err, ErrBadAuthMsg)
	})
}
