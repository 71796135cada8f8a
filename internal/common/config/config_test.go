package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `# test config
database:
  host: localhost
  port: 5432
  user: navigator
  password: secret
  database: gps_navigator

rabbitmq:
  host: mq.local
  port: 5672
  user: guest
  password: guest

server:
  port: 3000

routing:
  base_url: "http://routes.local:8080"

push:
  url: 'ws://push.local/feed'

jwt:
  secret: test-secret
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "gps_navigator", cfg.DB.Name)
	assert.Equal(t, "mq.local", cfg.RMQ.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	// quotes are stripped
	assert.Equal(t, "http://routes.local:8080", cfg.Routing.BaseURL)
	assert.Equal(t, "ws://push.local/feed", cfg.Push.URL)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	// default applied when timeout_seconds omitted
	assert.Equal(t, defaultRoutingTimeoutSeconds, cfg.Routing.TimeoutSeconds)
}

func TestLoadRoutingTimeoutOverride(t *testing.T) {
	overridden := `database:
  host: localhost
  port: 5432
  user: navigator
  password: secret
  database: gps_navigator

rabbitmq:
  host: mq.local
  port: 5672
  user: guest
  password: guest

server:
  port: 3000

routing:
  base_url: "http://routes.local:8080"
  timeout_seconds: 30

jwt:
  secret: test-secret
`
	cfg, err := Load(writeConfig(t, overridden))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Routing.TimeoutSeconds)
	// push section is optional
	assert.Empty(t, cfg.Push.URL)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unknown section", func(t *testing.T) {
		_, err := Load(writeConfig(t, "metrics:\n  port: 9100\n"))
		assert.ErrorContains(t, err, "unknown section")
	})

	t.Run("key outside section", func(t *testing.T) {
		_, err := Load(writeConfig(t, "port: 3000\n"))
		assert.ErrorContains(t, err, "outside of any section")
	})

	t.Run("duplicate key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  port: 3000\n  port: 3001\n"))
		assert.ErrorContains(t, err, "duplicate key")
	})

	t.Run("non-integer port", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  port: eighty\n"))
		assert.ErrorContains(t, err, "must be int")
	})

	t.Run("missing required section", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  port: 3000\n"))
		assert.ErrorContains(t, err, "missing section [database]")
	})

	t.Run("missing required key", func(t *testing.T) {
		partial := `database:
  host: localhost
  port: 5432
  user: navigator
  password: secret

rabbitmq:
  host: mq.local
  port: 5672
  user: guest
  password: guest

server:
  port: 3000

routing:
  base_url: "http://routes.local:8080"

jwt:
  secret: test-secret
`
		_, err := Load(writeConfig(t, partial))
		assert.ErrorContains(t, err, "missing required keys in [database]: database")
	})
}
