package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "BASE_URL", "CORS_ORIGINS", "SESSION_BACKEND", "SESSION_DB_PATH", "KEYRING_SERVICE", "LOGIN_DELAY", "TOKEN_SECRET", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, BackendKeyring, cfg.Session.Backend)
	assert.Equal(t, "clipnest", cfg.Session.KeyringService)
	assert.Equal(t, time.Second, cfg.Session.LoginDelay)
	assert.Empty(t, cfg.Session.TokenSecret)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "SQLite")
	t.Setenv("LOGIN_DELAY", "250ms")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("BASE_URL", "http://localhost:9000/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Session.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.LoginDelay)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "http://localhost:9000", cfg.Server.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown backend", key: "SESSION_BACKEND", value: "redis"},
		{name: "bad delay", key: "LOGIN_DELAY", value: "soon"},
		{name: "negative delay", key: "LOGIN_DELAY", value: "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
