package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LISTEN_ADDR", "BACKEND_URL", "BACKEND_TIMEOUT", "LOG_LEVEL", "ENV",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS", "JWT_SECRET",
		"SESSION_TTL", "TABLE_CHUNK_SIZE", "MAX_SESSIONS", "TLS_CERT_FILE", "TLS_KEY_FILE", "ALLOW_INSECURE_HTTP",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 200, cfg.TableChunkSize)
	assert.Equal(t, 10000, cfg.MaxSessions)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.InDelta(t, 100.0, cfg.RateLimitRPS, 0)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Len(t, cfg.Warnings, 2)
	assert.False(t, cfg.SecureCookies())
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("BACKEND_URL", "http://api.internal:8000/")
	t.Setenv("BACKEND_TIMEOUT", "45")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("TABLE_CHUNK_SIZE", "50")
	t.Setenv("MAX_SESSIONS", "500")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "http://api.internal:8000", cfg.BackendURL)
	assert.Equal(t, 45*time.Second, cfg.BackendTimeout)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 50, cfg.TableChunkSize)
	assert.Equal(t, 500, cfg.MaxSessions)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"BACKEND_TIMEOUT", "soon"},
		{"SESSION_TTL", "-5m"},
		{"TABLE_CHUNK_SIZE", "0"},
		{"MAX_SESSIONS", "many"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}

func TestLoadFromEnv_TLSPair(t *testing.T) {
	clearEnv(t)
	t.Setenv("TLS_CERT_FILE", "cert.pem")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestLoadFromEnv_Production(t *testing.T) {
	t.Run("requires backend url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		_, err := LoadFromEnv()
		require.ErrorContains(t, err, "BACKEND_URL")
	})

	t.Run("rejects cors wildcard", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("BACKEND_URL", "http://api:8000")
		_, err := LoadFromEnv()
		require.ErrorContains(t, err, "CORS")
	})

	t.Run("requires tls", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("BACKEND_URL", "http://api:8000")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://recon.example")
		_, err := LoadFromEnv()
		require.ErrorContains(t, err, "TLS_CERT_FILE")
	})

	t.Run("tls terminated upstream", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("BACKEND_URL", "http://api:8000")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://recon.example")
		t.Setenv("ALLOW_INSECURE_HTTP", "true")
		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
		assert.False(t, cfg.SecureCookies())
	})
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO"} {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel().String(), in)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	err := LoadDotEnv("/nonexistent/.env")
	assert.NoError(t, err)
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("# comment\nIDRECON_TEST_KEY=\"test value\"\n\nexport IDRECON_TEST_OTHER=x\n"), 0o600))
	t.Setenv("IDRECON_TEST_KEY", "")
	t.Setenv("IDRECON_TEST_OTHER", "")

	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "test value", os.Getenv("IDRECON_TEST_KEY"))
	assert.Equal(t, "x", os.Getenv("IDRECON_TEST_OTHER"))
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("IDRECON_TEST_PRECEDENCE", "from_env")
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("IDRECON_TEST_PRECEDENCE=from_file\n"), 0o600))

	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "from_env", os.Getenv("IDRECON_TEST_PRECEDENCE"))
}
