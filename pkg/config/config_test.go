package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BACKEND_BASE_URL", "http://backend.local:8000/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, "/api/v1", cfg.APIPrefix)
	require.Equal(t, "http://backend.local:8000", cfg.Backend.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	require.True(t, cfg.Fallback.Enabled)
	require.Equal(t, FallbackWriteAcknowledge, cfg.Fallback.WritePolicy)
	require.False(t, cfg.Redis.Enabled)
	require.EqualValues(t, 10*1024*1024, cfg.Uploads.MaxFileSizeBytes)
}

func TestLoadOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("FALLBACK_WRITE_POLICY", " REJECT ")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("JWT_EXPIRATION", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	require.Equal(t, FallbackWriteReject, cfg.Fallback.WritePolicy)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
