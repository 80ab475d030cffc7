package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, "/api/v1", cfg.APIPrefix)
	require.Equal(t, LockBackendMemory, cfg.Governance.LockBackend)
	require.Equal(t, 10*time.Second, cfg.Governance.LockTTL)
	require.Equal(t, 7*24*time.Hour, cfg.Archive.LinkTTL)
	require.True(t, cfg.Metrics.Enabled)
	require.False(t, cfg.Database.RunMigrations)
	require.Equal(t, "migrations", cfg.Database.MigrationsDir)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GOVERNANCE_LOCK_BACKEND", "REDIS")
	t.Setenv("PUSH_WORKERS", "4")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SETTINGS_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, LockBackendRedis, cfg.Governance.LockBackend)
	require.Equal(t, 4, cfg.Notifications.Workers)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 10*time.Minute, cfg.Settings.CacheTTL)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
