package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "http://localhost:8000", cfg.SegmentationURL)
	require.Equal(t, 60*time.Second, cfg.RequestTimeout)
	require.Equal(t, int64(10<<20), cfg.Upload.MaxSize)
	require.Equal(t, []string{"image/jpeg", "image/png", "image/webp"}, cfg.Upload.AllowedTypes)
	require.Equal(t, 8, cfg.RecentColors)
	require.Equal(t, ExportLocal, cfg.ExportMode)
	require.Empty(t, cfg.Redis.Addr)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoad_Env(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("UPLOAD_ALLOWED_TYPES", "image/png, image/jpeg")
	t.Setenv("EXPORT_MODE", "REMOTE")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, []string{"image/png", "image/jpeg"}, cfg.Upload.AllowedTypes)
	require.Equal(t, ExportRemote, cfg.ExportMode)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
	require.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RECENT_COLORS=4\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("RECENT_COLORS") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4, cfg.RecentColors)
}

func TestLoad_Invalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("EXPORT_MODE", "ftp")
	t.Setenv("UPLOAD_MAX_SIZE", "0")
	t.Setenv("SESSION_TTL", "-1m")

	_, err := Load()
	require.ErrorContains(t, err, "EXPORT_MODE")
	require.ErrorContains(t, err, "UPLOAD_MAX_SIZE")
	require.ErrorContains(t, err, "SESSION_TTL")
}

// chdir меняет рабочую директорию на время теста (аналог t.Chdir из Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
