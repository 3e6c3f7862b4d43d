package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "session", cfg.API.SessionCookieName)
	assert.Equal(t, "rod", cfg.Export.Backend)
	assert.Equal(t, "inline", cfg.Export.Mode)
	assert.Equal(t, 30*time.Second, cfg.Export.MarkerTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.False(t, cfg.Payment.RequireForExport)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, 9091, cfg.Worker.MetricsPort)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXPORT_BACKEND", "ChromeDP")
	t.Setenv("EXPORT_MARKER_TIMEOUT", "5s")
	t.Setenv("EXPORT_BROWSER_WS_URL", "ws://chromium:9222")
	t.Setenv("API_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "chromedp", cfg.Export.Backend)
	assert.Equal(t, 5*time.Second, cfg.Export.MarkerTimeout)
	assert.Equal(t, "ws://chromium:9222", cfg.Export.BrowserWSURL)
	assert.Equal(t, 9090, cfg.API.Port)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXPORT_BACKEND", "phantomjs")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phantomjs")
}

func TestLoad_RouteModeNeedsAutomationSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXPORT_MODE", "route")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "automation secret")

	t.Setenv("EXPORT_AUTOMATION_SECRET", "capture-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "route", cfg.Export.Mode)
}

func TestLoad_PaymentGateNeedsSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENT_REQUIRE_FOR_EXPORT", "true")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MissingMinIOCredentials(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minio")
}

func TestLoadDatabase_IgnoresOtherSections(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "")
	t.Setenv("POSTGRES_DB", "seed")
	t.Setenv("DATABASE_PORT", "6543")

	db, err := LoadDatabase()
	require.NoError(t, err)
	assert.Equal(t, "seed", db.Name)
	assert.Equal(t, 6543, db.Port)
	assert.Equal(t, "localhost", db.Host)
}
