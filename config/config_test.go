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
	for _, key := range []string{
		"NYLAS_API_KEY", "NYLAS_API_URI", "NYLAS_WEBHOOK_SECRET",
		"SHADECAL_DB_DRIVER", "SHADECAL_DB_DSN", "SHADECAL_TIMEZONE",
		"SHADECAL_SYNC_WINDOW_DAYS", "SHADECAL_PUSH_WINDOW_DAYS", "SHADECAL_ADDR",
		"SHADECAL_APP_URL", "RABBITMQ_URL", "SHADECAL_NOTIFY_QUEUE",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "SHADECAL_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, DefaultDBPath(), cfg.DBDSN)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30, cfg.PullWindowDays)
	assert.Equal(t, 90, cfg.PushWindowDays)
	assert.Equal(t, "info", cfg.LogLevel)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"nylas_api_key": "from-file",
		"nylas_webhook_secret": "file-secret",
		"sync_window_days": 14,
		"timezone": "Australia/Melbourne"
	}`), 0600))

	t.Setenv("NYLAS_API_KEY", "from-env")
	t.Setenv("SHADECAL_PUSH_WINDOW_DAYS", "60")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.NylasAPIKey)
	assert.Equal(t, "file-secret", cfg.NylasWebhookSecret)
	assert.Equal(t, 14, cfg.PullWindowDays)
	assert.Equal(t, 60, cfg.PushWindowDays)
	assert.Equal(t, "Australia/Melbourne", cfg.Timezone)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.json")

	t.Setenv("SHADECAL_SYNC_WINDOW_DAYS", "a month")
	_, err := Load(missing)
	assert.Error(t, err)

	t.Setenv("SHADECAL_SYNC_WINDOW_DAYS", "")
	t.Setenv("SHADECAL_TIMEZONE", "Mars/Olympus_Mons")
	_, err = Load(missing)
	assert.Error(t, err)
}

func TestLoadFileRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{nope`), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestMySQLHasNoDefaultDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHADECAL_DB_DRIVER", "mysql")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.DBDSN)
}
