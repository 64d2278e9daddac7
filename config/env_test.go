package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, "sqlite", DatabaseDriver())
	assert.Equal(t, defaultSQLiteDSN, DatabaseDSN())
	assert.Equal(t, 2*time.Hour, SessionTTL())
	assert.Equal(t, 1, QueueMaxAttempts())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("QUEUE_WORKERS", "9")
	t.Setenv("SESSION_TTL", "15m")

	assert.Equal(t, "postgres", DatabaseDriver())
	assert.Equal(t, defaultPostgresDSN, DatabaseDSN())
	assert.Equal(t, 9, QueueWorkers())
	assert.Equal(t, 15*time.Minute, SessionTTL())
}

func TestUnknownDriverFallsBack(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	assert.Equal(t, "sqlite", DatabaseDriver())
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT", "lots")
	t.Setenv("SESSION_TTL", "-1s")

	assert.Equal(t, 200, RateLimit())
	assert.Equal(t, 2*time.Hour, SessionTTL())
}

func TestLoadFromFilesMergesYAMLThenDotEnv(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "app.yaml")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(yamlPath, []byte("app_name: Cherry\nqueue_workers: 7\nmail_port: 2525\nnested:\n  key: ignored\n"), 0o600))
	require.NoError(t, os.WriteFile(envPath, []byte("MAIL_PORT=587\nMAIL_DRIVER=smtp\n"), 0o600))

	mu.RLock()
	saved := values
	mu.RUnlock()
	t.Cleanup(func() {
		mu.Lock()
		values = saved
		mu.Unlock()
	})

	require.NoError(t, loadFromFiles(yamlPath, envPath))

	assert.Equal(t, "Cherry", get("APP_NAME", ""))
	assert.Equal(t, "7", get("QUEUE_WORKERS", ""))
	assert.Equal(t, "587", get("MAIL_PORT", ""))
	assert.Equal(t, "smtp", get("MAIL_DRIVER", ""))
	assert.Empty(t, get("NESTED", ""))
}

func TestLoadFromFilesToleratesMissingFiles(t *testing.T) {
	mu.RLock()
	saved := values
	mu.RUnlock()
	t.Cleanup(func() {
		mu.Lock()
		values = saved
		mu.Unlock()
	})

	assert.NoError(t, loadFromFiles("does/not/exist.yaml", "does/not/.env"))
}

func TestCORSOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, CORSOrigins())

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://cherrydine.example/, https://admin.cherrydine.example,,")
	assert.Equal(t, []string{"https://cherrydine.example", "https://admin.cherrydine.example"}, CORSOrigins())
}
