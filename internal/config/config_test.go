package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("CLASSIFIER_CONCURRENCY", "8")
	t.Setenv("CLASSIFIER_RATE_PER_SEC", "2.5")
	t.Setenv("GEMINI_TIMEOUT_SEC", "30")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, 8, cfg.Classifier.Concurrency)
	assert.Equal(t, 2.5, cfg.Classifier.RatePerSecond)
	assert.Equal(t, 30*time.Second, cfg.Gemini.Timeout)
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"UPLOAD_MAX_FILES", "UPLOAD_MAX_FILE_SIZE", "STORAGE_LOCAL_DIR", "NATS_URL", "GEMINI_MODEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, "./public", cfg.Storage.LocalDir)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defer os.Unsetenv(key)

	os.Setenv(key, "5")
	assert.Equal(t, 5*time.Second, getEnvDuration(key, time.Second))

	os.Setenv(key, "-1")
	assert.Equal(t, time.Second, getEnvDuration(key, time.Second))

	os.Setenv(key, "soon")
	assert.Equal(t, time.Second, getEnvDuration(key, time.Second))
}
