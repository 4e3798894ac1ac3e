package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "PORT", "ENV", "LOG_LEVEL", "DATABASE_URL", "CORS_ALLOW_ORIGINS",
	"OBJECT_STORE", "LOCAL_STORE_DIR", "AWS_REGION", "S3_BUCKET", "S3_PREFIX", "SSE_KMS_KEY_ID",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_USE_SSL",
	"WORKER_CONCURRENCY", "WORKER_QUEUE_SIZE", "RUN_TIMEOUT", "MIN_TEXT_LENGTH", "MAX_UPLOAD_MB",
	"UPLOAD_RATE_PER_MIN",
}

// isolate runs the test from an empty directory with every config key blank.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
object_store: minio
minio_endpoint: localhost:9000
minio_bucket: docs
worker_concurrency: 2
run_timeout: 90s
cors_allow_origins: ["https://a.example", "https://b.example"]
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "minio", cfg.ObjectStoreType)
	assert.Equal(t, "docs", cfg.MinioBucket)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, 8, cfg.WorkerConcurrency, "env overrides the file")
	assert.Equal(t, 90*time.Second, cfg.RunTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin)
	assert.Equal(t, 64, cfg.WorkerQueueSize, "unset keys keep defaults")
}

func TestLoadRejectsUnknownYAMLKeys(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wrokers: 3\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrokers")
}

func TestLoadReportsBadEnvValues(t *testing.T) {
	isolate(t)
	t.Setenv("WORKER_CONCURRENCY", "many")
	t.Setenv("RUN_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKER_CONCURRENCY")
	assert.Contains(t, err.Error(), "RUN_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "s3 without bucket", mutate: func(c *Config) { c.ObjectStoreType = "s3" }, want: "S3_BUCKET"},
		{name: "minio without endpoint", mutate: func(c *Config) { c.ObjectStoreType = "minio" }, want: "MINIO_ENDPOINT"},
		{name: "production without database", mutate: func(c *Config) { c.Env = "production" }, want: "DATABASE_URL"},
		{name: "zero workers", mutate: func(c *Config) { c.WorkerConcurrency = 0 }, want: "WORKER_CONCURRENCY"},
		{name: "zero min text", mutate: func(c *Config) { c.MinTextLength = 0 }, want: "MIN_TEXT_LENGTH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	require.NoError(t, Defaults().Validate())
}

func TestDotenvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("# local\nPORT=7000\nLOG_LEVEL=\"debug\"\n"), 0o600))
	t.Setenv("PORT", "6000")
	os.Unsetenv("LOG_LEVEL")
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "6000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "production", normalizeEnv("Prod"))
	assert.Equal(t, "dev", normalizeEnv("whatever"))
	assert.Equal(t, "minio", normalizeStoreType(" MINIO "))
	assert.Equal(t, "local", normalizeStoreType("gcs"))
}
