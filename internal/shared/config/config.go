package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string   `yaml:"port"`
	Env             string   `yaml:"env"`
	LogLevel        string   `yaml:"log_level"`
	DatabaseURL     string   `yaml:"database_url"`
	CORSAllowOrigin []string `yaml:"cors_allow_origins"`

	ObjectStoreType string `yaml:"object_store"`
	LocalStoreDir   string `yaml:"local_store_dir"`
	AWSRegion       string `yaml:"aws_region"`
	S3Bucket        string `yaml:"s3_bucket"`
	S3Prefix        string `yaml:"s3_prefix"`
	SSEKMSKeyID     string `yaml:"sse_kms_key_id"`
	MinioEndpoint   string `yaml:"minio_endpoint"`
	MinioAccessKey  string `yaml:"minio_access_key"`
	MinioSecretKey  string `yaml:"minio_secret_key"`
	MinioBucket     string `yaml:"minio_bucket"`
	MinioUseSSL     bool   `yaml:"minio_use_ssl"`

	WorkerConcurrency int           `yaml:"worker_concurrency"`
	WorkerQueueSize   int           `yaml:"worker_queue_size"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	MinTextLength     int           `yaml:"min_text_length"`
	MaxUploadMB       int           `yaml:"max_upload_mb"`
	UploadRatePerMin  int           `yaml:"upload_rate_per_min"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Port:              "8080",
		Env:               "dev",
		LogLevel:          "info",
		CORSAllowOrigin:   []string{"http://localhost:5173"},
		ObjectStoreType:   "local",
		LocalStoreDir:     "./data",
		MinioBucket:       "contracts",
		WorkerConcurrency: 4,
		WorkerQueueSize:   64,
		RunTimeout:        3 * time.Minute,
		MinTextLength:     50,
		MaxUploadMB:       50,
		UploadRatePerMin:  30,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE, then environment variables. Local .env files are loaded first
// and never override variables already set.
func Load() (Config, error) {
	loadEnvFiles(".env", "cmd/.env")

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.ObjectStoreType {
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when OBJECT_STORE=s3"))
		}
	case "minio":
		if c.MinioEndpoint == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT is required when OBJECT_STORE=minio"))
		}
		if c.MinioBucket == "" {
			errs = append(errs, errors.New("MINIO_BUCKET is required when OBJECT_STORE=minio"))
		}
	}
	if c.Env == "production" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	if c.WorkerConcurrency < 1 {
		errs = append(errs, fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", c.WorkerConcurrency))
	}
	if c.WorkerQueueSize < 1 {
		errs = append(errs, fmt.Errorf("WORKER_QUEUE_SIZE must be at least 1, got %d", c.WorkerQueueSize))
	}
	if c.RunTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RUN_TIMEOUT must be positive, got %s", c.RunTimeout))
	}
	if c.MinTextLength < 1 {
		errs = append(errs, fmt.Errorf("MIN_TEXT_LENGTH must be at least 1, got %d", c.MinTextLength))
	}
	if c.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_MB must be at least 1, got %d", c.MaxUploadMB))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func applyEnv(c *Config) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("PORT", &c.Port)
	str("ENV", &c.Env)
	str("LOG_LEVEL", &c.LogLevel)
	str("DATABASE_URL", &c.DatabaseURL)
	if v, ok := lookup("CORS_ALLOW_ORIGINS"); ok {
		c.CORSAllowOrigin = splitAndTrim(v)
	}
	str("OBJECT_STORE", &c.ObjectStoreType)
	str("LOCAL_STORE_DIR", &c.LocalStoreDir)
	str("AWS_REGION", &c.AWSRegion)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_PREFIX", &c.S3Prefix)
	str("SSE_KMS_KEY_ID", &c.SSEKMSKeyID)
	str("MINIO_ENDPOINT", &c.MinioEndpoint)
	str("MINIO_ACCESS_KEY", &c.MinioAccessKey)
	str("MINIO_SECRET_KEY", &c.MinioSecretKey)
	str("MINIO_BUCKET", &c.MinioBucket)
	if v, ok := lookup("MINIO_USE_SSL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("MINIO_USE_SSL: %w", err))
		} else {
			c.MinioUseSSL = b
		}
	}
	num("WORKER_CONCURRENCY", &c.WorkerConcurrency)
	num("WORKER_QUEUE_SIZE", &c.WorkerQueueSize)
	if v, ok := lookup("RUN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RUN_TIMEOUT: %w", err))
		} else {
			c.RunTimeout = d
		}
	}
	num("MIN_TEXT_LENGTH", &c.MinTextLength)
	num("MAX_UPLOAD_MB", &c.MaxUploadMB)
	num("UPLOAD_RATE_PER_MIN", &c.UploadRatePerMin)
	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch s := strings.ToLower(strings.TrimSpace(raw)); s {
	case "s3", "minio":
		return s
	default:
		return "local"
	}
}
