package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the upload service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"upload-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"UPLOAD_API_PORT" envDefault:"8286"`
	LogLevel        string        `env:"UPLOAD_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// S3 Storage Configuration
	S3Endpoint       string `env:"UPLOAD_S3_ENDPOINT" envDefault:"https://s3.menlo.ai"`
	S3PublicEndpoint string `env:"UPLOAD_S3_PUBLIC_ENDPOINT"` // Endpoint baked into presigned URLs when clients cannot reach S3Endpoint
	S3Region         string `env:"UPLOAD_S3_REGION" envDefault:"us-west-2"`
	S3Bucket         string `env:"UPLOAD_S3_BUCKET"`
	S3AccessKeyID    string `env:"UPLOAD_S3_ACCESS_KEY_ID"`     // AWS standard naming
	S3SecretKey      string `env:"UPLOAD_S3_SECRET_ACCESS_KEY"` // AWS standard naming
	S3UsePathStyle   bool   `env:"UPLOAD_S3_USE_PATH_STYLE" envDefault:"true"`

	// Upload Planning Configuration
	KeyPrefix          string        `env:"UPLOAD_KEY_PREFIX" envDefault:"uploads"`
	PresignTTL         time.Duration `env:"UPLOAD_PRESIGN_TTL" envDefault:"1h"`
	MultipartThreshold int64         `env:"UPLOAD_MULTIPART_THRESHOLD" envDefault:"104857600"` // 100 MiB
	PartSize           int64         `env:"UPLOAD_PART_SIZE" envDefault:"10485760"`            // 10 MiB
	MinPartSize        int64         `env:"UPLOAD_MIN_PART_SIZE" envDefault:"5242880"`         // 5 MiB, S3 floor for non-final parts
	MaxPartCount       int           `env:"UPLOAD_MAX_PART_COUNT" envDefault:"10000"`          // S3 hard cap
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.S3PublicEndpoint = strings.TrimSpace(cfg.S3PublicEndpoint)
	cfg.KeyPrefix = strings.Trim(strings.TrimSpace(cfg.KeyPrefix), "/")

	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("UPLOAD_S3_BUCKET is required")
	}
	// The storage adapter signs with static credentials, so a deployment
	// without them would only fail at the first presign. Reject at startup.
	if cfg.S3AccessKeyID == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("UPLOAD_S3_ACCESS_KEY_ID and UPLOAD_S3_SECRET_ACCESS_KEY are required")
	}
	if cfg.PresignTTL <= 0 {
		return nil, fmt.Errorf("UPLOAD_PRESIGN_TTL must be positive")
	}
	if cfg.MultipartThreshold <= 0 {
		return nil, fmt.Errorf("UPLOAD_MULTIPART_THRESHOLD must be positive")
	}
	if cfg.PartSize <= 0 {
		return nil, fmt.Errorf("UPLOAD_PART_SIZE must be positive")
	}
	if cfg.MinPartSize <= 0 {
		return nil, fmt.Errorf("UPLOAD_MIN_PART_SIZE must be positive")
	}
	if cfg.PartSize < cfg.MinPartSize {
		return nil, fmt.Errorf("UPLOAD_PART_SIZE must be at least UPLOAD_MIN_PART_SIZE (%d < %d)", cfg.PartSize, cfg.MinPartSize)
	}
	if cfg.MaxPartCount <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_PART_COUNT must be positive")
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// PresignEndpoint returns the endpoint presigned URLs should be signed
// against. Falls back to the control endpoint when no public one is set.
func (c *Config) PresignEndpoint() string {
	if c.S3PublicEndpoint != "" {
		return c.S3PublicEndpoint
	}
	return c.S3Endpoint
}
