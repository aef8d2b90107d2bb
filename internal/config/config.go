package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int
	Timeouts HTTPTimeoutsConfig
}

type RateLimiterConfig struct {
	RPS   int
	Burst int
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name        string
	Environment string // 'dev' | 'prod'
	// BaseURL is the public address prepended to upload URLs. Relative URLs
	// are served when left empty.
	BaseURL string
	// SeedDir holds markdown files imported as blog posts on first start.
	// Seeding is skipped when empty.
	SeedDir string
}

type DBConfig struct {
	Path           string
	MigrationsPath string
}

type ProxyConfig struct {
	Trusted bool
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
}

type UploadsConfig struct {
	// Backend selects the file store: "local" | "s3"
	Backend        string
	LocalDir       string
	VariantWorkers int
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Proxy   ProxyConfig
	HTTP    HTTPConfig
	Limiter RateLimiterConfig
	Logger  LoggerConfig
	Metrics TelemetryConfig
	Uploads UploadsConfig
	S3      S3Config
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "printsite",
			Environment: "prod",
			BaseURL:     "",
			SeedDir:     "",
		},
		DB: DBConfig{
			Path:           "printsite.db",
			MigrationsPath: "./migrations",
		},
		Proxy: ProxyConfig{
			Trusted: true,
		},
		HTTP: HTTPConfig{
			Port: 3000,
			Timeouts: HTTPTimeoutsConfig{
				Read:     5 * time.Second,
				Write:    30 * time.Second, // uploads can be slow on bad links
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
		},
		Limiter: RateLimiterConfig{
			RPS:   20,
			Burst: 50,
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Metrics: TelemetryConfig{
			OtelEndpoint: "localhost:4318",
		},
		Uploads: UploadsConfig{
			Backend:        "local",
			LocalDir:       "./data",
			VariantWorkers: 2,
		},
	}
}

func LoadWithDefaults() *Config {
	defaults := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", defaults.App.Name),
			Environment: getEnv("APP_ENV", defaults.App.Environment),
			BaseURL:     getEnv("BACKEND_URL", defaults.App.BaseURL),
			SeedDir:     getEnv("APP_SEED_DIR", defaults.App.SeedDir),
		},
		DB: DBConfig{
			Path:           getEnv("DB_PATH", defaults.DB.Path),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", defaults.DB.MigrationsPath),
		},
		Proxy: ProxyConfig{
			Trusted: getEnvAsBool("PROXY_TRUSTED", defaults.Proxy.Trusted),
		},
		HTTP: HTTPConfig{
			Port: getEnvAsInt("HTTP_PORT", defaults.HTTP.Port), // don't forget to add ':'
			Timeouts: HTTPTimeoutsConfig{
				Read:     getEnvAsDuration("HTTP_READ_TIMEOUT", defaults.HTTP.Timeouts.Read),
				Write:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", defaults.HTTP.Timeouts.Write),
				Idle:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", defaults.HTTP.Timeouts.Idle),
				Shutdown: getEnvAsDuration("HTTP_SHUTDOWN_DELAY", defaults.HTTP.Timeouts.Shutdown),
			},
		},
		Limiter: RateLimiterConfig{
			RPS:   getEnvAsInt("LIMITER_RPS", defaults.Limiter.RPS),
			Burst: getEnvAsInt("LIMITER_BURST", defaults.Limiter.Burst),
		},
		Logger: LoggerConfig{
			Level: getEnvAsLogLevel("LOGGER_LEVEL", defaults.Logger.Level),
		},
		Metrics: TelemetryConfig{
			EnableTelemetry: getEnvAsBool("ENABLE_TELEMETRY", false),
			OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaults.Metrics.OtelEndpoint),
		},
		Uploads: UploadsConfig{
			Backend:        getEnv("UPLOADS_BACKEND", defaults.Uploads.Backend),
			LocalDir:       getEnv("UPLOADS_LOCAL_DIR", defaults.Uploads.LocalDir),
			VariantWorkers: getEnvAsInt("UPLOADS_VARIANT_WORKERS", defaults.Uploads.VariantWorkers),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsLogLevel(key string, fallback slog.Level) slog.Level {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	switch strings.ToLower(valueStr) {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := strings.ToLower(c.App.Environment); s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.DB.MigrationsPath == "" {
		return fmt.Errorf("DB_MIGRATIONS_PATH must not be empty")
	}
	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("HTTP_PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.Limiter.RPS <= 0 {
		return fmt.Errorf("LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	}
	if c.Limiter.Burst <= 0 {
		return fmt.Errorf("LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	}

	switch c.Uploads.Backend {
	case "local":
		if c.Uploads.LocalDir == "" {
			return fmt.Errorf("UPLOADS_LOCAL_DIR must not be empty for the local backend")
		}
	case "s3":
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return fmt.Errorf("S3_BUCKET and S3_REGION must be set for the s3 backend")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set for the s3 backend")
		}
	default:
		return fmt.Errorf(`UPLOADS_BACKEND must be "local" or "s3", got %q`, c.Uploads.Backend)
	}
	if c.Uploads.VariantWorkers < 0 {
		return fmt.Errorf("UPLOADS_VARIANT_WORKERS must not be negative, got %d", c.Uploads.VariantWorkers)
	}

	return nil
}
