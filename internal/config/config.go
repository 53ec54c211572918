package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Batch        BatchConfig
	Storage      StorageConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session validation parameters for tokens issued by the
// external identity provider.
type AuthConfig struct {
	SessionSecret    string
	Issuer           string
	InviteTTLDays    int
	InviteBcryptCost int
}

// BatchConfig points at the external batch-compute queue used for video
// processing. Submission is skipped entirely when JobQueue or JobDefinition
// is empty; tasks then stay PENDING until updated externally.
type BatchConfig struct {
	Region           string
	JobQueue         string
	JobDefinition    string
	RequestTimeoutMS int
	StatusCacheTTLMS int
}

// Configured reports whether batch submission is enabled.
func (b BatchConfig) Configured() bool {
	return b.JobQueue != "" && b.JobDefinition != ""
}

// RequestTimeout bounds every call to the batch service.
func (b BatchConfig) RequestTimeout() time.Duration {
	if b.RequestTimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(b.RequestTimeoutMS) * time.Millisecond
}

// StatusCacheTTL bounds staleness of cached external job statuses.
func (b BatchConfig) StatusCacheTTL() time.Duration {
	if b.StatusCacheTTLMS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.StatusCacheTTLMS) * time.Millisecond
}

// StorageConfig holds object storage settings for upload URL issuance.
type StorageConfig struct {
	Bucket           string
	Region           string
	UploadTTLMinutes int
	MaxUploadBytes   int64
}

// UploadTTL returns how long a presigned upload URL stays valid.
func (s StorageConfig) UploadTTL() time.Duration {
	if s.UploadTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.UploadTTLMinutes) * time.Minute
}

// NotificationConfig holds outbound notification endpoints.
type NotificationConfig struct {
	EmailFrom    string
	WebhookURL   string
	QueueSize    int
	MaxAttempts  int
	RetryDelayMS int
}

// RetryDelay is the pause between notification delivery attempts.
func (n NotificationConfig) RetryDelay() time.Duration {
	if n.RetryDelayMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(n.RetryDelayMS) * time.Millisecond
}

// RateLimitConfig bounds per-client request rates.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
	Enabled   bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "archive-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionSecret:    getEnv("AUTH_SESSION_SECRET", "dev-secret"),
			Issuer:           getEnv("AUTH_ISSUER", ""),
			InviteTTLDays:    getEnvAsInt("AUTH_INVITE_TTL_DAYS", 14),
			InviteBcryptCost: getEnvAsInt("AUTH_INVITE_BCRYPT_COST", 10),
		},
		Batch: BatchConfig{
			Region:           getEnv("AWS_REGION", "us-west-2"),
			JobQueue:         os.Getenv("BATCH_JOB_QUEUE"),
			JobDefinition:    os.Getenv("BATCH_JOB_DEFINITION"),
			RequestTimeoutMS: getEnvAsInt("BATCH_REQUEST_TIMEOUT_MS", 5000),
			StatusCacheTTLMS: getEnvAsInt("BATCH_STATUS_CACHE_TTL_MS", 15000),
		},
		Storage: StorageConfig{
			Bucket:           os.Getenv("STORAGE_BUCKET"),
			Region:           getEnv("STORAGE_REGION", getEnv("AWS_REGION", "us-west-2")),
			UploadTTLMinutes: getEnvAsInt("STORAGE_UPLOAD_TTL_MINUTES", 60),
			MaxUploadBytes:   int64(getEnvAsInt("STORAGE_MAX_UPLOAD_MB", 5*1024)) * 1024 * 1024,
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
			QueueSize:    getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			MaxAttempts:  getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			RetryDelayMS: getEnvAsInt("NOTIFY_RETRY_DELAY_MS", 250),
		},
		RateLimit: RateLimitConfig{
			PerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 20),
			Burst:     getEnvAsInt("RATE_LIMIT_BURST", 40),
			Enabled:   getEnvAsBool("RATE_LIMIT_ENABLED", true),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// InviteTTL returns how long emailed friend invites stay valid.
func (a AuthConfig) InviteTTL() time.Duration {
	if a.InviteTTLDays <= 0 {
		return 14 * 24 * time.Hour
	}
	return time.Duration(a.InviteTTLDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
