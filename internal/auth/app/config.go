package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/concert/auth/internal/auth/service"
)

// Session drivers selectable with AUTH_SESSION_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

// Secret sources selectable with AUTH_SECRET_SOURCE.
const (
	SecretSourceAWS    = "aws"
	SecretSourceStatic = "static"
)

// devSecret is the last-resort signing secret, only ever used when ENV=dev.
const devSecret = "default-secret"

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)

	SecretName     string // Secret id in the secret store (default: concert-jwt-secret-<env>)
	SecretSource   string // Where the signing secret comes from (aws, static) (default: aws)
	SecretFallback string // Used when the secret store fails (JWT_SECRET, default-secret in dev only)

	AccessTTL     time.Duration         // Access token lifetime (default: 1h)
	RefreshTTL    time.Duration         // Refresh token lifetime (default: 168h)
	RefreshPolicy service.RefreshPolicy // Whether refresh needs a live session (stateless, session) (default: session)

	SessionDriver string // Session store backend (sqlite, redis, dynamodb, memory) (default: sqlite)
	DatabaseFile  string // SQLite database file (default: ./auth.db)
	RedisAddr     string // Redis address (default: localhost:6379)
	DynamoDBTable string // DynamoDB table (default: concert-session-tokens-<env>)
	AWSRegion     string // AWS region, empty uses the SDK default chain
	AWSEndpoint   string // AWS endpoint override, e.g. localstack
}

// LoadConfig reads the configuration from the environment. Unparseable
// values fall back to their defaults; Validate reports the rest.
func LoadConfig() (Config, error) {
	env := getEnvOrDefault("ENV", "dev")

	fallback := os.Getenv("JWT_SECRET")
	if fallback == "" && env == "dev" {
		fallback = devSecret
	}

	policy, err := service.ParseRefreshPolicy(os.Getenv("AUTH_REFRESH_POLICY"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		SecretName:     getEnvOrDefault("AUTH_SECRET_NAME", "concert-jwt-secret-"+env),
		SecretSource:   strings.ToLower(getEnvOrDefault("AUTH_SECRET_SOURCE", SecretSourceAWS)),
		SecretFallback: fallback,

		AccessTTL:     getEnvDurationOrDefault("AUTH_ACCESS_TTL", time.Hour),
		RefreshTTL:    getEnvDurationOrDefault("AUTH_REFRESH_TTL", 7*24*time.Hour),
		RefreshPolicy: policy,

		SessionDriver: strings.ToLower(getEnvOrDefault("AUTH_SESSION_DRIVER", DriverSQLite)),
		DatabaseFile:  getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		RedisAddr:     getEnvOrDefault("AUTH_REDIS_ADDR", "localhost:6379"),
		DynamoDBTable: getEnvOrDefault("AUTH_DYNAMODB_TABLE", "concert-session-tokens-"+env),
		AWSRegion:     os.Getenv("AWS_REGION"),
		AWSEndpoint:   os.Getenv("AWS_ENDPOINT_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.SessionDriver {
	case DriverSQLite, DriverRedis, DriverDynamoDB, DriverMemory:
	default:
		return fmt.Errorf("%w: unknown session driver %q", service.ErrConfiguration, c.SessionDriver)
	}

	switch c.SecretSource {
	case SecretSourceAWS:
	case SecretSourceStatic:
		if c.SecretFallback == "" {
			return fmt.Errorf("%w: JWT_SECRET is required with the static secret source", service.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown secret source %q", service.ErrConfiguration, c.SecretSource)
	}

	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return fmt.Errorf("%w: token lifetimes must be positive", service.ErrConfiguration)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
