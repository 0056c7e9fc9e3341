package app

import (
	"testing"
	"time"

	"github.com/concert/auth/internal/auth/service"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT", "SHUTDOWN_GRACE_PERIOD", "HOUSEKEEPING_INTERVAL",
	"AUTH_SECRET_NAME", "AUTH_SECRET_SOURCE", "JWT_SECRET",
	"AUTH_ACCESS_TTL", "AUTH_REFRESH_TTL", "AUTH_REFRESH_POLICY",
	"AUTH_SESSION_DRIVER", "AUTH_DATABASE_FILE", "AUTH_REDIS_ADDR", "AUTH_DYNAMODB_TABLE",
	"AWS_REGION", "AWS_ENDPOINT_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "concert-jwt-secret-dev", cfg.SecretName)
	require.Equal(t, SecretSourceAWS, cfg.SecretSource)
	require.Equal(t, devSecret, cfg.SecretFallback)
	require.Equal(t, time.Hour, cfg.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, service.RefreshSession, cfg.RefreshPolicy)
	require.Equal(t, DriverSQLite, cfg.SessionDriver)
	require.Equal(t, "auth.db", cfg.DatabaseFile)
	require.Equal(t, "concert-session-tokens-dev", cfg.DynamoDBTable)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("AUTH_ACCESS_TTL", "15m")
	t.Setenv("AUTH_REFRESH_TTL", "30")
	t.Setenv("AUTH_REFRESH_POLICY", "Stateless")
	t.Setenv("AUTH_SESSION_DRIVER", "DynamoDB")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "concert-jwt-secret-prod", cfg.SecretName)
	require.Equal(t, "from-env", cfg.SecretFallback)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 30*time.Minute, cfg.RefreshTTL)
	require.Equal(t, service.RefreshStateless, cfg.RefreshPolicy)
	require.Equal(t, DriverDynamoDB, cfg.SessionDriver)
	require.Equal(t, "concert-session-tokens-prod", cfg.DynamoDBTable)
}

func TestLoadConfig_NoDevSecretOutsideDev(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "staging")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Empty(t, cfg.SecretFallback)

	t.Setenv("AUTH_SECRET_SOURCE", "static")
	_, err = LoadConfig()
	require.ErrorIs(t, err, service.ErrConfiguration)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "AUTH_SESSION_DRIVER", "postgres"},
		{"unknown secret source", "AUTH_SECRET_SOURCE", "vault"},
		{"unknown refresh policy", "AUTH_REFRESH_POLICY", "sometimes"},
		{"negative ttl", "AUTH_ACCESS_TTL", "-1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig()
			require.ErrorIs(t, err, service.ErrConfiguration)
		})
	}
}

func TestNew_MemoryDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_SESSION_DRIVER", "memory")
	t.Setenv("AUTH_SECRET_SOURCE", "static")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	app, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.router)
	require.Same(t, app.users, app.sessionStore)

	secret, err := app.secrets.Secret(t.Context())
	require.NoError(t, err)
	require.Equal(t, []byte(devSecret), secret)
}

func TestNew_SQLiteDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_SECRET_SOURCE", "static")
	t.Setenv("AUTH_DATABASE_FILE", t.TempDir()+"/auth.db")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.sessionStore.Close() })

	require.NoError(t, app.sessionStore.Ping(t.Context()))
}
