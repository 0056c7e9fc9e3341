package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/concert/auth/internal/auth/http"
	"github.com/concert/auth/internal/auth/service"
	"github.com/concert/auth/internal/auth/store"
	"github.com/concert/auth/internal/auth/store/drivers/dynamodb"
	"github.com/concert/auth/internal/auth/store/drivers/memory"
	"github.com/concert/auth/internal/auth/store/drivers/redis"
	"github.com/concert/auth/internal/auth/store/drivers/sqlite"
	"github.com/concert/auth/pkg/jwtx"
	"github.com/concert/auth/pkg/secretx"
	"github.com/concert/auth/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	startupTimeout = 10 * time.Second
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	sessionStore store.Store
	users        *memory.Store
	secrets      *secretx.Source
	registry     *prometheus.Registry

	// Services
	tokenService        *service.TokenService
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		users:    memory.NewStore(),
		registry: prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := app.initSessionStore(ctx); err != nil {
		return nil, err
	}

	if err := app.initSecrets(ctx); err != nil {
		_ = app.sessionStore.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"session_driver", app.cfg.SessionDriver,
		"refresh_policy", app.cfg.RefreshPolicy,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close the session store connection
	if err := app.sessionStore.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initSessionStore opens the configured session backend. The memory driver
// shares the store that holds the user directory.
func (app *Application) initSessionStore(ctx context.Context) error {
	switch app.cfg.SessionDriver {
	case DriverSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
		app.logger.Info("database migrations applied successfully")
		app.sessionStore = db

	case DriverRedis:
		st := redis.NewStore(redis.NewClient(app.cfg.RedisAddr))
		if err := st.Ping(ctx); err != nil {
			_ = st.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.sessionStore = st

	case DriverDynamoDB:
		client, err := dynamodb.NewClient(ctx, app.cfg.AWSRegion, app.cfg.AWSEndpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize dynamodb: %w", err)
		}
		app.sessionStore = dynamodb.NewStore(client, app.cfg.DynamoDBTable)

	case DriverMemory:
		app.sessionStore = app.users

	default:
		return fmt.Errorf("%w: unknown session driver %q", service.ErrConfiguration, app.cfg.SessionDriver)
	}

	app.logger.Info("session store ready", "driver", app.cfg.SessionDriver)
	return nil
}

// initSecrets builds the signing secret source. The secret itself is
// resolved lazily on the first request that needs it.
func (app *Application) initSecrets(ctx context.Context) error {
	opts := secretx.Options{
		Name:     app.cfg.SecretName,
		Fallback: []byte(app.cfg.SecretFallback),
		Logger:   app.logger,
	}

	if app.cfg.SecretSource == SecretSourceAWS {
		fetcher, err := secretx.NewAWSFetcherFromEnv(ctx, app.cfg.AWSRegion, app.cfg.AWSEndpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize secret store: %w", err)
		}
		opts.Fetcher = fetcher
	}

	if app.cfg.SecretFallback == devSecret {
		app.logger.Warn("using the built-in development signing secret as fallback")
	}

	app.secrets = secretx.New(opts)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	sessions := app.sessionStore.Sessions()

	app.tokenService = &service.TokenService{
		Signer:     jwtx.NewSignerHS256(app.secrets),
		Sessions:   sessions,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.authService = &service.AuthService{
		Tokens:   app.tokenService,
		Verifier: jwtx.NewVerifierHS256(app.secrets),
		Users:    app.users.Users(),
		Sessions: sessions,
		Policy:   app.cfg.RefreshPolicy,
		Metrics:  service.NewMetrics(app.registry),
	}

	app.housekeepingService = service.NewHousekeepingService(
		sessions,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.sessionStore,
		app.secrets,
		app.registry,
		app.logger,
	)

	router.AuthService = app.authService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
