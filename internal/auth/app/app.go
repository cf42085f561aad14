package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/maratshchur/django-auth-template/internal/auth/http"
	"github.com/maratshchur/django-auth-template/internal/auth/service"
	"github.com/maratshchur/django-auth-template/internal/auth/store"
	"github.com/maratshchur/django-auth-template/internal/auth/store/drivers/postgres"
	"github.com/maratshchur/django-auth-template/internal/auth/store/drivers/redis"
	"github.com/maratshchur/django-auth-template/internal/auth/store/drivers/sqlite"
	"github.com/maratshchur/django-auth-template/pkg/cryptox"
	"github.com/maratshchur/django-auth-template/pkg/jwtx"
	"github.com/maratshchur/django-auth-template/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X .../app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db           store.Store
	redisClient  io.Closer      // nil unless AUTH_REFRESH_STORE=redis
	refreshStore httpapi.Pinger // nil unless AUTH_REFRESH_STORE=redis
	registry     *prometheus.Registry
	secret       []byte

	// Services
	credentialService   *service.CredentialService
	sessionService      *service.SessionService
	userService         *service.UserService
	tokenVerifier       *service.TokenVerifier
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	secret, err := InitSigningSecret(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.secret = secret

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initRefreshStore(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if cfg.MetricsEnabled {
		app.registry = prometheus.NewRegistry()
		app.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the root handler, for tests that do not bind a port.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"refresh_store", app.cfg.RefreshStore,
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
		app.housekeepingService.Stop()
		app.closeStores()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// sqliteDSN enables foreign keys and WAL, and waits on a locked database
// instead of failing immediately.
func sqliteDSN(file string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.StoreDriver {
	case DriverPostgres:
		db, err = postgres.Open(ctx, app.cfg.Postgres.driverConfig(), app.logger)
	default:
		db, err = sqlite.NewStore(sqliteDSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.db = db
	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

// initRefreshStore moves refresh tokens to Redis when configured. Users stay
// in the database.
func (app *Application) initRefreshStore(ctx context.Context) error {
	if app.cfg.RefreshStore != RefreshStoreRedis {
		return nil
	}

	client, err := redis.NewClient(ctx, app.cfg.Redis.driverConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}

	rt := redis.NewRefreshTokens(client, nil)
	app.db = store.WithRefreshTokens(app.db, rt)
	app.redisClient = client
	app.refreshStore = rt
	app.logger.Info("refresh tokens stored in redis", "addr", app.cfg.Redis.Addr)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	signer, err := jwtx.NewSignerHS256(app.secret)
	if err != nil {
		return fmt.Errorf("failed to create token signer: %w", err)
	}
	verifier, err := jwtx.NewVerifierHS256(app.secret)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	var reg prometheus.Registerer
	if app.registry != nil {
		reg = app.registry
	}
	metrics := service.NewMetrics(reg)

	app.credentialService = &service.CredentialService{Store: app.db}
	issuer := &service.TokenIssuer{
		Signer:     signer,
		Store:      app.db,
		AccessTTL:  app.cfg.AccessTokenLifetime.Duration(),
		RefreshTTL: app.cfg.RefreshTokenLifetime.Duration(),
		Metrics:    metrics,
	}
	app.sessionService = &service.SessionService{
		Credentials: app.credentialService,
		Issuer:      issuer,
		Store:       app.db,
		Metrics:     metrics,
	}
	app.userService = &service.UserService{Store: app.db}
	app.tokenVerifier = &service.TokenVerifier{Verifier: verifier, Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	app.housekeepingService.Metrics = metrics

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger, app.registry)

	// Wire services to router
	router.CredentialService = app.credentialService
	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.TokenVerifier = app.tokenVerifier
	router.RefreshStorePinger = app.refreshStore
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
