package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/Yousuf-Basir/sso-server/internal/sso/http"
	"github.com/Yousuf-Basir/sso-server/internal/sso/ledger"
	"github.com/Yousuf-Basir/sso-server/internal/sso/metrics"
	"github.com/Yousuf-Basir/sso-server/internal/sso/provider"
	"github.com/Yousuf-Basir/sso-server/internal/sso/registry"
	"github.com/Yousuf-Basir/sso-server/internal/sso/service"
	"github.com/Yousuf-Basir/sso-server/internal/sso/store"
	"github.com/Yousuf-Basir/sso-server/internal/sso/store/drivers/sqlite"
	"github.com/Yousuf-Basir/sso-server/pkg/cryptox"
	"github.com/Yousuf-Basir/sso-server/pkg/jwtx"
	"github.com/Yousuf-Basir/sso-server/pkg/slogx"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// BuildVersion is overridden at build time with -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the SSO service and all its dependencies.
type Application struct {
	cfg     Config
	logger  *slog.Logger
	metrics metrics.Recorder

	// Core dependencies
	db      store.Store
	keys    *jwtx.KeySet
	codec   *jwtx.Codec
	clients *registry.Registry
	ledger  ledger.Ledger // nil unless grants are single-use
	redis   *redis.Client

	// Services
	sessions     *service.SessionService
	gateway      *service.Gateway
	delegation   *service.DelegationFlow
	users        *service.UserService
	providers    provider.Set
	housekeeping *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialized. cfg must
// already be validated.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sso-server",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.Init(cfg.MetricsEnabled),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	cfg.ApplyRateLimits()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initKeys(); err != nil {
		app.closeDatabase()
		return nil, err
	}
	if err := app.initClients(); err != nil {
		app.closeDatabase()
		return nil, err
	}
	if err := app.initLedger(context.Background()); err != nil {
		app.closeDatabase()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return app.RunContext(ctx)
}

// RunContext serves until ctx is cancelled or a component fails.
func (app *Application) RunContext(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	app.housekeeping.Start()

	g.Go(func() error {
		app.logger.Info("sso service starting", "port", app.cfg.Port, "version", BuildVersion)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if app.cfg.WatchClients {
		w := &registry.Watcher{
			Path:     app.cfg.ClientsFile,
			Registry: app.clients,
			Logger:   app.logger,
			OnReload: func(err error) { app.metrics.RecordRegistryReload(err == nil) },
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested")
		return app.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down sso service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("sso service stopped")
	return nil
}

// Handler exposes the router, mostly for tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) closeDatabase() {
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (app *Application) initKeys() error {
	keys, err := InitKeys(app.cfg, app.logger)
	if err != nil {
		return err
	}
	codec, err := jwtx.NewCodec(jwtx.CodecOptions{
		Keys:   keys,
		Issuer: app.cfg.Issuer,
		Policy: app.cfg.Policy(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.keys = keys
	app.codec = codec
	return nil
}

func (app *Application) initClients() error {
	snap, err := registry.LoadFile(app.cfg.ClientsFile)
	if err != nil {
		return fmt.Errorf("failed to load clients: %w", err)
	}
	app.clients = registry.New(snap)
	app.metrics.RecordRegistryReload(true)
	app.logger.Info("client registry loaded", "path", app.cfg.ClientsFile, "clients", snap.Len())
	return nil
}

func (app *Application) initLedger(ctx context.Context) error {
	if !app.cfg.SingleUseGrants {
		return nil
	}

	switch app.cfg.GrantLedger {
	case LedgerRedis:
		client, err := ledger.Dial(ctx, ledger.RedisOptions{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		app.redis = client
		app.ledger = ledger.NewRedis(client)
	default:
		app.ledger = ledger.NewMemory()
	}

	app.logger.Info("single-use grants enabled", "ledger", app.cfg.GrantLedger)
	return nil
}

func (app *Application) initServices() {
	app.sessions = &service.SessionService{Codec: app.codec, Metrics: app.metrics}
	app.gateway = &service.Gateway{
		Clients:  app.clients,
		Sessions: app.sessions,
		Metrics:  app.metrics,
		Ledger:   app.ledger,
	}
	app.delegation = &service.DelegationFlow{
		Clients:  app.clients,
		Sessions: app.sessions,
		Metrics:  app.metrics,
		LoginURL: app.cfg.LoginURL,
	}
	app.users = &service.UserService{Store: app.db, Metrics: app.metrics}

	app.providers = provider.NewSet(app.cfg.PublicURL,
		provider.Config{ClientID: app.cfg.GoogleClientID, ClientSecret: app.cfg.GoogleClientSecret},
		provider.Config{ClientID: app.cfg.FacebookClientID, ClientSecret: app.cfg.FacebookClientSecret},
	)
	for name := range app.providers {
		app.logger.Info("identity provider enabled", "provider", name)
	}

	pruners := map[string]service.Pruner{}
	if mem, ok := app.ledger.(*ledger.Memory); ok {
		pruners["grant_ledger"] = mem
	}
	app.housekeeping = service.NewHousekeepingService(pruners, app.logger, app.cfg.HousekeepingInterval)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.clients,
		BuildVersion,
		app.db,
		app.logger,
		app.metrics,
	)

	router.Cookies = httpapi.CookieConfig{Secure: app.cfg.IsProd()}
	router.LoginURL = app.cfg.LoginURL
	router.PostLoginURL = app.cfg.PostLoginURL

	router.Sessions = app.sessions
	router.Gateway = app.gateway
	router.Delegation = app.delegation
	router.Users = app.users
	router.Providers = app.providers
	router.Ledger = app.ledger
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
