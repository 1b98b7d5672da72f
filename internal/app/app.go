package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-market-auth/internal/config"
	"go-market-auth/internal/database"
	"go-market-auth/internal/handler"
	"go-market-auth/internal/idgen"
	"go-market-auth/internal/middleware"
	"go-market-auth/internal/model"
	"go-market-auth/internal/repository"
	"go-market-auth/internal/repository/memory"
	"go-market-auth/internal/router"
	"go-market-auth/internal/service"
)

const startupTimeout = 30 * time.Second

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

type marketSeeder interface {
	AddMarket(ctx context.Context, market model.Market) error
}

type stores struct {
	identities service.IdentityStore
	audit      service.AuditStore
	markets    marketSeeder
	ready      func(ctx context.Context) error
}

func New(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{}

	st, err := a.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	for _, market := range cfg.SeedMarkets {
		if err := st.markets.AddMarket(ctx, market); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to seed market %s: %w", market.Code, err)
		}
	}
	if len(cfg.SeedMarkets) > 0 {
		slog.Info("markets seeded", "count", len(cfg.SeedMarkets))
	}

	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
		Issuer:        cfg.JWTIssuer,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	logger := slog.Default()
	authService, err := service.NewAuthService(st.identities, service.NewPasswordHasher(cfg.BcryptCost), tokens, idgen.NewRandomGenerator(), logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	created, err := authService.EnsureManager(ctx, cfg.SeedManagerUsername, cfg.SeedManagerPassword, cfg.SeedManagerDisplayName)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to seed manager account: %w", err)
	}
	if !created && cfg.SeedManagerUsername != "" {
		slog.Info("manager account already present", "username", cfg.SeedManagerUsername)
	}

	auditService := service.NewAuditService(st.audit, logger)
	approvalService := service.NewApprovalService(st.identities, auditService, logger)

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.RefreshCookie{
			Name:   cfg.RefreshCookieName,
			Path:   cfg.RefreshCookiePath,
			Secure: cfg.IsProduction(),
			TTL:    tokens.RefreshTTL(),
		}),
		Manager:    handler.NewManagerHandler(approvalService),
		Storefront: handler.NewStorefrontHandler(authService),
		Ready:      st.ready,
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		return stores{identities: store, audit: store, markets: store}, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns), int32(cfg.DBMinConns))
	if err != nil {
		return stores{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.EnsureSchema(ctx); err != nil {
		a.Close()
		return stores{}, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	return stores{
		identities: repository.NewIdentityRepository(db.Pool, slog.Default()),
		audit:      repository.NewAuditRepository(db.Pool),
		markets:    repository.NewMarketRepository(db.Pool),
		ready:      db.Health,
	}, nil
}

// Handler exposes the routed handler without starting a listener.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Close() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		a.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.Close()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
