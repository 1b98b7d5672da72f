package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-market-auth/internal/config"
	"go-market-auth/internal/handler"
	"go-market-auth/internal/middleware"
	"go-market-auth/internal/model"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	Manager    *handler.ManagerHandler
	Storefront *handler.StorefrontHandler

	// Ready reports whether backing storage is reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.RealIP(cfg.TrustedProxies))
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/health/ready", readiness(handlers.Ready))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", handlers.Auth.Register)
			auth.Post("/login", handlers.Auth.Login)
			auth.Post("/refresh", handlers.Auth.Refresh)
			auth.Post("/logout", handlers.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", handlers.Auth.Me)
		})

		api.Route("/manager", func(manager chi.Router) {
			manager.Use(authMiddleware.RequireAuth, authMiddleware.Authorize(model.RoleManager))

			manager.Get("/pending", handlers.Manager.Pending)
			manager.Post("/approve/{id}", handlers.Manager.Approve)
			manager.Post("/reject/{id}", handlers.Manager.Reject)
			manager.Get("/identities", handlers.Manager.Identities)
			manager.Get("/stats", handlers.Manager.Stats)
			manager.Get("/audit", handlers.Manager.Audit)
		})

		api.With(authMiddleware.RequireAuth, authMiddleware.Authorize(model.RoleStorefront)).
			Get("/storefront/profile", handlers.Storefront.Profile)
	})

	return r
}

func readiness(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				slog.Warn("readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
