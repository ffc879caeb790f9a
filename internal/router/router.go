package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"favurls/internal/config"
	"favurls/internal/handler"
	"favurls/internal/middleware"
)

// New assembles the middleware chain and routes. Login, refresh, and register
// are the CSRF-exempt bootstrap points; every other mutating route runs the
// double-submit check before any handler logic.
func New(
	cfg *config.Config,
	healthCheck func(ctx context.Context) error,
	authMiddleware *middleware.AuthMiddleware,
	metricsMiddleware *middleware.MetricsMiddleware,
	authHandler *handler.AuthHandler,
	urlHandler *handler.URLHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(metricsMiddleware.Handler)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if healthCheck != nil {
			if err := healthCheck(req.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metricsMiddleware.Expose())

	r.Route("/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/users", func(users chi.Router) {
			users.Post("/", authHandler.Register)
			users.Post("/login", authHandler.Login)
			users.Post("/refresh", authHandler.Refresh)
			users.With(middleware.CSRF).Post("/logout", authHandler.Logout)
			users.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		api.Route("/urls", func(urls chi.Router) {
			urls.Use(middleware.CSRF)
			urls.Use(authMiddleware.RequireAuth)

			urls.Get("/", urlHandler.List)
			urls.Post("/", urlHandler.Create)
			urls.Put("/{url_id}", urlHandler.Update)
			urls.Delete("/{url_id}", urlHandler.Delete)
		})
	})

	return r
}
