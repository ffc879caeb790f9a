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

	"favurls/internal/config"
	"favurls/internal/database"
	"favurls/internal/handler"
	"favurls/internal/middleware"
	"favurls/internal/repository"
	"favurls/internal/router"
	"favurls/internal/service"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

// New wires the application. With devMode an embedded PostgreSQL is started
// so no external database is needed.
func New(devMode bool) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var cleanupFuncs []func()

	if devMode {
		embedded, url, err := database.StartEmbedded(5432)
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded postgres: %w", err)
		}
		cfg.DatabaseURL = url
		cleanupFuncs = append(cleanupFuncs, func() {
			if err := embedded.Stop(); err != nil {
				slog.Error("stopping embedded postgres failed", "error", err)
			}
		})
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool, cfg.RefreshTTL)
	urlRepo := repository.NewURLRepository(pool)
	slog.Info("database ready")

	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.RefreshRotation, userRepo, tokenRepo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)
	metricsMiddleware := middleware.NewMetricsMiddleware()
	authHandler := handler.NewAuthHandler(authService, cfg.JWTAccessTTL, cfg.RefreshTTL, cfg.CookieSecure)

	urlService := service.NewURLService(urlRepo)
	urlHandler := handler.NewURLHandler(urlService)

	appRouter := router.New(cfg, db.Health, authMiddleware, metricsMiddleware, authHandler, urlHandler)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go cleanExpiredSessions(cleanupCtx, tokenRepo)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	cleanupFuncs = append(cleanupFuncs, cleanupCancel, db.Close)

	return &App{
		server:       server,
		db:           db,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}

	slog.Info("server stopped")
	return nil
}

func cleanExpiredSessions(ctx context.Context, tokenRepo *repository.TokenRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokenRepo.CleanExpired(ctx)
			if err != nil {
				slog.Error("cleaning expired refresh sessions failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired refresh sessions removed", "count", removed)
			}
		}
	}
}
