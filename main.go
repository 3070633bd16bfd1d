package main

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

	"github.com/msomdec/storefront-api/internal/config"
	"github.com/msomdec/storefront-api/internal/domain"
	"github.com/msomdec/storefront-api/internal/handler"
	"github.com/msomdec/storefront-api/internal/metrics"
	"github.com/msomdec/storefront-api/internal/repository/sqlite"
	"github.com/msomdec/storefront-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))
	slog.Info("configuration loaded", "config", cfg.String())
	if cfg.UsesDefaultSecret() {
		slog.Warn("JWT_SECRET is not set; tokens are signed with the built-in development secret")
	}

	db, err := openStore(context.Background(), cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hasher, err := service.NewPasswordHasher(cfg.PasswordHasher, cfg.BcryptCost)
	if err != nil {
		slog.Error("failed to configure password hasher", "error", err)
		os.Exit(1)
	}

	m := metrics.New("storefront")
	tokens := service.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL)
	authService := service.NewAuthService(db.Users(), hasher, tokens, service.WithMetrics(m))
	productService := service.NewProductService(db.Products())

	loginLimiter := service.NewTokenBucket(cfg.LoginRate, float64(cfg.LoginBurst))
	defer loginLimiter.Stop()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		Auth:         authService,
		Products:     productService,
		Policy:       service.DefaultAccessPolicy(),
		LoginLimiter: loginLimiter,
		Metrics:      m,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(handler.RequestLogger(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Metrics are served on their own listener.
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		slog.Info("metrics server starting", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown error", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore opens the SQLite store and applies pending migrations.
func openStore(ctx context.Context, path string) (domain.Store, error) {
	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied", "path", path)
	return db, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(handler.WithRequestID(slog.NewJSONHandler(os.Stdout, opts)))
	}
	return slog.New(handler.WithRequestID(slog.NewTextHandler(os.Stdout, opts)))
}
