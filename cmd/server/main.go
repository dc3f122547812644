package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/extraction-eval/internal/config"
	"github.com/ZanzyTHEbar/extraction-eval/internal/monitoring"
	"github.com/ZanzyTHEbar/extraction-eval/internal/ratelimit"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.NewLogger(monitoring.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger.Logger)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := newServer(cfg, logger)
	if cfg.Redis.Addr != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable, rate limits stay per replica", "error", err)
		} else {
			defer client.Close()
			s.useRedis(client)
		}
	}
	go s.cache.Run(ctx, time.Minute)
	go s.security.Cleanup(ctx, 10*time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.SystemLogger("startup", "listening on :"+cfg.Port)
		slog.Info("Starting server",
			"port", cfg.Port,
			"version", version,
			"layout_strategy", cfg.Layout.Strategy,
			"cache_ttl", cfg.CacheTTL.String(),
			"config_file", cfg.ConfigFile,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
