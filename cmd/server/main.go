package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/integra/advisor-profile/internal/config"
	applog "github.com/integra/advisor-profile/internal/platform/logging"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		applog.LogFatal(context.Background(), "config", err)
	}
	applog.SetDebug(cfg.Debug)

	ctx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	deps, checks, res, err := buildDependencies(ctx, cfg)
	if err != nil {
		applog.LogFatal(ctx, "startup failed", err,
			zap.String("store", cfg.StoreDriver),
			zap.String("auth", cfg.AuthProvider),
		)
	}
	defer func() {
		if err := res.Close(); err != nil {
			applog.LogError(context.Background(), "close resources", err)
		}
	}()
	if deps.Limiter != nil {
		go deps.Limiter.Run(ctx, limiterPruneInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, deps, checks...),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.StoreDriver),
			zap.String("auth", cfg.AuthProvider),
			zap.Bool("cache", cfg.CacheEnabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		stopBackground()
		_ = res.Close()
		os.Exit(1)
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}
	stopBackground()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
}
