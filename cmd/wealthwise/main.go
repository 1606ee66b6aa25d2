package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"wealthwise/internal/cache"
	"wealthwise/internal/cli"
	apphttp "wealthwise/internal/http"
	"wealthwise/internal/log"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.MustLoadConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := cli.OpenRuntime(ctx, cfg, logger, true)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer rt.Close()

	advisor, insightCache, closeAdvisor := cli.NewAdvisor(ctx, cfg, logger)
	defer closeAdvisor()

	caches := cache.NewManager(logger)
	if insightCache != nil {
		caches.Register(insightCache)
	}
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Tracker:       rt.Tracker,
		Advisor:       advisor,
		Ready:         rt.Store,
		RateLimitRPM:  cfg.RateLimitRPM,
		ExposeMetrics: cfg.MetricsEnabled,
		Logger:        logger,
	})

	sigCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
	})

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		logger.Info("Starting wealthwise server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"insights", cfg.InsightsEnabled(),
			"events", rt.Events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}
	cli.WaitForShutdown(sigCtx, done)
	logger.Info("Server stopped gracefully")
}
