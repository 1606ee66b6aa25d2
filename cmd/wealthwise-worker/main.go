package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"wealthwise/internal/amqp"
	"wealthwise/internal/cli"
	"wealthwise/internal/log"
	"wealthwise/internal/report"
	"wealthwise/internal/report/sheets"
	"wealthwise/internal/report/sheets/memory"
	"wealthwise/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)
	cfg := cli.MustLoadConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, os.Stdout)

	logger.Info("Starting wealthwise-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker only reads the ledger; it never publishes events itself.
	rt, err := cli.OpenRuntime(ctx, cfg, logger, false)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer rt.Close()

	var publisher report.Publisher
	if cfg.SheetsEnabled() {
		client, err := sheets.New(ctx, cfg.GoogleSpreadsheetID, cfg.ReportSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		publisher = client
		logger.Info("Google Sheets client initialized", log.FieldSpreadsheet, cfg.GoogleSpreadsheetID)
	} else {
		publisher = memory.NewWithDir(cfg.DataDirectory)
		logger.Info("Google Sheets disabled, writing report to data directory",
			"data_directory", cfg.DataDirectory)
	}

	reports := worker.NewReportWorker(rt.Tracker, publisher, logger)
	scheduler := worker.NewScheduler(reports, worker.SchedulerConfig{Interval: cfg.SyncInterval}, logger)

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
			os.Exit(1)
		}
		defer events.Close()
	} else {
		logger.Info("AMQP disabled, relying on periodic refresh only", "interval", cfg.SyncInterval.String())
	}

	sigCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Scheduler stop failed", log.FieldError, err.Error())
		}
	})

	if err := scheduler.Start(sigCtx); err != nil {
		logger.Error("Failed to start scheduler", log.FieldError, err.Error())
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(sigCtx)
	if events != nil {
		g.Go(func() error {
			err := events.Consume(gctx, reports.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
	}
	cli.WaitForShutdown(sigCtx, done)
	logger.Info("Worker shutdown complete")
}
