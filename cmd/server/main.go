package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/vytor/memocurve/internal/api"
	"github.com/vytor/memocurve/internal/clock"
	"github.com/vytor/memocurve/internal/config"
	"github.com/vytor/memocurve/internal/db"
	"github.com/vytor/memocurve/internal/jobs"
	"github.com/vytor/memocurve/internal/logger"
	"github.com/vytor/memocurve/internal/repository/sqlite"
	"github.com/vytor/memocurve/internal/services"
	"github.com/vytor/memocurve/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(2)
	}

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(2)
	}

	log.Info("===========================================")
	log.Info("MemoCurve Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("import_workers=%d", cfg.ImportWorkers)
	log.Debug("import_queue_size=%d", cfg.ImportQueueSize)
	log.Debug("upcoming_limit=%d", cfg.UpcomingLimit)
	log.Debug("request_timeout=%s", cfg.RequestTimeout)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	clk := clock.System{}
	cardRepo := sqlite.NewCardRepository(database.DB)
	historyRepo := sqlite.NewReviewHistoryRepository(database.DB)

	// Initialize worker pool
	importPool := worker.NewPool(cfg.ImportWorkers, cfg.ImportQueueSize)
	queue := jobs.NewWorkerQueue(importPool, cardRepo, clk, uuid.NewString, nil)

	// Initialize services
	cardService := services.NewCardService(cardRepo, clk, uuid.NewString)
	studyService := services.NewStudyService(cardRepo, historyRepo, clk, cfg.UpcomingLimit)
	importService := services.NewImportService(cardRepo, queue, clk, uuid.NewString)
	queue.SetProgress(importService)

	srv := &api.Server{
		CardService:    cardService,
		StudyService:   studyService,
		ImportService:  importService,
		DB:             database,
		Clock:          clk,
		RequestTimeout: cfg.RequestTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	importPool.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Running imports are cancelled; each batch commits on its own.
	log.Debug("stopping import pool")
	cancel()
	importPool.Stop()

	log.Info("===========================================")
	log.Info("MemoCurve Server Stopped")
	log.Info("===========================================")
}
