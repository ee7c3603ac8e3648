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

	"github.com/google/uuid"

	"github.com/acmefin/policyscan/internal/async"
	"github.com/acmefin/policyscan/internal/common"
	"github.com/acmefin/policyscan/internal/export"
	"github.com/acmefin/policyscan/internal/ingest"
	"github.com/acmefin/policyscan/internal/pipeline"
	"github.com/acmefin/policyscan/internal/repository"
	"github.com/acmefin/policyscan/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.Database.Path)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	if err := repository.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	docs := repository.NewDocumentRepository(db, logger)
	entries := repository.NewEntryRepository(db, logger)

	metrics := server.NewMetrics()
	processor := pipeline.NewProcessor(logger, docs, entries, cfg.Pipeline.Workers)
	processor.SetObserver(metrics.ObserveSummary)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	ingestor := ingest.NewFSIngestor(docs, logger)

	// Watch ingest roots, if configured, and feed the queue.
	if len(cfg.Ingest.Roots) > 0 {
		w := ingest.NewWatcher(ingest.WatchConfig{
			Roots:       cfg.Ingest.Roots,
			InitialScan: true,
			Debounce:    cfg.Ingest.Debounce,
		}, logger)
		paths, watchErrs, err := w.Start(ctx)
		if err != nil {
			logger.Error("failed to start watcher", "roots", cfg.Ingest.Roots, "error", err)
			os.Exit(1)
		}
		go func() {
			for path := range paths {
				res, err := ingestor.IngestPath(ctx, path)
				if err != nil {
					logger.Error("failed to ingest watched file", "path", path, "error", err)
					continue
				}
				metrics.RecordIngest(res.Deduplicated)
				id, err := uuid.Parse(res.DocumentID)
				if err != nil {
					logger.Error("failed to parse document ID", "document_id", res.DocumentID, "error", err)
					continue
				}
				_ = queue.Enqueue(ctx, async.Job{
					DocumentID:  id,
					Correct:     cfg.Pipeline.Correct,
					Force:       true, // a rewritten file must be re-decoded
					SubmittedAt: time.Now().UTC(),
				})
			}
		}()
		go func() {
			for err := range watchErrs {
				logger.Error("watch error", "error", err)
			}
		}()
		logger.Info("watching ingest roots", "roots", cfg.Ingest.Roots)
	}

	exporter := export.NewService(docs, entries, logger)
	api := server.New(logger, docs, entries, ingestor, queue, exporter, metrics)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("policyscand listening", "addr", cfg.Server.HTTPAddr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}
