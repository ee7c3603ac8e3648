package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/acmefin/policyscan/internal/export"
	"github.com/acmefin/policyscan/internal/ingest"
	"github.com/acmefin/policyscan/internal/manifest"
	"github.com/acmefin/policyscan/internal/pipeline"
	"github.com/acmefin/policyscan/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type job struct {
	id      uuid.UUID
	correct bool
}

func main() {
	// Parse CLI flags
	var (
		in           = flag.String("in", "", "single scan file to decode")
		dir          = flag.String("dir", "", "directory to decode scan files from")
		manifestPath = flag.String("manifest", "", "JSON manifest naming the scan files")
		correct      = flag.Bool("correct", false, "attempt single-cell repair of invalid numbers")
		dbPath       = flag.String("db", ":memory:", "SQLite database path")
		out          = flag.String("out", "", "output XLSX file path (optional)")
		workers      = flag.Int("workers", 4, "entry decode parallelism per document")
	)
	flag.Parse()

	if *in == "" && *dir == "" && *manifestPath == "" {
		printError("Error: one of --in, --dir or --manifest is required\n")
		os.Exit(1)
	}

	// Decoded lines go to stdout; logs stay on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := repository.Open(ctx, repository.Config{Path: *dbPath}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", *dbPath)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	docs := repository.NewDocumentRepository(db, logger)
	entries := repository.NewEntryRepository(db, logger)
	ingestor := ingest.NewFSIngestor(docs, logger)
	processor := pipeline.NewProcessor(logger, docs, entries, *workers)

	var jobs []job
	addJob := func(res ingest.IngestionResult, correct bool) {
		id, err := uuid.Parse(res.DocumentID)
		if err != nil {
			logger.Error("failed to parse document ID", "document_id", res.DocumentID, "error", err)
			return
		}
		jobs = append(jobs, job{id: id, correct: correct})
	}

	if *in != "" {
		res, err := ingestor.IngestPath(ctx, *in)
		if err != nil {
			logger.Error("failed to ingest file", "path", *in, "error", err)
			os.Exit(1)
		}
		addJob(res, *correct)
	}

	if *dir != "" {
		results, stats, err := ingestor.IngestDirectory(ctx, *dir, true)
		if err != nil {
			logger.Error("failed to ingest directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
		logger.Info("ingestion complete",
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"succeeded", stats.Succeeded,
			"failed", stats.Failed,
			"deduplicated", stats.Deduplicated)
		for _, res := range results {
			if res.Err == "" {
				addJob(res, *correct)
			}
		}
	}

	if *manifestPath != "" {
		m, err := manifest.Load(*manifestPath)
		if err != nil {
			logger.Error("failed to load manifest", "path", *manifestPath, "error", err)
			os.Exit(1)
		}
		if *out == "" {
			*out = m.Output
		}
		for _, d := range m.Documents {
			res, err := ingestor.IngestPath(ctx, d.Path)
			if err != nil {
				logger.Error("failed to ingest manifest entry", "path", d.Path, "error", err)
				os.Exit(1)
			}
			addJob(res, *correct || d.Correct)
		}
	}

	processed := 0
	failures := 0
	var exported []uuid.UUID
	seen := make(map[uuid.UUID]bool)

	for _, j := range jobs {
		sum, err := processor.ProcessDocument(ctx, j.id, pipeline.Options{Correct: j.correct})
		if err != nil {
			logger.Error("failed to process document", "document_id", j.id, "error", err)
			failures++
			continue
		}
		processed++
		if !seen[j.id] {
			seen[j.id] = true
			exported = append(exported, j.id)
		}
		for _, line := range sum.Lines {
			fmt.Println(line)
		}
	}

	if *out != "" && len(exported) > 0 {
		exportService := export.NewService(docs, entries, logger)
		xlsxBytes, err := exportService.ExportEntriesXLSX(ctx, exported)
		if err != nil {
			logger.Error("failed to export entries", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
			logger.Error("failed to write output file", "path", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("exported workbook", "path", *out, "documents", len(exported))
	}

	logger.Info("batch complete",
		"documents_processed", processed,
		"failures", failures)
	if failures > 0 {
		os.Exit(1)
	}
}
