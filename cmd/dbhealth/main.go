package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	repo "github.com/acmefin/policyscan/internal/repository"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		log.Println("ERROR: DB_PATH env var is required")
		log.Println("  mac/Linux (bash/zsh): export DB_PATH=/var/lib/policyscan/policyscan.db")
		log.Println("  Windows (PowerShell): $env:DB_PATH='C:\\policyscan\\policyscan.db'")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repo.Open(ctx, repo.Config{
		Path:        dbPath,
		BusyTimeout: 5 * time.Second,
	}, nil)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer repo.Close(db, nil)

	if err := repo.HealthCheck(ctx, db, 1*time.Second, nil); err != nil {
		log.Fatalf("DB health: FAIL (%v)", err)
	}
	log.Println("DB health: OK")

	var documents, entries int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&documents); err != nil {
		log.Fatalf("counting documents: %v", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&entries); err != nil {
		log.Fatalf("counting entries: %v", err)
	}

	log.Printf("documents: %d", documents)
	log.Printf("entries: %d", entries)
}
