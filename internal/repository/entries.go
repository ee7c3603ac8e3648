package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entry is one decoded policy number belonging to a document.
type Entry struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Seq        int
	Raw        string // as parsed, digits and '?' sentinels
	Result     string // after correction; equals Raw when no repair applied
	Status     string // constants.EntryStatus* label
	CreatedAt  time.Time
}

type EntryRepository interface {
	// ReplaceForDocument atomically swaps a document's entries for the
	// given set, so reprocessing never leaves stale rows behind.
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, entries []*Entry) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*Entry, error)
	CountByStatus(ctx context.Context, documentID uuid.UUID) (map[string]int, error)
}

type entryRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewEntryRepository(db *sql.DB, logger *slog.Logger) EntryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &entryRepo{db: db, logger: logger}
}

func (r *entryRepo) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, entries []*Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE document_id = ?`, documentID.String()); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (id, document_id, seq, raw, result, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range entries {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.DocumentID = documentID
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, e.ID.String(), documentID.String(), e.Seq, e.Raw, e.Result, e.Status, e.CreatedAt); err != nil {
			return fmt.Errorf("insert entry %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Debug("entries replaced", "document_id", documentID, "count", len(entries))
	return nil
}

func (r *entryRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document_id, seq, raw, result, status, created_at
		 FROM entries WHERE document_id = ? ORDER BY seq`, documentID.String())
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var id, docID string
		if err := rows.Scan(&id, &docID, &e.Seq, &e.Raw, &e.Result, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse entry id %q: %w", id, err)
		}
		if e.DocumentID, err = uuid.Parse(docID); err != nil {
			return nil, fmt.Errorf("parse entry document id %q: %w", docID, err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *entryRepo) CountByStatus(ctx context.Context, documentID uuid.UUID) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM entries WHERE document_id = ? GROUP BY status`, documentID.String())
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
