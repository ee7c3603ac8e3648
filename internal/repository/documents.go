package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/acmefin/policyscan/constants"
	"github.com/acmefin/policyscan/internal/common"
)

// Document is one ingested scan file.
type Document struct {
	ID          uuid.UUID
	SourcePath  string
	Filename    string
	FileExt     string
	FileSize    int64
	ContentHash []byte
	Status      constants.JobStatus
	IngestedAt  time.Time
	ProcessedAt *time.Time
}

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	GetByHash(ctx context.Context, hash []byte) (*Document, error)
	Create(ctx context.Context, sourcePath, filename, ext string, size int64, hash []byte, ingestedAt time.Time) (*Document, error)
	// UpsertByHash returns the existing document when the content hash is
	// already known; the bool reports deduplication.
	UpsertByHash(ctx context.Context, sourcePath, filename, ext string, size int64, hash []byte, ingestedAt time.Time) (*Document, bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus, processedAt *time.Time) error
	List(ctx context.Context) ([]*Document, error)
}

type documentRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *sql.DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

const documentColumns = `id, source_path, filename, file_ext, file_size, content_hash, status, ingested_at, processed_at`

func scanDocument(row *sql.Row) (*Document, error) {
	var d Document
	var id string
	var processedAt sql.NullTime
	err := row.Scan(&id, &d.SourcePath, &d.Filename, &d.FileExt, &d.FileSize, &d.ContentHash, &d.Status, &d.IngestedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	d.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse document id %q: %w", id, err)
	}
	if processedAt.Valid {
		t := processedAt.Time
		d.ProcessedAt = &t
	}
	return &d, nil
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id.String())
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get document", "document_id", id, "error", err)
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (r *documentRepo) GetByHash(ctx context.Context, hash []byte) (*Document, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ?`, hash)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document by hash: %w", common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get document by hash", "error", err)
		return nil, fmt.Errorf("get document by hash: %w", err)
	}
	return d, nil
}

func (r *documentRepo) Create(ctx context.Context, sourcePath, filename, ext string, size int64, hash []byte, ingestedAt time.Time) (*Document, error) {
	d := &Document{
		ID:          uuid.New(),
		SourcePath:  sourcePath,
		Filename:    filename,
		FileExt:     ext,
		FileSize:    size,
		ContentHash: hash,
		Status:      constants.JobStatusQueued,
		IngestedAt:  ingestedAt.UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		d.ID.String(), d.SourcePath, d.Filename, d.FileExt, d.FileSize, d.ContentHash, string(d.Status), d.IngestedAt)
	if err != nil {
		r.logger.Error("failed to create document", "source_path", sourcePath, "error", err)
		return nil, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}

func (r *documentRepo) UpsertByHash(ctx context.Context, sourcePath, filename, ext string, size int64, hash []byte, ingestedAt time.Time) (*Document, bool, error) {
	if existing, err := r.GetByHash(ctx, hash); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}
	d, err := r.Create(ctx, sourcePath, filename, ext, size, hash, ingestedAt)
	if err != nil {
		return nil, false, err
	}
	return d, false, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus, processedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, processed_at = ? WHERE id = ?`,
		string(status), processedAt, id.String())
	if err != nil {
		r.logger.Error("failed to update document status", "document_id", id, "status", status, "error", err)
		return fmt.Errorf("update document status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *documentRepo) List(ctx context.Context) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY ingested_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		var d Document
		var id string
		var processedAt sql.NullTime
		if err := rows.Scan(&id, &d.SourcePath, &d.Filename, &d.FileExt, &d.FileSize, &d.ContentHash, &d.Status, &d.IngestedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if d.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse document id %q: %w", id, err)
		}
		if processedAt.Valid {
			t := processedAt.Time
			d.ProcessedAt = &t
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
