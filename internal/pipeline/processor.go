package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/acmefin/policyscan/constants"
	"github.com/acmefin/policyscan/internal/ocr"
	"github.com/acmefin/policyscan/internal/repository"
)

// Options controls one document run.
type Options struct {
	Correct bool // run the single-cell repair search
	Force   bool // reprocess even if the document is already decoded
}

// Summary is the outcome of one document run.
type Summary struct {
	DocumentID uuid.UUID
	Total      int
	ByStatus   map[string]int
	Lines      []string // one output line per entry, in document order
	Reused     bool     // true when stored results were returned without reprocessing
}

// Processor decodes a document's entries and persists the results.
type Processor struct {
	logger  *slog.Logger
	docs    repository.DocumentRepository
	entries repository.EntryRepository
	workers int
	observe func(Summary)
}

func NewProcessor(logger *slog.Logger, docs repository.DocumentRepository, entries repository.EntryRepository, workers int) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Processor{logger: logger, docs: docs, entries: entries, workers: workers}
}

// SetObserver registers a callback invoked after each processed document.
func (p *Processor) SetObserver(fn func(Summary)) {
	p.observe = fn
}

// ProcessDocument reads the document's scan file, decodes every entry
// (correcting when asked), and stores the results. Entries are
// independent, so they are decoded in parallel up to the worker limit.
func (p *Processor) ProcessDocument(ctx context.Context, documentID uuid.UUID, opts Options) (Summary, error) {
	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return Summary{}, err
	}

	if doc.Status == constants.JobStatusDecoded && !opts.Force {
		return p.storedSummary(ctx, documentID)
	}

	if err := p.docs.UpdateStatus(ctx, documentID, constants.JobStatusRunning, nil); err != nil {
		return Summary{}, err
	}

	sum, err := p.decode(ctx, doc, opts)
	if err != nil {
		p.logger.Error("pipeline.document.failed", "document_id", documentID, "error", err)
		if uerr := p.docs.UpdateStatus(ctx, documentID, constants.JobStatusFailed, nil); uerr != nil {
			p.logger.Error("failed to mark document failed", "document_id", documentID, "error", uerr)
		}
		return Summary{}, err
	}

	now := time.Now().UTC()
	if err := p.docs.UpdateStatus(ctx, documentID, constants.JobStatusDecoded, &now); err != nil {
		return Summary{}, err
	}

	p.logger.Info("pipeline.document.ok",
		"document_id", documentID,
		"entries", sum.Total,
		"by_status", sum.ByStatus,
		"corrected", opts.Correct,
	)
	if p.observe != nil {
		p.observe(sum)
	}
	return sum, nil
}

type outcome struct {
	raw    string
	result string
	status string
}

func (p *Processor) decode(ctx context.Context, doc *repository.Document, opts Options) (Summary, error) {
	f, err := os.Open(doc.SourcePath)
	if err != nil {
		return Summary{}, fmt.Errorf("open scan file: %w", err)
	}
	defer f.Close()

	scanned, err := ocr.ReadDocument(f)
	if err != nil {
		return Summary{}, err
	}

	outcomes := make([]outcome, len(scanned))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, e := range scanned {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := ocr.ParseEntry(e)
			if err != nil {
				return err
			}
			result, tag := raw, ocr.Classify(raw)
			if opts.Correct {
				if result, tag, err = ocr.Correct(e); err != nil {
					return err
				}
			}
			outcomes[i] = outcome{raw: raw, result: result, status: statusLabel(tag)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	rows := make([]*repository.Entry, len(outcomes))
	sum := Summary{
		DocumentID: doc.ID,
		Total:      len(outcomes),
		ByStatus:   make(map[string]int),
		Lines:      make([]string, len(outcomes)),
	}
	for i, o := range outcomes {
		rows[i] = &repository.Entry{Seq: i, Raw: o.raw, Result: o.result, Status: o.status}
		sum.ByStatus[o.status]++
		sum.Lines[i] = lineFor(o.result, o.status)
	}
	if err := p.entries.ReplaceForDocument(ctx, doc.ID, rows); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func (p *Processor) storedSummary(ctx context.Context, documentID uuid.UUID) (Summary, error) {
	rows, err := p.entries.ListByDocument(ctx, documentID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		DocumentID: documentID,
		Total:      len(rows),
		ByStatus:   make(map[string]int),
		Lines:      make([]string, len(rows)),
		Reused:     true,
	}
	for i, r := range rows {
		sum.ByStatus[r.Status]++
		sum.Lines[i] = lineFor(r.Result, r.Status)
	}
	return sum, nil
}

func statusLabel(tag ocr.Status) string {
	if tag == ocr.StatusNone {
		return constants.EntryStatusOK
	}
	return string(tag)
}

func lineFor(result, status string) string {
	if status == constants.EntryStatusOK {
		return result
	}
	return result + " " + status
}
