package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/acmefin/policyscan/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	docs    repository.DocumentRepository
	entries repository.EntryRepository
	logger  *slog.Logger
}

func NewService(docs repository.DocumentRepository, entries repository.EntryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, entries: entries, logger: logger}
}

// ExportEntriesXLSX returns an XLSX workbook (as bytes) with one row per
// decoded entry across the given documents, in document then sequence order.
func (s *Service) ExportEntriesXLSX(ctx context.Context, documentIDs []uuid.UUID) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Entries"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on Entries.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Document",
		"Seq",
		"Raw",
		"Result",
		"Status",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	total := 0
	for _, id := range documentIDs {
		doc, err := s.docs.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load document %s: %w", id, err)
		}
		rows, err := s.entries.ListByDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("query entries for %s: %w", id, err)
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		for _, e := range rows {
			write(1, doc.Filename)
			write(2, e.Seq)
			write(3, e.Raw)
			write(4, e.Result)
			write(5, e.Status)
			row++
			total++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 32) // document
	_ = f.SetColWidth(sheet, "B", "B", 6)  // seq
	_ = f.SetColWidth(sheet, "C", "D", 16) // raw/result
	_ = f.SetColWidth(sheet, "E", "E", 10) // status

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", len(documentIDs),
		"rows", total,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
