// Package server exposes the decode service over HTTP.
package server

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/acmefin/policyscan/internal/async"
	"github.com/acmefin/policyscan/internal/common"
	"github.com/acmefin/policyscan/internal/export"
	"github.com/acmefin/policyscan/internal/ingest"
	"github.com/acmefin/policyscan/internal/ocr"
	"github.com/acmefin/policyscan/internal/repository"
)

// Server wires the HTTP API to the ingest, queue, and repository layers.
type Server struct {
	logger   *slog.Logger
	docs     repository.DocumentRepository
	entries  repository.EntryRepository
	ingestor ingest.Ingestor
	queue    async.Queue
	exporter *export.Service
	metrics  *Metrics
}

func New(logger *slog.Logger, docs repository.DocumentRepository, entries repository.EntryRepository, ingestor ingest.Ingestor, queue async.Queue, exporter *export.Service, metrics *Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:   logger,
		docs:     docs,
		entries:  entries,
		ingestor: ingestor,
		queue:    queue,
		exporter: exporter,
		metrics:  metrics,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/documents", s.submitDocument)
		v1.GET("/documents", s.listDocuments)
		v1.GET("/documents/:id", s.getDocument)
		v1.GET("/documents/:id/entries", s.listEntries)
		v1.GET("/documents/:id/export", s.exportDocument)
		v1.POST("/decode", s.decodeInline)
	}
	return r
}

type submitRequest struct {
	Path    string `json:"path" binding:"required"`
	Correct bool   `json:"correct"`
	Force   bool   `json:"force"`
}

type submitResponse struct {
	DocumentID   string `json:"documentId"`
	Deduplicated bool   `json:"deduplicated"`
	Status       string `json:"status"`
}

// submitDocument ingests a scan file and queues it for background decoding.
// POST /v1/documents
func (s *Server) submitDocument(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.ingestor.IngestPath(c.Request.Context(), req.Path)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if s.metrics != nil {
		s.metrics.RecordIngest(res.Deduplicated)
	}

	id, err := uuid.Parse(res.DocumentID)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if err := s.queue.Enqueue(c.Request.Context(), async.Job{
		DocumentID:  id,
		Correct:     req.Correct,
		Force:       req.Force,
		SubmittedAt: time.Now().UTC(),
	}); err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, submitResponse{
		DocumentID:   res.DocumentID,
		Deduplicated: res.Deduplicated,
		Status:       "queued",
	})
}

type documentView struct {
	ID          string         `json:"id"`
	SourcePath  string         `json:"sourcePath"`
	Filename    string         `json:"filename"`
	Status      string         `json:"status"`
	IngestedAt  time.Time      `json:"ingestedAt"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
	ByStatus    map[string]int `json:"byStatus,omitempty"`
}

func viewOf(d *repository.Document) documentView {
	return documentView{
		ID:          d.ID.String(),
		SourcePath:  d.SourcePath,
		Filename:    d.Filename,
		Status:      string(d.Status),
		IngestedAt:  d.IngestedAt,
		ProcessedAt: d.ProcessedAt,
	}
}

// GET /v1/documents
func (s *Server) listDocuments(c *gin.Context) {
	all, err := s.docs.List(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	views := make([]documentView, len(all))
	for i, d := range all {
		views[i] = viewOf(d)
	}
	c.JSON(http.StatusOK, gin.H{"documents": views})
}

// GET /v1/documents/:id
func (s *Server) getDocument(c *gin.Context) {
	id, ok := s.parseID(c)
	if !ok {
		return
	}
	doc, err := s.docs.GetByID(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	counts, err := s.entries.CountByStatus(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	view := viewOf(doc)
	view.ByStatus = counts
	c.JSON(http.StatusOK, view)
}

type entryView struct {
	Seq    int    `json:"seq"`
	Raw    string `json:"raw"`
	Result string `json:"result"`
	Status string `json:"status"`
}

// GET /v1/documents/:id/entries
func (s *Server) listEntries(c *gin.Context) {
	id, ok := s.parseID(c)
	if !ok {
		return
	}
	if _, err := s.docs.GetByID(c.Request.Context(), id); err != nil {
		s.abortWithError(c, err)
		return
	}
	rows, err := s.entries.ListByDocument(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	views := make([]entryView, len(rows))
	for i, e := range rows {
		views[i] = entryView{Seq: e.Seq, Raw: e.Raw, Result: e.Result, Status: e.Status}
	}
	c.JSON(http.StatusOK, gin.H{"entries": views})
}

// GET /v1/documents/:id/export
func (s *Server) exportDocument(c *gin.Context) {
	id, ok := s.parseID(c)
	if !ok {
		return
	}
	data, err := s.exporter.ExportEntriesXLSX(c.Request.Context(), []uuid.UUID{id})
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	filename := "entries-" + id.String() + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

type decodeRequest struct {
	Text    string `json:"text" binding:"required"`
	Correct bool   `json:"correct"`
}

type decodeResponse struct {
	Lines []string `json:"lines"`
}

// decodeInline decodes scan text synchronously without persisting anything.
// POST /v1/decode
func (s *Server) decodeInline(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scanned, err := ocr.ReadDocument(strings.NewReader(req.Text))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	lines := make([]string, 0, len(scanned))
	for _, e := range scanned {
		var line string
		if req.Correct {
			number, tag, cerr := ocr.Correct(e)
			if cerr != nil {
				s.abortWithError(c, cerr)
				return
			}
			line = ocr.Line(number, tag)
		} else {
			number, perr := ocr.ParseEntry(e)
			if perr != nil {
				s.abortWithError(c, perr)
				return
			}
			line = ocr.Format(number)
		}
		lines = append(lines, line)
	}
	c.JSON(http.StatusOK, decodeResponse{Lines: lines})
}

func (s *Server) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status := httpStatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// httpStatusFor widens the sentinel mapping with filesystem misses, which
// reach the API when a submitted path does not exist.
func httpStatusFor(err error) int {
	if errors.Is(err, fs.ErrNotExist) {
		return http.StatusBadRequest
	}
	return common.HTTPStatus(err)
}
