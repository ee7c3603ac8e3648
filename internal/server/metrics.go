package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acmefin/policyscan/internal/pipeline"
)

const metricsNamespace = "policyscan"

// Metrics holds the Prometheus instruments for the decode service.
// All operations are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	// DocumentsIngested counts accepted uploads. Labels: dedup (hit, miss)
	DocumentsIngested *prometheus.CounterVec

	// DocumentsProcessed counts finished pipeline runs. Labels: status (decoded, failed)
	DocumentsProcessed *prometheus.CounterVec

	// EntriesDecoded counts decoded entries. Labels: status (OK, ILL, ERR, AMB)
	EntriesDecoded *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "documents_ingested_total",
				Help:      "Documents accepted for decoding, by content-hash dedup outcome",
			},
			[]string{"dedup"},
		),
		DocumentsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "documents_processed_total",
				Help:      "Pipeline runs by terminal status",
			},
			[]string{"status"},
		),
		EntriesDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "entries_decoded_total",
				Help:      "Decoded entries by result status",
			},
			[]string{"status"},
		),
	}
}

// RecordIngest records one accepted upload.
func (m *Metrics) RecordIngest(deduplicated bool) {
	dedup := "miss"
	if deduplicated {
		dedup = "hit"
	}
	m.DocumentsIngested.WithLabelValues(dedup).Inc()
}

// ObserveSummary folds a pipeline run into the counters. Registered as the
// processor's observer so background jobs are counted too.
func (m *Metrics) ObserveSummary(sum pipeline.Summary) {
	m.DocumentsProcessed.WithLabelValues("decoded").Inc()
	for status, n := range sum.ByStatus {
		m.EntriesDecoded.WithLabelValues(status).Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
