// Package metrics exposes Prometheus instrumentation for the import
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ImportMetrics counts pipeline outcomes per statement format.
type ImportMetrics struct {
	RowsParsed    *prometheus.CounterVec
	RowErrors     *prometheus.CounterVec
	FileFailures  *prometheus.CounterVec
	Duplicates    prometheus.Counter
	ParseDuration *prometheus.HistogramVec
}

// NewImportMetrics registers the import collectors on reg. Pass a fresh
// registry in tests to avoid duplicate registration.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	factory := promauto.With(reg)
	return &ImportMetrics{
		RowsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finly",
			Subsystem: "import",
			Name:      "rows_parsed_total",
			Help:      "Transactions successfully parsed from statements.",
		}, []string{"format"}),
		RowErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finly",
			Subsystem: "import",
			Name:      "row_errors_total",
			Help:      "Rows rejected with a row-level error.",
		}, []string{"format"}),
		FileFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "finly",
			Subsystem: "import",
			Name:      "file_failures_total",
			Help:      "Statements that failed to parse entirely.",
		}, []string{"format"}),
		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "finly",
			Subsystem: "import",
			Name:      "duplicates_flagged_total",
			Help:      "Preview rows flagged as probable re-imports.",
		}),
		ParseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "finly",
			Subsystem: "import",
			Name:      "parse_duration_seconds",
			Help:      "Wall time spent parsing a statement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
	}
}
