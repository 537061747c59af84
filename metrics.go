package murr

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// tableMetrics mirrors the teacher's per-table metrics struct (frostdb's
// tableMetrics): counters and histograms registered once per table, under
// a registerer already labeled with the table name.
type tableMetrics struct {
	segmentsWritten prometheus.Counter
	rowsWritten     prometheus.Counter
	rebuilds        prometheus.Counter
	rebuildFailures prometheus.Counter
	rebuildDuration prometheus.Histogram
	gatherDuration  prometheus.Histogram
	rowsInSnapshot  prometheus.Gauge
}

func newTableMetrics(reg prometheus.Registerer) *tableMetrics {
	reg = prometheus.WrapRegistererWith(prometheus.Labels{}, reg)
	return &tableMetrics{
		segmentsWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "segments_written_total",
			Help: "Number of segment files committed to this table.",
		}),
		rowsWritten: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rows_written_total",
			Help: "Number of rows written to this table across all writes.",
		}),
		rebuilds: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rebuilds_total",
			Help: "Number of successful snapshot rebuilds.",
		}),
		rebuildFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "rebuild_failures_total",
			Help: "Number of rebuilds that failed, leaving the prior snapshot in place.",
		}),
		rebuildDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "rebuild_duration_seconds",
			Help:    "Time to list, open, and index a new snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		gatherDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "gather_duration_seconds",
			Help:    "Time to resolve keys and gather requested columns.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		rowsInSnapshot: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "rows_in_snapshot",
			Help: "Total row count across all segments in the current snapshot.",
		}),
	}
}
