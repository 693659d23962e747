// Package metrics exposes prometheus instrumentation for the counting
// pipeline. The registry is injectable so tests and embedders can keep
// their own; DefaultRegistry serves the common single-process case.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for the pipeline
type Registry struct {
	// Adjusted-count engine
	RecordsConsumedTotal  prometheus.Counter
	RecordsCollapsedTotal prometheus.Counter
	FramesFlushedTotal    *prometheus.CounterVec
	AdjustDuration        prometheus.Histogram

	// Spill layer
	SpillBytesTotal       *prometheus.CounterVec
	SpillCompressionRatio prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.RecordsConsumedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ngram_records_consumed_total",
			Help: "Top-order records consumed by the adjusted-count engine",
		},
	)

	r.RecordsCollapsedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "ngram_records_collapsed_total",
			Help: "Top-order records removed by the sentence-boundary filter",
		},
	)

	r.FramesFlushedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngram_frames_flushed_total",
			Help: "Lower-order records emitted by the adjusted-count engine",
		},
		[]string{"order"},
	)

	r.AdjustDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ngram_adjust_duration_seconds",
			Help:    "Wall time of one adjusted-count engine run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
	)

	r.SpillBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ngram_spill_bytes_total",
			Help: "Bytes moved through spill files",
		},
		[]string{"direction"},
	)

	r.SpillCompressionRatio = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "ngram_spill_compression_ratio",
			Help: "Compressed/raw byte ratio of the most recent spill",
		},
	)

	return r
}

// Registry returns the underlying prometheus registry for exposition.
func (r *Registry) Registry() *prometheus.Registry {
	return r.registry
}

// RecordAdjustRun records the totals of one engine run.
func (r *Registry) RecordAdjustRun(consumed, collapsed uint64, duration time.Duration) {
	r.RecordsConsumedTotal.Add(float64(consumed))
	r.RecordsCollapsedTotal.Add(float64(collapsed))
	r.AdjustDuration.Observe(duration.Seconds())
}

// RecordFramesFlushed records emitted lower-order records for one order.
func (r *Registry) RecordFramesFlushed(order int, n uint64) {
	r.FramesFlushedTotal.WithLabelValues(strconv.Itoa(order)).Add(float64(n))
}

// RecordSpill records one finished spill write.
func (r *Registry) RecordSpill(bytesRaw, bytesCompressed uint64) {
	r.SpillBytesTotal.WithLabelValues("raw").Add(float64(bytesRaw))
	r.SpillBytesTotal.WithLabelValues("compressed").Add(float64(bytesCompressed))
	if bytesRaw > 0 {
		r.SpillCompressionRatio.Set(float64(bytesCompressed) / float64(bytesRaw))
	}
}
