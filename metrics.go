package slotstore

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems, or use
// PrometheusCollector.
type MetricsCollector interface {
	// RecordStoreCreated is called when a registry creates a store.
	// kind is "addressable" or "packed".
	RecordStoreCreated(kind string)

	// RecordBorrowConflict is called for every rejected borrow.
	RecordBorrowConflict(store string, want Access)

	// RecordStage is called after each stage run. slots is the number of
	// slots the stage visited, err is nil if successful.
	RecordStage(name string, slots int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordStoreCreated(string)                     {}
func (NoopMetricsCollector) RecordBorrowConflict(string, Access)           {}
func (NoopMetricsCollector) RecordStage(string, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	StoresCreated   atomic.Int64
	BorrowConflicts atomic.Int64
	StageRuns       atomic.Int64
	StageErrors     atomic.Int64
	StageSlots      atomic.Int64
	StageTotalNanos atomic.Int64
}

// RecordStoreCreated implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStoreCreated(string) {
	b.StoresCreated.Add(1)
}

// RecordBorrowConflict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBorrowConflict(string, Access) {
	b.BorrowConflicts.Add(1)
}

// RecordStage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStage(_ string, slots int, duration time.Duration, err error) {
	b.StageRuns.Add(1)
	b.StageSlots.Add(int64(slots))
	b.StageTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StageErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		StoresCreated:   b.StoresCreated.Load(),
		BorrowConflicts: b.BorrowConflicts.Load(),
		StageRuns:       b.StageRuns.Load(),
		StageErrors:     b.StageErrors.Load(),
		StageSlots:      b.StageSlots.Load(),
		StageAvgNanos:   b.getAvgStageNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgStageNanos() int64 {
	count := b.StageRuns.Load()
	if count == 0 {
		return 0
	}
	return b.StageTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	StoresCreated   int64
	BorrowConflicts int64
	StageRuns       int64
	StageErrors     int64
	StageSlots      int64
	StageAvgNanos   int64
}

// PrometheusCollector exports metrics through the Prometheus client.
type PrometheusCollector struct {
	storesCreated   *prometheus.CounterVec
	borrowConflicts *prometheus.CounterVec
	stageRuns       *prometheus.CounterVec
	stageSlots      *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
}

// NewPrometheusCollector registers the slotstore metrics with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		storesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slotstore_stores_created_total",
			Help: "Total number of stores created by registries",
		}, []string{"kind"}),
		borrowConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slotstore_borrow_conflicts_total",
			Help: "Total number of rejected store borrows",
		}, []string{"store", "access"}),
		stageRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slotstore_stage_runs_total",
			Help: "Total number of stage runs",
		}, []string{"stage", "status"}),
		stageSlots: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "slotstore_stage_slots_total",
			Help: "Total number of slots visited by stages",
		}, []string{"stage"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slotstore_stage_duration_seconds",
			Help:    "Duration of stage runs",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"stage"}),
	}
}

// RecordStoreCreated implements MetricsCollector.
func (p *PrometheusCollector) RecordStoreCreated(kind string) {
	p.storesCreated.WithLabelValues(kind).Inc()
}

// RecordBorrowConflict implements MetricsCollector.
func (p *PrometheusCollector) RecordBorrowConflict(store string, want Access) {
	p.borrowConflicts.WithLabelValues(store, want.String()).Inc()
}

// RecordStage implements MetricsCollector.
func (p *PrometheusCollector) RecordStage(name string, slots int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.stageRuns.WithLabelValues(name, status).Inc()
	p.stageSlots.WithLabelValues(name).Add(float64(slots))
	p.stageDuration.WithLabelValues(name).Observe(duration.Seconds())
}
