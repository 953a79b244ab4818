package slotstore

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBasicMetricsCollector(t *testing.T) {
	m := &BasicMetricsCollector{}

	m.RecordStoreCreated(kindAddressable)
	m.RecordBorrowConflict("s", Exclusive)
	m.RecordStage("move", 3, 10*time.Nanosecond, nil)
	m.RecordStage("move", 5, 30*time.Nanosecond, errors.New("x"))

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats.StoresCreated)
	assert.Equal(t, int64(1), stats.BorrowConflicts)
	assert.Equal(t, int64(2), stats.StageRuns)
	assert.Equal(t, int64(1), stats.StageErrors)
	assert.Equal(t, int64(8), stats.StageSlots)
	assert.Equal(t, int64(20), stats.StageAvgNanos)

	assert.Equal(t, int64(0), (&BasicMetricsCollector{}).GetStats().StageAvgNanos)
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusCollector(reg)

	m.RecordStoreCreated(kindPacked)
	m.RecordStoreCreated(kindPacked)
	m.RecordBorrowConflict("addressable[int]", Shared)
	m.RecordStage("move", 3, time.Millisecond, nil)
	m.RecordStage("move", 2, time.Millisecond, errors.New("x"))

	assert.Equal(t, 2.0, promtest.ToFloat64(m.storesCreated.WithLabelValues(kindPacked)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.borrowConflicts.WithLabelValues("addressable[int]", "shared")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.stageRuns.WithLabelValues("move", "ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.stageRuns.WithLabelValues("move", "error")))
	assert.Equal(t, 5.0, promtest.ToFloat64(m.stageSlots.WithLabelValues("move")))

	count, err := promtest.GatherAndCount(reg, "slotstore_stage_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNoopMetricsCollector(t *testing.T) {
	var m MetricsCollector = NoopMetricsCollector{}
	m.RecordStoreCreated(kindPacked)
	m.RecordBorrowConflict("s", Shared)
	m.RecordStage("s", 1, time.Second, nil)
}
