package slotstore

import (
	"log/slog"

	"github.com/hupe1980/slotstore/arena"
	"github.com/hupe1980/slotstore/store"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	arena            *arena.Arena
	arenaSet         bool
	arenaChunkSize   int
	leafCapacity     int
}

// Option configures a Registry.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &slotstore.BasicMetricsCollector{}
//	reg := slotstore.New(slotstore.WithMetricsCollector(metrics))
//	// ... use reg ...
//	stats := metrics.GetStats()
//	fmt.Printf("Stages: %d, Avg latency: %dns\n", stats.StageRuns, stats.StageAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := slotstore.NewJSONLogger(slog.LevelInfo)
//	reg := slotstore.New(slotstore.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithArena makes every store of the registry allocate from a. The registry
// does not free an arena it was given. A nil arena allocates on the heap.
func WithArena(a *arena.Arena) Option {
	return func(o *options) {
		o.arena = a
		o.arenaSet = true
	}
}

// WithArenaChunkSize sets the chunk size of the arena the registry creates
// when no arena is given.
func WithArenaChunkSize(size int) Option {
	return func(o *options) {
		o.arenaChunkSize = size
	}
}

// WithLeafCapacity sets the initial value capacity of packed leaves.
func WithLeafCapacity(n int) Option {
	return func(o *options) {
		o.leafCapacity = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		arenaChunkSize:   arena.DefaultChunkSize,
		leafCapacity:     store.DefaultLeafCapacity,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
