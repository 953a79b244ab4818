package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/slotstore"
	"github.com/hupe1980/slotstore/internal/resource"
)

var (
	// ErrUnknownStage is returned by Validate for a declaration naming a stage
	// that is not part of the pipeline.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrOrder is returned by Validate when insertion order contradicts a
	// Before or After declaration.
	ErrOrder = errors.New("stage order violates declaration")
)

type options struct {
	logger  *slotstore.Logger
	metrics slotstore.MetricsCollector
	limits  resource.Config
}

// Option configures a Pipeline.
type Option func(*options)

// WithMaxConcurrentStages caps how many stages run at once across all
// RunGroup calls of the pipeline.
func WithMaxConcurrentStages(n int64) Option {
	return func(o *options) {
		o.limits.MaxConcurrentStages = n
	}
}

// WithFrameRate paces Loop to at most fps frames per second with the given
// burst.
func WithFrameRate(fps float64, burst int) Option {
	return func(o *options) {
		o.limits.FramesPerSecond = fps
		o.limits.FrameBurst = burst
	}
}

// WithLogger overrides the logger taken from the registry. Pass nil to
// disable logging.
func WithLogger(l *slotstore.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slotstore.NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector overrides the metrics collector taken from the
// registry. Pass nil to disable metrics collection.
func WithMetricsCollector(mc slotstore.MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = slotstore.NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// Pipeline is an ordered list of stages.
type Pipeline struct {
	stages  []Stage
	logger  *slotstore.Logger
	metrics slotstore.MetricsCollector
	limits  *resource.Controller
}

// New creates an empty pipeline that logs and records metrics through reg.
// reg may be nil.
func New(reg *slotstore.Registry, optFns ...Option) *Pipeline {
	o := options{
		logger:  slotstore.NoopLogger(),
		metrics: slotstore.NoopMetricsCollector{},
		limits:  resource.Config{MaxConcurrentStages: 1 << 20},
	}
	if reg != nil {
		o.logger = reg.Logger()
		o.metrics = reg.Metrics()
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	return &Pipeline{
		logger:  o.logger,
		metrics: o.metrics,
		limits:  resource.NewController(o.limits),
	}
}

// Add appends stages and returns p.
func (p *Pipeline) Add(stages ...Stage) *Pipeline {
	p.stages = append(p.stages, stages...)
	return p
}

// Stages returns the stages in insertion order.
func (p *Pipeline) Stages() []Stage {
	return slices.Clone(p.stages)
}

// Validate checks the ordering declarations against insertion order.
func (p *Pipeline) Validate() error {
	index := make(map[string]int, len(p.stages))
	for i, s := range p.stages {
		index[s.Name()] = i
	}

	var errs []error
	for i, s := range p.stages {
		for _, name := range s.Before() {
			j, ok := index[name]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("%s before %s: %w", s.Name(), name, ErrUnknownStage))
			case j < i:
				errs = append(errs, fmt.Errorf("%s before %s: %w", s.Name(), name, ErrOrder))
			}
		}
		for _, name := range s.After() {
			j, ok := index[name]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("%s after %s: %w", s.Name(), name, ErrUnknownStage))
			case j > i:
				errs = append(errs, fmt.Errorf("%s after %s: %w", s.Name(), name, ErrOrder))
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) runStage(ctx context.Context, s Stage) error {
	start := time.Now()
	err := s.Run(ctx)
	elapsed := time.Since(start)

	var slots int
	if v, ok := s.(Visitor); ok {
		slots = v.Visited()
	}
	p.logger.LogStage(ctx, s.Name(), slots, elapsed, err)
	p.metrics.RecordStage(s.Name(), slots, elapsed, err)

	if err != nil {
		return fmt.Errorf("stage %s: %w", s.Name(), err)
	}
	return nil
}

// Run executes the stages sequentially in insertion order. Cancellation is
// observed between stages.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		if err := p.runStage(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// RunGroup executes stages concurrently, at most limit at a time (limit <= 0
// means no per-call limit). With no stages given it runs every stage of the
// pipeline. Stages whose borrows conflict panic in their store cell.
func (p *Pipeline) RunGroup(ctx context.Context, limit int, stages ...Stage) error {
	if len(stages) == 0 {
		stages = p.stages
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, s := range stages {
		g.Go(func() error {
			if err := p.limits.AcquireStage(gctx); err != nil {
				return fmt.Errorf("stage %s: %w", s.Name(), err)
			}
			defer p.limits.ReleaseStage()
			return p.runStage(gctx, s)
		})
	}
	return g.Wait()
}

// Loop runs the pipeline frames times, or until ctx is done when frames <= 0,
// paced by the configured frame rate. It returns the number of completed
// frames.
func (p *Pipeline) Loop(ctx context.Context, frames int) (int, error) {
	var done int
	for frames <= 0 || done < frames {
		if err := p.limits.WaitFrame(ctx); err != nil {
			return done, err
		}
		if err := p.Run(ctx); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}
