package resource

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds pipeline resource limits.
type Config struct {
	// MaxConcurrentStages is the maximum number of stages running at once.
	// If 0, defaults to 1.
	MaxConcurrentStages int64

	// FramesPerSecond paces repeated pipeline runs.
	// If 0, unlimited.
	FramesPerSecond float64

	// FrameBurst is the number of frames that may run back to back after an
	// idle period. If 0, defaults to 1.
	FrameBurst int
}

// Controller manages pipeline resources (concurrency, frame rate).
type Controller struct {
	cfg Config

	stageSem *semaphore.Weighted
	frames   *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentStages <= 0 {
		cfg.MaxConcurrentStages = 1
	}
	if cfg.FrameBurst <= 0 {
		cfg.FrameBurst = 1
	}

	c := &Controller{
		cfg:      cfg,
		stageSem: semaphore.NewWeighted(cfg.MaxConcurrentStages),
	}

	if cfg.FramesPerSecond > 0 {
		c.frames = rate.NewLimiter(rate.Limit(cfg.FramesPerSecond), cfg.FrameBurst)
	}

	return c
}

// MaxConcurrentStages returns the configured stage concurrency.
func (c *Controller) MaxConcurrentStages() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxConcurrentStages
}

// AcquireStage reserves a stage slot. Blocks if all slots are busy.
func (c *Controller) AcquireStage(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.stageSem.Acquire(ctx, 1)
}

// TryAcquireStage attempts to reserve a stage slot without blocking.
func (c *Controller) TryAcquireStage() bool {
	if c == nil {
		return true
	}
	return c.stageSem.TryAcquire(1)
}

// ReleaseStage releases a stage slot.
func (c *Controller) ReleaseStage() {
	if c == nil {
		return
	}
	c.stageSem.Release(1)
}

// WaitFrame blocks until the frame limiter admits the next frame.
func (c *Controller) WaitFrame(ctx context.Context) error {
	if c == nil || c.frames == nil {
		return ctx.Err()
	}
	return c.frames.Wait(ctx)
}

// TryFrame reports whether a frame may start now, consuming a token if so.
func (c *Controller) TryFrame() bool {
	if c == nil || c.frames == nil {
		return true
	}
	return c.frames.AllowN(time.Now(), 1)
}
