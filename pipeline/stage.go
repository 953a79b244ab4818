// Package pipeline turns batch functions over pairs of stores into runnable
// stages and runs them.
//
// A stage built with Join borrows two stores from a Registry, intersects their
// presence, optionally keeps only slots present in at least one filter store,
// and calls the batch function once per paired run:
//
//	move := pipeline.JoinMut(reg, func(p view.MutView[Position], v view.View[Velocity]) {
//	    ps := p.Slice()
//	    for k := range ps {
//	        ps[k].X += v.At(k).DX
//	    }
//	}).Named("move").Build()
//
//	p := pipeline.New(reg).Add(move)
//	err := p.Run(ctx)
//
// Stages declare ordering constraints (Before, After) and store access (Reads,
// Writes). Run executes stages in insertion order and does not reorder them;
// Validate checks that ordering constraints name known stages and agree with
// that order.
package pipeline

import (
	"context"
)

// Stage is one runnable unit of a pipeline.
type Stage interface {
	// Name identifies the stage in ordering declarations, logs and metrics.
	Name() string
	// Run executes the stage once.
	Run(ctx context.Context) error
	// Before lists stages this stage must run before.
	Before() []string
	// After lists stages this stage must run after.
	After() []string
	// Reads lists the stores the stage borrows shared.
	Reads() []string
	// Writes lists the stores the stage borrows exclusively.
	Writes() []string
}

// Visitor is implemented by stages that report how many slots their last run
// visited.
type Visitor interface {
	Visited() int
}

// decl holds the declarations shared by every stage kind.
type decl struct {
	name   string
	before []string
	after  []string
	reads  []string
	writes []string
}

func (d *decl) Name() string     { return d.name }
func (d *decl) Before() []string { return d.before }
func (d *decl) After() []string  { return d.after }
func (d *decl) Reads() []string  { return d.reads }
func (d *decl) Writes() []string { return d.writes }

// FuncStage adapts a plain function to a Stage.
type FuncStage struct {
	decl
	fn func(ctx context.Context) error
}

// Func returns a stage that calls fn.
func Func(name string, fn func(ctx context.Context) error) *FuncStage {
	return &FuncStage{decl: decl{name: name}, fn: fn}
}

// Run implements Stage.
func (s *FuncStage) Run(ctx context.Context) error { return s.fn(ctx) }

// RunsBefore adds ordering constraints and returns s.
func (s *FuncStage) RunsBefore(names ...string) *FuncStage {
	s.before = append(s.before, names...)
	return s
}

// RunsAfter adds ordering constraints and returns s.
func (s *FuncStage) RunsAfter(names ...string) *FuncStage {
	s.after = append(s.after, names...)
	return s
}
