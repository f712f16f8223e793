// Package executor builds and drains result-processor chains against a
// request and the resolved pipeline configuration, and bounds how many
// pipelines may run concurrently.
package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent pipeline execution (spec.md §5 "Scheduling
// model": "Multiple pipelines may run concurrently on distinct threads
// from a bounded worker pool; a configurable flag disables concurrency").
// Run acquires one of size slots for the duration of fn; RunMany fans a
// batch of independent pipeline executions out across the same bound.
type Pool struct {
	size int
	sem  *semaphore.Weighted
}

// NewPool creates a pool bounded at size concurrent executions. size <= 0
// means unbounded (safe-mode: concurrency disabled entirely is handled by
// the caller choosing not to use the pool at all, per
// pipeline.concurrent_mode=false).
func NewPool(size int) *Pool {
	if size <= 0 {
		return &Pool{size: 0}
	}
	return &Pool{size: size, sem: semaphore.NewWeighted(int64(size))}
}

// Size returns the pool's concurrency bound (0 = unbounded).
func (p *Pool) Size() int { return p.size }

// Run executes fn, blocking until a slot is free or ctx is canceled.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.sem == nil {
		return fn(ctx)
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("executor: acquire pool slot: %w", err)
	}
	defer p.sem.Release(1)
	return fn(ctx)
}

// RunMany runs every fn concurrently, bounded by the pool's size, and
// returns the first error encountered (if any), canceling the shared
// context for the remaining in-flight work — the same fan-out-with-limit
// shape as a bounded authorization check batch.
func (p *Pool) RunMany(ctx context.Context, fns []func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if p.size > 0 {
		g.SetLimit(p.size)
	}
	for _, fn := range fns {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("executor: run batch: %w", err)
	}
	return nil
}
