package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs independent comparison units concurrently.
//
// A unit is identified by its index and must only write to its own slot of
// a pre-allocated result slice; the pool never hands out shared mutable
// state. errgroup.SetLimit bounds the number of running goroutines.
type Pool struct {
	concurrency int
	logger      *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets a custom logger for the pool.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent units.
// Default is runtime.GOMAXPROCS(0) if not specified.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewPool creates a new Pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Concurrency returns the configured worker limit.
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// Run calls fn for every index in [0, n) with at most Concurrency calls in
// flight. Cancellation is checked before each unit starts, so an expired
// context stops the run between units. The first error cancels the
// remaining units and is returned.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return fn(gctx, i)
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Debug("pool run stopped", "units", n, "error", err)
		return err
	}
	return ctx.Err()
}
