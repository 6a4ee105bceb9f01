package pipeline

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewPool tests the Pool constructor.
func TestNewPool(t *testing.T) {
	t.Parallel()

	t.Run("defaults to GOMAXPROCS", func(t *testing.T) {
		t.Parallel()
		if got := NewPool().Concurrency(); got != runtime.GOMAXPROCS(0) {
			t.Errorf("expected %d, got %d", runtime.GOMAXPROCS(0), got)
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()
		if got := NewPool(WithConcurrency(3)).Concurrency(); got != 3 {
			t.Errorf("expected 3, got %d", got)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()
		if got := NewPool(WithConcurrency(-1)).Concurrency(); got != runtime.GOMAXPROCS(0) {
			t.Errorf("expected default, got %d", got)
		}
	})
}

// TestPoolRun tests concurrent execution of units.
func TestPoolRun(t *testing.T) {
	t.Parallel()

	t.Run("runs every unit once", func(t *testing.T) {
		t.Parallel()

		results := make([]int, 100)
		err := NewPool(WithConcurrency(4)).Run(context.Background(), len(results), func(_ context.Context, i int) error {
			results[i] = i * i
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, v := range results {
			if v != i*i {
				t.Errorf("results[%d] = %d", i, v)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var running, peak atomic.Int32
		err := NewPool(WithConcurrency(2)).Run(context.Background(), 20, func(context.Context, int) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
		}
	})

	t.Run("returns first error", func(t *testing.T) {
		t.Parallel()

		unitErr := errors.New("unit failed")
		err := NewPool(WithConcurrency(1)).Run(context.Background(), 10, func(_ context.Context, i int) error {
			if i == 3 {
				return unitErr
			}
			return nil
		})
		if !errors.Is(err, unitErr) {
			t.Errorf("expected unit error, got %v", err)
		}
	})

	t.Run("cancelled context stops between units", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var calls atomic.Int32
		err := NewPool(WithConcurrency(1)).Run(ctx, 50, func(context.Context, int) error {
			if calls.Add(1) == 5 {
				cancel()
			}
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls.Load() >= 50 {
			t.Error("expected the run to stop early")
		}
	})

	t.Run("zero units", func(t *testing.T) {
		t.Parallel()
		if err := NewPool().Run(context.Background(), 0, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
