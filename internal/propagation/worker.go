package propagation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WorkerPool manages a fixed number of goroutines for parallel SGP4 propagation.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// PropagateAll propagates every element set to t and returns the states
// index-aligned with elements.
func (wp *WorkerPool) PropagateAll(ctx context.Context, elements []*Elements, t time.Time) ([]OrbitalState, int) {
	out := make([]OrbitalState, len(elements))
	misses := wp.PropagateInto(ctx, elements, t, out)
	return out, misses
}

// PropagateInto writes the state of elements[i] at t into out[i] and returns
// the number of misses. out must be at least as long as elements. Slots
// not reached before ctx is cancelled are left invalid.
func (wp *WorkerPool) PropagateInto(ctx context.Context, elements []*Elements, t time.Time, out []OrbitalState) int {
	if len(elements) == 0 {
		return 0
	}
	out = out[:len(elements)]
	for i := range out {
		out[i] = OrbitalState{}
	}

	jobs := make(chan int, wp.workers*2)

	// Each worker owns the slots of the indices it receives, so writes never overlap.
	var wg sync.WaitGroup
	for w := 0; w < wp.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				out[idx] = Propagate(elements[idx], t)
			}
		}()
	}

	func() {
		defer close(jobs)
		for i := range elements {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	wg.Wait()

	misses := 0
	for i := range out {
		if !out[i].Valid {
			misses++
		}
	}
	if ctx.Err() != nil {
		wp.logger.Warn("propagation cancelled",
			"target_time", t.UTC().Format(time.RFC3339),
			"objects", len(elements),
			"misses", misses,
		)
	} else if misses > 0 {
		wp.logger.Debug("propagation misses",
			"target_time", t.UTC().Format(time.RFC3339),
			"objects", len(elements),
			"misses", misses,
		)
	}
	return misses
}
