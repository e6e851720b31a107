package graph

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SafeGo runs fn in a goroutine tracked by wg. A panic in fn is recovered
// and handed to onPanic.
func SafeGo(wg *sync.WaitGroup, fn func(), onPanic func(any)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if p := recover(); p != nil && onPanic != nil {
				onPanic(p)
			}
		}()
		fn()
	}()
}

// ScatterResult is the outcome of one scattered input.
type ScatterResult[T, R any] struct {
	Input    T
	Output   R
	Err      error
	Duration time.Duration
}

// ScatterStats summarises a Scatter call.
type ScatterStats struct {
	// Total is the wall-clock time from dispatch to the join barrier.
	Total time.Duration
	// Sum adds up the individual durations.
	Sum time.Duration
	// Slowest is the longest individual duration.
	Slowest time.Duration
}

// Average is the mean individual duration.
func (s ScatterStats) Average(n int) time.Duration {
	if n == 0 {
		return 0
	}
	return s.Sum / time.Duration(n)
}

// Speedup is Sum divided by Total, the gain over running sequentially.
func (s ScatterStats) Speedup() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Total)
}

// Scatter runs fn once per input, each on its own goroutine, and waits for
// all of them. Results are returned in input order, one per input. The
// returned error is the first failure in input order; results of the other
// inputs are still returned.
func Scatter[T, R any](ctx context.Context, inputs []T, fn func(ctx context.Context, in T) (R, error)) ([]ScatterResult[T, R], ScatterStats, error) {
	results := make([]ScatterResult[T, R], len(inputs))
	start := time.Now()

	var wg sync.WaitGroup
	for i, in := range inputs {
		results[i].Input = in
		SafeGo(&wg, func() {
			t0 := time.Now()
			defer func() { results[i].Duration = time.Since(t0) }()
			results[i].Output, results[i].Err = fn(ctx, in)
		}, func(p any) {
			results[i].Err = fmt.Errorf("panic in scattered task %d: %v", i, p)
		})
	}
	wg.Wait()

	stats := ScatterStats{Total: time.Since(start)}
	var firstErr error
	for _, r := range results {
		stats.Sum += r.Duration
		if r.Duration > stats.Slowest {
			stats.Slowest = r.Duration
		}
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}
	}
	// Total never reports less than the slowest task.
	if stats.Total < stats.Slowest {
		stats.Total = stats.Slowest
	}
	return results, stats, firstErr
}
