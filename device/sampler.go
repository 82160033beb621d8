package device

import (
	"context"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MaxFrameBudget caps sampled frame time so a single stall cannot dominate.
const MaxFrameBudget = 50 * time.Millisecond

// FrameSampler collects frame durations pushed by the render loop.
// RecordFrame never blocks; samples beyond the buffer are dropped.
type FrameSampler struct {
	ch chan time.Duration
}

// NewFrameSampler creates a sampler buffering up to capacity frames.
func NewFrameSampler(capacity int) *FrameSampler {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameSampler{ch: make(chan time.Duration, capacity)}
}

// RecordFrame offers one frame duration.
func (s *FrameSampler) RecordFrame(d time.Duration) {
	select {
	case s.ch <- d:
	default:
	}
}

// Average waits for n frames and returns their mean, capped at
// MaxFrameBudget. It returns ctx.Err() if the context ends first.
func (s *FrameSampler) Average(ctx context.Context, n int) (time.Duration, error) {
	if n < 1 {
		n = 1
	}
	samples := make([]float64, 0, n)
	for len(samples) < n {
		select {
		case d := <-s.ch:
			samples = append(samples, float64(d))
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	avg := time.Duration(stat.Mean(samples, nil))
	return min(avg, MaxFrameBudget), nil
}
