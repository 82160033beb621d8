package device

import (
	"context"
	"log/slog"
	"time"
)

// Prober turns environment signals into a DetectionResult. It never returns
// an error: failed or panicking reads count as unavailable.
type Prober struct {
	Env     Environment
	Sampler *FrameSampler
	Policy  Policy

	// AsyncTimeout bounds each async signal.
	AsyncTimeout time.Duration
	// SampleFrames is the number of frames averaged by DetectAsync.
	SampleFrames int
}

// NewProber creates a prober with default policy and timing.
func NewProber(env Environment, sampler *FrameSampler) *Prober {
	return &Prober{
		Env:          env,
		Sampler:      sampler,
		Policy:       DefaultPolicy(),
		AsyncTimeout: time.Second,
		SampleFrames: 30,
	}
}

// DetectSync classifies using only signals available without waiting.
func (p *Prober) DetectSync() DetectionResult {
	return p.Policy.Evaluate(p.snapshot())
}

// DetectAsync adds battery state and a sampled frame time, each bounded by
// AsyncTimeout. If neither resolves, the synchronous result is returned.
func (p *Prober) DetectAsync(ctx context.Context) DetectionResult {
	base := p.snapshot()
	syncResult := p.Policy.Evaluate(base)
	if base.Headless {
		return syncResult
	}

	// Both signals share one deadline. The channels are buffered so a callee
	// that ignores its context can still finish after we stop listening.
	wctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	batteryCh := make(chan BatteryState, 1)
	frameCh := make(chan time.Duration, 1)

	go func() {
		b := BatteryUnknown
		defer func() {
			recover()
			batteryCh <- b
		}()
		if v, err := p.Env.Battery(wctx); err == nil {
			b = v
		}
	}()

	go func() {
		var d time.Duration
		defer func() {
			recover()
			frameCh <- d
		}()
		if p.Sampler == nil {
			return
		}
		if v, err := p.Sampler.Average(wctx, p.SampleFrames); err == nil {
			d = v
		}
	}()

	battery := await(wctx, batteryCh, BatteryUnknown)
	frame := await(wctx, frameCh, 0)
	if battery == BatteryUnknown && frame == 0 {
		slog.Debug("async probe fell back to sync result")
		return syncResult
	}

	base.Battery = battery
	base.FrameBudget = frame
	return p.Policy.Evaluate(base)
}

// await returns the value sent on ch, or fallback once ctx is done.
func await[T any](ctx context.Context, ch <-chan T, fallback T) T {
	select {
	case v := <-ch:
		return v
	case <-ctx.Done():
		return fallback
	}
}

func (p *Prober) timeout() time.Duration {
	if p.AsyncTimeout <= 0 {
		return time.Second
	}
	return p.AsyncTimeout
}

// snapshot reads every synchronous signal.
func (p *Prober) snapshot() Snapshot {
	var s Snapshot
	if p.Env == nil {
		s.Headless = true
		return s
	}
	env := p.Env

	s.Headless = read(false, func() (bool, bool) { return env.Headless(), true })
	if s.Headless {
		return s
	}
	s.CPUs = read(0, env.CPUs)
	s.MemoryGB = read(0, env.MemoryGB)
	s.PixelRatio = read(0, env.PixelRatio)
	s.MaxTouchPoints = read(0, env.MaxTouchPoints)
	s.ReducedMotion = read(false, func() (bool, bool) { return env.ReducedMotion(), true })
	s.Renderer = read("", env.Renderer)
	s.Platform = read("", env.Platform)
	s.Connection = read("", env.Connection)
	s.Thermal = read(ThermalUnknown, env.Thermal)
	return s
}

// read calls f and returns fallback if it reports unavailable or panics.
func read[T any](fallback T, f func() (T, bool)) (v T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("device signal read panicked", "panic", r)
			v = fallback
		}
	}()
	got, ok := f()
	if !ok {
		return fallback
	}
	return got
}
