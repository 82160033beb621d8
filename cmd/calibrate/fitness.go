package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/telemetry"
	"github.com/pthm-cable/lumen/viewer"
)

const (
	// visibleAlpha is the lifetime fade above which a particle counts as lit.
	visibleAlpha = 0.5
	// failedFitness scores a run that could not start or sample anything.
	failedFitness = 1e6
)

// Targets describe the field being calibrated toward.
type Targets struct {
	// Lifetime is the mean seconds between respawns of one particle.
	Lifetime float64
	// Spread is the RMS particle radius over the spawn radius.
	Spread float64
}

// fieldSample is the field measured at the end of one stats window.
type fieldSample struct {
	stats   telemetry.WindowStats
	spread  float64
	visible float64
}

// Score summarizes one run (or the mean of several).
type Score struct {
	Fitness  float64
	Lifetime float64
	Spread   float64
	Visible  float64
}

// FitnessEvaluator runs headless fields and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	frames      int
	seeds       []int64
	baseConfig  *config.Config
	targets     Targets
	statsWindow float64

	mu       sync.Mutex
	best     Score
	hasBest  bool
	last     Score
	failures int
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []int64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		frames:      frames,
		seeds:       seeds,
		baseConfig:  baseCfg,
		targets:     targets,
		statsWindow: 2.0,
	}
}

// Last returns the score from the most recent evaluation.
func (fe *FitnessEvaluator) Last() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Best returns the best score seen so far.
func (fe *FitnessEvaluator) Best() (Score, bool) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.best, fe.hasBest
}

// Failures returns how many runs failed to start.
func (fe *FitnessEvaluator) Failures() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.failures
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	scores := make([]Score, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			samples, err := fe.runField(x, s)
			if err != nil {
				fe.mu.Lock()
				fe.failures++
				fe.mu.Unlock()
				scores[idx] = Score{Fitness: failedFitness}
				return
			}
			scores[idx] = fe.targets.score(samples)
		}(i, seed)
	}
	wg.Wait()

	avg := meanScore(scores)

	fe.mu.Lock()
	if !fe.hasBest || avg.Fitness < fe.best.Fitness {
		fe.best = avg
		fe.hasBest = true
	}
	fe.last = avg
	fe.mu.Unlock()

	return avg.Fitness
}

// runField executes one headless run and samples every stats window.
func (fe *FitnessEvaluator) runField(x []float64, seed int64) ([]fieldSample, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Engine.Seed = seed
	cfg.Telemetry.StatsWindowSec = fe.statsWindow
	if err := cfg.Refresh(); err != nil {
		return nil, err
	}

	var (
		v       *viewer.Viewer
		samples []fieldSample
	)
	spawnRadius := cfg.Geometry.SpawnRadius
	v, err := viewer.New(cfg, viewer.Options{
		Headless: true,
		StatsCallback: func(stats telemetry.WindowStats) {
			spread, visible := measureField(v.Engine(), spawnRadius)
			samples = append(samples, fieldSample{stats: stats, spread: spread, visible: visible})
		},
	})
	if err != nil {
		return nil, err
	}
	defer v.Unload()

	for int(v.Frame()) < fe.frames {
		v.UpdateHeadless()
	}
	return samples, nil
}

// measureField returns the RMS radius over spawnRadius and the fraction of
// particles bright enough to see.
func measureField(eng *engine.Engine, spawnRadius float64) (spread, visible float64) {
	b := eng.Field().Buffers
	n := b.Len()
	if n == 0 || spawnRadius <= 0 {
		return 0, 0
	}
	r2 := make([]float64, n)
	lit := 0
	for i := range n {
		x, y, z := float64(b.Positions[3*i]), float64(b.Positions[3*i+1]), float64(b.Positions[3*i+2])
		r2[i] = x*x + y*y + z*z
		if engine.LifetimeFade(b.Lifetimes[i]) > visibleAlpha {
			lit++
		}
	}
	return math.Sqrt(stat.Mean(r2, nil)) / spawnRadius, float64(lit) / float64(n)
}

// score compares the windows of one run with the targets. The first window
// is skipped while the field settles.
func (t Targets) score(samples []fieldSample) Score {
	if len(samples) > 1 {
		samples = samples[1:]
	}
	if len(samples) == 0 {
		return Score{Fitness: failedFitness}
	}

	var respawns, particleSec float64
	spreads := make([]float64, len(samples))
	visible := make([]float64, len(samples))
	for i, s := range samples {
		respawns += float64(s.stats.Respawns)
		particleSec += float64(s.stats.Particles) * s.stats.ElapsedSec
		spreads[i] = s.spread
		visible[i] = s.visible
	}

	if particleSec <= 0 {
		return Score{Fitness: failedFitness}
	}
	// No respawns at all means particles outlived the run
	lifetime := particleSec
	if respawns > 0 {
		lifetime = particleSec / respawns
	}

	sc := Score{
		Lifetime: lifetime,
		Spread:   stat.Mean(spreads, nil),
		Visible:  stat.Mean(visible, nil),
	}
	lifeErr := math.Log(sc.Lifetime / t.Lifetime)
	spreadErr := sc.Spread/t.Spread - 1
	sc.Fitness = lifeErr*lifeErr + spreadErr*spreadErr + (1 - sc.Visible)
	return sc
}

func meanScore(scores []Score) Score {
	var avg Score
	for _, s := range scores {
		avg.Fitness += s.Fitness
		avg.Lifetime += s.Lifetime
		avg.Spread += s.Spread
		avg.Visible += s.Visible
	}
	n := float64(len(scores))
	avg.Fitness /= n
	avg.Lifetime /= n
	avg.Spread /= n
	avg.Visible /= n
	return avg
}

// copyConfig returns a copy of the base config. Config holds no shared
// references, so a value copy is deep enough.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
