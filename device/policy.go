package device

import (
	"log/slog"
	"time"
)

// Policy holds the tier classification thresholds.
type Policy struct {
	// Any of these classifies as low.
	LowCPUs     int
	LowMemoryGB float64
	PoorFrame   time.Duration

	// All of these are required for high.
	HighCPUs      int
	HighMemoryGB  float64
	MaxPixelRatio float64
	GoodFrame     time.Duration

	// Particle budgets indexed by tier.
	Counts [3]int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		LowCPUs:       2,
		LowMemoryGB:   4,
		PoorFrame:     33 * time.Millisecond,
		HighCPUs:      8,
		HighMemoryGB:  8,
		MaxPixelRatio: 2,
		GoodFrame:     20 * time.Millisecond,
		Counts:        [3]int{200, 350, 500},
	}
}

// Classify maps a snapshot to a tier. Reduced motion and battery saver
// force low regardless of every other signal.
func (p Policy) Classify(s Snapshot) Tier {
	if s.ReducedMotion || s.BatterySaver() {
		return TierLow
	}
	if s.Headless {
		return TierMedium
	}

	if (s.CPUs > 0 && s.CPUs <= p.LowCPUs) ||
		(s.MemoryGB > 0 && s.MemoryGB < p.LowMemoryGB) ||
		(s.FrameBudget > 0 && s.FrameBudget > p.PoorFrame) ||
		s.Thermal == ThermalCritical {
		return TierLow
	}

	desktop := s.MaxTouchPoints == 0
	frameOK := s.FrameBudget == 0 || s.FrameBudget <= p.GoodFrame
	ratioOK := s.PixelRatio == 0 || s.PixelRatio <= p.MaxPixelRatio
	if s.CPUs >= p.HighCPUs && s.MemoryGB >= p.HighMemoryGB && ratioOK && frameOK && desktop {
		return TierHigh
	}
	return TierMedium
}

// RecommendedParticleCount returns the particle budget for a tier. It is
// non-decreasing in tier order.
func (p Policy) RecommendedParticleCount(t Tier) int {
	if t > TierHigh {
		t = TierMedium
	}
	return p.Counts[t]
}

// RecommendedParticleCount returns the default budget for a tier.
func RecommendedParticleCount(t Tier) int {
	return DefaultPolicy().RecommendedParticleCount(t)
}

// Recommendations are feature toggles derived from the tier and snapshot.
type Recommendations struct {
	EnableAnimations       bool
	EnableParticles        bool
	MaxParticleCount       int
	EnableMouseInteraction bool
	EnableComplexShaders   bool
	FrameRateTarget        int
	AdaptiveQuality        bool
	EnableLOD              bool
	CullingDistance        float64
}

func (p Policy) recommend(t Tier, s Snapshot) Recommendations {
	var r Recommendations
	switch t {
	case TierLow:
		r = Recommendations{
			EnableAnimations: true, EnableParticles: true,
			EnableMouseInteraction: false, EnableComplexShaders: false,
			FrameRateTarget: 30, AdaptiveQuality: true, EnableLOD: true,
			CullingDistance: 30,
		}
	case TierHigh:
		r = Recommendations{
			EnableAnimations: true, EnableParticles: true,
			EnableMouseInteraction: true, EnableComplexShaders: true,
			FrameRateTarget: 60, AdaptiveQuality: false, EnableLOD: false,
			CullingDistance: 50,
		}
	default:
		r = Recommendations{
			EnableAnimations: true, EnableParticles: true,
			EnableMouseInteraction: true, EnableComplexShaders: true,
			FrameRateTarget: 60, AdaptiveQuality: true, EnableLOD: true,
			CullingDistance: 40,
		}
	}
	r.MaxParticleCount = p.RecommendedParticleCount(t)

	if s.ReducedMotion {
		r.EnableAnimations = false
		r.EnableParticles = false
		r.MaxParticleCount = 0
		r.EnableMouseInteraction = false
	}
	if s.PixelRatio > 2 {
		r.MaxParticleCount = r.MaxParticleCount * 7 / 10
	}
	if s.BatterySaver() {
		r.MaxParticleCount /= 2
		r.FrameRateTarget = 30
		r.EnableComplexShaders = false
		r.AdaptiveQuality = true
	}
	if s.Thermal == ThermalCritical {
		r.MaxParticleCount = r.MaxParticleCount * 3 / 10
		r.EnableComplexShaders = false
		r.FrameRateTarget = 20
	}
	return r
}

// confidence sums the weights of the signals that were measured, 0-100.
func confidence(s Snapshot) float64 {
	if s.Headless {
		return 50
	}
	var c float64
	if s.CPUs > 0 {
		c += 20
	}
	if s.MemoryGB > 0 {
		c += 20
	}
	if s.Renderer != "" {
		c += 30
	}
	if s.FrameBudget > 0 {
		c += 20
	}
	if s.Connection != "" {
		c += 10
	}
	return c
}

// DetectionResult is the output of a probe.
type DetectionResult struct {
	Tier                     Tier
	RecommendedParticleCount int
	Snapshot                 Snapshot
	Recommendations          Recommendations
	Confidence               float64
}

// LogValue implements slog.LogValuer.
func (r DetectionResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("tier", r.Tier.String()),
		slog.Int("particles", r.RecommendedParticleCount),
		slog.Float64("confidence", r.Confidence),
		slog.Any("snapshot", r.Snapshot),
	)
}

// Evaluate scores and classifies a snapshot.
func (p Policy) Evaluate(s Snapshot) DetectionResult {
	s.PerformanceScore = score(s)
	tier := p.Classify(s)
	return DetectionResult{
		Tier:                     tier,
		RecommendedParticleCount: p.RecommendedParticleCount(tier),
		Snapshot:                 s,
		Recommendations:          p.recommend(tier, s),
		Confidence:               confidence(s),
	}
}
