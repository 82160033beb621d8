package engine

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// QualityLevel orders rendering quality. The zero value is unset and
// normalizes to QualityHigh.
type QualityLevel uint8

const (
	QualityLow QualityLevel = iota + 1
	QualityMedium
	QualityHigh
)

func (l QualityLevel) String() string {
	switch l {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	}
	return fmt.Sprintf("QualityLevel(%d)", uint8(l))
}

// ParseQualityLevel maps a config name to a level.
func ParseQualityLevel(s string) (QualityLevel, error) {
	for l := QualityLow; l <= QualityHigh; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return QualityHigh, fmt.Errorf("unknown quality level %q", s)
}

// QualityTransition records one level change.
type QualityTransition struct {
	From, To QualityLevel
	// At is the controller's accumulated frame time.
	At time.Duration
	// Average is the rolling frame time that triggered the change.
	Average time.Duration
}

// QualityController steps quality down when the rolling frame time stays
// poor and back up when it stays good. A condition must persist for the
// cooldown and at most one level changes per cooldown window.
type QualityController struct {
	opts QualityOptions

	samples []float64
	next    int
	filled  int

	level   QualityLevel
	ceiling QualityLevel

	elapsed    time.Duration
	lastChange time.Duration
	poorSince  time.Duration
	goodSince  time.Duration
	poor, good bool
}

// NewQualityController starts at opts.Start, which is also the ceiling.
func NewQualityController(opts QualityOptions) *QualityController {
	opts = opts.normalize()
	return &QualityController{
		opts:    opts,
		samples: make([]float64, opts.Window),
		level:   opts.Start,
		ceiling: opts.Start,
	}
}

// Observe records one frame and reports a transition if one happened.
func (q *QualityController) Observe(frame time.Duration) (QualityTransition, bool) {
	q.elapsed += frame
	q.samples[q.next] = float64(frame)
	q.next = (q.next + 1) % len(q.samples)
	if q.filled < len(q.samples) {
		q.filled++
	}
	avg := time.Duration(stat.Mean(q.samples[:q.filled], nil))

	switch {
	case avg > q.opts.Poor:
		q.good = false
		if !q.poor {
			q.poor = true
			q.poorSince = q.elapsed
		}
		if q.level > QualityLow && q.settled(q.poorSince) {
			return q.step(q.level-1, avg), true
		}
	case avg < q.opts.Good:
		q.poor = false
		if !q.good {
			q.good = true
			q.goodSince = q.elapsed
		}
		if q.level < q.ceiling && q.settled(q.goodSince) {
			return q.step(q.level+1, avg), true
		}
	default:
		q.poor, q.good = false, false
	}
	return QualityTransition{}, false
}

// settled reports whether a condition starting at since has persisted for
// the cooldown and the last change is at least a cooldown ago.
func (q *QualityController) settled(since time.Duration) bool {
	return q.elapsed-since >= q.opts.Cooldown && q.elapsed-q.lastChange >= q.opts.Cooldown
}

func (q *QualityController) step(to QualityLevel, avg time.Duration) QualityTransition {
	t := QualityTransition{From: q.level, To: to, At: q.elapsed, Average: avg}
	q.level = to
	q.lastChange = q.elapsed
	// The condition must persist for a fresh window before the next step.
	q.poorSince = q.elapsed
	q.goodSince = q.elapsed
	return t
}

// Level returns the current quality level.
func (q *QualityController) Level() QualityLevel {
	return q.level
}

// Factor is the multiplier applied to point size and noise strength.
func (q *QualityController) Factor() float32 {
	return float32(math.Pow(float64(q.opts.Factor), float64(q.ceiling-q.level)))
}

// Average returns the current rolling frame time.
func (q *QualityController) Average() time.Duration {
	if q.filled == 0 {
		return 0
	}
	return time.Duration(stat.Mean(q.samples[:q.filled], nil))
}
