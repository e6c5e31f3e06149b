package metrics

import (
	"math"

	"github.com/san-kum/chainsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r1"
)

// Stability is the fraction of states whose joint speeds all stay below the
// threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(_ *dynamo.System, st dynamo.State, t float64) {
	s.samples++
	for _, val := range st.QD {
		if math.IsNaN(val) || math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// LimitViolations is the fraction of states with a scalar coordinate
// outside its interval. Only joints with matching q and qd sizes are
// checked, so quaternion entries never count.
type LimitViolations struct {
	name       string
	limits     r1.Interval
	violations int
	samples    int
}

func NewLimitViolations(limits r1.Interval) *LimitViolations {
	return &LimitViolations{name: "limit_violations", limits: limits}
}

func (l *LimitViolations) Name() string { return l.name }

func (l *LimitViolations) Observe(sys *dynamo.System, st dynamo.State, t float64) {
	l.samples++
	for i := range sys.Bodies {
		j := sys.Joint(i)
		if j.QSize() != j.QDSize() {
			continue
		}
		lo, hi := sys.QRange(i)
		for _, q := range st.Q[lo:hi] {
			if q < l.limits.Min || q > l.limits.Max {
				l.violations++
				return
			}
		}
	}
}

func (l *LimitViolations) Value() float64 {
	if l.samples == 0 {
		return 0
	}
	return float64(l.violations) / float64(l.samples)
}

func (l *LimitViolations) Reset() {
	l.violations = 0
	l.samples = 0
}
