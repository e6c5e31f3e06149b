package dynamo

import (
	"fmt"
	"math"

	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/vmap"
)

// State is the instantaneous configuration of a system. X caches the world
// transform of every body and is refreshed by each step; a fresh state
// carries identity transforms until then.
type State struct {
	Q  []float64
	QD []float64
	X  []spatial.Transform
}

// NewState builds a state for sys. A nil q defaults to every joint's zero
// configuration and a nil qd to zeros.
func NewState(sys *System, q, qd []float64) (State, error) {
	if q == nil {
		for i := range sys.Bodies {
			q = append(q, sys.joints[i].Zero()...)
		}
	}
	if qd == nil {
		qd = make([]float64, sys.qdSize)
	}
	if len(q) != sys.qSize {
		return State{}, fmt.Errorf("%w: q has %d entries, system needs %d", ErrDimensionMismatch, len(q), sys.qSize)
	}
	if len(qd) != sys.qdSize {
		return State{}, fmt.Errorf("%w: qd has %d entries, system needs %d", ErrDimensionMismatch, len(qd), sys.qdSize)
	}
	x := make([]spatial.Transform, len(sys.Bodies))
	for i := range x {
		x[i] = spatial.Identity()
	}
	return State{
		Q:  append(make([]float64, 0, len(q)), q...),
		QD: append(make([]float64, 0, len(qd)), qd...),
		X:  x,
	}, nil
}

func (s State) Clone() State {
	return State{
		Q:  append([]float64(nil), s.Q...),
		QD: append([]float64(nil), s.QD...),
		X:  append([]spatial.Transform(nil), s.X...),
	}
}

func (s State) IsValid() bool {
	for _, v := range s.Q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range s.QD {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Shape() string {
	return fmt.Sprintf("q=%d qd=%d x=%d", len(s.Q), len(s.QD), len(s.X))
}

// Batch stacks s and others into one batch, s first.
func (s State) Batch(others ...State) (vmap.Batch[State], error) {
	return vmap.Stack(append([]State{s}, others...)...)
}
