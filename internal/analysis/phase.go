package analysis

import (
	"fmt"

	"github.com/san-kum/chainsim/internal/dynamo"
)

// Flatten returns [q..., qd...].
func Flatten(st dynamo.State) []float64 {
	out := make([]float64, 0, len(st.Q)+len(st.QD))
	out = append(out, st.Q...)
	return append(out, st.QD...)
}

// Series extracts one flattened coordinate from every state.
func Series(states []dynamo.State, idx int) ([]float64, error) {
	out := make([]float64, len(states))
	for i, st := range states {
		if idx < 0 || idx >= len(st.Q)+len(st.QD) {
			return nil, fmt.Errorf("analysis: coordinate %d out of range for %s", idx, st.Shape())
		}
		if idx < len(st.Q) {
			out[i] = st.Q[idx]
		} else {
			out[i] = st.QD[idx-len(st.Q)]
		}
	}
	return out, nil
}

// PhasePortrait2D is a trajectory projected on two coordinates.
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// Portrait projects a rollout on coordinates xIdx and yIdx, typically a
// joint angle and its rate.
func Portrait(states []dynamo.State, xIdx, yIdx int) (*PhasePortrait2D, error) {
	xs, err := Series(states, xIdx)
	if err != nil {
		return nil, err
	}
	ys, err := Series(states, yIdx)
	if err != nil {
		return nil, err
	}
	p := &PhasePortrait2D{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, len(xs))}
	for i := range xs {
		p.Points[i] = Point{xs[i], ys[i]}
	}
	return p, nil
}

func (p *PhasePortrait2D) ASCII(width, height int) string {
	if p == nil {
		return ""
	}
	return Scatter(p.Points, width, height)
}

// Poincare records (recordX, recordY) whenever coordinate crossIdx crosses
// threshold upwards, interpolated linearly between the bracketing states.
func Poincare(states []dynamo.State, crossIdx int, threshold float64, recordX, recordY int) ([]Point, error) {
	cross, err := Series(states, crossIdx)
	if err != nil {
		return nil, err
	}
	xs, err := Series(states, recordX)
	if err != nil {
		return nil, err
	}
	ys, err := Series(states, recordY)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0)
	for i := 1; i < len(cross); i++ {
		prev, curr := cross[i-1], cross[i]
		if prev >= threshold || curr < threshold {
			continue
		}
		frac := (threshold - prev) / (curr - prev)
		points = append(points, Point{
			X: xs[i-1] + frac*(xs[i]-xs[i-1]),
			Y: ys[i-1] + frac*(ys[i]-ys[i-1]),
		})
	}
	return points, nil
}
