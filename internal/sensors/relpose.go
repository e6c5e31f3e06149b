package sensors

import (
	"fmt"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/num/quat"
)

// RelPose returns, for every body attached to another body, the orientation
// of the body in its parent's axes at each sample. frames is (steps, bodies).
// Bodies attached to the world are skipped.
func RelPose(sys *dynamo.System, frames [][]spatial.Transform) (map[string][]quat.Number, error) {
	out := make(map[string][]quat.Number)
	for t, f := range frames {
		if len(f) != sys.NumBodies() {
			return nil, fmt.Errorf("sample %d has %d frames, want %d: %w", t, len(f), sys.NumBodies(), dynamo.ErrDimensionMismatch)
		}
	}
	for i, b := range sys.Bodies {
		if b.Parent == dynamo.World {
			continue
		}
		rel := make([]quat.Number, len(frames))
		for t, f := range frames {
			rel[t] = quat.Mul(quat.Conj(f[b.Parent].Rot), f[i].Rot)
		}
		out[b.Name] = rel
	}
	return out, nil
}
