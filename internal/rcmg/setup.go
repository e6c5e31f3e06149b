package rcmg

import (
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomizeJointAxes gives every body a uniformly random unit axis. Only
// "rr" joints read the axis, so other bodies are unaffected.
func RandomizeJointAxes(seed uint64, sys *dynamo.System) (*dynamo.System, error) {
	axes := make([]r3.Vec, sys.NumBodies())
	for i := range axes {
		n := distuv.Normal{Mu: 0, Sigma: 1, Src: newSource(seed, uint64(i))}
		q, err := spatial.Normalize(quat.Number{Real: n.Rand(), Imag: n.Rand(), Jmag: n.Rand(), Kmag: n.Rand()})
		if err != nil {
			return nil, err
		}
		axes[i] = spatial.Rotate(r3.Vec{X: 1}, q)
	}
	return sys.Replace(dynamo.WithAxes(axes))
}
