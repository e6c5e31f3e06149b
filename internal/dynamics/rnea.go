package dynamics

import (
	"fmt"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// InverseDynamics returns the generalized forces needed to produce qdd at
// (q, qd) under the system's gravity, by the recursive Newton-Euler
// algorithm.
func InverseDynamics(sys *dynamo.System, q, qd, qdd []float64) ([]float64, error) {
	if err := checkDims(sys, q, qd); err != nil {
		return nil, err
	}
	if len(qdd) != sys.QDSize() {
		return nil, fmt.Errorf("%w: qdd has %d entries, system needs %d", dynamo.ErrDimensionMismatch, len(qdd), sys.QDSize())
	}
	return rnea(sys, linkTransforms(sys, q), q, qd, qdd), nil
}

// Bias returns the gravity and velocity-product forces C(q, qd), the
// inverse dynamics at zero acceleration.
func Bias(sys *dynamo.System, q, qd []float64) ([]float64, error) {
	if err := checkDims(sys, q, qd); err != nil {
		return nil, err
	}
	return rnea(sys, linkTransforms(sys, q), q, qd, nil), nil
}

func rnea(sys *dynamo.System, link []spatial.Transform, q, qd, qdd []float64) []float64 {
	n := sys.NumBodies()
	vel := make([]spatial.Motion, n)
	acc := make([]spatial.Motion, n)
	force := make([]spatial.Force, n)
	// a fictitious upward base acceleration stands in for gravity
	base := spatial.Motion{Lin: r3.Scale(-1, sys.Gravity)}

	for i, b := range sys.Bodies {
		lo, hi := sys.QRange(i)
		dlo, _ := sys.QDRange(i)
		s := sys.Joint(i).Subspace(q[lo:hi], b.Axis)

		var vj, aj spatial.Motion
		for k, col := range s {
			vj = vj.Add(col.Scale(qd[dlo+k]))
			if qdd != nil {
				aj = aj.Add(col.Scale(qdd[dlo+k]))
			}
		}

		pv, pa := spatial.Motion{}, base
		if b.Parent != dynamo.World {
			pv, pa = vel[b.Parent], acc[b.Parent]
		}
		vel[i] = link[i].MotionToChild(pv).Add(vj)
		acc[i] = link[i].MotionToChild(pa).Add(aj).Add(vel[i].CrossMotion(vj))

		in := b.Inertia()
		force[i] = in.MulMotion(acc[i]).Add(vel[i].CrossForce(in.MulMotion(vel[i])))
	}

	tau := make([]float64, sys.QDSize())
	for i := n - 1; i >= 0; i-- {
		b := sys.Bodies[i]
		lo, hi := sys.QRange(i)
		dlo, _ := sys.QDRange(i)
		for k, col := range sys.Joint(i).Subspace(q[lo:hi], b.Axis) {
			tau[dlo+k] = col.Dot(force[i])
		}
		if b.Parent != dynamo.World {
			force[b.Parent] = force[b.Parent].Add(link[i].ForceToParent(force[i]))
		}
	}
	return tau
}

func checkDims(sys *dynamo.System, q, qd []float64) error {
	if len(q) != sys.QSize() {
		return fmt.Errorf("%w: q has %d entries, system needs %d", dynamo.ErrDimensionMismatch, len(q), sys.QSize())
	}
	if len(qd) != sys.QDSize() {
		return fmt.Errorf("%w: qd has %d entries, system needs %d", dynamo.ErrDimensionMismatch, len(qd), sys.QDSize())
	}
	return nil
}
