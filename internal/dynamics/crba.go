package dynamics

import (
	"errors"
	"fmt"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

// ErrSingularMassMatrix is returned when the joint-space inertia is not
// positive definite, which happens when a degree of freedom moves no mass.
var ErrSingularMassMatrix = errors.New("dynamics: mass matrix is not positive definite")

// MassMatrix returns the joint-space inertia H(q) by the composite rigid
// body algorithm, with joint armature added to the diagonal.
func MassMatrix(sys *dynamo.System, q []float64) (*mat.SymDense, error) {
	if len(q) != sys.QSize() {
		return nil, fmt.Errorf("%w: q has %d entries, system needs %d", dynamo.ErrDimensionMismatch, len(q), sys.QSize())
	}
	if sys.QDSize() == 0 {
		return nil, fmt.Errorf("%w: system has no degrees of freedom", dynamo.ErrDimensionMismatch)
	}
	return crba(sys, linkTransforms(sys, q), q), nil
}

func crba(sys *dynamo.System, link []spatial.Transform, q []float64) *mat.SymDense {
	n := sys.NumBodies()
	comp := make([]spatial.Inertia, n)
	for i, b := range sys.Bodies {
		comp[i] = b.Inertia()
	}
	for i := n - 1; i >= 0; i-- {
		if p := sys.Bodies[i].Parent; p != dynamo.World {
			comp[p] = comp[p].Add(comp[i].ToParent(link[i]))
		}
	}

	subspace := make([][]spatial.Motion, n)
	for i, b := range sys.Bodies {
		lo, hi := sys.QRange(i)
		subspace[i] = sys.Joint(i).Subspace(q[lo:hi], b.Axis)
	}

	h := mat.NewSymDense(sys.QDSize(), nil)
	for i := range sys.Bodies {
		ilo, _ := sys.QDRange(i)
		for k, col := range subspace[i] {
			f := comp[i].MulMotion(col)
			for k2, col2 := range subspace[i] {
				h.SetSym(ilo+k2, ilo+k, col2.Dot(f))
			}
			for j := i; sys.Bodies[j].Parent != dynamo.World; {
				f = link[j].ForceToParent(f)
				j = sys.Bodies[j].Parent
				jlo, _ := sys.QDRange(j)
				for k2, col2 := range subspace[j] {
					h.SetSym(jlo+k2, ilo+k, col2.Dot(f))
				}
			}
		}
	}
	for k, a := range sys.Armature() {
		h.SetSym(k, k, h.At(k, k)+a)
	}
	return h
}
