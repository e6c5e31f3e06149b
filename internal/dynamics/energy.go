package dynamics

import (
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Energy returns the kinetic and potential energy of st. The potential is
// measured from the world origin along the gravity vector.
func Energy(sys *dynamo.System, st dynamo.State) (kinetic, potential float64, err error) {
	if err := sys.Check(st); err != nil {
		return 0, 0, err
	}
	link := linkTransforms(sys, st.Q)
	world := worldTransforms(sys, link)
	vel := make([]spatial.Motion, sys.NumBodies())

	for i, b := range sys.Bodies {
		lo, hi := sys.QRange(i)
		dlo, _ := sys.QDRange(i)
		var vj spatial.Motion
		for k, col := range sys.Joint(i).Subspace(st.Q[lo:hi], b.Axis) {
			vj = vj.Add(col.Scale(st.QD[dlo+k]))
		}
		var pv spatial.Motion
		if b.Parent != dynamo.World {
			pv = vel[b.Parent]
		}
		vel[i] = link[i].MotionToChild(pv).Add(vj)

		in := b.Inertia()
		kinetic += 0.5 * vel[i].Dot(in.MulMotion(vel[i]))
		com := world[i].PointToParent(in.Com)
		potential -= in.Mass * r3.Dot(sys.Gravity, com)
	}
	return kinetic, potential, nil
}

// CenterOfMass returns the total mass and world centre of mass.
func CenterOfMass(sys *dynamo.System, q []float64) (float64, r3.Vec, error) {
	world, err := ForwardKinematics(sys, q)
	if err != nil {
		return 0, r3.Vec{}, err
	}
	var total spatial.Inertia
	for i, b := range sys.Bodies {
		total = total.Add(b.Inertia().ToParent(world[i]))
	}
	return total.Mass, total.Com, nil
}
