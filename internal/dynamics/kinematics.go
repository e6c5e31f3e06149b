// Package dynamics evaluates kinematic trees: forward kinematics, the
// joint-space mass matrix, bias forces and the semi-implicit time step.
package dynamics

import (
	"fmt"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
)

// linkTransforms returns, per body, the transform from the parent frame to
// the body frame at configuration q.
func linkTransforms(sys *dynamo.System, q []float64) []spatial.Transform {
	xs := make([]spatial.Transform, sys.NumBodies())
	for i, b := range sys.Bodies {
		lo, hi := sys.QRange(i)
		xj := sys.Joint(i).Transform(q[lo:hi], b.Axis)
		xs[i] = spatial.Compose(b.Transform, xj)
	}
	return xs
}

// ForwardKinematics returns the world-to-body transform of every body, so
// X[i].Pos is the body origin in world coordinates and X[i].Rot its
// orientation.
func ForwardKinematics(sys *dynamo.System, q []float64) ([]spatial.Transform, error) {
	if len(q) != sys.QSize() {
		return nil, fmt.Errorf("%w: q has %d entries, system needs %d", dynamo.ErrDimensionMismatch, len(q), sys.QSize())
	}
	return worldTransforms(sys, linkTransforms(sys, q)), nil
}

func worldTransforms(sys *dynamo.System, link []spatial.Transform) []spatial.Transform {
	world := make([]spatial.Transform, len(link))
	for i, b := range sys.Bodies {
		if b.Parent == dynamo.World {
			world[i] = link[i]
			continue
		}
		world[i] = spatial.Compose(world[b.Parent], link[i])
	}
	return world
}
