package spatial

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// PoseSize is the length of a flattened pose: position then quaternion.
const PoseSize = 7

// Transform maps a parent frame to a child frame. Pos is the child origin
// in parent coordinates and Rot is the rotation of the child axes relative
// to the parent axes.
type Transform struct {
	Pos r3.Vec
	Rot quat.Number
}

func Identity() Transform {
	return Transform{Rot: QuatIdentity()}
}

// Translation returns a pure translation by p.
func Translation(p r3.Vec) Transform {
	return Transform{Pos: p, Rot: QuatIdentity()}
}

// Rotation returns a pure rotation by q.
func Rotation(q quat.Number) Transform {
	return Transform{Rot: q}
}

// Compose chains a frame a->b with b->c into a->c.
func Compose(ab, bc Transform) Transform {
	return Transform{
		Pos: r3.Add(ab.Pos, Rotate(bc.Pos, ab.Rot)),
		Rot: quat.Mul(ab.Rot, bc.Rot),
	}
}

func (t Transform) Inv() Transform {
	return Transform{
		Pos: r3.Scale(-1, RotateInv(t.Pos, t.Rot)),
		Rot: quat.Conj(t.Rot),
	}
}

// PointToChild expresses a parent-frame point in child coordinates.
func (t Transform) PointToChild(p r3.Vec) r3.Vec {
	return RotateInv(r3.Sub(p, t.Pos), t.Rot)
}

// PointToParent expresses a child-frame point in parent coordinates.
func (t Transform) PointToParent(p r3.Vec) r3.Vec {
	return r3.Add(t.Pos, Rotate(p, t.Rot))
}

// MotionToChild transforms a motion vector from parent to child coordinates.
func (t Transform) MotionToChild(m Motion) Motion {
	return Motion{
		Ang: RotateInv(m.Ang, t.Rot),
		Lin: RotateInv(r3.Sub(m.Lin, r3.Cross(t.Pos, m.Ang)), t.Rot),
	}
}

// MotionToParent transforms a motion vector from child to parent coordinates.
func (t Transform) MotionToParent(m Motion) Motion {
	ang := Rotate(m.Ang, t.Rot)
	return Motion{
		Ang: ang,
		Lin: r3.Add(Rotate(m.Lin, t.Rot), r3.Cross(t.Pos, ang)),
	}
}

// ForceToChild transforms a force vector from parent to child coordinates.
func (t Transform) ForceToChild(f Force) Force {
	return Force{
		Ang: RotateInv(r3.Sub(f.Ang, r3.Cross(t.Pos, f.Lin)), t.Rot),
		Lin: RotateInv(f.Lin, t.Rot),
	}
}

// ForceToParent transforms a force vector from child to parent coordinates.
func (t Transform) ForceToParent(f Force) Force {
	lin := Rotate(f.Lin, t.Rot)
	return Force{
		Ang: r3.Add(Rotate(f.Ang, t.Rot), r3.Cross(t.Pos, lin)),
		Lin: lin,
	}
}

// Pose flattens t as [px py pz qw qx qy qz].
func (t Transform) Pose() [PoseSize]float64 {
	return [PoseSize]float64{
		t.Pos.X, t.Pos.Y, t.Pos.Z,
		t.Rot.Real, t.Rot.Imag, t.Rot.Jmag, t.Rot.Kmag,
	}
}

// FromPose is the inverse of Pose.
func FromPose(p [PoseSize]float64) Transform {
	return Transform{
		Pos: r3.Vec{X: p[0], Y: p[1], Z: p[2]},
		Rot: quat.Number{Real: p[3], Imag: p[4], Jmag: p[5], Kmag: p[6]},
	}
}
