package spatial

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

func Diag(x, y, z float64) Mat3 {
	return Mat3{{x, 0, 0}, {0, y, 0}, {0, 0, z}}
}

func (m Mat3) MulVec(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

func (m Mat3) Add(o Mat3) Mat3 {
	for i := range 3 {
		for j := range 3 {
			m[i][j] += o[i][j]
		}
	}
	return m
}

func (m Mat3) Scale(s float64) Mat3 {
	for i := range 3 {
		for j := range 3 {
			m[i][j] *= s
		}
	}
	return m
}

func (m Mat3) Mul(o Mat3) Mat3 {
	var r Mat3
	for i := range 3 {
		for j := range 3 {
			for k := range 3 {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

func (m Mat3) T() Mat3 {
	var r Mat3
	for i := range 3 {
		for j := range 3 {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Rotated returns R m R^T for the rotation q.
func (m Mat3) Rotated(q quat.Number) Mat3 {
	r := Matrix(q)
	return r.Mul(m).Mul(r.T())
}

// parallelAxis is |d|^2 I - d d^T.
func parallelAxis(d r3.Vec) Mat3 {
	n := r3.Dot(d, d)
	return Mat3{
		{n - d.X*d.X, -d.X * d.Y, -d.X * d.Z},
		{-d.Y * d.X, n - d.Y*d.Y, -d.Y * d.Z},
		{-d.Z * d.X, -d.Z * d.Y, n - d.Z*d.Z},
	}
}

// Inertia is a rigid-body spatial inertia given by its mass, centre of mass
// and rotational inertia about the centre of mass, all in one frame.
type Inertia struct {
	Mass float64
	Com  r3.Vec
	Ic   Mat3
}

// Add lumps two inertias expressed in the same frame.
func (in Inertia) Add(o Inertia) Inertia {
	m := in.Mass + o.Mass
	if m == 0 {
		return Inertia{Ic: in.Ic.Add(o.Ic)}
	}
	c := r3.Scale(1/m, r3.Add(r3.Scale(in.Mass, in.Com), r3.Scale(o.Mass, o.Com)))
	ic := in.Ic.Add(o.Ic).
		Add(parallelAxis(r3.Sub(in.Com, c)).Scale(in.Mass)).
		Add(parallelAxis(r3.Sub(o.Com, c)).Scale(o.Mass))
	return Inertia{Mass: m, Com: c, Ic: ic}
}

// ToParent re-expresses an inertia given in the child frame of t in the
// parent frame.
func (in Inertia) ToParent(t Transform) Inertia {
	return Inertia{
		Mass: in.Mass,
		Com:  t.PointToParent(in.Com),
		Ic:   in.Ic.Rotated(t.Rot),
	}
}

// MulMotion returns the momentum I v.
func (in Inertia) MulMotion(v Motion) Force {
	h := r3.Scale(in.Mass, in.Com)
	io := in.Ic.Add(parallelAxis(in.Com).Scale(in.Mass))
	return Force{
		Ang: r3.Add(io.MulVec(v.Ang), r3.Cross(h, v.Lin)),
		Lin: r3.Sub(r3.Scale(in.Mass, v.Lin), r3.Cross(h, v.Ang)),
	}
}
