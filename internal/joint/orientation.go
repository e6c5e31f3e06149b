package joint

import (
	"fmt"

	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Spherical is a ball joint. q is a unit quaternion [w x y z] and qd the
// angular velocity of the child in child coordinates.
type Spherical struct{}

func (Spherical) Name() string { return "spherical" }
func (Spherical) QSize() int   { return 4 }
func (Spherical) QDSize() int  { return 3 }

func (Spherical) Transform(q []float64, _ r3.Vec) spatial.Transform {
	return spatial.Rotation(quatOf(q))
}

func (Spherical) Subspace([]float64, r3.Vec) []spatial.Motion {
	return angular()
}

func (Spherical) Integrate(q, qd []float64, dt float64) ([]float64, error) {
	rot, err := spatial.Integrate(quatOf(q), r3.Vec{X: qd[0], Y: qd[1], Z: qd[2]}, dt)
	if err != nil {
		return nil, fmt.Errorf("spherical joint: %w", err)
	}
	return []float64{rot.Real, rot.Imag, rot.Jmag, rot.Kmag}, nil
}

func (Spherical) Zero() []float64 { return []float64{1, 0, 0, 0} }

// Free is a six degree of freedom joint. q is [w x y z px py pz] with the
// position in parent coordinates; qd is the child's angular then linear
// velocity, both in child coordinates.
type Free struct{}

func (Free) Name() string { return "free" }
func (Free) QSize() int   { return 7 }
func (Free) QDSize() int  { return 6 }

func (Free) Transform(q []float64, _ r3.Vec) spatial.Transform {
	return spatial.Transform{
		Pos: r3.Vec{X: q[4], Y: q[5], Z: q[6]},
		Rot: quatOf(q),
	}
}

func (Free) Subspace([]float64, r3.Vec) []spatial.Motion {
	return append(angular(),
		spatial.Motion{Lin: r3.Vec{X: 1}},
		spatial.Motion{Lin: r3.Vec{Y: 1}},
		spatial.Motion{Lin: r3.Vec{Z: 1}},
	)
}

func (Free) Integrate(q, qd []float64, dt float64) ([]float64, error) {
	rot := quatOf(q)
	// linear velocity is in child coordinates, position in parent coordinates
	vel := spatial.Rotate(r3.Vec{X: qd[3], Y: qd[4], Z: qd[5]}, rot)
	next, err := spatial.Integrate(rot, r3.Vec{X: qd[0], Y: qd[1], Z: qd[2]}, dt)
	if err != nil {
		return nil, fmt.Errorf("free joint: %w", err)
	}
	return []float64{
		next.Real, next.Imag, next.Jmag, next.Kmag,
		q[4] + vel.X*dt, q[5] + vel.Y*dt, q[6] + vel.Z*dt,
	}, nil
}

func (Free) Zero() []float64 { return []float64{1, 0, 0, 0, 0, 0, 0} }

func quatOf(q []float64) quat.Number {
	return quat.Number{Real: q[0], Imag: q[1], Jmag: q[2], Kmag: q[3]}
}

func angular() []spatial.Motion {
	return []spatial.Motion{
		{Ang: r3.Vec{X: 1}},
		{Ang: r3.Vec{Y: 1}},
		{Ang: r3.Vec{Z: 1}},
	}
}
