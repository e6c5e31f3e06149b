package joint

import (
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Revolute rotates the child about a fixed axis of the parent frame.
type Revolute struct {
	name string
	axis r3.Vec
}

func NewRevolute(name string, axis r3.Vec) Revolute {
	return Revolute{name: name, axis: r3.Unit(axis)}
}

func (r Revolute) Name() string { return r.name }
func (Revolute) QSize() int     { return 1 }
func (Revolute) QDSize() int    { return 1 }

func (r Revolute) Transform(q []float64, _ r3.Vec) spatial.Transform {
	return spatial.Rotation(spatial.AxisAngle(r.axis, q[0]))
}

func (r Revolute) Subspace([]float64, r3.Vec) []spatial.Motion {
	return []spatial.Motion{{Ang: r.axis}}
}

func (Revolute) Integrate(q, qd []float64, dt float64) ([]float64, error) {
	return Euler(q, qd, dt), nil
}

func (Revolute) Zero() []float64 { return []float64{0} }

// RevoluteAxis rotates about the per-body axis carried by the system, so
// the axis is a numeric parameter that can vary across a batch.
type RevoluteAxis struct{}

func (RevoluteAxis) Name() string { return "rr" }
func (RevoluteAxis) QSize() int   { return 1 }
func (RevoluteAxis) QDSize() int  { return 1 }

func (RevoluteAxis) Transform(q []float64, axis r3.Vec) spatial.Transform {
	return spatial.Rotation(spatial.AxisAngle(axis, q[0]))
}

func (RevoluteAxis) Subspace(_ []float64, axis r3.Vec) []spatial.Motion {
	return []spatial.Motion{{Ang: r3.Unit(axis)}}
}

func (RevoluteAxis) Integrate(q, qd []float64, dt float64) ([]float64, error) {
	return Euler(q, qd, dt), nil
}

func (RevoluteAxis) Zero() []float64 { return []float64{0} }

// Prismatic translates the child along a fixed axis.
type Prismatic struct {
	name string
	axis r3.Vec
}

func NewPrismatic(name string, axis r3.Vec) Prismatic {
	return Prismatic{name: name, axis: r3.Unit(axis)}
}

func (p Prismatic) Name() string { return p.name }
func (Prismatic) QSize() int     { return 1 }
func (Prismatic) QDSize() int    { return 1 }

func (p Prismatic) Transform(q []float64, _ r3.Vec) spatial.Transform {
	return spatial.Translation(r3.Scale(q[0], p.axis))
}

func (p Prismatic) Subspace([]float64, r3.Vec) []spatial.Motion {
	return []spatial.Motion{{Lin: p.axis}}
}

func (Prismatic) Integrate(q, qd []float64, dt float64) ([]float64, error) {
	return Euler(q, qd, dt), nil
}

func (Prismatic) Zero() []float64 { return []float64{0} }

// P3D translates freely along all three axes.
type P3D struct{}

func (P3D) Name() string { return "p3d" }
func (P3D) QSize() int   { return 3 }
func (P3D) QDSize() int  { return 3 }

func (P3D) Transform(q []float64, _ r3.Vec) spatial.Transform {
	return spatial.Translation(r3.Vec{X: q[0], Y: q[1], Z: q[2]})
}

func (P3D) Subspace([]float64, r3.Vec) []spatial.Motion {
	return []spatial.Motion{
		{Lin: r3.Vec{X: 1}},
		{Lin: r3.Vec{Y: 1}},
		{Lin: r3.Vec{Z: 1}},
	}
}

func (P3D) Integrate(q, qd []float64, dt float64) ([]float64, error) {
	return Euler(q, qd, dt), nil
}

func (P3D) Zero() []float64 { return []float64{0, 0, 0} }
