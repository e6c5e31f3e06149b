package dynamo

import (
	"fmt"
	"math"

	"github.com/san-kum/chainsim/internal/spatial"
)

type GeomKind string

const (
	Box      GeomKind = "box"
	Sphere   GeomKind = "sphere"
	Cylinder GeomKind = "cylinder"
	Capsule  GeomKind = "capsule"
)

// Geometry is a massive primitive rigidly attached to a body. Dim holds
// full edge lengths for a box, [radius] for a sphere and [radius, length]
// for a cylinder or capsule, whose axis is the local z axis.
type Geometry struct {
	Kind      GeomKind
	Mass      float64
	Transform spatial.Transform
	Dim       []float64
}

func (g Geometry) Validate() error {
	want := map[GeomKind]int{Box: 3, Sphere: 1, Cylinder: 2, Capsule: 2}
	n, ok := want[g.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown geometry %q", ErrParameterBounds, g.Kind)
	}
	if len(g.Dim) != n {
		return fmt.Errorf("%w: %s needs %d dimensions, got %d", ErrDimensionMismatch, g.Kind, n, len(g.Dim))
	}
	if g.Mass < 0 {
		return fmt.Errorf("%w: negative mass %f", ErrParameterBounds, g.Mass)
	}
	for _, d := range g.Dim {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension %f", ErrParameterBounds, d)
		}
	}
	return nil
}

// Inertia returns the geometry's spatial inertia in body coordinates.
func (g Geometry) Inertia() spatial.Inertia {
	m := g.Mass
	var ic spatial.Mat3
	switch g.Kind {
	case Box:
		x, y, z := g.Dim[0], g.Dim[1], g.Dim[2]
		ic = spatial.Diag(y*y+z*z, x*x+z*z, x*x+y*y).Scale(m / 12)
	case Sphere:
		r := g.Dim[0]
		i := 0.4 * m * r * r
		ic = spatial.Diag(i, i, i)
	case Cylinder:
		r, l := g.Dim[0], g.Dim[1]
		side := m * (3*r*r + l*l) / 12
		ic = spatial.Diag(side, side, 0.5*m*r*r)
	case Capsule:
		r, l := g.Dim[0], g.Dim[1]
		vc := math.Pi * r * r * l
		vs := 4.0 / 3 * math.Pi * r * r * r
		if vc+vs == 0 {
			break
		}
		mc, ms := m*vc/(vc+vs), m*vs/(vc+vs)
		side := mc*(l*l/12+r*r/4) + ms*(0.4*r*r+l*l/4+3*l*r/8)
		ic = spatial.Diag(side, side, 0.5*mc*r*r+0.4*ms*r*r)
	}
	rot := g.Transform.Rot
	if rot == (spatial.Transform{}).Rot {
		rot = spatial.QuatIdentity()
	}
	return spatial.Inertia{Mass: m, Com: g.Transform.Pos, Ic: ic.Rotated(rot)}
}
