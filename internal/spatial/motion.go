package spatial

import "gonum.org/v1/gonum/spatial/r3"

// Motion is a spatial motion vector (angular, linear) such as a velocity or
// acceleration, expressed at the frame origin.
type Motion struct {
	Ang r3.Vec
	Lin r3.Vec
}

// Force is a spatial force vector (moment, force).
type Force struct {
	Ang r3.Vec
	Lin r3.Vec
}

func (m Motion) Add(o Motion) Motion {
	return Motion{Ang: r3.Add(m.Ang, o.Ang), Lin: r3.Add(m.Lin, o.Lin)}
}

func (m Motion) Scale(s float64) Motion {
	return Motion{Ang: r3.Scale(s, m.Ang), Lin: r3.Scale(s, m.Lin)}
}

// CrossMotion is the motion cross product m x o.
func (m Motion) CrossMotion(o Motion) Motion {
	return Motion{
		Ang: r3.Cross(m.Ang, o.Ang),
		Lin: r3.Add(r3.Cross(m.Ang, o.Lin), r3.Cross(m.Lin, o.Ang)),
	}
}

// CrossForce is the force cross product m x* f.
func (m Motion) CrossForce(f Force) Force {
	return Force{
		Ang: r3.Add(r3.Cross(m.Ang, f.Ang), r3.Cross(m.Lin, f.Lin)),
		Lin: r3.Cross(m.Ang, f.Lin),
	}
}

// Dot is the scalar power m . f.
func (m Motion) Dot(f Force) float64 {
	return r3.Dot(m.Ang, f.Ang) + r3.Dot(m.Lin, f.Lin)
}

func (f Force) Add(o Force) Force {
	return Force{Ang: r3.Add(f.Ang, o.Ang), Lin: r3.Add(f.Lin, o.Lin)}
}

func (f Force) Sub(o Force) Force {
	return Force{Ang: r3.Sub(f.Ang, o.Ang), Lin: r3.Sub(f.Lin, o.Lin)}
}
