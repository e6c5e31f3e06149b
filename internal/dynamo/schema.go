package dynamo

import (
	"fmt"
	"sort"

	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/tiendc/go-deepcopy"
	"gonum.org/v1/gonum/spatial/r3"
)

// Kind classifies a schema field.
type Kind int

const (
	// Structural fields fix array shapes and the tree; they must agree
	// across a batch and cannot be replaced.
	Structural Kind = iota
	// Numeric fields may be replaced and may differ across a batch.
	Numeric
)

func (k Kind) String() string {
	if k == Structural {
		return "structural"
	}
	return "numeric"
}

// SystemSchema classifies every field of a System.
var SystemSchema = map[string]Kind{
	"bodies":           Structural,
	"parents":          Structural,
	"joints":           Structural,
	"names":            Structural,
	"gravity":          Numeric,
	"dt":               Numeric,
	"damping":          Numeric,
	"armature":         Numeric,
	"spring_stiffness": Numeric,
	"spring_zero":      Numeric,
	"transforms":       Numeric,
	"axes":             Numeric,
	"geoms":            Numeric,
}

// StateSchema classifies every field of a State. Lengths are fixed by the
// system, so replacements must keep them.
var StateSchema = map[string]Kind{
	"q":  Numeric,
	"qd": Numeric,
	"x":  Numeric,
}

// Fields lists the names of a schema with the given kind, sorted.
func Fields(schema map[string]Kind, kind Kind) []string {
	var out []string
	for name, k := range schema {
		if k == kind {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Field is a named replacement value.
type Field struct {
	Name  string
	Value any
}

func Set(name string, value any) Field { return Field{Name: name, Value: value} }

func WithGravity(g r3.Vec) Field { return Set("gravity", g) }

func WithDt(dt float64) Field { return Set("dt", dt) }

// WithDamping replaces damping with a flat array over qd.
func WithDamping(d []float64) Field { return Set("damping", d) }

func WithArmature(a []float64) Field { return Set("armature", a) }

func WithSpringStiffness(k []float64) Field { return Set("spring_stiffness", k) }

// WithSpringZero replaces the spring rest configuration, a flat array over q.
func WithSpringZero(z []float64) Field { return Set("spring_zero", z) }

// WithTransforms replaces every body's joint placement.
func WithTransforms(x []spatial.Transform) Field { return Set("transforms", x) }

func WithAxes(axes []r3.Vec) Field { return Set("axes", axes) }

// WithGeoms replaces the geometry list of every body.
func WithGeoms(g [][]Geometry) Field { return Set("geoms", g) }

// WithQ and WithQD replace the coordinates of a State.
func WithQ(q []float64) Field { return Set("q", q) }

func WithQD(qd []float64) Field { return Set("qd", qd) }

func WithX(x []spatial.Transform) Field { return Set("x", x) }

// Replace returns a deep copy of s with the given numeric fields
// overwritten. s is left unchanged.
func (s *System) Replace(fields ...Field) (*System, error) {
	var c System
	if err := deepcopy.Copy(&c, *s); err != nil {
		return nil, fmt.Errorf("dynamo: copy system: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	for _, f := range fields {
		kind, ok := SystemSchema[f.Name]
		if !ok {
			return nil, &FieldError{Field: f.Name, Wrapped: ErrUnknownField}
		}
		if kind == Structural {
			return nil, &FieldError{Field: f.Name, Wrapped: ErrImmutableField}
		}
		if err := c.set(f); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (s *System) set(f Field) error {
	n := len(s.Bodies)
	switch f.Name {
	case "gravity":
		g, ok := f.Value.(r3.Vec)
		if !ok {
			return typeError(f)
		}
		s.Gravity = g
	case "dt":
		dt, ok := f.Value.(float64)
		if !ok {
			return typeError(f)
		}
		if dt <= 0 {
			return fmt.Errorf("%w: dt must be positive, got %f", ErrParameterBounds, dt)
		}
		s.Dt = dt
	case "damping", "armature", "spring_stiffness":
		v, ok := f.Value.([]float64)
		if !ok {
			return typeError(f)
		}
		if len(v) != s.qdSize {
			return lengthError(f, len(v), s.qdSize)
		}
		for i := range s.Bodies {
			lo, hi := s.QDRange(i)
			seg := append([]float64(nil), v[lo:hi]...)
			switch f.Name {
			case "damping":
				s.Bodies[i].Damping = seg
			case "armature":
				s.Bodies[i].Armature = seg
			default:
				s.Bodies[i].SpringStiffness = seg
			}
		}
	case "spring_zero":
		v, ok := f.Value.([]float64)
		if !ok {
			return typeError(f)
		}
		if len(v) != s.qSize {
			return lengthError(f, len(v), s.qSize)
		}
		for i := range s.Bodies {
			lo, hi := s.QRange(i)
			s.Bodies[i].SpringZero = append([]float64(nil), v[lo:hi]...)
		}
	case "transforms":
		v, ok := f.Value.([]spatial.Transform)
		if !ok {
			return typeError(f)
		}
		if len(v) != n {
			return lengthError(f, len(v), n)
		}
		for i := range s.Bodies {
			s.Bodies[i].Transform = v[i]
		}
	case "axes":
		v, ok := f.Value.([]r3.Vec)
		if !ok {
			return typeError(f)
		}
		if len(v) != n {
			return lengthError(f, len(v), n)
		}
		for i := range s.Bodies {
			if s.joints[i].Name() == "rr" && r3.Norm(v[i]) == 0 {
				return fmt.Errorf("%w: body %q has rr joint with zero axis", ErrParameterBounds, s.Bodies[i].Name)
			}
			s.Bodies[i].Axis = v[i]
		}
	case "geoms":
		v, ok := f.Value.([][]Geometry)
		if !ok {
			return typeError(f)
		}
		if len(v) != n {
			return lengthError(f, len(v), n)
		}
		for i := range s.Bodies {
			for _, g := range v[i] {
				if err := g.Validate(); err != nil {
					return fmt.Errorf("body %q: %w", s.Bodies[i].Name, err)
				}
			}
			s.Bodies[i].Geoms = append([]Geometry(nil), v[i]...)
		}
	}
	return nil
}

// Replace returns a copy of s with the given fields overwritten.
func (s State) Replace(fields ...Field) (State, error) {
	c := s.Clone()
	for _, f := range fields {
		if _, ok := StateSchema[f.Name]; !ok {
			return State{}, &FieldError{Field: f.Name, Wrapped: ErrUnknownField}
		}
		switch f.Name {
		case "q", "qd":
			v, ok := f.Value.([]float64)
			if !ok {
				return State{}, typeError(f)
			}
			dst := &c.Q
			if f.Name == "qd" {
				dst = &c.QD
			}
			if len(v) != len(*dst) {
				return State{}, lengthError(f, len(v), len(*dst))
			}
			*dst = append([]float64(nil), v...)
		case "x":
			v, ok := f.Value.([]spatial.Transform)
			if !ok {
				return State{}, typeError(f)
			}
			if len(v) != len(c.X) {
				return State{}, lengthError(f, len(v), len(c.X))
			}
			c.X = append([]spatial.Transform(nil), v...)
		}
	}
	return c, nil
}

func typeError(f Field) error {
	return &FieldError{Field: fmt.Sprintf("%s (got %T)", f.Name, f.Value), Wrapped: ErrFieldType}
}

func lengthError(f Field, got, want int) error {
	return &FieldError{
		Field:   fmt.Sprintf("%s (got %d entries, want %d)", f.Name, got, want),
		Wrapped: ErrDimensionMismatch,
	}
}
