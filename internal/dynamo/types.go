package dynamo

import (
	"fmt"
	"strings"

	"github.com/san-kum/chainsim/internal/joint"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/vmap"
	"github.com/tiendc/go-deepcopy"
	"gonum.org/v1/gonum/spatial/r3"
)

// World is the parent index of a root body.
const World = -1

const (
	DefaultDt      = 0.01
	DefaultGravity = -9.81
)

// Body is one link of the tree and the joint attaching it to its parent.
//
// Transform places the joint frame in the parent frame. Per-DoF arrays
// (Damping, Armature, SpringStiffness) have the joint's qd size and
// SpringZero its q size; nil means zeros (or the joint's zero
// configuration for SpringZero).
type Body struct {
	Name            string
	Parent          int
	Joint           string
	Transform       spatial.Transform
	Axis            r3.Vec
	Damping         []float64
	Armature        []float64
	SpringStiffness []float64
	SpringZero      []float64
	Geoms           []Geometry
}

// Inertia lumps the body's geometries in body coordinates.
func (b Body) Inertia() spatial.Inertia {
	var in spatial.Inertia
	for _, g := range b.Geoms {
		in = in.Add(g.Inertia())
	}
	return in
}

type Options struct {
	Gravity r3.Vec
	Dt      float64
}

func DefaultOptions() Options {
	return Options{Gravity: r3.Vec{Z: DefaultGravity}, Dt: DefaultDt}
}

// System is an immutable kinematic tree. Construct with New and derive
// variants with Replace.
type System struct {
	Name    string
	Bodies  []Body
	Gravity r3.Vec
	Dt      float64

	joints   []joint.Joint
	qOffset  []int
	qdOffset []int
	qSize    int
	qdSize   int
}

// New validates bodies and returns a system. Bodies are stored in the given
// order, which must list every parent before its children.
func New(name string, bodies []Body, opts Options) (*System, error) {
	if opts.Dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %f", ErrParameterBounds, opts.Dt)
	}
	s := &System{
		Name:    name,
		Gravity: opts.Gravity,
		Dt:      opts.Dt,
	}
	if err := deepcopy.Copy(&s.Bodies, bodies); err != nil {
		return nil, fmt.Errorf("dynamo: copy bodies: %w", err)
	}
	if err := s.index(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(bodies))
	for i := range s.Bodies {
		b := &s.Bodies[i]
		if b.Name == "" {
			b.Name = fmt.Sprintf("body%d", i)
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("%w: duplicate body name %q", ErrInvalidTree, b.Name)
		}
		seen[b.Name] = true

		j := s.joints[i]
		if b.Transform.Rot == (spatial.Transform{}).Rot {
			b.Transform.Rot = spatial.QuatIdentity()
		}
		if j.Name() == "rr" && r3.Norm(b.Axis) == 0 {
			return nil, fmt.Errorf("%w: body %q has rr joint with zero axis", ErrInvalidTree, b.Name)
		}
		var err error
		if b.Damping, err = perDoF(b.Damping, j.QDSize(), nil, b.Name, "damping"); err != nil {
			return nil, err
		}
		if b.Armature, err = perDoF(b.Armature, j.QDSize(), nil, b.Name, "armature"); err != nil {
			return nil, err
		}
		if b.SpringStiffness, err = perDoF(b.SpringStiffness, j.QDSize(), nil, b.Name, "spring_stiffness"); err != nil {
			return nil, err
		}
		if b.SpringZero, err = perDoF(b.SpringZero, j.QSize(), j.Zero(), b.Name, "spring_zero"); err != nil {
			return nil, err
		}
		for _, g := range b.Geoms {
			if err := g.Validate(); err != nil {
				return nil, fmt.Errorf("body %q: %w", b.Name, err)
			}
		}
	}
	return s, nil
}

func perDoF(v []float64, n int, zero []float64, body, field string) ([]float64, error) {
	if v == nil {
		if zero != nil {
			return append([]float64(nil), zero...), nil
		}
		return make([]float64, n), nil
	}
	if len(v) != n {
		return nil, fmt.Errorf("%w: body %q %s has %d entries, joint needs %d", ErrDimensionMismatch, body, field, len(v), n)
	}
	return append([]float64(nil), v...), nil
}

// index resolves joints and coordinate offsets. It is rerun after copies
// because the cached fields are unexported.
func (s *System) index() error {
	n := len(s.Bodies)
	s.joints = make([]joint.Joint, n)
	s.qOffset = make([]int, n+1)
	s.qdOffset = make([]int, n+1)
	for i, b := range s.Bodies {
		if b.Parent < World || b.Parent >= i {
			return fmt.Errorf("%w: body %d has parent %d, parents must precede children", ErrInvalidTree, i, b.Parent)
		}
		j, err := joint.Lookup(b.Joint)
		if err != nil {
			return fmt.Errorf("%w: body %d: %w", ErrInvalidTree, i, err)
		}
		s.joints[i] = j
		s.qOffset[i+1] = s.qOffset[i] + j.QSize()
		s.qdOffset[i+1] = s.qdOffset[i] + j.QDSize()
	}
	s.qSize = s.qOffset[n]
	s.qdSize = s.qdOffset[n]
	return nil
}

func (s *System) NumBodies() int { return len(s.Bodies) }

func (s *System) QSize() int { return s.qSize }

func (s *System) QDSize() int { return s.qdSize }

// Joint returns the joint model of body i.
func (s *System) Joint(i int) joint.Joint { return s.joints[i] }

// QRange returns the [start, end) slice of q owned by body i.
func (s *System) QRange(i int) (int, int) { return s.qOffset[i], s.qOffset[i+1] }

// QDRange returns the [start, end) slice of qd owned by body i.
func (s *System) QDRange(i int) (int, int) { return s.qdOffset[i], s.qdOffset[i+1] }

func (s *System) IndexOf(name string) (int, bool) {
	for i, b := range s.Bodies {
		if b.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (s *System) Children(i int) []int {
	var out []int
	for k, b := range s.Bodies {
		if b.Parent == i {
			out = append(out, k)
		}
	}
	return out
}

// Damping, Armature and SpringStiffness flatten the per-body arrays over qd.
func (s *System) Damping() []float64 { return s.flatten(func(b Body) []float64 { return b.Damping }) }

func (s *System) Armature() []float64 { return s.flatten(func(b Body) []float64 { return b.Armature }) }

func (s *System) SpringStiffness() []float64 {
	return s.flatten(func(b Body) []float64 { return b.SpringStiffness })
}

// SpringZero flattens the spring rest configuration over q.
func (s *System) SpringZero() []float64 { return s.flatten(func(b Body) []float64 { return b.SpringZero }) }

func (s *System) flatten(field func(Body) []float64) []float64 {
	var out []float64
	for _, b := range s.Bodies {
		out = append(out, field(b)...)
	}
	return out
}

// Shape summarises the structural fields. Systems with equal shapes can be
// batched together.
func (s *System) Shape() string {
	parents := make([]string, len(s.Bodies))
	joints := make([]string, len(s.Bodies))
	names := make([]string, len(s.Bodies))
	for i, b := range s.Bodies {
		parents[i] = fmt.Sprint(b.Parent)
		joints[i] = b.Joint
		names[i] = b.Name
	}
	return fmt.Sprintf("bodies=%d parents=[%s] joints=[%s] names=[%s]",
		len(s.Bodies), strings.Join(parents, " "), strings.Join(joints, " "), strings.Join(names, " "))
}

// Batch stacks s and others into one batch, s first.
func (s *System) Batch(others ...*System) (vmap.Batch[*System], error) {
	return vmap.Stack(append([]*System{s}, others...)...)
}

// Check reports whether st is shaped for s.
func (s *System) Check(st State) error {
	if len(st.Q) != s.qSize || len(st.QD) != s.qdSize || len(st.X) != len(s.Bodies) {
		return fmt.Errorf("%w: state %s does not fit system with q=%d qd=%d bodies=%d",
			ErrStructuralMismatch, st.Shape(), s.qSize, s.qdSize, len(s.Bodies))
	}
	return nil
}
