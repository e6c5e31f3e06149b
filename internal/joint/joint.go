// Package joint defines the joint models that connect bodies of a kinematic
// tree. A joint fixes the size of its slice of the configuration vector q and
// the velocity vector qd, maps a configuration to a relative transform, and
// advances its configuration by one time step.
package joint

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrUnknownJoint is returned by Lookup for an unregistered name.
	ErrUnknownJoint = errors.New("joint: unknown joint type")

	// ErrDuplicateJoint is returned when registering an existing name.
	ErrDuplicateJoint = errors.New("joint: joint type already registered")
)

// Joint is the behaviour of one joint type.
//
// Transform and Subspace receive the joint's own slice of q. Subspace returns
// QDSize motion vectors in child coordinates; for every built-in type the
// subspace is constant in those coordinates.
type Joint interface {
	Name() string
	QSize() int
	QDSize() int
	Transform(q []float64, axis r3.Vec) spatial.Transform
	Subspace(q []float64, axis r3.Vec) []spatial.Motion
	Integrate(q, qd []float64, dt float64) ([]float64, error)
	Zero() []float64
}

var registry = struct {
	sync.RWMutex
	joints map[string]Joint
}{joints: make(map[string]Joint)}

func init() {
	for _, j := range []Joint{
		Frozen{},
		NewRevolute("rx", r3.Vec{X: 1}),
		NewRevolute("ry", r3.Vec{Y: 1}),
		NewRevolute("rz", r3.Vec{Z: 1}),
		RevoluteAxis{},
		NewPrismatic("px", r3.Vec{X: 1}),
		NewPrismatic("py", r3.Vec{Y: 1}),
		NewPrismatic("pz", r3.Vec{Z: 1}),
		P3D{},
		Spherical{},
		Free{},
	} {
		if err := Register(j); err != nil {
			panic(err)
		}
	}
}

// Register adds a custom joint type.
func Register(j Joint) error {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.joints[j.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJoint, j.Name())
	}
	registry.joints[j.Name()] = j
	return nil
}

func Lookup(name string) (Joint, error) {
	registry.RLock()
	defer registry.RUnlock()
	j, ok := registry.joints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJoint, name)
	}
	return j, nil
}

// Names lists registered joint types in sorted order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.joints))
	for name := range registry.joints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Euler advances q by qd*dt component-wise. Joints whose configuration and
// velocity coordinates coincide use it as their integrator.
func Euler(q, qd []float64, dt float64) []float64 {
	out := make([]float64, len(q))
	for i := range q {
		out[i] = q[i] + qd[i]*dt
	}
	return out
}

// Frozen welds the child to the parent.
type Frozen struct{}

func (Frozen) Name() string                                           { return "frozen" }
func (Frozen) QSize() int                                             { return 0 }
func (Frozen) QDSize() int                                            { return 0 }
func (Frozen) Transform([]float64, r3.Vec) spatial.Transform          { return spatial.Identity() }
func (Frozen) Subspace([]float64, r3.Vec) []spatial.Motion            { return nil }
func (Frozen) Integrate(_, _ []float64, _ float64) ([]float64, error) { return []float64{}, nil }
func (Frozen) Zero() []float64                                        { return []float64{} }
