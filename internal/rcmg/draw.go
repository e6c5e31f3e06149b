package rcmg

import (
	"fmt"
	"sort"
	"sync"

	"github.com/san-kum/chainsim/internal/joint"
	"github.com/san-kum/chainsim/internal/spatial"
)

// DrawFunc produces the coordinates of one joint at every sample. The result
// has s.Steps() rows of the joint's QSize.
type DrawFunc func(s Sampler) ([][]float64, error)

var draws = struct {
	sync.RWMutex
	m map[string]DrawFunc
}{m: map[string]DrawFunc{}}

func init() {
	for _, name := range []string{"rx", "ry", "rz", "rr"} {
		draws.m[name] = drawAngle
	}
	for _, name := range []string{"px", "py", "pz"} {
		draws.m[name] = drawPosition
	}
	draws.m["frozen"] = drawFrozen
	draws.m["p3d"] = drawP3D
	draws.m["spherical"] = drawSpherical
	draws.m["free"] = drawFree
}

// RegisterDraw installs fn for the joint type name, replacing any previous
// function.
func RegisterDraw(name string, fn DrawFunc) {
	draws.Lock()
	defer draws.Unlock()
	draws.m[name] = fn
}

// DrawFor resolves the draw function of j. Joint types without a registered
// function fall back on their kind: revolutes draw an angle and prismatics a
// position.
func DrawFor(j joint.Joint) (DrawFunc, error) {
	draws.RLock()
	fn, ok := draws.m[j.Name()]
	draws.RUnlock()
	if ok {
		return fn, nil
	}
	switch j.(type) {
	case joint.Revolute:
		return drawAngle, nil
	case joint.Prismatic:
		return drawPosition, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoDrawFunc, j.Name())
}

// DrawNames lists the joint types with a registered draw function.
func DrawNames() []string {
	draws.RLock()
	defer draws.RUnlock()
	names := make([]string, 0, len(draws.m))
	for n := range draws.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func drawFrozen(s Sampler) ([][]float64, error) {
	return rows(s.Steps(), 0), nil
}

func drawAngle(s Sampler) ([][]float64, error) {
	return scalar(s.Angle(0))
}

func drawPosition(s Sampler) ([][]float64, error) {
	return scalar(s.Position(0))
}

func drawP3D(s Sampler) ([][]float64, error) {
	out := rows(s.Steps(), 3)
	if err := positions(s, out, 0, 0); err != nil {
		return nil, err
	}
	return out, nil
}

func drawSpherical(s Sampler) ([][]float64, error) {
	out := rows(s.Steps(), 4)
	if err := orientations(s, out, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// drawFree lays out [qw qx qy qz px py pz] with angle streams 0-2 and
// position streams 3-5.
func drawFree(s Sampler) ([][]float64, error) {
	out := rows(s.Steps(), 7)
	if err := orientations(s, out, 0); err != nil {
		return nil, err
	}
	if err := positions(s, out, 4, 3); err != nil {
		return nil, err
	}
	return out, nil
}

func orientations(s Sampler, out [][]float64, col int) error {
	var ang [3][]float64
	for c := range ang {
		a, err := s.SphericalAngle(uint64(c))
		if err != nil {
			return err
		}
		ang[c] = a
	}
	for t, row := range out {
		q := spatial.Euler(ang[0][t], ang[1][t], ang[2][t])
		row[col], row[col+1], row[col+2], row[col+3] = q.Real, q.Imag, q.Jmag, q.Kmag
	}
	return nil
}

func positions(s Sampler, out [][]float64, col int, stream uint64) error {
	for c := range 3 {
		p, err := s.Position(stream + uint64(c))
		if err != nil {
			return err
		}
		for t, row := range out {
			row[col+c] = p[t]
		}
	}
	return nil
}

func scalar(x []float64, err error) ([][]float64, error) {
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for t, v := range x {
		out[t] = []float64{v}
	}
	return out, nil
}

func rows(n, width int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, width)
	}
	return out
}
