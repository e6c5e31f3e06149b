package analysis

import (
	"math"

	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/vmap"
)

// BifurcationPoint holds the distinct values one coordinate visits after the
// transient for a given parameter value.
type BifurcationPoint struct {
	Param  float64
	Values []float64
}

// ParamFunc derives the system for one parameter value.
type ParamFunc func(sys *dynamo.System, value float64) (*dynamo.System, error)

// ScaleDamping multiplies every damping coefficient by the parameter.
func ScaleDamping(sys *dynamo.System, k float64) (*dynamo.System, error) {
	d := sys.Damping()
	for i := range d {
		d[i] *= k
	}
	return sys.Replace(dynamo.WithDamping(d))
}

// Sweep runs one rollout per value of the parameter, concurrently, and
// records coordinate idx after transient seconds for record seconds. Values
// are quantised to 1e-3 to collapse repeated visits.
func Sweep(sys *dynamo.System, st dynamo.State, set ParamFunc, values []float64, idx int, transient, record float64) ([]BifurcationPoint, error) {
	points, err := vmap.Map(func(param float64) (BifurcationPoint, error) {
		s, err := set(sys, param)
		if err != nil {
			return BifurcationPoint{}, err
		}
		x := st.Clone()
		skip := int(math.Round(transient / s.Dt))
		total := skip + int(math.Round(record/s.Dt))

		visited := make([]float64, 0, 100)
		seen := make(map[int]bool)
		for i := range total {
			if x, err = dynamics.Step(s, x); err != nil {
				return BifurcationPoint{}, err
			}
			if i < skip {
				continue
			}
			v, err := Series([]dynamo.State{x}, idx)
			if err != nil {
				return BifurcationPoint{}, err
			}
			key := int(math.Round(v[0] * 1000))
			if !seen[key] {
				seen[key] = true
				visited = append(visited, v[0])
			}
		}
		return BifurcationPoint{Param: param, Values: visited}, nil
	}, vmap.Of(values...))
	if err != nil {
		return nil, err
	}
	return points.Lanes(), nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// BifurcationToASCII plots each parameter as one column.
func BifurcationToASCII(data []BifurcationPoint, width, height int) string {
	var all []Point
	for _, p := range data {
		for _, v := range p.Values {
			all = append(all, Point{p.Param, v})
		}
	}
	if len(all) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	c := newCanvas(width, height, boundsOf(all, 0))
	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.Values {
			c.set(c.row(v), col, '•')
		}
	}
	return c.String()
}
