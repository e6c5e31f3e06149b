package dynamics

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/joint"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/vmap"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrUnknownBody is returned when an end effector name is not in the system.
var ErrUnknownBody = errors.New("dynamics: unknown body")

// IKResult is the best configuration found by InverseKinematics.
type IKResult struct {
	Q      []float64
	Error  float64 // weighted objective at Q
	Status optimize.Status
	Start  int // index of the winning start
}

type ikOptions struct {
	weightRot float64
	weightPos float64
	q0        []float64
	restarts  int
	seed      uint64
	evals     int
}

type IKOption func(*ikOptions)

// WithErrorWeights scales the rotation-angle and position terms.
func WithErrorWeights(rot, pos float64) IKOption {
	return func(o *ikOptions) { o.weightRot, o.weightPos = rot, pos }
}

// WithInitialGuess starts the search at q0 instead of the zero configuration.
func WithInitialGuess(q0 []float64) IKOption {
	return func(o *ikOptions) { o.q0 = q0 }
}

// WithRandomRestarts runs n searches from standard normal starts drawn with
// seed and keeps the best. It replaces any initial guess.
func WithRandomRestarts(n int, seed uint64) IKOption {
	return func(o *ikOptions) { o.restarts, o.seed = n, seed }
}

// WithMaxEvaluations bounds objective evaluations per start.
func WithMaxEvaluations(n int) IKOption {
	return func(o *ikOptions) { o.evals = n }
}

// InverseKinematics searches for q such that the world transform of body
// matches target. The objective is wRot*angle(target.Rot, x.Rot) +
// wPos*|target.Pos - x.Pos|, minimised with Nelder-Mead. Quaternion
// segments are normalised and hinge angles wrapped to [-pi, pi] before every
// evaluation, and the returned Q is in that canonical form.
func InverseKinematics(sys *dynamo.System, body string, target spatial.Transform, opts ...IKOption) (IKResult, error) {
	o := ikOptions{weightRot: 1, weightPos: 1, evals: 20000}
	for _, opt := range opts {
		opt(&o)
	}
	idx, ok := sys.IndexOf(body)
	if !ok {
		return IKResult{}, fmt.Errorf("%w: %q", ErrUnknownBody, body)
	}
	if o.restarts < 0 {
		return IKResult{}, fmt.Errorf("%w: restarts must not be negative, got %d", dynamo.ErrParameterBounds, o.restarts)
	}
	if o.q0 != nil && len(o.q0) != sys.QSize() {
		return IKResult{}, fmt.Errorf("%w: q0 has %d entries, system needs %d", dynamo.ErrDimensionMismatch, len(o.q0), sys.QSize())
	}

	starts := [][]float64{o.q0}
	if o.q0 == nil {
		zero, err := dynamo.NewState(sys, nil, nil)
		if err != nil {
			return IKResult{}, err
		}
		starts[0] = zero.Q
	}
	if o.restarts > 0 {
		starts = make([][]float64, o.restarts)
		for k := range starts {
			normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(o.seed, uint64(k))}
			q := make([]float64, sys.QSize())
			for i := range q {
				q[i] = normal.Rand()
			}
			starts[k] = q
		}
	}

	objective := func(q []float64) float64 {
		canon, err := canonicalQ(sys, q)
		if err != nil {
			return math.Inf(1)
		}
		x := worldTransforms(sys, linkTransforms(sys, canon))[idx]
		return o.weightRot*spatial.AngleBetween(target.Rot, x.Rot) +
			o.weightPos*r3.Norm(r3.Sub(target.Pos, x.Pos))
	}

	results, err := vmap.Map(func(q0 []float64) (IKResult, error) {
		return solveIK(objective, q0, o.evals)
	}, vmap.Of(starts...))
	if err != nil {
		return IKResult{}, err
	}

	best := results.At(0)
	for k, r := range results.Lanes() {
		if r.Error < best.Error {
			best = r
			best.Start = k
		}
	}
	q, err := canonicalQ(sys, best.Q)
	if err != nil {
		return IKResult{}, err
	}
	best.Q = q
	return best, nil
}

func solveIK(objective func([]float64) float64, q0 []float64, evals int) (IKResult, error) {
	if len(q0) == 0 {
		return IKResult{Q: []float64{}, Error: objective(q0), Status: optimize.Success}, nil
	}
	settings := &optimize.Settings{
		FuncEvaluations: evals,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-12, Iterations: 200},
	}
	res, err := optimize.Minimize(optimize.Problem{Func: objective}, q0, settings, &optimize.NelderMead{})
	if err != nil {
		return IKResult{}, fmt.Errorf("inverse kinematics: %w", err)
	}
	return IKResult{Q: res.X, Error: res.F, Status: res.Status}, nil
}

// canonicalQ normalises quaternion segments and wraps hinge angles.
func canonicalQ(sys *dynamo.System, q []float64) ([]float64, error) {
	out := append([]float64(nil), q...)
	for i := range sys.Bodies {
		lo, _ := sys.QRange(i)
		switch sys.Joint(i).(type) {
		case joint.Spherical, joint.Free:
			n, err := spatial.Normalize(quat.Number{Real: out[lo], Imag: out[lo+1], Jmag: out[lo+2], Kmag: out[lo+3]})
			if err != nil {
				return nil, err
			}
			out[lo], out[lo+1], out[lo+2], out[lo+3] = n.Real, n.Imag, n.Jmag, n.Kmag
		case joint.Revolute, joint.RevoluteAxis:
			out[lo] = wrapToPi(out[lo])
		}
	}
	return out, nil
}

func wrapToPi(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
