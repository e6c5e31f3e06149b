// Package rcmg generates random chain motion: smooth, velocity bounded joint
// trajectories for a kinematic tree together with the world transform of
// every body along the trajectory. Generation is a pure function of the
// seed, so any lane of any batch can be regenerated on its own.
package rcmg

import (
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/vmap"
)

// Trajectory is one generated motion. Q has one configuration per sample and
// X the world transform of every body at that sample.
type Trajectory struct {
	Q [][]float64
	X [][]spatial.Transform
}

func (tr Trajectory) Steps() int { return len(tr.Q) }

// XArray flattens X into poses [px py pz qw qx qy qz].
func (tr Trajectory) XArray() [][][spatial.PoseSize]float64 {
	out := make([][][spatial.PoseSize]float64, len(tr.X))
	for t, frame := range tr.X {
		out[t] = make([][spatial.PoseSize]float64, len(frame))
		for b, x := range frame {
			out[t][b] = x.Pose()
		}
	}
	return out
}

// Generator maps a seed to a trajectory.
type Generator func(seed uint64) (Trajectory, error)

// SetupFunc derives the system a trajectory is generated for. It runs once
// per trajectory with its own seed.
type SetupFunc func(seed uint64, sys *dynamo.System) (*dynamo.System, error)

type Option func(*options)

type options struct {
	setup []SetupFunc
	draws map[string]DrawFunc
	log   logr.Logger
}

// WithSetup appends a setup step. Steps run in order.
func WithSetup(fn SetupFunc) Option {
	return func(o *options) { o.setup = append(o.setup, fn) }
}

// WithDraw overrides the draw function of one joint type for this generator.
func WithDraw(jointType string, fn DrawFunc) Option {
	return func(o *options) { o.draws[jointType] = fn }
}

func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.log = l }
}

// BuildGenerator validates cfg against sys and returns a generator. A zero
// cfg.Dt uses the system time step. The trajectory has round(T/dt) samples
// taken at t = i*dt.
func BuildGenerator(sys *dynamo.System, cfg Config, opts ...Option) (Generator, error) {
	o := options{draws: map[string]DrawFunc{}, log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.Dt == 0 {
		cfg.Dt = sys.Dt
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	steps := int(math.Round(cfg.T / cfg.Dt))
	if steps < 1 {
		return nil, fmt.Errorf("%w: t=%g shorter than dt=%g", ErrInvalidConfig, cfg.T, cfg.Dt)
	}

	fns := make([]DrawFunc, sys.NumBodies())
	for i := range fns {
		j := sys.Joint(i)
		if fn, ok := o.draws[j.Name()]; ok {
			fns[i] = fn
			continue
		}
		fn, err := DrawFor(j)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", sys.Bodies[i].Name, err)
		}
		fns[i] = fn
	}
	log := o.log.WithValues("system", sys.Name)
	log.V(1).Info("generator built", "steps", steps, "dt", cfg.Dt, "bodies", sys.NumBodies())

	return func(seed uint64) (Trajectory, error) {
		s := sys
		for k, setup := range o.setup {
			var err error
			if s, err = setup(SplitSeed(^seed, uint64(k)), s); err != nil {
				return Trajectory{}, fmt.Errorf("setup %d: %w", k, err)
			}
		}

		q := rows(steps, s.QSize())
		for i, fn := range fns {
			smp := Sampler{cfg: cfg, steps: steps, dt: cfg.Dt, seed: SplitSeed(seed, uint64(i)), log: log}
			seg, err := fn(smp)
			if err != nil {
				return Trajectory{}, fmt.Errorf("body %q: %w", s.Bodies[i].Name, err)
			}
			lo, hi := s.QRange(i)
			if len(seg) != steps {
				return Trajectory{}, fmt.Errorf("body %q: draw returned %d samples, want %d: %w",
					s.Bodies[i].Name, len(seg), steps, dynamo.ErrDimensionMismatch)
			}
			for t, row := range seg {
				if len(row) != hi-lo {
					return Trajectory{}, fmt.Errorf("body %q: draw returned width %d, want %d: %w",
						s.Bodies[i].Name, len(row), hi-lo, dynamo.ErrDimensionMismatch)
				}
				copy(q[t][lo:hi], row)
			}
		}

		x, err := vmap.Map(func(qt []float64) ([]spatial.Transform, error) {
			return dynamics.ForwardKinematics(s, qt)
		}, vmap.Of(q...))
		if err != nil {
			return Trajectory{}, err
		}
		log.V(2).Info("trajectory generated", "seed", seed)
		return Trajectory{Q: q, X: x.Lanes()}, nil
	}, nil
}

// BatchedGenerator maps a seed to a batch of trajectories.
type BatchedGenerator func(seed uint64) (vmap.Batch[Trajectory], error)

// BatchGenerator runs gen on size lanes. Lane i uses SplitSeed(seed, i).
func BatchGenerator(gen Generator, size int) BatchedGenerator {
	b, _ := BatchGenerators([]Generator{gen}, []int{size})
	return b
}

// BatchGenerators concatenates the lanes of several generators: the first
// sizes[0] lanes come from gens[0] and so on. Lane i of the whole batch uses
// SplitSeed(seed, i) whichever generator serves it.
func BatchGenerators(gens []Generator, sizes []int) (BatchedGenerator, error) {
	if len(gens) != len(sizes) {
		return nil, fmt.Errorf("%w: %d generators, %d sizes", ErrInvalidConfig, len(gens), len(sizes))
	}
	var owner []int
	for k, n := range sizes {
		if n < 0 {
			return nil, fmt.Errorf("%w: negative batch size %d", ErrInvalidConfig, n)
		}
		for range n {
			owner = append(owner, k)
		}
	}
	idx := make([]int, len(owner))
	for i := range idx {
		idx[i] = i
	}
	lanes := vmap.Of(idx...)

	return func(seed uint64) (vmap.Batch[Trajectory], error) {
		return vmap.Map(func(i int) (Trajectory, error) {
			return gens[owner[i]](SplitSeed(seed, uint64(i)))
		}, lanes)
	}, nil
}
