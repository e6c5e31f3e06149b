package rcmg

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"
)

// sigmoidCut is the normalised distance from a limit inside which the
// sigmoid policy always turns back.
const sigmoidCut = 0.01 / math.Pi

// Channel describes one scalar coordinate driven by the waypoint walk.
type Channel struct {
	Limits r1.Interval // admissible values
	Init   r1.Interval // initial value is drawn from here
	Speed  r1.Interval // peak speed of a segment
	Delta  r1.Interval // admissible |change| per segment
}

// Sampler draws the scalar channels of one body. Every channel reads its own
// PCG stream so adding channels does not perturb the others.
type Sampler struct {
	cfg   Config
	steps int
	dt    float64
	seed  uint64
	log   logr.Logger
}

func (s Sampler) Steps() int     { return s.steps }
func (s Sampler) Config() Config { return s.cfg }
func (s Sampler) Seed() uint64   { return s.seed }
func (s Sampler) Dt() float64    { return s.dt }

// Angle walks a hinge angle within [AngMin, AngMax].
func (s Sampler) Angle(stream uint64) ([]float64, error) {
	c := s.cfg
	return s.Walk(Channel{
		Limits: r1.Interval{Min: c.AngMin, Max: c.AngMax},
		Init:   r1.Interval{Min: c.Ang0Min, Max: c.Ang0Max},
		Speed:  r1.Interval{Min: c.DangMin, Max: c.DangMax},
		Delta:  r1.Interval{Min: c.DeltaAngMin, Max: c.DeltaAngMax},
	}, stream)
}

// SphericalAngle walks one Euler angle of a spherical or free joint.
func (s Sampler) SphericalAngle(stream uint64) ([]float64, error) {
	c := s.cfg
	return s.Walk(Channel{
		Limits: r1.Interval{Min: c.AngMin, Max: c.AngMax},
		Init:   r1.Interval{Min: c.Ang0Min, Max: c.Ang0Max},
		Speed:  r1.Interval{Min: c.DangMinFreeSpherical, Max: c.DangMaxFreeSpherical},
		Delta:  r1.Interval{Min: c.DeltaAngMin, Max: c.DeltaAngMax},
	}, stream)
}

// Position walks a translational coordinate within [PosMin, PosMax].
func (s Sampler) Position(stream uint64) ([]float64, error) {
	c := s.cfg
	return s.Walk(Channel{
		Limits: r1.Interval{Min: c.PosMin, Max: c.PosMax},
		Init:   r1.Interval{Min: c.Pos0Min, Max: c.Pos0Max},
		Speed:  r1.Interval{Min: c.DposMin, Max: c.DposMax},
		Delta:  r1.Interval{Min: 0, Max: math.Inf(1)},
	}, stream)
}

// Walk samples waypoints for ch and interpolates them onto the output grid.
// Segment deltas are scaled by the profile's peak slope, so the sampled
// speed bounds the derivative of the interpolated curve.
func (s Sampler) Walk(ch Channel, stream uint64) ([]float64, error) {
	src := newSource(s.seed, stream)
	p := profiles[s.cfg.Interpolation]
	horizon := float64(s.steps-1) * s.dt

	x := uniform(src, ch.Init)
	ts := []float64{0}
	xs := []float64{x}
	for t := 0.0; t <= horizon; {
		dur := uniform(src, r1.Interval{Min: s.cfg.TMin, Max: s.cfg.TMax})
		next, err := s.waypoint(ch, p, x, dur, src)
		if err != nil {
			return nil, fmt.Errorf("stream %d at t=%.3f: %w", stream, t, err)
		}
		t += dur
		x = next
		ts = append(ts, t)
		xs = append(xs, x)
	}
	s.log.V(2).Info("channel sampled", "stream", stream, "waypoints", len(ts))
	return resample(p, ts, xs, s.steps, s.dt), nil
}

func (s Sampler) waypoint(ch Channel, p profile, x, dur float64, src rand.Source) (float64, error) {
	for attempt := range s.cfg.MaxIter {
		speed := uniform(src, ch.Speed)
		delta := s.direction(ch.Limits, x, src) * speed * dur / p.peak
		if within(ch.Limits, x+delta) && within(ch.Delta, math.Abs(delta)) {
			if attempt > 0 {
				s.log.V(2).Info("waypoint resampled", "attempts", attempt+1)
			}
			return x + delta, nil
		}
	}
	return 0, fmt.Errorf("%w: no waypoint from %.4g within [%.4g, %.4g] after %d attempts",
		ErrInfeasibleJointLimits, x, ch.Limits.Min, ch.Limits.Max, s.cfg.MaxIter)
}

// direction returns +1 or -1. The probability of moving up shrinks as x
// approaches the upper limit, except under the coinflip policy.
func (s Sampler) direction(lim r1.Interval, x float64, src rand.Source) float64 {
	half := (lim.Max - lim.Min) / 2
	u := (x - (lim.Min + half)) / half

	var p float64
	switch s.cfg.RangeOfMotionMethod {
	case MethodCoinflip:
		p = 0.5
	case MethodUniform:
		p = 0.5 * (1 - u)
	case MethodSigmoid:
		switch {
		case u >= 1-sigmoidCut:
			p = 0
		case u <= -1+sigmoidCut:
			p = 1
		default:
			p = 1 / (1 + math.Exp(s.cfg.SigmoidScale*math.Pi*u))
		}
	}
	p = math.Max(0, math.Min(1, p))
	coin := distuv.Bernoulli{P: p, Src: src}
	if coin.Rand() == 1 {
		return 1
	}
	return -1
}

func uniform(src rand.Source, iv r1.Interval) float64 {
	if iv.Min == iv.Max {
		return iv.Min
	}
	return distuv.Uniform{Min: iv.Min, Max: iv.Max, Src: src}.Rand()
}

func within(iv r1.Interval, x float64) bool {
	return x >= iv.Min && x <= iv.Max
}
