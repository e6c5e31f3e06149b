package rcmg

import (
	"math"
	"sort"
)

// Interpolation profiles between consecutive waypoints.
const (
	Cosine  = "cosine"
	Linear  = "linear"
	MinJerk = "minjerk"
)

// profile maps normalised time in [0, 1] to progress in [0, 1]. peak is the
// maximum slope, so a segment moving delta over duration d reaches a top
// speed of peak*|delta|/d.
type profile struct {
	shape func(alpha float64) float64
	peak  float64
}

var profiles = map[string]profile{
	Cosine: {
		shape: func(a float64) float64 { return (1 - math.Cos(math.Pi*a)) / 2 },
		peak:  math.Pi / 2,
	},
	Linear: {
		shape: func(a float64) float64 { return a },
		peak:  1,
	},
	MinJerk: {
		shape: func(a float64) float64 { return a * a * a * (10 - 15*a + 6*a*a) },
		peak:  15.0 / 8,
	},
}

// resample evaluates the waypoint curve (ts, xs) at t = i*dt for
// i in [0, steps). ts must be increasing and cover the last sample.
func resample(p profile, ts, xs []float64, steps int, dt float64) []float64 {
	out := make([]float64, steps)
	for i := range out {
		t := float64(i) * dt
		k := sort.SearchFloat64s(ts, t)
		switch {
		case k == 0:
			out[i] = xs[0]
		case k >= len(ts):
			out[i] = xs[len(xs)-1]
		default:
			alpha := (t - ts[k-1]) / (ts[k] - ts[k-1])
			out[i] = xs[k-1] + (xs[k]-xs[k-1])*p.shape(alpha)
		}
	}
	return out
}
