package sensors

import (
	"math"

	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

type Option func(*options)

type options struct {
	noise  bool
	seed   uint64
	window int
	delay  *int
	cutoff float64
	mount  *quat.Number
}

// WithNoise adds Gaussian noise and a constant random bias drawn from seed.
func WithNoise(seed uint64) Option {
	return func(o *options) { o.noise, o.seed = true, seed }
}

// WithSmoothing applies a centred moving average of odd width window. Unless
// WithDelay is given the output is delayed by half the window so no future
// sample leaks into a reading.
func WithSmoothing(window int) Option {
	return func(o *options) { o.window = window }
}

// WithDelay shifts the readings n samples later, padding with zeros.
func WithDelay(n int) Option {
	return func(o *options) { o.delay = &n }
}

// WithLowPass filters the positions with a second order Butterworth filter
// before differentiating.
func WithLowPass(cutoffHz float64) Option {
	return func(o *options) { o.cutoff = cutoffHz }
}

// WithRandomMount rotates the sensor against its body by a random rotation
// of at most maxAngle radians.
func WithRandomMount(seed uint64, maxAngle float64) Option {
	return func(o *options) {
		q := RandomRotation(seed, maxAngle)
		o.mount = &q
	}
}

// RandomRotation draws a rotation with a uniformly random axis and an angle
// uniform in [0, maxAngle].
func RandomRotation(seed uint64, maxAngle float64) quat.Number {
	src := newSource(seed, 0)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	axis := r3.Vec{X: normal.Rand(), Y: normal.Rand(), Z: normal.Rand()}
	if r3.Norm(axis) == 0 {
		axis = r3.Vec{X: 1}
	}
	angle := distuv.Uniform{Min: 0, Max: math.Max(maxAngle, 0), Src: src}.Rand()
	return spatial.AxisAngle(r3.Unit(axis), angle)
}
