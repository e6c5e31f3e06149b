// Package sensors synthesises inertial measurements from body trajectories.
// Frames follow the simulator convention: a world transform carries the body
// origin in world coordinates and the rotation from body to world axes.
// Measurements are expressed in body axes.
package sensors

import (
	"errors"
	"fmt"

	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrTooShort is returned when a trajectory has too few samples for the
// finite differences.
var ErrTooShort = errors.New("sensors: trajectory too short")

const minAngle = 1e-10

// IMU holds one accelerometer and one gyroscope reading per sample.
type IMU struct {
	Acc []r3.Vec
	Gyr []r3.Vec
}

// Accelerometer returns the specific force a - g in body axes. The second
// difference loses one sample at each end, which is filled by repeating its
// neighbour.
func Accelerometer(xs []spatial.Transform, gravity r3.Vec, dt float64) ([]r3.Vec, error) {
	n := len(xs)
	if n < 3 {
		return nil, fmt.Errorf("%w: accelerometer needs 3 samples, got %d", ErrTooShort, n)
	}
	world := make([]r3.Vec, n)
	for i := 1; i < n-1; i++ {
		d2 := r3.Sub(r3.Add(xs[i-1].Pos, xs[i+1].Pos), r3.Scale(2, xs[i].Pos))
		world[i] = r3.Sub(r3.Scale(1/(dt*dt), d2), gravity)
	}
	world[0], world[n-1] = world[1], world[n-2]

	out := make([]r3.Vec, n)
	for i, a := range world {
		out[i] = spatial.RotateInv(a, xs[i].Rot)
	}
	return out, nil
}

// Gyroscope returns the body-frame angular velocity from consecutive
// orientations. The last reading repeats the one before it.
func Gyroscope(rots []quat.Number, dt float64) ([]r3.Vec, error) {
	n := len(rots)
	if n < 2 {
		return nil, fmt.Errorf("%w: gyroscope needs 2 samples, got %d", ErrTooShort, n)
	}
	out := make([]r3.Vec, n)
	for i := 0; i < n-1; i++ {
		dq := quat.Mul(quat.Conj(rots[i]), rots[i+1])
		axis, angle := spatial.ToAxisAngle(dq)
		if angle > minAngle {
			out[i] = r3.Scale(angle/dt, axis)
		}
	}
	out[n-1] = out[n-2]
	return out, nil
}

// Measure simulates an IMU rigidly attached to the frames xs.
func Measure(xs []spatial.Transform, gravity r3.Vec, dt float64, opts ...Option) (IMU, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.mount != nil {
		mounted := make([]spatial.Transform, len(xs))
		for i, x := range xs {
			mounted[i] = spatial.Compose(x, spatial.Rotation(*o.mount))
		}
		xs = mounted
	}
	if o.cutoff > 0 {
		filtered, err := lowPassPositions(xs, 1/dt, o.cutoff)
		if err != nil {
			return IMU{}, err
		}
		xs = filtered
	}

	acc, err := Accelerometer(xs, gravity, dt)
	if err != nil {
		return IMU{}, err
	}
	rots := make([]quat.Number, len(xs))
	for i, x := range xs {
		rots[i] = x.Rot
	}
	gyr, err := Gyroscope(rots, dt)
	if err != nil {
		return IMU{}, err
	}
	imu := IMU{Acc: acc, Gyr: gyr}

	delay := 0
	if o.delay != nil {
		delay = *o.delay
	}
	if o.window > 0 {
		if imu.Acc, err = MovingAverage(imu.Acc, o.window); err != nil {
			return IMU{}, err
		}
		if imu.Gyr, err = MovingAverage(imu.Gyr, o.window); err != nil {
			return IMU{}, err
		}
		if o.delay == nil {
			delay = (o.window - 1) / 2
		}
	}
	if delay > 0 {
		imu.Acc = Delay(imu.Acc, delay)
		imu.Gyr = Delay(imu.Gyr, delay)
	}
	if o.noise {
		imu = AddNoiseBias(o.seed, imu)
	}
	return imu, nil
}

// Column extracts the frames of one body from a (steps, bodies) trajectory.
func Column(frames [][]spatial.Transform, body int) []spatial.Transform {
	out := make([]spatial.Transform, len(frames))
	for t, f := range frames {
		out[t] = f[body]
	}
	return out
}
