package sensors

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// Noise standard deviations and bias bounds of the synthetic IMU.
const (
	AccNoise = 0.05
	GyrNoise = 0.5 * math.Pi / 180
	AccBias  = 0.1
	GyrBias  = 1.0 * math.Pi / 180
)

func newSource(seed, stream uint64) *rand.PCG {
	return rand.NewPCG(seed, stream)
}

// AddNoiseBias returns a copy of imu with white noise on every reading and
// one bias vector per sensor. Accelerometer and gyroscope use separate
// streams of seed.
func AddNoiseBias(seed uint64, imu IMU) IMU {
	return IMU{
		Acc: perturb(imu.Acc, newSource(seed, 0), AccNoise, AccBias),
		Gyr: perturb(imu.Gyr, newSource(seed, 1), GyrNoise, GyrBias),
	}
}

func perturb(in []r3.Vec, src rand.Source, sigma, bias float64) []r3.Vec {
	b := distuv.Uniform{Min: -bias, Max: bias, Src: src}
	offset := r3.Vec{X: b.Rand(), Y: b.Rand(), Z: b.Rand()}
	n := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}

	out := make([]r3.Vec, len(in))
	for i, v := range in {
		out[i] = r3.Add(r3.Add(v, offset), r3.Vec{X: n.Rand(), Y: n.Rand(), Z: n.Rand()})
	}
	return out
}
