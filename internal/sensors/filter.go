package sensors

import (
	"fmt"
	"math"

	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// MovingAverage smooths x with a centred window of odd width > 1. The ends
// are padded with the first and last sample.
func MovingAverage(x []r3.Vec, window int) ([]r3.Vec, error) {
	if window < 3 || window%2 == 0 {
		return nil, fmt.Errorf("sensors: moving average window must be odd and > 1, got %d", window)
	}
	half := (window - 1) / 2
	at := func(i int) r3.Vec { return x[min(max(i, 0), len(x)-1)] }

	out := make([]r3.Vec, len(x))
	for i := range x {
		var sum r3.Vec
		for k := -half; k <= half; k++ {
			sum = r3.Add(sum, at(i+k))
		}
		out[i] = r3.Scale(1/float64(window), sum)
	}
	return out, nil
}

// Delay shifts x n samples later and pads the front with zeros.
func Delay(x []r3.Vec, n int) []r3.Vec {
	out := make([]r3.Vec, len(x))
	if n < len(x) {
		copy(out[n:], x[:len(x)-n])
	}
	return out
}

// Butterworth runs a second order low-pass filter forwards and then
// backwards over x, which cancels the phase lag.
func Butterworth(x []float64, fs, cutoff float64) ([]float64, error) {
	if len(x) < 3 {
		return nil, fmt.Errorf("%w: filter needs 3 samples, got %d", ErrTooShort, len(x))
	}
	if cutoff <= 0 || cutoff >= fs/2 {
		return nil, fmt.Errorf("sensors: cutoff %g Hz must lie in (0, %g)", cutoff, fs/2)
	}
	y := butterPass(x, fs, cutoff)
	reverse(y)
	y = butterPass(y, fs, cutoff)
	reverse(y)
	return y, nil
}

func butterPass(x []float64, fs, cutoff float64) []float64 {
	ita := 1 / math.Tan(math.Pi*cutoff/fs)
	q := math.Sqrt2
	b0 := 1 / (1 + q*ita + ita*ita)
	b1, b2 := 2*b0, b0
	a1 := 2 * (ita*ita - 1) * b0
	a2 := -(1 - q*ita + ita*ita) * b0

	out := make([]float64, len(x))
	x1, x2, y1, y2 := x[1], x[0], x[1], x[0]
	for i := 2; i < len(x); i++ {
		y := b0*x[i] + b1*x1 + b2*x2 + a1*y1 + a2*y2
		x2, x1 = x1, x[i]
		y2, y1 = y1, y
		out[i] = y
	}
	out[0], out[1] = out[2], out[2]
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

func lowPassPositions(xs []spatial.Transform, fs, cutoff float64) ([]spatial.Transform, error) {
	var axes [3][]float64
	for c := range axes {
		axes[c] = make([]float64, len(xs))
	}
	for i, x := range xs {
		axes[0][i], axes[1][i], axes[2][i] = x.Pos.X, x.Pos.Y, x.Pos.Z
	}
	for c := range axes {
		f, err := Butterworth(axes[c], fs, cutoff)
		if err != nil {
			return nil, err
		}
		axes[c] = f
	}
	out := make([]spatial.Transform, len(xs))
	for i, x := range xs {
		out[i] = spatial.Transform{Pos: r3.Vec{X: axes[0][i], Y: axes[1][i], Z: axes[2][i]}, Rot: x.Rot}
	}
	return out, nil
}
