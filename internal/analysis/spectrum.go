package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// ErrShortSignal is returned for signals too short to analyse.
var ErrShortSignal = errors.New("analysis: signal too short")

// PowerSpectrum returns the one-sided magnitude spectrum of x sampled every
// dt seconds after a Hann window, with the frequency of every bin in Hz.
func PowerSpectrum(x []float64, dt float64) (freqs, power []float64, err error) {
	n := len(x)
	if n < 4 {
		return nil, nil, ErrShortSignal
	}
	data := make([]float64, n)
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)
	for i, v := range x {
		data[i] = v - mean
	}
	window.Apply(data, window.Hann)

	spec := fft.FFTReal(data)
	bins := n/2 + 1
	freqs = make([]float64, bins)
	power = make([]float64, bins)
	for k := range bins {
		freqs[k] = float64(k) / (float64(n) * dt)
		power[k] = cmplx.Abs(spec[k])
	}
	return freqs, power, nil
}

// DominantFrequency returns the frequency of the strongest non-DC bin.
func DominantFrequency(x []float64, dt float64) (float64, error) {
	freqs, power, err := PowerSpectrum(x, dt)
	if err != nil {
		return 0, err
	}
	best := 1
	for k := 2; k < len(power); k++ {
		if power[k] > power[best] {
			best = k
		}
	}
	return freqs[best], nil
}
