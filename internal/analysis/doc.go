// Package analysis characterises chain rollouts.
//
//   - [PowerSpectrum] and [DominantFrequency]: windowed spectra of one coordinate
//   - [Portrait] and [Poincare]: 2D phase space views of a rollout
//   - [LyapunovExponent]: largest exponent via trajectory separation
//   - [Sweep]: bifurcation diagram over a system parameter
//
// Coordinates are indices into the flattened state [q..., qd...].
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(sys, st, 20, 1e-8)
//	if lambda > 0 {
//	    // chaotic
//	}
package analysis
