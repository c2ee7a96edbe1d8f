// Package analysis characterizes sampled runs of a cloth world.
//
//   - [PowerSpectrum] and [DominantFrequency]: FFT of a probe series
//   - [Peaks] and [LogDecrement]: how fast an oscillation dies out
//   - [DivergenceRate]: growth of a small perturbation between two copies
//     of the same world
//
// A positive divergence rate over a short horizon usually means the
// integrator is unstable at the chosen dt:
//
//	rate := analysis.DivergenceRate(world, 1e-4, 0.01, 500)
//	if rate > 0 {
//	    // shrink dt or switch integrator
//	}
package analysis
