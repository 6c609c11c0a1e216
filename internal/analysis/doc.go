// Package analysis estimates periodicity in recorded trajectories.
//
//   - [PowerSpectrum]: Hann-windowed power of a real series
//   - [DominantPeriod]: period of the strongest non-zero frequency
//
// An orbit shows up as a single peak in the spectrum of either coordinate:
//
//	_, xs, _ := storage.Series(samples, "moon")
//	period, err := analysis.DominantPeriod(xs, dt)
package analysis
