package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// ErrTooShort is returned when a series has too few samples to analyse.
var ErrTooShort = errors.New("analysis: series too short")

const minSamples = 4

// PowerSpectrum removes the mean from data, applies a Hann window and returns
// |X[k]|² for k = 0..n/2. Bin k corresponds to frequency k/(n·dt).
func PowerSpectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range data {
		w := 1.0
		if n > 1 {
			w = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		}
		windowed[i] = (v - mean) * w
	}

	spectrum := fft.FFTReal(windowed)
	ps := make([]float64, n/2+1)
	for k := range ps {
		a := cmplx.Abs(spectrum[k])
		ps[k] = a * a
	}
	return ps
}

// DominantPeriod returns the period, in the units of dt, of the strongest
// non-zero frequency in samples. The peak bin is refined by fitting a
// parabola through it and its neighbours.
func DominantPeriod(samples []float64, dt float64) (float64, error) {
	if !(dt > 0) {
		return 0, fmt.Errorf("analysis: dt must be positive, got %g", dt)
	}
	if len(samples) < minSamples {
		return 0, fmt.Errorf("%w: %d samples", ErrTooShort, len(samples))
	}

	ps := PowerSpectrum(samples)
	peak := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[peak] {
			peak = k
		}
	}
	if ps[peak] == 0 {
		return 0, errors.New("analysis: series is constant")
	}

	bin := float64(peak)
	if peak > 1 && peak < len(ps)-1 {
		a, b, c := ps[peak-1], ps[peak], ps[peak+1]
		if d := a - 2*b + c; d != 0 {
			bin += 0.5 * (a - c) / d
		}
	}
	return float64(len(samples)) * dt / bin, nil
}
