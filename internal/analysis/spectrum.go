package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/san-kum/pidlab/internal/loop"
)

// Spectrum is the one-sided magnitude spectrum of a uniformly sampled
// trace.
type Spectrum struct {
	Freqs []float64 // bin centers in Hz
	Mag   []float64
}

// PowerSpectrum computes the magnitude spectrum of the output signal.
// The mean is removed and a Hann window applied first, so the steady
// level and the step transition do not bury oscillatory content under
// leakage. Traces shorter than two samples yield an empty spectrum.
func PowerSpectrum(tr loop.Trace) Spectrum {
	n := tr.Len()
	dt := tr.Step()
	if n < 2 || dt <= 0 {
		return Spectrum{}
	}

	mean := 0.0
	for _, v := range tr.Output {
		mean += v
	}
	mean /= float64(n)

	x := make([]float64, n)
	for i, v := range tr.Output {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	half := n / 2
	s := Spectrum{
		Freqs: make([]float64, half),
		Mag:   make([]float64, half),
	}
	for k := 0; k < half; k++ {
		s.Freqs[k] = float64(k) / (float64(n) * dt)
		s.Mag[k] = cmplx.Abs(coeffs[k])
	}
	return s
}

// DominantPeriod reports the period of the strongest oscillatory
// component of the output, 0 when the trace has none. Bin 1 is one
// cycle per window; a peak there is the step transition itself, not
// ringing, so it does not count.
func DominantPeriod(tr loop.Trace) float64 {
	s := PowerSpectrum(tr)
	if len(s.Mag) < 3 {
		return 0
	}

	best := 1
	for k := 2; k < len(s.Mag); k++ {
		if s.Mag[k] > s.Mag[best] {
			best = k
		}
	}
	if best == 1 || s.Mag[best] < 1e-12 {
		return 0
	}
	return 1 / s.Freqs[best]
}
