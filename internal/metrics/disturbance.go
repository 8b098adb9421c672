package metrics

import (
	"math"

	"github.com/san-kum/pidlab/internal/loop"
)

// recoveryFraction of the peak deviation counts as recovered.
const recoveryFraction = 0.05

// DisturbanceMetrics summarizes a regulatory (disturbance-rejection)
// response, measured against the zero baseline.
type DisturbanceMetrics struct {
	PeakDeviation float64 // max |output|
	RecoveryTime  float64 // first time at or after the peak back within 5% of it
	Energy        float64 // integral of output^2
}

// Disturbance computes the rejection indices of tr. A trace that never
// leaves zero yields all-zero metrics. A response that never recovers
// reports the final trace time.
func Disturbance(tr loop.Trace) DisturbanceMetrics {
	n := tr.Len()
	if n == 0 {
		return DisturbanceMetrics{}
	}

	var m DisturbanceMetrics
	peakIdx := 0
	for k, v := range tr.Output {
		if math.Abs(v) > m.PeakDeviation {
			m.PeakDeviation = math.Abs(v)
			peakIdx = k
		}
	}
	if m.PeakDeviation == 0 {
		return DisturbanceMetrics{}
	}

	m.RecoveryTime = tr.Time[n-1]
	target := recoveryFraction * m.PeakDeviation
	for k := peakIdx; k < n; k++ {
		if math.Abs(tr.Output[k]) <= target {
			m.RecoveryTime = tr.Time[k]
			break
		}
	}

	for k := 0; k < n-1; k++ {
		dt := tr.Time[k+1] - tr.Time[k]
		y0 := tr.Output[k]
		y1 := tr.Output[k+1]
		m.Energy += 0.5 * dt * (y0*y0 + y1*y1)
	}
	return m
}
