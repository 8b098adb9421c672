// Package metrics computes time-domain performance indices from simulated
// traces: the classic step-response set and the disturbance-rejection set.
package metrics

import (
	"math"

	"github.com/san-kum/pidlab/internal/loop"
)

// DefaultTolerance is the settling band half-width as a fraction of the
// setpoint.
const DefaultTolerance = 0.02

// StepMetrics summarizes a servo step response.
type StepMetrics struct {
	Overshoot        float64 // percent above the setpoint, clamped at 0
	RiseTime         float64 // 10% to 90% of the setpoint
	SettlingTime     float64 // last departure from setpoint +/- tolerance band
	PeakTime         float64 // time of the first maximum
	SteadyState      float64 // mean of the final 10% of samples
	SteadyStateError float64 // setpoint minus the final sample, signed
	IAE              float64
	ISE              float64
	ITAE             float64
}

// Step computes the step-response indices of tr against the setpoint.
// The rise-time convention is fixed as 10% to 90% of the setpoint, and ITAE
// weights the error by absolute trace time. A tolerance <= 0 falls back to
// DefaultTolerance.
func Step(tr loop.Trace, setpoint, tolerance float64) StepMetrics {
	n := tr.Len()
	if n == 0 {
		return StepMetrics{}
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	var m StepMetrics

	start := int(0.9 * float64(n))
	if start >= n {
		start = n - 1
	}
	sum := 0.0
	for _, v := range tr.Output[start:] {
		sum += v
	}
	m.SteadyState = sum / float64(n-start)
	m.SteadyStateError = setpoint - tr.Output[n-1]

	peakIdx := 0
	for k, v := range tr.Output {
		if v > tr.Output[peakIdx] {
			peakIdx = k
		}
	}
	m.PeakTime = tr.Time[peakIdx]
	if setpoint != 0 {
		m.Overshoot = math.Max(0, (tr.Output[peakIdx]-setpoint)/setpoint*100)
	}

	riseStart, riseEnd := -1, -1
	for k, v := range tr.Output {
		if riseStart < 0 && v >= 0.1*setpoint {
			riseStart = k
		}
		if v >= 0.9*setpoint {
			riseEnd = k
			break
		}
	}
	if riseStart >= 0 && riseEnd >= 0 {
		m.RiseTime = tr.Time[riseEnd] - tr.Time[riseStart]
	}

	band := tolerance * math.Abs(setpoint)
	for k := n - 1; k >= 0; k-- {
		if math.Abs(tr.Output[k]-setpoint) > band {
			m.SettlingTime = tr.Time[k]
			break
		}
	}

	for k := 0; k < n-1; k++ {
		dt := tr.Time[k+1] - tr.Time[k]
		e0 := setpoint - tr.Output[k]
		e1 := setpoint - tr.Output[k+1]
		m.IAE += 0.5 * dt * (math.Abs(e0) + math.Abs(e1))
		m.ISE += 0.5 * dt * (e0*e0 + e1*e1)
		m.ITAE += 0.5 * dt * (tr.Time[k]*math.Abs(e0) + tr.Time[k+1]*math.Abs(e1))
	}

	return m
}
