package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/sim"
)

// trace builds a synthetic servo trace from a closed-form signal.
func trace(duration, dt float64, f func(t float64) float64) loop.Trace {
	n := int(math.Round(duration/dt)) + 1
	tr := loop.Trace{
		Time:   make([]float64, n),
		Output: make([]float64, n),
		Input:  make([]float64, n),
	}
	for k := 0; k < n; k++ {
		t := float64(k) * dt
		tr.Time[k] = t
		tr.Output[k] = f(t)
		tr.Input[k] = 1
	}
	return tr
}

func TestStepFirstOrderIndices(t *testing.T) {
	tau := 1.0
	tr := trace(10, 0.01, func(t float64) float64 { return 1 - math.Exp(-t/tau) })
	m := Step(tr, 1.0, 0.02)

	if m.Overshoot != 0 {
		t.Errorf("monotone response overshoot = %g, want 0", m.Overshoot)
	}
	// First samples at or above 10% and 90% of the setpoint land on 0.11 and
	// 2.31 for this grid.
	if math.Abs(m.RiseTime-2.20) > 1e-9 {
		t.Errorf("rise time = %g, want 2.20", m.RiseTime)
	}
	// Band entry at 1-e^(-t) >= 0.98, so the last sample outside is just
	// before t = ln(50) = 3.912.
	if m.SettlingTime < 3.8 || m.SettlingTime > 4.0 {
		t.Errorf("settling time = %g, want about 3.91", m.SettlingTime)
	}
	if math.Abs(m.SteadyState-1) > 1e-3 {
		t.Errorf("steady state = %g, want about 1", m.SteadyState)
	}
	if math.Abs(m.SteadyStateError) > 1e-4 {
		t.Errorf("steady-state error = %g, want about 0", m.SteadyStateError)
	}
}

func TestStepIntegrals(t *testing.T) {
	// e(t) = e^(-2t): IAE = 1/2, ISE = 1/4, ITAE = 1/4.
	tr := trace(10, 0.02, func(t float64) float64 { return 1 - math.Exp(-2*t) })
	m := Step(tr, 1.0, 0.02)

	if math.Abs(m.IAE-0.5) > 1e-3 {
		t.Errorf("IAE = %g, want 0.5", m.IAE)
	}
	if math.Abs(m.ISE-0.25) > 1e-3 {
		t.Errorf("ISE = %g, want 0.25", m.ISE)
	}
	if math.Abs(m.ITAE-0.25) > 1e-3 {
		t.Errorf("ITAE = %g, want 0.25", m.ITAE)
	}
}

func TestStepOvershootUnderdamped(t *testing.T) {
	// Open-loop step of the underdamped plant: overshoot is
	// exp(-pi*zeta/sqrt(1-zeta^2)) = 37.2% at zeta = 0.3.
	zeta := 0.3
	tr, err := sim.Simulate(loop.SecondOrderSpec(1.0, 1.0, zeta), loop.Gains{}, loop.Regulatory,
		loop.Config{Duration: 20, Step: 0.01, Amplitude: 1})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	m := Step(tr, 1.0, 0.02)

	want := 100 * math.Exp(-math.Pi*zeta/math.Sqrt(1-zeta*zeta))
	if math.Abs(m.Overshoot-want) > 0.2 {
		t.Errorf("overshoot = %g%%, want %g%%", m.Overshoot, want)
	}
	// Peak of the underdamped response sits at pi/wd.
	wantPeak := math.Pi / math.Sqrt(1-zeta*zeta)
	if math.Abs(m.PeakTime-wantPeak) > 0.02 {
		t.Errorf("peak time = %g, want %g", m.PeakTime, wantPeak)
	}
}

func TestStepOvershootCriticallyDamped(t *testing.T) {
	tr, err := sim.Simulate(loop.SecondOrderSpec(1.0, 1.0, 1.0), loop.Gains{}, loop.Regulatory,
		loop.Config{Duration: 20, Step: 0.01, Amplitude: 1})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if m := Step(tr, 1.0, 0.02); m.Overshoot != 0 {
		t.Errorf("critically damped overshoot = %g%%, want exactly 0", m.Overshoot)
	}
}

// A proportional-only loop keeps a steady offset: the output never enters
// the setpoint band, so settling is the full trace and the error stays at
// the offset.
func TestStepOffsetNeverSettles(t *testing.T) {
	tr, err := sim.Simulate(loop.FirstOrderSpec(1.0, 0.5), loop.Gains{Kp: 2}, loop.Servo,
		loop.Config{Duration: 10, Step: 0.02, Amplitude: 1})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	m := Step(tr, 1.0, 0.02)
	if math.Abs(m.SteadyStateError-1.0/3.0) > 1e-3 {
		t.Errorf("steady-state error = %g, want 1/3", m.SteadyStateError)
	}
	if math.Abs(m.SettlingTime-tr.Time[tr.Len()-1]) > 1e-9 {
		t.Errorf("settling time = %g, want full trace %g", m.SettlingTime, tr.Time[tr.Len()-1])
	}
}

func TestStepZeroSetpoint(t *testing.T) {
	tr := trace(5, 0.01, func(t float64) float64 { return math.Exp(-t) })
	m := Step(tr, 0, 0.02)
	if m.Overshoot != 0 {
		t.Errorf("zero setpoint overshoot = %g, want 0", m.Overshoot)
	}
}

func TestStepEmptyTrace(t *testing.T) {
	if m := Step(loop.Trace{}, 1.0, 0.02); m != (StepMetrics{}) {
		t.Errorf("empty trace metrics = %+v, want zero value", m)
	}
}

func TestDisturbanceZeroTrace(t *testing.T) {
	tr := trace(5, 0.01, func(float64) float64 { return 0 })
	if m := Disturbance(tr); m != (DisturbanceMetrics{}) {
		t.Errorf("zero trace metrics = %+v, want all zero", m)
	}
}

func TestDisturbancePulse(t *testing.T) {
	// y = t*e^(-t): peak 1/e at t=1, recovery to 5% of the peak near t=5.75.
	tr := trace(10, 0.01, func(t float64) float64 { return t * math.Exp(-t) })
	m := Disturbance(tr)

	if math.Abs(m.PeakDeviation-1/math.E) > 1e-4 {
		t.Errorf("peak deviation = %g, want 1/e", m.PeakDeviation)
	}
	if m.RecoveryTime < 5.5 || m.RecoveryTime > 6.0 {
		t.Errorf("recovery time = %g, want about 5.75", m.RecoveryTime)
	}
	// Energy = integral of t^2*e^(-2t) = 1/4.
	if math.Abs(m.Energy-0.25) > 1e-3 {
		t.Errorf("energy = %g, want 0.25", m.Energy)
	}
}

func TestDisturbanceNeverRecovers(t *testing.T) {
	tr := trace(5, 0.01, func(float64) float64 { return 1 })
	m := Disturbance(tr)
	if m.RecoveryTime != tr.Time[tr.Len()-1] {
		t.Errorf("recovery time = %g, want final time %g", m.RecoveryTime, tr.Time[tr.Len()-1])
	}
}

func TestDisturbanceRegulatoryLoop(t *testing.T) {
	tr, err := sim.Simulate(loop.FirstOrderSpec(1.0, 0.5), loop.Gains{Kp: 2, Ki: 4}, loop.Regulatory,
		loop.Config{Duration: 10, Step: 0.02, Amplitude: 1})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	m := Disturbance(tr)
	if m.PeakDeviation <= 0 || m.PeakDeviation > 1 {
		t.Errorf("peak deviation = %g, want in (0, 1]", m.PeakDeviation)
	}
	if m.RecoveryTime <= 0 || m.RecoveryTime >= tr.Time[tr.Len()-1] {
		t.Errorf("recovery time = %g, want inside the trace", m.RecoveryTime)
	}
	if m.Energy <= 0 {
		t.Errorf("energy = %g, want positive", m.Energy)
	}
}
