package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/plant"
)

func TestSimulateTraceShape(t *testing.T) {
	spec := loop.FirstOrderSpec(1.0, 0.5)
	cfg := loop.Config{Duration: 10, Step: 0.02, Amplitude: 1}
	tr, err := Simulate(spec, loop.DefaultGains(), loop.Servo, cfg)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if tr.Len() != cfg.Samples() {
		t.Errorf("trace length = %d, want %d", tr.Len(), cfg.Samples())
	}
	if len(tr.Output) != tr.Len() || len(tr.Input) != tr.Len() {
		t.Errorf("ragged trace: time %d output %d input %d", tr.Len(), len(tr.Output), len(tr.Input))
	}
	for k := 1; k < tr.Len(); k++ {
		if tr.Time[k] <= tr.Time[k-1] {
			t.Fatalf("time not strictly increasing at %d: %g then %g", k, tr.Time[k-1], tr.Time[k])
		}
	}
	if tr.Time[0] != 0 {
		t.Errorf("trace starts at %g, want 0", tr.Time[0])
	}
}

func TestSimulateDeterministic(t *testing.T) {
	spec := loop.SecondOrderSpec(1.0, 2.0, 0.3)
	gains := loop.Gains{Kp: 3, Ki: 1, Kd: 0.5}
	cfg := loop.DefaultConfig()

	a, err := Simulate(spec, gains, loop.Servo, cfg)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	b, err := Simulate(spec, gains, loop.Servo, cfg)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	for k := range a.Output {
		if a.Output[k] != b.Output[k] {
			t.Fatalf("runs differ at sample %d: %v vs %v", k, a.Output[k], b.Output[k])
		}
	}
}

// Pure proportional control of a unity-gain first-order plant leaves the
// classic offset: y(inf) = kp/(1+kp) = 2/3 for kp = 2.
func TestSimulateProportionalOffset(t *testing.T) {
	spec := loop.FirstOrderSpec(1.0, 0.5)
	gains := loop.Gains{Kp: 2}
	cfg := loop.Config{Duration: 10, Step: 0.02, Amplitude: 1}

	tr, err := Simulate(spec, gains, loop.Servo, cfg)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	last := tr.Output[tr.Len()-1]
	if math.Abs(last-2.0/3.0) > 1e-3 {
		t.Errorf("steady state = %g, want 2/3", last)
	}
}

func TestSimulateIntegralRemovesOffset(t *testing.T) {
	spec := loop.FirstOrderSpec(1.0, 1.0)
	gains := loop.Gains{Kp: 1, Ki: 1}
	cfg := loop.Config{Duration: 20, Step: 0.02, Amplitude: 1.5}

	tr, err := Simulate(spec, gains, loop.Servo, cfg)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	last := tr.Output[tr.Len()-1]
	if math.Abs(last-1.5) > 1e-3 {
		t.Errorf("steady state = %g, want amplitude 1.5", last)
	}
}

// With all gains zero the regulatory loop reduces to the open-loop plant.
func TestSimulateRegulatoryZeroGains(t *testing.T) {
	spec := loop.FirstOrderSpec(2.0, 0.5)
	cfg := loop.Config{Duration: 5, Step: 0.02, Amplitude: 1}

	tr, err := Simulate(spec, loop.Gains{}, loop.Regulatory, cfg)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	g, err := plant.FromSpec(spec)
	if err != nil {
		t.Fatalf("plant: %v", err)
	}
	open, err := g.StepResponse(cfg.Duration, cfg.Step, cfg.Amplitude)
	if err != nil {
		t.Fatalf("open loop: %v", err)
	}
	for k := range open {
		if math.Abs(tr.Output[k]-open[k]) > 1e-6 {
			t.Fatalf("sample %d: closed %g vs open %g", k, tr.Output[k], open[k])
		}
	}
}

func TestSimulateRegulatoryRejectsDisturbance(t *testing.T) {
	spec := loop.FirstOrderSpec(1.0, 0.5)
	gains := loop.Gains{Kp: 2, Ki: 4}
	cfg := loop.Config{Duration: 10, Step: 0.02, Amplitude: 1}

	tr, err := Simulate(spec, gains, loop.Regulatory, cfg)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if tr.Output[0] != 0 {
		t.Errorf("regulatory response starts at %g, want 0", tr.Output[0])
	}
	last := tr.Output[tr.Len()-1]
	if math.Abs(last) > 1e-3 {
		t.Errorf("integral action should reject the disturbance, end = %g", last)
	}
}

func TestSimulateDivergenceDetected(t *testing.T) {
	// Open-loop unstable plant, no control: e^(5t) overflows inside the
	// horizon and must surface as a model error, not NaN samples.
	spec := loop.HigherOrderSpec(1.0, []complex128{5}, nil)
	cfg := loop.Config{Duration: 150, Step: 0.05, Amplitude: 1}
	_, err := Simulate(spec, loop.Gains{}, loop.Regulatory, cfg)
	if !errors.Is(err, loop.ErrModel) {
		t.Errorf("diverging run: error = %v, want ErrModel", err)
	}
}

func TestSimulateValidation(t *testing.T) {
	spec := loop.FirstOrderSpec(1.0, 0.5)
	if _, err := Simulate(spec, loop.DefaultGains(), loop.Servo, loop.Config{Duration: 1, Step: -1, Amplitude: 1}); !errors.Is(err, loop.ErrValidation) {
		t.Errorf("bad config: error = %v, want ErrValidation", err)
	}
	if _, err := Simulate(spec, loop.Gains{Kp: -1}, loop.Servo, loop.DefaultConfig()); !errors.Is(err, loop.ErrValidation) {
		t.Errorf("bad gains: error = %v, want ErrValidation", err)
	}
	if _, err := Simulate(spec, loop.DefaultGains(), loop.Mode(9), loop.DefaultConfig()); !errors.Is(err, loop.ErrValidation) {
		t.Errorf("bad mode: error = %v, want ErrValidation", err)
	}
}

func TestClosedLoopPoles(t *testing.T) {
	// kp=1 ki=1 on 1/(s+1): characteristic s^2+2s+1, a double pole at -1.
	spec := loop.FirstOrderSpec(1.0, 1.0)
	poles, err := ClosedLoopPoles(spec, loop.Gains{Kp: 1, Ki: 1})
	if err != nil {
		t.Fatalf("ClosedLoopPoles failed: %v", err)
	}
	if len(poles) != 2 {
		t.Fatalf("got %d poles, want 2", len(poles))
	}
	for _, p := range poles {
		if math.Abs(real(p)+1) > 1e-6 || math.Abs(imag(p)) > 1e-6 {
			t.Errorf("pole %v, want -1", p)
		}
	}
}

func BenchmarkSimulate(b *testing.B) {
	spec := loop.SecondOrderSpec(1.0, 2.0, 0.3)
	gains := loop.Gains{Kp: 3, Ki: 1, Kd: 0.5}
	cfg := loop.DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Simulate(spec, gains, loop.Servo, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
