package loop

import (
	"errors"
	"testing"
)

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"first order ok", FirstOrderSpec(1.0, 0.5), false},
		{"first order zero tau", FirstOrderSpec(1.0, 0), true},
		{"first order negative gain", FirstOrderSpec(-1.0, 0.5), true},
		{"second order ok", SecondOrderSpec(1.0, 2.0, 0.3), false},
		{"second order zero wn", SecondOrderSpec(1.0, 0, 0.3), true},
		{"second order negative zeta", SecondOrderSpec(1.0, 2.0, -0.1), true},
		{"second order undamped", SecondOrderSpec(1.0, 2.0, 0), false},
		{"integrator ok", IntegratorSpec(2.0), false},
		{"integrator zero gain", IntegratorSpec(0), true},
		{"delayed ok", DelayedSpec(1.0, 1.0, 0.5), false},
		{"delayed zero delay", DelayedSpec(1.0, 1.0, 0), true},
		{"higher order ok", HigherOrderSpec(1.0, []complex128{-1, -2}, nil), false},
		{"higher order no poles", HigherOrderSpec(1.0, nil, nil), true},
		{"higher order improper", HigherOrderSpec(1.0, []complex128{-1}, []complex128{-2}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error does not unwrap to ErrValidation: %v", err)
			}
		})
	}
}

func TestGainsValidate(t *testing.T) {
	if err := (Gains{Kp: 1, Ki: 0.5, Kd: 0.1}).Validate(); err != nil {
		t.Errorf("valid gains rejected: %v", err)
	}
	if err := (Gains{Kp: 0, Ki: 0, Kd: 0}).Validate(); err != nil {
		t.Errorf("all-zero gains should be valid: %v", err)
	}
	if err := (Gains{Kp: -0.1}).Validate(); err == nil {
		t.Error("negative kp accepted")
	}
}

func TestDefaultGains(t *testing.T) {
	g := DefaultGains()
	if g.Kp != 1.0 || g.Ki != 0.0 || g.Kd != 0.0 {
		t.Errorf("DefaultGains() = %+v, want kp=1 ki=0 kd=0", g)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range AllKinds {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if _, err := ParseKind("third_order"); !errors.Is(err, ErrValidation) {
		t.Errorf("ParseKind on unknown name: error = %v, want ErrValidation", err)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Servo, Regulatory} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("tracking"); err == nil {
		t.Error("ParseMode accepted unknown mode")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []Config{
		{Duration: 10, Step: 0, Amplitude: 1},
		{Duration: 10, Step: -0.01, Amplitude: 1},
		{Duration: 0.001, Step: 0.02, Amplitude: 1},
		{Duration: 10, Step: 0.02, Amplitude: 0},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("config %d accepted: %+v", i, c)
		}
	}
}

func TestConfigSamples(t *testing.T) {
	c := Config{Duration: 10, Step: 0.02, Amplitude: 1}
	if got := c.Samples(); got != 501 {
		t.Errorf("Samples() = %d, want 501", got)
	}
	c = Config{Duration: 1, Step: 0.1, Amplitude: 1}
	if got := c.Samples(); got != 11 {
		t.Errorf("Samples() = %d, want 11", got)
	}
}

func TestTraceStep(t *testing.T) {
	tr := Trace{Time: []float64{0, 0.02, 0.04}}
	if got := tr.Step(); got != 0.02 {
		t.Errorf("Step() = %g, want 0.02", got)
	}
	if got := (Trace{}).Step(); got != 0 {
		t.Errorf("empty trace Step() = %g, want 0", got)
	}
}

func TestErrorFamilies(t *testing.T) {
	tests := []struct {
		err  error
		want error
	}{
		{&ValidationError{Field: "tau", Reason: "x"}, ErrValidation},
		{&ModelError{Op: "poles", Reason: "x"}, ErrModel},
		{&InfeasibleError{Strategy: "pole placement", Reason: "x"}, ErrInfeasible},
		{&EmptyInputError{Op: "compare"}, ErrEmptyInput},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%T does not unwrap to %v", tt.err, tt.want)
		}
		if tt.err.Error() == "" {
			t.Errorf("%T has empty message", tt.err)
		}
	}
}
