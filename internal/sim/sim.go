// Package sim closes the loop: plant plus PID under unity negative
// feedback, simulated as a step response in servo or regulatory
// configuration.
package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/pid"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/tf"
)

// closedLoop returns the transfer function seen by the step input. Both
// modes share the characteristic polynomial Dc*Dg + Nc*Ng; they differ in
// what forces the loop.
func closedLoop(g, c tf.TF, mode loop.Mode) (tf.TF, error) {
	forward := c.Num.Mul(g.Num)
	char := c.Den.Mul(g.Den).Add(forward)
	switch mode {
	case loop.Servo:
		return tf.New(forward, char)
	case loop.Regulatory:
		return tf.New(g.Num.Mul(c.Den), char)
	}
	return tf.TF{}, &loop.ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %d", int(mode))}
}

// Simulate runs one closed-loop step response. Servo mode steps the
// reference; regulatory mode steps a load disturbance at the plant input
// with the reference held at zero. The trace is sampled on the uniform grid
// t = 0, step, ..., duration.
func Simulate(spec loop.Spec, gains loop.Gains, mode loop.Mode, cfg loop.Config) (loop.Trace, error) {
	if err := cfg.Validate(); err != nil {
		return loop.Trace{}, err
	}
	if err := gains.Validate(); err != nil {
		return loop.Trace{}, err
	}
	g, err := plant.FromSpec(spec)
	if err != nil {
		return loop.Trace{}, err
	}

	closed, err := closedLoop(g, pid.TransferFunction(gains), mode)
	if err != nil {
		return loop.Trace{}, err
	}

	y, err := closed.StepResponse(cfg.Duration, cfg.Step, cfg.Amplitude)
	if err != nil {
		return loop.Trace{}, err
	}
	for k, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return loop.Trace{}, &loop.ModelError{
				Op:     "simulate",
				Reason: fmt.Sprintf("response diverged at t=%.3f", float64(k)*cfg.Step),
			}
		}
	}

	tr := loop.Trace{
		Time:   make([]float64, len(y)),
		Output: y,
		Input:  make([]float64, len(y)),
		Mode:   mode,
	}
	for k := range tr.Time {
		tr.Time[k] = float64(k) * cfg.Step
		tr.Input[k] = cfg.Amplitude
	}
	return tr, nil
}

// ClosedLoopPoles returns the roots of the characteristic polynomial
// Dc*Dg + Nc*Ng, sorted by real part. The poles do not depend on the mode.
func ClosedLoopPoles(spec loop.Spec, gains loop.Gains) ([]complex128, error) {
	if err := gains.Validate(); err != nil {
		return nil, err
	}
	g, err := plant.FromSpec(spec)
	if err != nil {
		return nil, err
	}
	c := pid.TransferFunction(gains)
	char := c.Den.Mul(g.Den).Add(c.Num.Mul(g.Num))
	return tf.Roots(char)
}
