// Package pid provides the ideal PID controller in two forms: a transfer
// function for closed-loop algebra and a stateful discrete controller for
// sample-by-sample loops.
package pid

import (
	"github.com/san-kum/pidlab/internal/loop"
	"github.com/san-kum/pidlab/internal/tf"
)

// TransferFunction returns the ideal PID in Laplace form:
//
//	C(s) = (Kd*s^2 + Kp*s + Ki) / s
//
// With Kd > 0 this is improper on its own; the closed loop formed with a
// strictly proper plant is proper again.
func TransferFunction(g loop.Gains) tf.TF {
	return tf.TF{
		Num: tf.NewPoly(g.Kd, g.Kp, g.Ki),
		Den: tf.NewPoly(1, 0),
	}
}

// Controller is the discrete incremental form: accumulated integral,
// backward-difference derivative. The first sample applies only the
// proportional term since no history exists yet.
type Controller struct {
	gains    loop.Gains
	setpoint float64
	integral float64
	prevErr  float64
	first    bool
}

func New(g loop.Gains, setpoint float64) *Controller {
	return &Controller{gains: g, setpoint: setpoint, first: true}
}

// Compute returns the control action for one sample of the measured output,
// taken dt after the previous sample.
func (c *Controller) Compute(measurement, dt float64) float64 {
	err := c.setpoint - measurement

	if c.first || dt <= 0 {
		c.prevErr = err
		c.first = false
		return c.gains.Kp * err
	}

	c.integral += err * dt
	derivative := (err - c.prevErr) / dt
	c.prevErr = err

	return c.gains.Kp*err + c.gains.Ki*c.integral + c.gains.Kd*derivative
}

// Reset clears integral and derivative state.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevErr = 0
	c.first = true
}

func (c *Controller) Gains() loop.Gains { return c.gains }

// SetGains swaps the gain triple mid-run, keeping accumulated state. The
// live tuner uses this to nudge gains without restarting the loop.
func (c *Controller) SetGains(g loop.Gains) { c.gains = g }

func (c *Controller) Setpoint() float64 { return c.setpoint }

func (c *Controller) SetSetpoint(v float64) { c.setpoint = v }
