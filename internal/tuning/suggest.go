package tuning

import (
	"fmt"

	"github.com/san-kum/pidlab/internal/loop"
)

// suggestions maps every plant kind to its heuristic rule. init verifies
// the table against loop.AllKinds, so a kind without a rule fails at
// startup instead of leaving a triple undefined at runtime.
var suggestions = map[loop.Kind]func(loop.Spec) loop.Gains{
	loop.FirstOrder:  suggestFirstOrder,
	loop.SecondOrder: suggestSecondOrder,
	loop.Integrator:  suggestIntegrator,
	loop.Delayed:     suggestDelayed,
	loop.HigherOrder: suggestConservative,
}

func init() {
	for _, k := range loop.AllKinds {
		if _, ok := suggestions[k]; !ok {
			panic(fmt.Sprintf("tuning: no suggestion rule for kind %s", k))
		}
	}
}

// Suggest returns a starting gain triple for the plant archetype from a
// table of empirical rules. It is total over all defined kinds.
func Suggest(spec loop.Spec) (loop.Gains, error) {
	if err := spec.Validate(); err != nil {
		return loop.Gains{}, err
	}
	rule, ok := suggestions[spec.Kind]
	if !ok {
		return loop.Gains{}, &loop.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown plant kind %d", int(spec.Kind))}
	}
	return rule(spec), nil
}

func suggestFirstOrder(s loop.Spec) loop.Gains {
	return loop.Gains{
		Kp: 1.0 / s.Tau,
		Ki: 1.0 / (2 * s.Tau * s.Tau),
		Kd: s.Tau / 4,
	}
}

func suggestSecondOrder(s loop.Spec) loop.Gains {
	if s.Zeta < 0.7 {
		return loop.Gains{
			Kp: 2 * s.Zeta * s.Wn,
			Ki: s.Wn * s.Wn,
			Kd: 1.0,
		}
	}
	return loop.Gains{
		Kp: s.Wn,
		Ki: s.Wn * s.Wn / 2,
		Kd: 2 * s.Zeta / s.Wn,
	}
}

// Integrating plants bring their own pole at the origin, so the rule adds
// no further integral action.
func suggestIntegrator(loop.Spec) loop.Gains {
	return loop.Gains{Kp: 1.0, Ki: 0.0, Kd: 0.5}
}

// Open-loop Ziegler-Nichols reaction-curve rule for a lag with dead time:
// Kp = 1.2*tau/(K*L), Ti = 2L, Td = L/2.
func suggestDelayed(s loop.Spec) loop.Gains {
	kp := 1.2 * s.Tau / (s.K * s.Delay)
	return loop.Gains{
		Kp: kp,
		Ki: kp / (2 * s.Delay),
		Kd: kp * s.Delay / 2,
	}
}

func suggestConservative(loop.Spec) loop.Gains {
	return loop.Gains{Kp: 1.0, Ki: 0.1, Kd: 0.1}
}
