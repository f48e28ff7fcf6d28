package field

import (
	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/fixed"
)

// DecayModel selects how a published value loses influence over time.
type DecayModel int

// All the decay models.
const (
	// DecayPiecewise approximates exponential decay with linear segments
	// through 1 at t=0, 1/2 at t=tau, 1/4 at t=2tau and 0 from t=3tau on.
	DecayPiecewise DecayModel = iota

	// DecayLinear falls from 1 at t=0 to 0 at t=tau.
	DecayLinear

	// DecayStep keeps full value until tau and drops to 0 afterwards.
	DecayStep
)

func (m DecayModel) String() string {
	switch m {
	case DecayPiecewise:
		return "piecewise"
	case DecayLinear:
		return "linear"
	case DecayStep:
		return "step"
	default:
		return "invalid"
	}
}

// DecayFactor returns the multiplier applied to a value published elapsed
// microseconds ago. The result is in [0, 1] and never increases with elapsed.
func DecayFactor(model DecayModel, elapsed, tau core.TimeUs) fixed.Fixed {
	if tau == 0 {
		if elapsed == 0 {
			return fixed.One
		}

		return fixed.Zero
	}

	var factor fixed.Fixed

	switch model {
	case DecayLinear:
		if elapsed >= tau {
			return fixed.Zero
		}

		factor = fixed.One - fixed.Ratio(elapsed, tau)
	case DecayStep:
		if elapsed < tau {
			return fixed.One
		}

		return fixed.Zero
	default:
		factor = piecewise(elapsed, tau)
	}

	return factor.MaxOf(fixed.Zero)
}

func piecewise(t, tau core.TimeUs) fixed.Fixed {
	switch {
	case t < tau:
		return fixed.One - fixed.Ratio(t, 2*tau)
	case t < 2*tau:
		return fixed.Half - fixed.Ratio(t-tau, 4*tau)
	case t < 3*tau:
		return fixed.Quarter - fixed.Ratio(t-2*tau, 4*tau)
	default:
		return fixed.Zero
	}
}
