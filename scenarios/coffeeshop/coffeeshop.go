// Package coffeeshop implements the coffee-shop linear-thinking scenario:
// staffing follows an inverse-U curve, marketing has a campaign threshold,
// and quality work saturates logarithmically. Users who scale inputs
// linearly walk straight into the overshoot region.
package coffeeshop

import (
	"fmt"

	"COGNITIVE_BIAS_PLAYGROUND/internal/engine"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/scenario"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

const ScenarioID = "coffee-shop-linear-thinking"

// Allowed actions.
const (
	ActionHireStaff = "hire_staff"
	ActionMarketing = "marketing"
	ActionQuality   = "quality"
	ActionWait      = "wait"
)

// Effect curve parameters.
const (
	staffCostPerHire = 50.0
	// Satisfaction from hiring peaks at staffGainA/(2*staffGainB) = 3.3 hires.
	staffGainA = 4.0
	staffGainB = 0.6
	// Marketing shows nothing below the campaign threshold.
	marketingThreshold = 200.0
	marketingBoost     = 15.0
	qualityGainK       = 8.0
)

var _ scenario.Rule = (*Rule)(nil)
var _ scenario.Advisor = (*Rule)(nil)

func init() {
	engine.Register(&Rule{})
}

// Rule is the coffee-shop transition rule.
type Rule struct{}

func (r *Rule) ID() string { return ScenarioID }

func (r *Rule) Actions() []string {
	return []string{ActionHireStaff, ActionMarketing, ActionQuality, ActionWait}
}

func (r *Rule) InitialState(template map[string]float64, difficulty string, seed int64) state.State {
	return state.New(template, difficulty, seed)
}

func (r *Rule) Apply(s state.State, d state.Decision) (state.State, error) {
	next := s.Clone()

	switch d.Action {
	case ActionHireStaff:
		if err := engine.Charge(&next, d.Amount*staffCostPerHire); err != nil {
			return state.State{}, err
		}
		next.Satisfaction += engine.InverseU(staffGainA, staffGainB, d.Amount)

	case ActionMarketing:
		if err := engine.Charge(&next, d.Amount); err != nil {
			return state.State{}, err
		}
		next.Reputation += engine.Threshold(marketingThreshold, 0, marketingBoost, d.Amount)
		next.Satisfaction += engine.Threshold(marketingThreshold, 0, marketingBoost/3, d.Amount)

	case ActionQuality:
		if err := engine.Charge(&next, d.Amount); err != nil {
			return state.State{}, err
		}
		next.Satisfaction += engine.LogSaturation(qualityGainK, d.Amount)

	case ActionWait:
		// Customers drift without attention.
		next.Satisfaction -= 1
	}

	if next.Resources <= 0 {
		next.Resources = 0
		next.Terminal = true
		next.TerminalReason = "bankruptcy"
	}
	return next, nil
}

// CorrectiveExample contrasts the user's staffing amount with the curve's
// actual peak.
func (r *Rule) CorrectiveExample(s state.State, d state.Decision) string {
	peak := engine.InverseUPeak(staffGainA, staffGainB)
	if d.Action != ActionHireStaff {
		return fmt.Sprintf("Staffing gains peak at about %.0f hires; beyond that, every extra hire costs more than it returns.", peak)
	}
	best := engine.InverseU(staffGainA, staffGainB, peak)
	actual := engine.InverseU(staffGainA, staffGainB, d.Amount)
	return fmt.Sprintf("Hiring %.0f changed satisfaction by %.1f; about %.0f hires would have gained %.1f.",
		d.Amount, actual, peak, best)
}
