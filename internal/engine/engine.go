// Package engine dispatches decisions to per-scenario transition rules and
// enforces the contracts every rule shares: input states are never mutated,
// due pending effects drain before the new decision applies, bounds are
// clamped, and the turn number advances exactly once per successful apply.
package engine

import (
	"math"

	"COGNITIVE_BIAS_PLAYGROUND/internal/apperr"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

// Apply advances a state by one decision under the scenario's rule.
// The returned state is a deep copy; cur is left untouched.
func Apply(scenarioID string, cur state.State, d state.Decision) (next state.State, err error) {
	rule, ok := Lookup(scenarioID)
	if !ok {
		return state.State{}, apperr.New(apperr.KindUnknownScenario,
			"no transition rule registered for scenario %q", scenarioID)
	}
	if cur.Terminal {
		return state.State{}, apperr.New(apperr.KindSessionTerminated,
			"scenario %q reached a terminal state (%s)", scenarioID, cur.TerminalReason)
	}
	if err := validate(rule.Actions(), d); err != nil {
		return state.State{}, err
	}

	working := cur.Clone()
	working.DrainPending()
	working.Clamp()

	defer func() {
		if r := recover(); r != nil {
			err = apperr.New(apperr.KindInternalRuleError,
				"rule for scenario %q panicked: %v", scenarioID, r)
		}
	}()

	next, err = rule.Apply(working, d)
	if err != nil {
		return state.State{}, err
	}

	next.Clamp()
	next.TurnNumber = cur.TurnNumber + 1
	return next, nil
}

func validate(allowed []string, d state.Decision) error {
	if math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) || d.Amount < 0 {
		return apperr.New(apperr.KindInvalidAmount, "amount must be a nonnegative number")
	}
	for _, a := range allowed {
		if a == d.Action {
			return nil
		}
	}
	return apperr.New(apperr.KindInvalidAction, "action %q is not allowed in this scenario", d.Action).
		WithDetails(map[string]any{"allowed": allowed})
}

// Charge deducts a cost from the state's resources, rejecting the decision
// when the cost exceeds what is available. Rules call it before applying
// effects so that rejected decisions leave no trace.
func Charge(s *state.State, cost float64) error {
	if cost > s.Resources {
		return apperr.New(apperr.KindInsufficientResources,
			"cost %.2f exceeds available resources %.2f", cost, s.Resources)
	}
	s.Resources -= cost
	return nil
}
