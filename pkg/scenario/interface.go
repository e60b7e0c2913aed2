package scenario

import (
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

// Rule is the interface every scenario transition rule must implement.
// A rule is a pure function of (state, decision): it never mutates its input
// and never performs I/O. Dispatch is a lookup on the scenario id, so adding
// a scenario means adding a registered Rule value.
type Rule interface {
	// ID returns the scenario id the rule is registered under. It must match
	// the descriptor id in the catalogue.
	ID() string

	// Actions returns the allowed action set for this scenario. Decisions
	// with any other action are rejected before the rule runs.
	Actions() []string

	// InitialState builds the starting state from the catalogue's
	// initial-state template.
	InitialState(template map[string]float64, difficulty string, seed int64) state.State

	// Apply produces the next state for a decision. The engine hands it a
	// deep copy with due pending effects already drained; the rule returns a
	// new state and never touches the original.
	Apply(s state.State, d state.Decision) (state.State, error)
}

// Advisor is an optional extension: rules that can compute a contrasting
// correct estimate or action for a bias reveal implement it. The feedback
// generator uses it so that Stage-2 reveals quote the scenario's own
// deterministic math instead of free-form templates.
type Advisor interface {
	CorrectiveExample(s state.State, d state.Decision) string
}
