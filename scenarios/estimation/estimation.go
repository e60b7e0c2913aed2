// Package estimation implements the estimation-mode scenario: each turn the
// user submits a quantitative estimate (optionally with a stated confidence)
// for an exponential or compound quantity, and the rule scores it against
// the true value. The truth is computed with arbitrary-precision integers;
// only ratios pass back through float64.
package estimation

import (
	"fmt"
	"math/big"

	"COGNITIVE_BIAS_PLAYGROUND/internal/bias"
	"COGNITIVE_BIAS_PLAYGROUND/internal/engine"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/growth"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/scenario"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

const ScenarioID = "exponential-estimation"

// Allowed actions.
const (
	ActionEstimate = "estimate"
	ActionRevise   = "revise"
)

// Template keys describing the question. Exponential questions carry base
// and exponent; compound questions carry principal, rate_pct, and periods.
const (
	KeyBase      = "base"
	KeyExponent  = "exponent"
	KeyPrincipal = "principal"
	KeyRatePct   = "rate_pct"
	KeyPeriods   = "periods"
)

var _ scenario.Rule = (*Rule)(nil)
var _ scenario.Advisor = (*Rule)(nil)

func init() {
	engine.Register(&Rule{})
}

// Rule is the estimation transition rule.
type Rule struct{}

func (r *Rule) ID() string { return ScenarioID }

func (r *Rule) Actions() []string {
	return []string{ActionEstimate, ActionRevise}
}

func (r *Rule) InitialState(template map[string]float64, difficulty string, seed int64) state.State {
	return state.New(template, difficulty, seed)
}

// truth computes the question's true value from the state's template fields.
func truth(s state.State) *big.Int {
	if exp, ok := s.Extra[KeyExponent]; ok {
		return growth.Exponential(s.Extra[KeyBase], int(exp))
	}
	v := growth.Compound(s.Extra[KeyPrincipal], s.Extra[KeyRatePct]/100, int(s.Extra[KeyPeriods]))
	out, _ := new(big.Float).SetFloat64(v).Int(nil)
	return out
}

func (r *Rule) Apply(s state.State, d state.Decision) (state.State, error) {
	next := s.Clone()

	actual := truth(next)
	ratio := growth.Ratio(d.Amount, actual)
	if ratio < 0 {
		ratio = 0
	}

	// Accuracy: 100 when the estimate matches the true value, shrinking
	// symmetrically for over- and under-estimates.
	accuracy := 0.0
	if ratio > 0 {
		if ratio <= 1 {
			accuracy = ratio * 100
		} else {
			accuracy = 100 / ratio
		}
	}

	if _, ok := next.Extra[bias.KeyFirstEstimate]; !ok {
		next.Extra[bias.KeyFirstEstimate] = d.Amount
	}
	next.Extra[bias.KeyLastEstimate] = d.Amount
	next.Extra[bias.KeyTrueRatio] = ratio
	next.Extra[bias.KeyLastAccuracy] = accuracy
	next.Knowledge += 1

	return next, nil
}

// CorrectiveExample states the actual magnitude in scientific notation, the
// piece human intuition drops.
func (r *Rule) CorrectiveExample(s state.State, d state.Decision) string {
	actual := truth(s)
	if exp, ok := s.Extra[KeyExponent]; ok {
		return fmt.Sprintf("%.0f^%.0f is %s, an order of magnitude of 10^%d. %s.",
			s.Extra[KeyBase], exp, growth.Scientific(actual),
			growth.Magnitude(actual), estimateClause(d.Amount, actual))
	}
	return fmt.Sprintf("The compounded value is %s. %s.",
		growth.Scientific(actual), estimateClause(d.Amount, actual))
}

func estimateClause(estimate float64, actual *big.Int) string {
	ratio := growth.Ratio(estimate, actual)
	if ratio > 0 && ratio < 0.3 {
		return fmt.Sprintf("Your estimate of %.3g covers only %.2g of it", estimate, ratio)
	}
	return fmt.Sprintf("Your estimate was %.3g", estimate)
}
