// Package investment implements the investment scenario: the portfolio
// compounds multiplicatively every turn, research exposes supporting or
// contradicting information, and action choice gates the return variance.
package investment

import (
	"fmt"

	"COGNITIVE_BIAS_PLAYGROUND/internal/engine"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/growth"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/scenario"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

const ScenarioID = "investment-confirmation-bias"

// KeyPortfolio is the scenario-specific state field.
const KeyPortfolio = "portfolio"

// Allowed actions.
const (
	ActionHold        = "hold"
	ActionDiversify   = "diversify"
	ActionConcentrate = "concentrate"
	ActionResearch    = "research"
)

// Return distribution parameters per action. The market moves every turn
// regardless of the action; the action only shapes the variance.
const (
	meanReturn    = 0.05
	baseStdDev    = 0.08
	narrowStdDev  = 0.03
	wideStdDev    = 0.18
	researchBoost = 2.0 // knowledge gain per research request
)

var _ scenario.Rule = (*Rule)(nil)
var _ scenario.Advisor = (*Rule)(nil)

func init() {
	engine.Register(&Rule{})
}

// Rule is the investment transition rule.
type Rule struct{}

func (r *Rule) ID() string { return ScenarioID }

func (r *Rule) Actions() []string {
	return []string{ActionHold, ActionDiversify, ActionConcentrate, ActionResearch}
}

func (r *Rule) InitialState(template map[string]float64, difficulty string, seed int64) state.State {
	return state.New(template, difficulty, seed)
}

func (r *Rule) Apply(s state.State, d state.Decision) (state.State, error) {
	next := s.Clone()

	stddev := baseStdDev
	switch d.Action {
	case ActionDiversify:
		stddev = narrowStdDev
	case ActionConcentrate:
		stddev = wideStdDev
	case ActionResearch:
		next.Knowledge += researchBoost
		if d.Stance == state.StanceContradicting {
			// Disconfirming evidence teaches more.
			next.Knowledge += researchBoost
		}
	}

	// Return draw is a pure function of (seed, turn), so replaying the same
	// state and decision yields the same output.
	rng := engine.Rand(next.Seed, next.TurnNumber)
	ret := meanReturn + stddev*rng.NormFloat64()

	// Multiplicative composition, never additive.
	next.Extra[KeyPortfolio] *= 1 + ret

	if next.Extra[KeyPortfolio] <= 0 {
		next.Extra[KeyPortfolio] = 0
		next.Terminal = true
		next.TerminalReason = "portfolio_wiped_out"
	}
	return next, nil
}

// Return reproduces the return draw for a given turn. Exposed so tests and
// feedback can pin the compounding law.
func Return(seed int64, turn int, action string) float64 {
	stddev := baseStdDev
	switch action {
	case ActionDiversify:
		stddev = narrowStdDev
	case ActionConcentrate:
		stddev = wideStdDev
	}
	rng := engine.Rand(seed, turn)
	return meanReturn + stddev*rng.NormFloat64()
}

// CorrectiveExample contrasts linear intuition with actual compounding.
func (r *Rule) CorrectiveExample(s state.State, d state.Decision) string {
	principal := s.Extra[KeyPortfolio]
	if principal <= 0 {
		principal = 10000
	}
	years := 30
	compounded := growth.Compound(principal, 0.07, years)
	linear := principal * (1 + 0.07*float64(years))
	return fmt.Sprintf("%.0f at 7%% for %d years compounds to %.0f, not the %.0f a straight line suggests.",
		principal, years, compounded, linear)
}
