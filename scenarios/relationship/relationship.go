// Package relationship implements the time-delay scenario: gestures have a
// small immediate effect and a larger deferred one, scheduled as pending
// effects that fire turns later. Users who read a quiet turn as "it didn't
// work" and push harder walk into time-delay neglect.
package relationship

import (
	"fmt"

	"COGNITIVE_BIAS_PLAYGROUND/internal/engine"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/scenario"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

const ScenarioID = "relationship-time-delay"

// Allowed actions.
const (
	ActionGift        = "gift"
	ActionQualityTime = "quality_time"
	ActionApologize   = "apologize"
	ActionWait        = "wait"
)

const (
	// giftDelay is how many turns a gift's real effect lags.
	giftDelay        = 2
	giftDelayedGain  = 12.0
	timeDelay        = 1
	timeDelayedGain  = 8.0
	timeImmediate    = 2.0
	apologyImmediate = 5.0
	breakdownFloor   = 10.0
)

var _ scenario.Rule = (*Rule)(nil)
var _ scenario.Advisor = (*Rule)(nil)

func init() {
	engine.Register(&Rule{})
}

// Rule is the relationship transition rule.
type Rule struct{}

func (r *Rule) ID() string { return ScenarioID }

func (r *Rule) Actions() []string {
	return []string{ActionGift, ActionQualityTime, ActionApologize, ActionWait}
}

func (r *Rule) InitialState(template map[string]float64, difficulty string, seed int64) state.State {
	return state.New(template, difficulty, seed)
}

func (r *Rule) Apply(s state.State, d state.Decision) (state.State, error) {
	next := s.Clone()

	switch d.Action {
	case ActionGift:
		if err := engine.Charge(&next, d.Amount); err != nil {
			return state.State{}, err
		}
		// No visible effect now; appreciation lands later.
		next.Schedule(giftDelay, map[string]float64{
			state.FieldSatisfaction: giftDelayedGain * scaleFor(d.Amount),
		})

	case ActionQualityTime:
		next.Satisfaction += timeImmediate
		next.Schedule(timeDelay, map[string]float64{
			state.FieldSatisfaction: timeDelayedGain,
		})

	case ActionApologize:
		next.Satisfaction += apologyImmediate

	case ActionWait:
		next.Satisfaction -= 2
	}

	if next.Satisfaction < breakdownFloor {
		next.Terminal = true
		next.TerminalReason = "relationship_breakdown"
	}
	return next, nil
}

// scaleFor dampens the spend's influence: a bigger gift helps somewhat, it
// does not scale linearly.
func scaleFor(amount float64) float64 {
	if amount <= 0 {
		return 0.5
	}
	return 0.5 + engine.LogSaturation(0.12, amount)
}

// CorrectiveExample explains the lag with this scenario's own constants.
func (r *Rule) CorrectiveExample(s state.State, d state.Decision) string {
	return fmt.Sprintf("A gift's effect lands %d turns after you give it. The flat turn you saw was the pipeline filling, not the gesture failing.", giftDelay)
}
