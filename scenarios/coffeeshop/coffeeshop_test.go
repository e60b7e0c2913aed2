package coffeeshop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COGNITIVE_BIAS_PLAYGROUND/internal/apperr"
	"COGNITIVE_BIAS_PLAYGROUND/internal/engine"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

func newState(resources float64) state.State {
	return state.New(map[string]float64{
		state.FieldSatisfaction: 50,
		state.FieldResources:    resources,
	}, "beginner", 1)
}

func TestHiringBelowPeakHelps(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(1000), state.Decision{Action: ActionHireStaff, Amount: 3})
	require.NoError(t, err)
	assert.InDelta(t, 50+4*3-0.6*9, next.Satisfaction, 1e-9) // +6.6
	assert.InDelta(t, 850, next.Resources, 1e-9)
}

func TestHiringPastPeakHurts(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(1000), state.Decision{Action: ActionHireStaff, Amount: 8})
	require.NoError(t, err)
	assert.InDelta(t, 43.6, next.Satisfaction, 1e-9)
}

func TestHiringChargesPerHire(t *testing.T) {
	r := &Rule{}
	_, err := r.Apply(newState(100), state.Decision{Action: ActionHireStaff, Amount: 3})
	assert.Equal(t, apperr.KindInsufficientResources, apperr.KindOf(err))
}

func TestMarketingBelowThresholdDoesNothingVisible(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(1000), state.Decision{Action: ActionMarketing, Amount: 199})
	require.NoError(t, err)
	assert.Equal(t, 50.0, next.Satisfaction)
	assert.Equal(t, 0.0, next.Reputation)
	assert.InDelta(t, 801, next.Resources, 1e-9)
}

func TestMarketingAtThresholdSteps(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(1000), state.Decision{Action: ActionMarketing, Amount: 200})
	require.NoError(t, err)
	assert.Equal(t, 15.0, next.Reputation)
	assert.InDelta(t, 55, next.Satisfaction, 1e-9)
}

func TestQualitySaturates(t *testing.T) {
	r := &Rule{}
	small, err := r.Apply(newState(1000), state.Decision{Action: ActionQuality, Amount: 10})
	require.NoError(t, err)
	big, err := r.Apply(newState(1000), state.Decision{Action: ActionQuality, Amount: 100})
	require.NoError(t, err)

	firstGain := small.Satisfaction - 50
	totalGain := big.Satisfaction - 50
	assert.Less(t, totalGain, 10*firstGain)
}

func TestWaitDrifts(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(1000), state.Decision{Action: ActionWait})
	require.NoError(t, err)
	assert.Equal(t, 49.0, next.Satisfaction)
}

func TestBankruptcyIsTerminal(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(150), state.Decision{Action: ActionHireStaff, Amount: 3})
	require.NoError(t, err)
	assert.True(t, next.Terminal)
	assert.Equal(t, "bankruptcy", next.TerminalReason)
	assert.Equal(t, 0.0, next.Resources)
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	r := &Rule{}
	s := newState(1000)
	before := s.Clone()
	_, err := r.Apply(s, state.Decision{Action: ActionHireStaff, Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, before, s)
}

func TestCorrectiveExampleNamesThePeak(t *testing.T) {
	r := &Rule{}
	msg := r.CorrectiveExample(newState(1000), state.Decision{Action: ActionHireStaff, Amount: 8})
	assert.Contains(t, msg, "Hiring 8")
	assert.Contains(t, msg, "3 hires")
}

func TestRuleIsRegistered(t *testing.T) {
	rule, ok := engine.Lookup(ScenarioID)
	require.True(t, ok)
	assert.Equal(t, ScenarioID, rule.ID())
}
