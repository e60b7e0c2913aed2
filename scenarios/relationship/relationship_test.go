package relationship

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COGNITIVE_BIAS_PLAYGROUND/internal/apperr"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

func newState() state.State {
	return state.New(map[string]float64{
		state.FieldSatisfaction: 50,
		state.FieldResources:    500,
	}, "intermediate", 1)
}

func TestGiftHasNoImmediateEffect(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(), state.Decision{Action: ActionGift, Amount: 100})
	require.NoError(t, err)

	assert.Equal(t, 50.0, next.Satisfaction)
	assert.InDelta(t, 400, next.Resources, 1e-9)
	require.Len(t, next.Pending, 1)
	assert.Equal(t, 1+giftDelay, next.Pending[0].TriggerTurn)
	assert.Greater(t, next.Pending[0].Deltas[state.FieldSatisfaction], 0.0)
}

func TestGiftChargesResources(t *testing.T) {
	r := &Rule{}
	_, err := r.Apply(newState(), state.Decision{Action: ActionGift, Amount: 600})
	assert.Equal(t, apperr.KindInsufficientResources, apperr.KindOf(err))
}

func TestBiggerGiftSaturates(t *testing.T) {
	r := &Rule{}
	small, err := r.Apply(newState(), state.Decision{Action: ActionGift, Amount: 10})
	require.NoError(t, err)
	big, err := r.Apply(newState(), state.Decision{Action: ActionGift, Amount: 100})
	require.NoError(t, err)

	smallGain := small.Pending[0].Deltas[state.FieldSatisfaction]
	bigGain := big.Pending[0].Deltas[state.FieldSatisfaction]
	assert.Greater(t, bigGain, smallGain)
	assert.Less(t, bigGain, 10*smallGain)
}

func TestQualityTimeSplitsNowAndLater(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(), state.Decision{Action: ActionQualityTime})
	require.NoError(t, err)

	assert.Equal(t, 50+timeImmediate, next.Satisfaction)
	require.Len(t, next.Pending, 1)
	assert.Equal(t, 1+timeDelay, next.Pending[0].TriggerTurn)
	assert.Equal(t, timeDelayedGain, next.Pending[0].Deltas[state.FieldSatisfaction])
}

func TestApologyIsImmediate(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(), state.Decision{Action: ActionApologize})
	require.NoError(t, err)
	assert.Equal(t, 50+apologyImmediate, next.Satisfaction)
	assert.Empty(t, next.Pending)
}

func TestNeglectErodesToBreakdown(t *testing.T) {
	r := &Rule{}
	s := newState()
	s.Satisfaction = 11

	next, err := r.Apply(s, state.Decision{Action: ActionWait})
	require.NoError(t, err)
	assert.True(t, next.Terminal)
	assert.Equal(t, "relationship_breakdown", next.TerminalReason)
}

func TestDelayedEffectLandsAfterDrain(t *testing.T) {
	r := &Rule{}
	next, err := r.Apply(newState(), state.Decision{Action: ActionGift, Amount: 100})
	require.NoError(t, err)

	// Two quiet turns pass; the gift fires when the trigger turn arrives.
	next.TurnNumber = 1 + giftDelay
	fired := next.DrainPending()
	require.Len(t, fired, 1)
	assert.Greater(t, next.Satisfaction, 50.0)
}

func TestCorrectiveExampleExplainsTheLag(t *testing.T) {
	r := &Rule{}
	msg := r.CorrectiveExample(newState(), state.Decision{Action: ActionGift, Amount: 50})
	assert.Contains(t, msg, "2 turns after")
}
