package bias

import (
	"math"
	"sort"

	"COGNITIVE_BIAS_PLAYGROUND/internal/catalog"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

// Extra-state keys written by estimation rules and read by the tracker.
const (
	KeyFirstEstimate = "first_estimate"
	KeyLastEstimate  = "last_estimate"
	KeyTrueRatio     = "true_ratio"
	KeyLastAccuracy  = "last_accuracy"
)

// Detection is one detected (or latent) bias with its confidence in [0, 1].
type Detection struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// Result partitions detections by the enter threshold: Detected holds tags
// at or above it, Latent holds weaker signals that may promote later.
type Result struct {
	Detected []Detection `json:"detected"`
	Latent   []Detection `json:"latent"`
}

// predicate evaluates one bias tag over a history. Returning ok=false means
// no signal at all; a positive confidence below EnterThreshold is latent.
type predicate func(scn catalog.Scenario, history []state.DecisionRecord) (confidence float64, ok bool)

var predicates = map[string]predicate{
	TagLinearThinking:          detectLinearThinking,
	TagPatternRepetition:       detectPatternRepetition,
	TagConfirmationBias:        detectConfirmationBias,
	TagAnchoring:               detectAnchoring,
	TagTimeDelayNeglect:        detectTimeDelayNeglect,
	TagCompoundUnderestimation: detectCompoundUnderestimation,
	TagAvailability:            detectAvailability,
	TagOverconfidence:          detectOverconfidence,
}

// Evaluate runs every applicable predicate over the full history. It is
// idempotent: the same history always yields the same result. Tags outside
// the scenario's target set are skipped unless general purpose.
func Evaluate(scn catalog.Scenario, history []state.DecisionRecord) Result {
	var res Result
	tags := make([]string, 0, len(predicates))
	for tag := range predicates {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		if !GeneralPurpose(tag) && !scn.TargetsBias(tag) {
			continue
		}
		conf, ok := predicates[tag](scn, history)
		if !ok || conf <= 0 {
			continue
		}
		d := Detection{Tag: tag, Confidence: clamp01(conf)}
		if d.Confidence >= EnterThreshold {
			res.Detected = append(res.Detected, d)
		} else {
			res.Latent = append(res.Latent, d)
		}
	}
	return res
}

// scaled maps a raw strength in [0, 1] onto [EnterThreshold, 1], so that any
// predicate that fires at all clears the enter bar and strength controls how
// far past it.
func scaled(strength float64) float64 {
	return EnterThreshold + (1-EnterThreshold)*clamp01(strength)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func satisfactionDelta(r state.DecisionRecord) float64 {
	return r.PostState.Satisfaction - r.PreState.Satisfaction
}

// detectLinearThinking fires when the user keeps pushing the same lever
// while the scenario's non-linearity has already cut the per-unit payoff:
// two or more consecutive decisions on one action with non-decreasing
// amounts and a diminished (or negative) satisfaction delta.
func detectLinearThinking(_ catalog.Scenario, history []state.DecisionRecord) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	last := history[len(history)-1]
	prev := history[len(history)-2]
	if last.Action != prev.Action {
		return 0, false
	}
	if last.Amount < prev.Amount {
		return 0, false
	}
	lastDelta := satisfactionDelta(last)
	prevDelta := satisfactionDelta(prev)
	diminished := lastDelta < prevDelta || (lastDelta < 0 && last.Amount > 0)
	if !diminished {
		return 0, false
	}
	base := prev.Amount
	if base == 0 {
		base = 1
	}
	strength := math.Min((last.Amount-prev.Amount)/base, 1)
	return scaled(strength), true
}

// detectPatternRepetition fires when the recent window is dominated by one
// action. Confidence is the share of the last four decisions matching the
// most recent action, so two in a row already registers and three of four
// clears the reveal threshold.
func detectPatternRepetition(_ catalog.Scenario, history []state.DecisionRecord) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	window := history
	if len(window) > 4 {
		window = window[len(window)-4:]
	}
	last := window[len(window)-1].Action
	count := 0
	for _, r := range window {
		if r.Action == last {
			count++
		}
	}
	if count < 2 {
		return 0, false
	}
	return float64(count) / 4, true
}

// detectConfirmationBias fires when at least two thirds of research requests
// asked for supporting evidence.
func detectConfirmationBias(_ catalog.Scenario, history []state.DecisionRecord) (float64, bool) {
	var total, supporting int
	for _, r := range history {
		if r.Stance == "" {
			continue
		}
		total++
		if r.Stance == state.StanceSupporting {
			supporting++
		}
	}
	if total < 2 {
		return 0, false
	}
	frac := float64(supporting) / float64(total)
	if frac < 2.0/3.0 {
		return 0, false
	}
	strength := (frac - 2.0/3.0) / (1.0 / 3.0)
	return scaled(strength), true
}

// detectAnchoring fires when the final estimate stays within 10% of the
// first one even after scale feedback.
func detectAnchoring(_ catalog.Scenario, history []state.DecisionRecord) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	last := history[len(history)-1].PostState.Extra
	first := last[KeyFirstEstimate]
	final := last[KeyLastEstimate]
	if first == 0 || final == 0 {
		return 0, false
	}
	dev := math.Abs(final-first) / math.Abs(first)
	if dev > 0.10 {
		return 0, false
	}
	return scaled(1 - dev/0.10), true
}

// detectTimeDelayNeglect fires when a user raises the input amount on the
// very next turn after an apparently null effect, reading a delayed effect
// as ineffectiveness.
func detectTimeDelayNeglect(_ catalog.Scenario, history []state.DecisionRecord) (float64, bool) {
	const nullEps = 0.5
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1], history[i]
		if cur.Action != prev.Action || cur.Amount <= prev.Amount {
			continue
		}
		if math.Abs(satisfactionDelta(prev)) > nullEps {
			continue
		}
		base := prev.Amount
		if base == 0 {
			base = 1
		}
		strength := math.Min((cur.Amount-prev.Amount)/base, 1)
		return scaled(strength), true
	}
	return 0, false
}

// detectCompoundUnderestimation fires when an estimate lands below 30% of
// the true value of an exponential or compound quantity.
func detectCompoundUnderestimation(_ catalog.Scenario, history []state.DecisionRecord) (float64, bool) {
	if len(history) == 0 {
		return 0, false
	}
	extra := history[len(history)-1].PostState.Extra
	if extra == nil {
		return 0, false
	}
	ratio, present := extra[KeyTrueRatio]
	if !present || ratio >= 0.30 {
		return 0, false
	}
	return scaled(1 - ratio/0.30), true
}

// detectAvailability fires when decisions cluster on the action showcased by
// the scenario's vivid example.
func detectAvailability(scn catalog.Scenario, history []state.DecisionRecord) (float64, bool) {
	if scn.VividExample == "" || len(history) < 3 {
		return 0, false
	}
	matching := 0
	for _, r := range history {
		if r.Action == scn.VividExample {
			matching++
		}
	}
	frac := float64(matching) / float64(len(history))
	if frac < 0.5 {
		return 0, false
	}
	return scaled((frac - 0.5) / 0.5), true
}

// detectOverconfidence fires when stated confidence exceeds measured
// accuracy by more than 20 percentage points.
func detectOverconfidence(_ catalog.Scenario, history []state.DecisionRecord) (float64, bool) {
	var confSum, accSum float64
	var n int
	for _, r := range history {
		if r.Confidence <= 0 || r.PostState.Extra == nil {
			continue
		}
		acc, ok := r.PostState.Extra[KeyLastAccuracy]
		if !ok {
			continue
		}
		confSum += r.Confidence
		accSum += acc
		n++
	}
	if n == 0 {
		return 0, false
	}
	gap := confSum/float64(n) - accSum/float64(n)
	if gap <= 20 {
		return 0, false
	}
	return scaled((gap - 20) / 30), true
}
