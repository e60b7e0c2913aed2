// Package feedback produces the stage-dependent prose for each turn. The
// stage follows the session's turn number so users experience a deliberate
// arc: confusion, bias reveal, deep insight, application.
package feedback

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"COGNITIVE_BIAS_PLAYGROUND/internal/bias"
	"COGNITIVE_BIAS_PLAYGROUND/internal/catalog"
	"COGNITIVE_BIAS_PLAYGROUND/internal/engine"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/scenario"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

// Stage names, in arc order.
const (
	StageConfusion   = "confusion"
	StageBiasReveal  = "bias_reveal"
	StageDeepInsight = "deep_insight"
	StageApplication = "application"
)

// maxBodyLen bounds the prose body.
const maxBodyLen = 400

// Feedback is the structured output for one turn.
type Feedback struct {
	Stage       string   `json:"stage"`
	Headline    string   `json:"headline"`
	Body        string   `json:"body"`
	CitedBiases []string `json:"cited_biases"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// Input carries everything the generator needs for one turn. Revealed is
// read-only here; the returned RevealedTag tells the caller which tag to
// mark as revealed.
type Input struct {
	Scenario catalog.Scenario
	Turn     int // turn just played (1-based)
	Decision state.Decision
	Record   state.DecisionRecord
	History  []state.DecisionRecord
	Detected []bias.Detection
	Revealed map[string]bool
}

// Fallback is the message used when generation fails; the turn is never
// rolled back on its account.
func Fallback() Feedback {
	return Feedback{
		Stage:    StageConfusion,
		Headline: "Turn completed",
		Body:     "Your turn completed.",
	}
}

// Generate produces the feedback for a turn and, if a Stage-2 reveal fired,
// the tag that was revealed (empty otherwise).
func Generate(in Input) (Feedback, string) {
	if tag, ok := revealCandidate(in); ok {
		return reveal(in, tag), tag
	}

	switch {
	case in.Turn >= 6:
		return application(in), ""
	case in.Turn >= 4:
		return deepInsight(in), ""
	default:
		return confusion(in), ""
	}
}

// revealCandidate picks an unrevealed detected tag. At exactly turn 3 any
// detected tag qualifies; on every other turn it must clear the reveal
// threshold. The scenario's own target biases take precedence over
// general-purpose tags, and remaining ties break by confidence.
func revealCandidate(in Input) (string, bool) {
	need := bias.RevealThreshold
	if in.Turn == 3 {
		need = bias.EnterThreshold
	}
	conf := make(map[string]float64, len(in.Detected))
	for _, d := range in.Detected {
		if !in.Revealed[d.Tag] && d.Confidence >= need {
			conf[d.Tag] = d.Confidence
		}
	}
	if len(conf) == 0 {
		return "", false
	}
	// Target biases first, in the order the scenario declares them.
	for _, tag := range in.Scenario.TargetBiases {
		if _, ok := conf[tag]; ok {
			return tag, true
		}
	}
	best := ""
	bestConf := -1.0
	for tag, c := range conf {
		if c > bestConf || (c == bestConf && tag < best) {
			best, bestConf = tag, c
		}
	}
	return best, true
}

func confusion(in Input) Feedback {
	delta := in.Record.PostState.Satisfaction - in.Record.PreState.Satisfaction
	var body string
	switch {
	case in.Decision.Amount == 0:
		body = fmt.Sprintf("You held back this turn (%s with nothing committed). Satisfaction is at %.0f. Doing nothing is also a decision; watch what moves without you.",
			in.Decision.Action, in.Record.PostState.Satisfaction)
	case delta < 0:
		body = fmt.Sprintf("You chose %s with %.0f and satisfaction fell from %.0f to %.0f. More input, less output. That is not what a straight line would predict.",
			in.Decision.Action, in.Decision.Amount, in.Record.PreState.Satisfaction, in.Record.PostState.Satisfaction)
	case delta == 0:
		body = fmt.Sprintf("You chose %s with %.0f and satisfaction did not move. No visible effect is still information.",
			in.Decision.Action, in.Decision.Amount)
	default:
		body = fmt.Sprintf("You chose %s with %.0f and satisfaction rose from %.0f to %.0f. Note the size of the gain, not just its direction.",
			in.Decision.Action, in.Decision.Amount, in.Record.PreState.Satisfaction, in.Record.PostState.Satisfaction)
	}
	return Feedback{
		Stage:       StageConfusion,
		Headline:    "An unexpected result",
		Body:        truncate(body),
		CitedBiases: []string{},
	}
}

func reveal(in Input, tag string) Feedback {
	name := bias.CanonicalName(tag)
	mechanism := fmt.Sprintf("Your recent decisions follow the %s pattern.", name)
	if rv, ok := in.Scenario.BiasReveals[tag]; ok {
		if rv.Name != "" {
			name = rv.Name
		}
		if rv.Mechanism != "" {
			mechanism = rv.Mechanism
		}
	}

	parts := []string{fmt.Sprintf("This is %s. %s", name, mechanism)}
	if rule, ok := engine.Lookup(in.Scenario.ID); ok {
		if adv, ok := rule.(scenario.Advisor); ok {
			if example := adv.CorrectiveExample(snapshotToState(in.Record.PostState, in.Record), in.Decision); example != "" {
				parts = append(parts, example)
			}
		}
	}

	return Feedback{
		Stage:       StageBiasReveal,
		Headline:    fmt.Sprintf("Naming it: %s", name),
		Body:        truncate(strings.Join(parts, " ")),
		CitedBiases: []string{tag},
		Suggestion:  heuristicFor(tag),
	}
}

func deepInsight(in Input) Feedback {
	cited := detectedTags(in.Detected)
	counts := make(map[string]int)
	for _, r := range in.History {
		counts[r.Action]++
	}
	dominant, dominantCount := "", 0
	for a, n := range counts {
		if n > dominantCount || (n == dominantCount && a < dominant) {
			dominant, dominantCount = a, n
		}
	}

	body := fmt.Sprintf("Across %d turns you chose %s %d times.", len(in.History), dominant, dominantCount)
	if len(cited) > 0 {
		body += fmt.Sprintf(" That pattern is what the %s signal is built on.", bias.CanonicalName(cited[0]))
	}

	suggestion := "Before repeating a decision, predict the exact effect first, then compare."
	if len(cited) > 0 {
		suggestion = heuristicFor(cited[0])
	}

	return Feedback{
		Stage:       StageDeepInsight,
		Headline:    "Your pattern, in your own data",
		Body:        truncate(body),
		CitedBiases: cited,
		Suggestion:  suggestion,
	}
}

func application(in Input) Feedback {
	cited := detectedTags(in.Detected)
	broke := brokePattern(in.History)

	var body string
	if broke {
		body = fmt.Sprintf("Your last decision (%s, %.0f) broke your earlier pattern. That is the transfer we are after: same instinct, different check.",
			in.Decision.Action, in.Decision.Amount)
	} else {
		body = fmt.Sprintf("Your last decision (%s, %.0f) repeats the pattern this scenario was built to surface. The pull is strong even once named.",
			in.Decision.Action, in.Decision.Amount)
	}
	body += " " + analogyFor(in.Scenario.Category)

	return Feedback{
		Stage:       StageApplication,
		Headline:    "Carrying it forward",
		Body:        truncate(body),
		CitedBiases: cited,
		Suggestion:  "Look for the same shape in the next real decision you make this week.",
	}
}

// Closing produces the Stage-4-style message for a session summary.
func Closing(scn catalog.Scenario, history []state.DecisionRecord, detected []bias.Detection) string {
	tags := detectedTags(detected)
	if len(tags) == 0 {
		return fmt.Sprintf("Over %d turns of %s you kept your decision pattern flexible; no single bias dominated. %s",
			len(history), scn.Name, analogyFor(scn.Category))
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = bias.CanonicalName(t)
	}
	return truncate(fmt.Sprintf("Over %d turns of %s your decisions surfaced: %s. %s",
		len(history), scn.Name, strings.Join(names, ", "), analogyFor(scn.Category)))
}

func detectedTags(ds []bias.Detection) []string {
	tags := make([]string, 0, len(ds))
	for _, d := range ds {
		tags = append(tags, d.Tag)
	}
	sort.Strings(tags)
	return tags
}

func brokePattern(history []state.DecisionRecord) bool {
	if len(history) < 2 {
		return true
	}
	last := history[len(history)-1]
	prev := history[len(history)-2]
	return last.Action != prev.Action || last.Amount < prev.Amount
}

func heuristicFor(tag string) string {
	switch tag {
	case bias.TagLinearThinking:
		return "When doubling the input, predict the output before acting; if the last increase bought less than the one before, stop scaling."
	case bias.TagPatternRepetition:
		return "Force one deliberately different decision and compare its effect against your default."
	case bias.TagConfirmationBias:
		return "For every piece of supporting evidence you request, request one that could prove you wrong."
	case bias.TagAnchoring:
		return "Write down your first number, then re-estimate from a completely different starting point."
	case bias.TagTimeDelayNeglect:
		return "Before increasing a dose, wait one more period: absence of immediate effect is not absence of effect."
	case bias.TagCompoundUnderestimation:
		return "Never estimate exponential quantities directly; count doublings instead."
	case bias.TagAvailability:
		return "Ask what the base rate is, not what the most vivid story was."
	case bias.TagOverconfidence:
		return "State a confidence interval, not a point; then check how often reality lands inside it."
	default:
		return "Predict before you act, then compare."
	}
}

func analogyFor(category string) string {
	switch category {
	case "business":
		return "The same curve shows up in hiring plans, ad budgets, and server capacity."
	case "finance":
		return "The same math drives retirement savings, debt spirals, and market bubbles."
	case "relationship":
		return "The same lag shows up in trust, habits, and reputations."
	case "policy":
		return "The same delay sits between a policy change and its visible outcome."
	case "history":
		return "History keeps running this experiment; only the costumes change."
	default:
		return "The same shape appears wherever growth compounds or effects lag their cause."
	}
}

func truncate(s string) string {
	if len(s) <= maxBodyLen {
		return s
	}
	// Back the cut onto a rune boundary so the ellipsis never splits a
	// multi-byte character.
	cut := maxBodyLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// snapshotToState rebuilds a minimal state from a snapshot for Advisor
// calls; advisors only read the numeric fields.
func snapshotToState(snap state.Snapshot, rec state.DecisionRecord) state.State {
	s := state.State{
		Satisfaction: snap.Satisfaction,
		Resources:    snap.Resources,
		Reputation:   snap.Reputation,
		Knowledge:    snap.Knowledge,
		TurnNumber:   rec.TurnNumber,
	}
	if len(snap.Extra) > 0 {
		s.Extra = make(map[string]float64, len(snap.Extra))
		for k, v := range snap.Extra {
			s.Extra[k] = v
		}
	}
	return s
}
