// Package bias detects named cognitive-bias patterns in a session's decision
// history. Detection is rule-based: each tag has a predicate over the
// history and a natural strength measure mapped into [0, 1].
package bias

// Cognitive bias tags. They appear both in scenario descriptors
// (target_biases) and in tracker output (detected_biases).
const (
	TagLinearThinking          = "linear_thinking"
	TagPatternRepetition       = "pattern_repetition"
	TagConfirmationBias        = "confirmation_bias"
	TagAnchoring               = "anchoring"
	TagTimeDelayNeglect        = "time_delay_neglect"
	TagCompoundUnderestimation = "compound_underestimation"
	TagAvailability            = "availability"
	TagOverconfidence          = "overconfidence"
)

// Detection thresholds.
const (
	// EnterThreshold is the confidence at which a tag enters detected_biases.
	EnterThreshold = 0.4
	// RevealThreshold is the confidence at which a tag can trigger an early
	// Stage-2 reveal.
	RevealThreshold = 0.6
)

// generalPurpose tags may be detected in any scenario regardless of its
// declared target biases.
var generalPurpose = map[string]bool{
	TagLinearThinking:    true,
	TagPatternRepetition: true,
}

// GeneralPurpose reports whether the tag may fire outside a scenario's
// target_biases set.
func GeneralPurpose(tag string) bool {
	return generalPurpose[tag]
}

// canonicalNames maps tags to their display names, used when a catalogue
// entry does not provide reveal content.
var canonicalNames = map[string]string{
	TagLinearThinking:          "Linear Thinking",
	TagPatternRepetition:       "Pattern Repetition",
	TagConfirmationBias:        "Confirmation Bias",
	TagAnchoring:               "Anchoring",
	TagTimeDelayNeglect:        "Time-Delay Neglect",
	TagCompoundUnderestimation: "Compound Underestimation",
	TagAvailability:            "Availability Heuristic",
	TagOverconfidence:          "Overconfidence",
}

// CanonicalName returns the display name for a tag, falling back to the tag
// itself.
func CanonicalName(tag string) string {
	if n, ok := canonicalNames[tag]; ok {
		return n
	}
	return tag
}
