// Package session owns session lifecycle: creation, turn advancement,
// summarization, and eviction. Turns on distinct sessions proceed in
// parallel; turns on the same session are fully serialized by a per-session
// mutex.
package session

import (
	"time"

	"COGNITIVE_BIAS_PLAYGROUND/internal/bias"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

// Session is the full mutable record for one play-through. It is
// JSON-serializable so the Redis store can snapshot it between turns.
type Session struct {
	ID         string    `json:"id"`
	ScenarioID string    `json:"scenario_id"`
	Difficulty string    `json:"difficulty"`
	Seed       int64     `json:"seed"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`

	State   state.State            `json:"state"`
	History []state.DecisionRecord `json:"decision_history"`

	Detected []bias.Detection `json:"detected_biases"`
	Latent   []bias.Detection `json:"latent_biases,omitempty"`
	// FirstDetected maps a tag to the turn it first entered detected_biases.
	FirstDetected map[string]int `json:"first_detected,omitempty"`
	// Revealed marks tags whose Stage-2 reveal has already fired.
	Revealed map[string]bool `json:"revealed,omitempty"`

	SatisfactionTrajectory []float64 `json:"satisfaction_trajectory"`
	ResourcesTrajectory    []float64 `json:"resources_trajectory"`
}

// Terminal reports whether the session can no longer advance.
func (s *Session) Terminal() bool { return s.State.Terminal }

// normalize reinitializes the bookkeeping maps. They carry omitempty, so a
// JSON round trip through a snapshot store drops them while empty; the
// tracker and generator write into them unconditionally.
func (s *Session) normalize() {
	if s.FirstDetected == nil {
		s.FirstDetected = make(map[string]int)
	}
	if s.Revealed == nil {
		s.Revealed = make(map[string]bool)
	}
}

// clone returns a deep copy safe to hand outside the session lock.
func (s *Session) clone() *Session {
	out := *s
	out.State = s.State.Clone()
	out.History = append([]state.DecisionRecord(nil), s.History...)
	out.Detected = append([]bias.Detection(nil), s.Detected...)
	out.Latent = append([]bias.Detection(nil), s.Latent...)
	out.SatisfactionTrajectory = append([]float64(nil), s.SatisfactionTrajectory...)
	out.ResourcesTrajectory = append([]float64(nil), s.ResourcesTrajectory...)
	out.FirstDetected = make(map[string]int, len(s.FirstDetected))
	for k, v := range s.FirstDetected {
		out.FirstDetected[k] = v
	}
	out.Revealed = make(map[string]bool, len(s.Revealed))
	for k, v := range s.Revealed {
		out.Revealed[k] = v
	}
	return &out
}

// DetectedTags returns the currently detected tags in evaluation order.
func (s *Session) DetectedTags() []string {
	tags := make([]string, 0, len(s.Detected))
	for _, d := range s.Detected {
		tags = append(tags, d.Tag)
	}
	return tags
}

// BiasSummary is one detected bias in a session summary.
type BiasSummary struct {
	Tag               string  `json:"tag"`
	FirstDetectedTurn int     `json:"first_detected_turn"`
	FinalConfidence   float64 `json:"final_confidence"`
}

// Trajectory carries the per-turn series, including the initial value.
type Trajectory struct {
	Satisfaction []float64 `json:"satisfaction"`
	Resources    []float64 `json:"resources"`
}

// Summary is the read-only aggregate produced when a session finalizes.
type Summary struct {
	SessionID      string        `json:"session_id"`
	ScenarioID     string        `json:"scenario_id"`
	TurnsTaken     int           `json:"turns_taken"`
	TerminalReason string        `json:"terminal_reason,omitempty"`
	Biases         []BiasSummary `json:"biases"`
	Trajectory     Trajectory    `json:"trajectory"`
	ClosingMessage string        `json:"closing_message"`
	FinalState     state.State   `json:"final_state"`
}
