package state

import (
	"sort"
	"time"
)

// Core state field names. Delta maps and initial-state templates address the
// scenario-agnostic fields through these keys; any other key lands in Extra.
const (
	FieldSatisfaction = "satisfaction"
	FieldResources    = "resources"
	FieldReputation   = "reputation"
	FieldKnowledge    = "knowledge"
)

// Research stances for scenarios that expose supporting and contradicting
// information each turn.
const (
	StanceSupporting    = "supporting"
	StanceContradicting = "contradicting"
)

// Decision is a single user decision for one turn. Amount is a nonnegative
// number whose meaning depends on Action. Stance and Confidence are only
// meaningful for scenarios that elicit them.
type Decision struct {
	Action     string  `json:"action"`
	Amount     float64 `json:"amount"`
	Stance     string  `json:"stance,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Snapshot is a compact copy of the numeric state taken before and after a
// decision is applied. It is immutable once recorded.
type Snapshot struct {
	Satisfaction float64            `json:"satisfaction"`
	Resources    float64            `json:"resources"`
	Reputation   float64            `json:"reputation"`
	Knowledge    float64            `json:"knowledge"`
	TurnNumber   int                `json:"turn_number"`
	Extra        map[string]float64 `json:"extra,omitempty"`
}

// DecisionRecord is one entry of a session's decision history.
type DecisionRecord struct {
	TurnNumber int       `json:"turn_number"`
	Action     string    `json:"action"`
	Amount     float64   `json:"amount"`
	Stance     string    `json:"stance,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	PreState   Snapshot  `json:"pre_state_snapshot"`
	PostState  Snapshot  `json:"post_state_snapshot"`
}

// PendingEffect is a delta scheduled to merge into the state when the session
// reaches TriggerTurn. It models consequences that lag their cause.
type PendingEffect struct {
	TriggerTurn int                `json:"trigger_turn"`
	Deltas      map[string]float64 `json:"delta_map"`
}

// State is the mutable per-session game state. Scenario-specific numbers
// (portfolio, question parameters) live in Extra.
type State struct {
	Satisfaction   float64            `json:"satisfaction"`
	Resources      float64            `json:"resources"`
	Reputation     float64            `json:"reputation"`
	Knowledge      float64            `json:"knowledge"`
	TurnNumber     int                `json:"turn_number"`
	Difficulty     string             `json:"difficulty"`
	Seed           int64              `json:"seed"`
	Terminal       bool               `json:"terminal"`
	TerminalReason string             `json:"terminal_reason,omitempty"`
	Extra          map[string]float64 `json:"extra,omitempty"`
	Pending        []PendingEffect    `json:"pending_effects,omitempty"`
}

// New builds an initial state from a template map. Known field names fill the
// core fields; everything else goes to Extra. TurnNumber starts at 1.
func New(template map[string]float64, difficulty string, seed int64) State {
	s := State{
		TurnNumber: 1,
		Difficulty: difficulty,
		Seed:       seed,
		Extra:      make(map[string]float64),
	}
	for k, v := range template {
		s.set(k, v)
	}
	return s
}

func (s *State) set(key string, v float64) {
	switch key {
	case FieldSatisfaction:
		s.Satisfaction = v
	case FieldResources:
		s.Resources = v
	case FieldReputation:
		s.Reputation = v
	case FieldKnowledge:
		s.Knowledge = v
	default:
		if s.Extra == nil {
			s.Extra = make(map[string]float64)
		}
		s.Extra[key] = v
	}
}

func (s *State) get(key string) float64 {
	switch key {
	case FieldSatisfaction:
		return s.Satisfaction
	case FieldResources:
		return s.Resources
	case FieldReputation:
		return s.Reputation
	case FieldKnowledge:
		return s.Knowledge
	default:
		return s.Extra[key]
	}
}

// Clone returns a deep copy. Transition rules receive and return clones so
// that the caller's state is never mutated.
func (s State) Clone() State {
	out := s
	if s.Extra != nil {
		out.Extra = make(map[string]float64, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	if s.Pending != nil {
		out.Pending = make([]PendingEffect, len(s.Pending))
		for i, p := range s.Pending {
			cp := PendingEffect{TriggerTurn: p.TriggerTurn}
			if p.Deltas != nil {
				cp.Deltas = make(map[string]float64, len(p.Deltas))
				for k, v := range p.Deltas {
					cp.Deltas[k] = v
				}
			}
			out.Pending[i] = cp
		}
	}
	return out
}

// ApplyDelta merges a delta map into the state.
func (s *State) ApplyDelta(deltas map[string]float64) {
	keys := make([]string, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.set(k, s.get(k)+deltas[k])
	}
}

// Schedule appends a pending effect firing at TriggerTurn = current + delay.
// Delay must be >= 1; smaller delays snap to 1.
func (s *State) Schedule(delay int, deltas map[string]float64) {
	if delay < 1 {
		delay = 1
	}
	s.Pending = append(s.Pending, PendingEffect{
		TriggerTurn: s.TurnNumber + delay,
		Deltas:      deltas,
	})
}

// DrainPending merges every pending effect whose trigger turn is due and
// removes it from the queue. Effects merge in trigger-turn order.
func (s *State) DrainPending() []PendingEffect {
	if len(s.Pending) == 0 {
		return nil
	}
	sort.SliceStable(s.Pending, func(i, j int) bool {
		return s.Pending[i].TriggerTurn < s.Pending[j].TriggerTurn
	})
	var fired []PendingEffect
	remaining := s.Pending[:0]
	for _, p := range s.Pending {
		if p.TriggerTurn <= s.TurnNumber {
			s.ApplyDelta(p.Deltas)
			fired = append(fired, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	s.Pending = remaining
	if len(s.Pending) == 0 {
		s.Pending = nil
	}
	return fired
}

// Clamp enforces the universal bounds: satisfaction in [0, 100] and
// resources >= 0.
func (s *State) Clamp() {
	if s.Satisfaction < 0 {
		s.Satisfaction = 0
	}
	if s.Satisfaction > 100 {
		s.Satisfaction = 100
	}
	if s.Resources < 0 {
		s.Resources = 0
	}
}

// Snapshot copies the numeric state for a decision record.
func (s State) Snapshot() Snapshot {
	snap := Snapshot{
		Satisfaction: s.Satisfaction,
		Resources:    s.Resources,
		Reputation:   s.Reputation,
		Knowledge:    s.Knowledge,
		TurnNumber:   s.TurnNumber,
	}
	if len(s.Extra) > 0 {
		snap.Extra = make(map[string]float64, len(s.Extra))
		for k, v := range s.Extra {
			snap.Extra[k] = v
		}
	}
	return snap
}
