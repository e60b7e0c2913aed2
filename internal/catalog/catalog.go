// Package catalog loads the static scenario, historical-case, and
// estimation-question catalogues and resolves descriptors by id.
//
// Each catalogue file is a JSON object with exactly one recognized top-level
// key; loading is all-or-nothing, and duplicate ids across files are
// rejected at startup.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"COGNITIVE_BIAS_PLAYGROUND/internal/apperr"
)

// Recognized top-level catalogue keys.
const (
	KeyScenarios            = "scenarios"
	KeyGameScenarios        = "game_scenarios"
	KeyHistoricalCases      = "historical_cases"
	KeyExponentialQuestions = "exponential_questions"
	KeyCompoundQuestions    = "compound_questions"
)

// DefaultTurnLimit applies when a descriptor omits turn_limit.
const DefaultTurnLimit = 8

// BiasReveal is the catalogue-provided content of a Stage-2 reveal for one
// bias tag: the canonical name and a one-sentence mechanism.
type BiasReveal struct {
	Name      string `json:"name"`
	Mechanism string `json:"mechanism"`
}

// Scenario is an immutable scenario descriptor.
type Scenario struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	Description          string                `json:"description"`
	Category             string                `json:"category"`
	TargetBiases         []string              `json:"target_biases"`
	Difficulty           string                `json:"difficulty"`
	InitialStateTemplate map[string]float64    `json:"initial_state_template"`
	TurnLimit            int                   `json:"turn_limit"`
	BiasReveals          map[string]BiasReveal `json:"bias_reveals,omitempty"`
	// VividExample names an action showcased by a vivid example in the
	// scenario text; the tracker uses it for availability detection.
	VividExample string `json:"vivid_example,omitempty"`
}

// TargetsBias reports whether the scenario declares the given bias tag.
func (s Scenario) TargetsBias(tag string) bool {
	for _, t := range s.TargetBiases {
		if t == tag {
			return true
		}
	}
	return false
}

// Case is a read-only historical case walkthrough.
type Case struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Era       string   `json:"era"`
	Narrative string   `json:"narrative"`
	BiasTags  []string `json:"bias_tags"`
	Lessons   []string `json:"lessons,omitempty"`
}

// Question is an estimation-mode question. Exponential questions carry base
// and exponent; compound questions carry principal, rate, and periods.
type Question struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"` // "exponential" or "compound"
	Prompt    string  `json:"prompt"`
	Unit      string  `json:"unit,omitempty"`
	Base      float64 `json:"base,omitempty"`
	Exponent  int     `json:"exponent,omitempty"`
	Principal float64 `json:"principal,omitempty"`
	Rate      float64 `json:"rate,omitempty"`
	Periods   int     `json:"periods,omitempty"`
}

// Filter narrows a scenario listing.
type Filter struct {
	Difficulty      string
	Category        string
	IncludeAdvanced bool
}

// Catalog is the loaded, read-only content registry.
type Catalog struct {
	scenarios []Scenario
	cases     []Case
	questions []Question
	byID      map[string]int
	caseByID  map[string]int
	questByID map[string]int
}

type catalogueFile struct {
	Scenarios            []Scenario `json:"scenarios"`
	GameScenarios        []Scenario `json:"game_scenarios"`
	HistoricalCases      []Case     `json:"historical_cases"`
	ExponentialQuestions []Question `json:"exponential_questions"`
	CompoundQuestions    []Question `json:"compound_questions"`
}

// Load reads every *.json file under dir. Files load in name order so that
// listing order is stable across runs.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindCatalogueLoadError, err, "read catalogue dir %s", dir)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	c := &Catalog{
		byID:      make(map[string]int),
		caseByID:  make(map[string]int),
		questByID: make(map[string]int),
	}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return apperr.Wrap(apperr.KindCatalogueLoadError, err, "read %s", path)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return apperr.Wrap(apperr.KindCatalogueLoadError, err, "parse %s", path)
	}
	if len(keys) != 1 {
		return apperr.New(apperr.KindCatalogueLoadError,
			"%s: expected exactly one top-level key, got %d", path, len(keys))
	}

	var file catalogueFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return apperr.Wrap(apperr.KindCatalogueLoadError, err, "parse %s", path)
	}

	for key := range keys {
		switch key {
		case KeyScenarios:
			return c.addScenarios(file.Scenarios, path)
		case KeyGameScenarios:
			return c.addScenarios(file.GameScenarios, path)
		case KeyHistoricalCases:
			return c.addCases(file.HistoricalCases, path)
		case KeyExponentialQuestions:
			return c.addQuestions(file.ExponentialQuestions, "exponential", path)
		case KeyCompoundQuestions:
			return c.addQuestions(file.CompoundQuestions, "compound", path)
		default:
			return apperr.New(apperr.KindCatalogueLoadError,
				"%s: unrecognized top-level key %q", path, key)
		}
	}
	return nil
}

func (c *Catalog) addScenarios(list []Scenario, path string) error {
	for _, s := range list {
		if s.ID == "" {
			return apperr.New(apperr.KindCatalogueLoadError, "%s: scenario with empty id", path)
		}
		if _, dup := c.byID[s.ID]; dup {
			return apperr.New(apperr.KindDuplicateScenarioID,
				"scenario id %q defined twice (second in %s)", s.ID, path)
		}
		if s.TurnLimit < 1 {
			s.TurnLimit = DefaultTurnLimit
		}
		c.byID[s.ID] = len(c.scenarios)
		c.scenarios = append(c.scenarios, s)
	}
	return nil
}

func (c *Catalog) addCases(list []Case, path string) error {
	for _, cs := range list {
		if cs.ID == "" {
			return apperr.New(apperr.KindCatalogueLoadError, "%s: case with empty id", path)
		}
		if _, dup := c.caseByID[cs.ID]; dup {
			return apperr.New(apperr.KindDuplicateScenarioID,
				"case id %q defined twice (second in %s)", cs.ID, path)
		}
		c.caseByID[cs.ID] = len(c.cases)
		c.cases = append(c.cases, cs)
	}
	return nil
}

func (c *Catalog) addQuestions(list []Question, kind, path string) error {
	for _, q := range list {
		if q.ID == "" {
			return apperr.New(apperr.KindCatalogueLoadError, "%s: question with empty id", path)
		}
		if _, dup := c.questByID[q.ID]; dup {
			return apperr.New(apperr.KindDuplicateScenarioID,
				"question id %q defined twice (second in %s)", q.ID, path)
		}
		if q.Kind == "" {
			q.Kind = kind
		}
		c.questByID[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
	}
	return nil
}

// Get resolves a scenario descriptor by id.
func (c *Catalog) Get(id string) (Scenario, error) {
	i, ok := c.byID[id]
	if !ok {
		return Scenario{}, apperr.New(apperr.KindUnknownScenario, "scenario %q not found", id)
	}
	return c.scenarios[i], nil
}

// List returns scenarios matching the filter, in catalogue order. Advanced
// scenarios are excluded unless the filter asks for them or for the
// advanced difficulty explicitly.
func (c *Catalog) List(f Filter) []Scenario {
	out := make([]Scenario, 0, len(c.scenarios))
	for _, s := range c.scenarios {
		if f.Difficulty != "" && s.Difficulty != f.Difficulty {
			continue
		}
		if f.Category != "" && s.Category != f.Category {
			continue
		}
		if s.Difficulty == "advanced" && !f.IncludeAdvanced && f.Difficulty != "advanced" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Cases returns all historical cases in catalogue order.
func (c *Catalog) Cases() []Case {
	out := make([]Case, len(c.cases))
	copy(out, c.cases)
	return out
}

// CaseByID resolves one historical case.
func (c *Catalog) CaseByID(id string) (Case, error) {
	i, ok := c.caseByID[id]
	if !ok {
		return Case{}, apperr.New(apperr.KindUnknownScenario, "case %q not found", id)
	}
	return c.cases[i], nil
}

// Questions returns all estimation questions in catalogue order.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// QuestionByID resolves one estimation question.
func (c *Catalog) QuestionByID(id string) (Question, error) {
	i, ok := c.questByID[id]
	if !ok {
		return Question{}, apperr.New(apperr.KindUnknownScenario, "question %q not found", id)
	}
	return c.questions[i], nil
}

// Counts reports content sizes, used by the validate command.
func (c *Catalog) Counts() string {
	return fmt.Sprintf("%d scenarios, %d cases, %d questions",
		len(c.scenarios), len(c.cases), len(c.questions))
}
