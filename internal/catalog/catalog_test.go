package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"COGNITIVE_BIAS_PLAYGROUND/internal/apperr"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const scenarioFile = `{
  "game_scenarios": [
    {
      "id": "alpha",
      "name": "Alpha",
      "category": "business",
      "difficulty": "beginner",
      "target_biases": ["linear_thinking"],
      "initial_state_template": {"satisfaction": 50, "resources": 100},
      "turn_limit": 5
    },
    {
      "id": "beta",
      "name": "Beta",
      "category": "finance",
      "difficulty": "advanced",
      "target_biases": ["confirmation_bias"],
      "initial_state_template": {"satisfaction": 40}
    }
  ]
}`

func TestLoadAndGet(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "01_games.json", scenarioFile)

	cat, err := Load(dir)
	require.NoError(t, err)

	s, err := cat.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", s.Name)
	assert.Equal(t, 5, s.TurnLimit)
	assert.Equal(t, 50.0, s.InitialStateTemplate["satisfaction"])

	_, err = cat.Get("missing")
	assert.Equal(t, apperr.KindUnknownScenario, apperr.KindOf(err))
}

func TestMissingTurnLimitDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "games.json", scenarioFile)

	cat, err := Load(dir)
	require.NoError(t, err)

	s, err := cat.Get("beta")
	require.NoError(t, err)
	assert.Equal(t, DefaultTurnLimit, s.TurnLimit)
}

func TestDuplicateIDAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"scenarios": [{"id": "dup", "name": "A"}]}`)
	writeFile(t, dir, "b.json", `{"game_scenarios": [{"id": "dup", "name": "B"}]}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, apperr.KindDuplicateScenarioID, apperr.KindOf(err))
}

func TestMalformedFileNamesPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"scenarios": [`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, apperr.KindCatalogueLoadError, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "bad.json")
}

func TestUnrecognizedTopLevelKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "odd.json", `{"things": []}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, apperr.KindCatalogueLoadError, apperr.KindOf(err))
}

func TestTwoTopLevelKeysRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "two.json", `{"scenarios": [], "game_scenarios": []}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Equal(t, apperr.KindCatalogueLoadError, apperr.KindOf(err))
}

func TestAllOrNothingLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_good.json", scenarioFile)
	writeFile(t, dir, "z_bad.json", `not json`)

	cat, err := Load(dir)
	require.Error(t, err)
	assert.Nil(t, cat)
}

func TestListFilterAndOrdering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "games.json", scenarioFile)

	cat, err := Load(dir)
	require.NoError(t, err)

	// Advanced hidden by default.
	all := cat.List(Filter{})
	require.Len(t, all, 1)
	assert.Equal(t, "alpha", all[0].ID)

	withAdvanced := cat.List(Filter{IncludeAdvanced: true})
	require.Len(t, withAdvanced, 2)
	// Stable catalogue order.
	assert.Equal(t, "alpha", withAdvanced[0].ID)
	assert.Equal(t, "beta", withAdvanced[1].ID)

	finance := cat.List(Filter{Category: "finance", IncludeAdvanced: true})
	require.Len(t, finance, 1)
	assert.Equal(t, "beta", finance[0].ID)

	advanced := cat.List(Filter{Difficulty: "advanced"})
	require.Len(t, advanced, 1)
	assert.Equal(t, "beta", advanced[0].ID)
}

func TestCasesAndQuestions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cases.json", `{
  "historical_cases": [
    {"id": "tulips", "title": "Tulip Mania", "bias_tags": ["availability"]}
  ]
}`)
	writeFile(t, dir, "exp.json", `{
  "exponential_questions": [
    {"id": "rice", "prompt": "Rice", "base": 2, "exponent": 63}
  ]
}`)
	writeFile(t, dir, "comp.json", `{
  "compound_questions": [
    {"id": "savings", "prompt": "Savings", "principal": 10000, "rate": 0.07, "periods": 30}
  ]
}`)

	cat, err := Load(dir)
	require.NoError(t, err)

	cs, err := cat.CaseByID("tulips")
	require.NoError(t, err)
	assert.Equal(t, "Tulip Mania", cs.Title)

	qs := cat.Questions()
	require.Len(t, qs, 2)
	// Kind is inferred from the catalogue key when omitted.
	q, err := cat.QuestionByID("rice")
	require.NoError(t, err)
	assert.Equal(t, "exponential", q.Kind)
	q, err = cat.QuestionByID("savings")
	require.NoError(t, err)
	assert.Equal(t, "compound", q.Kind)
}

func TestShippedCatalogueLoads(t *testing.T) {
	cat, err := Load("../../data")
	require.NoError(t, err)

	for _, id := range []string{
		"coffee-shop-linear-thinking",
		"investment-confirmation-bias",
		"relationship-time-delay",
		"exponential-estimation",
	} {
		_, err := cat.Get(id)
		assert.NoError(t, err, id)
	}
}
