package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"COGNITIVE_BIAS_PLAYGROUND/internal/catalog"
	"COGNITIVE_BIAS_PLAYGROUND/internal/session"

	_ "COGNITIVE_BIAS_PLAYGROUND/scenarios/coffeeshop"
)

const scenariosFixture = `{
  "game_scenarios": [
    {
      "id": "coffee-shop-linear-thinking",
      "name": "The Coffee Shop",
      "category": "business",
      "target_biases": ["linear_thinking", "pattern_repetition"],
      "difficulty": "beginner",
      "initial_state_template": {"satisfaction": 50, "resources": 1000},
      "turn_limit": 6
    }
  ]
}`

const casesFixture = `{
  "historical_cases": [
    {
      "id": "tulip-mania",
      "title": "Tulip Mania",
      "era": "1637",
      "narrative": "Bulb prices compounded upward until they did not.",
      "bias_tags": ["compound_underestimation", "availability"]
    }
  ]
}`

const questionsFixture = `{
  "exponential_questions": [
    {
      "id": "paper-folds",
      "prompt": "Fold a sheet of paper 42 times. How thick is the stack?",
      "unit": "meters",
      "base": 2,
      "exponent": 42
    }
  ]
}`

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	fixtures := map[string]string{
		"game_scenarios.json":        scenariosFixture,
		"historical_cases.json":      casesFixture,
		"exponential_questions.json": questionsFixture,
	}
	for name, body := range fixtures {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	cat, err := catalog.Load(dir)
	require.NoError(t, err)

	ctrl := session.NewController(cat, session.NewMemoryStore(), zap.NewNop(), session.Options{})
	t.Cleanup(ctrl.Close)

	router := gin.New()
	SetupRouter(router, NewHandlers(cat, ctrl, zap.NewNop()))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestListScenariosReturnsMetadataOnly(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "coffee-shop-linear-thinking", list[0]["id"])
	assert.Equal(t, float64(6), list[0]["turn_limit"])
	assert.NotContains(t, list[0], "initial_state_template")
}

func TestGetScenario(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/api/scenarios/coffee-shop-linear-thinking", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "The Coffee Shop", body["name"])
	assert.NotNil(t, body["initial_state_template"])
}

func TestGetScenarioNotFound(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodGet, "/api/scenarios/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "UnknownScenario", body["error_kind"])
	assert.NotEmpty(t, body["message"])
}

func TestCasesAndQuestions(t *testing.T) {
	router := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/cases", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tulip-mania")

	w = doJSON(t, router, http.MethodGet, "/api/cases/tulip-mania", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tulip Mania", decode(t, w)["title"])

	w = doJSON(t, router, http.MethodGet, "/api/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "paper-folds")
	assert.Contains(t, w.Body.String(), `"kind":"exponential"`)
}

func TestCreateSessionRequiresScenarioID(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MalformedRequest", decode(t, w)["error_kind"])
}

func TestAdvanceRejectsMalformedBody(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]any{
		"scenario_id": "coffee-shop-linear-thinking",
	})
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["session_id"].(string)

	// A body with no action at all is a bind failure, not an action failure.
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/advance", id), map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MalformedRequest", decode(t, w)["error_kind"])
}

func TestSessionLifecycle(t *testing.T) {
	router := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]any{
		"scenario_id": "coffee-shop-linear-thinking",
		"seed":        1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode(t, w)
	id, _ := created["session_id"].(string)
	require.NotEmpty(t, id)
	initial := created["initial_state"].(map[string]any)
	assert.Equal(t, float64(50), initial["satisfaction"])

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/advance", id), map[string]any{
		"action": "hire_staff",
		"amount": 8,
	})
	require.Equal(t, http.StatusOK, w.Code)
	advanced := decode(t, w)
	fb := advanced["feedback"].(map[string]any)
	assert.Equal(t, "confusion", fb["stage"])
	assert.NotEmpty(t, fb["body"])

	w = doJSON(t, router, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, float64(2), got["turn_number"])
	assert.Equal(t, float64(1), got["history_length"])
	assert.Equal(t, false, got["terminal"])

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/summary", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode(t, w)
	assert.Equal(t, float64(1), sum["turns_taken"])
	assert.NotEmpty(t, sum["closing_message"])

	w = doJSON(t, router, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UnknownSession", decode(t, w)["error_kind"])
}

func TestAdvanceRejectsUnknownAction(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]any{
		"scenario_id": "coffee-shop-linear-thinking",
	})
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["session_id"].(string)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/advance", id), map[string]any{
		"action": "dance",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "InvalidAction", body["error_kind"])
	details := body["details"].(map[string]any)
	assert.Contains(t, details, "allowed")
}

func TestAdvanceRejectsNegativeAmount(t *testing.T) {
	router := newTestServer(t)
	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]any{
		"scenario_id": "coffee-shop-linear-thinking",
	})
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["session_id"].(string)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/advance", id), map[string]any{
		"action": "hire_staff",
		"amount": -3,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidAmount", decode(t, w)["error_kind"])
}
