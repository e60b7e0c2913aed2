package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"COGNITIVE_BIAS_PLAYGROUND/internal/apperr"
	"COGNITIVE_BIAS_PLAYGROUND/internal/catalog"
	"COGNITIVE_BIAS_PLAYGROUND/internal/session"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

// Handlers is the thin HTTP adapter over the session controller and the
// catalogue registry.
type Handlers struct {
	catalog    *catalog.Catalog
	controller *session.Controller
	logger     *zap.Logger
}

// NewHandlers wires the adapter.
func NewHandlers(cat *catalog.Catalog, ctrl *session.Controller, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{catalog: cat, controller: ctrl, logger: logger}
}

// errorEnvelope is the wire shape of every error response.
type errorEnvelope struct {
	ErrorKind string         `json:"error_kind"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

func (h *Handlers) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	env := errorEnvelope{ErrorKind: string(kind), Message: err.Error()}
	var e *apperr.Error
	if errors.As(err, &e) {
		env.Message = e.Message
		env.Details = e.Details
	}
	if kind.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	c.JSON(kind.HTTPStatus(), env)
}

// ListScenarios handles GET /api/scenarios.
func (h *Handlers) ListScenarios(c *gin.Context) {
	f := catalog.Filter{
		Difficulty:      c.Query("difficulty"),
		Category:        c.Query("category"),
		IncludeAdvanced: c.Query("include_advanced") == "true",
	}
	// We only return the metadata, not the full descriptors.
	type scenarioMetadata struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Category   string `json:"category"`
		Difficulty string `json:"difficulty"`
		TurnLimit  int    `json:"turn_limit"`
	}
	list := h.catalog.List(f)
	metadata := make([]scenarioMetadata, len(list))
	for i, s := range list {
		metadata[i] = scenarioMetadata{
			ID:         s.ID,
			Name:       s.Name,
			Category:   s.Category,
			Difficulty: s.Difficulty,
			TurnLimit:  s.TurnLimit,
		}
	}
	c.JSON(http.StatusOK, metadata)
}

// GetScenario handles GET /api/scenarios/:id.
func (h *Handlers) GetScenario(c *gin.Context) {
	s, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// ListCases handles GET /api/cases.
func (h *Handlers) ListCases(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Cases())
}

// GetCase handles GET /api/cases/:id.
func (h *Handlers) GetCase(c *gin.Context) {
	cs, err := h.catalog.CaseByID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cs)
}

// ListQuestions handles GET /api/questions.
func (h *Handlers) ListQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Questions())
}

type createSessionRequest struct {
	ScenarioID string `json:"scenario_id" binding:"required"`
	Difficulty string `json:"difficulty"`
	Seed       *int64 `json:"seed"`
}

// CreateSession handles POST /api/sessions.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Wrap(apperr.KindMalformedRequest, err, "invalid create request"))
		return
	}
	sess, scn, err := h.controller.Create(c.Request.Context(), req.ScenarioID, req.Difficulty, req.Seed)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":        sess.ID,
		"initial_state":     sess.State,
		"scenario_metadata": scn,
	})
}

type advanceRequest struct {
	Action     string  `json:"action" binding:"required"`
	Amount     float64 `json:"amount"`
	Stance     string  `json:"stance"`
	Confidence float64 `json:"confidence"`
}

// Advance handles POST /api/sessions/:id/advance.
func (h *Handlers) Advance(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Wrap(apperr.KindMalformedRequest, err, "invalid advance request"))
		return
	}
	res, err := h.controller.Advance(c.Request.Context(), c.Param("id"), state.Decision{
		Action:     req.Action,
		Amount:     req.Amount,
		Stance:     req.Stance,
		Confidence: req.Confidence,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetSession handles GET /api/sessions/:id.
func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.controller.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":          sess.State,
		"turn_number":    sess.State.TurnNumber,
		"history_length": len(sess.History),
		"terminal":       sess.State.Terminal,
	})
}

// Summary handles POST /api/sessions/:id/summary.
func (h *Handlers) Summary(c *gin.Context) {
	sum, err := h.controller.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// DeleteSession handles DELETE /api/sessions/:id.
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.controller.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
