package session

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"COGNITIVE_BIAS_PLAYGROUND/internal/apperr"
	"COGNITIVE_BIAS_PLAYGROUND/internal/bias"
	"COGNITIVE_BIAS_PLAYGROUND/internal/catalog"
	"COGNITIVE_BIAS_PLAYGROUND/internal/engine"
	"COGNITIVE_BIAS_PLAYGROUND/internal/feedback"
	"COGNITIVE_BIAS_PLAYGROUND/pkg/state"
)

// Options tune the controller.
type Options struct {
	// TTL is the idle time after which a session is evicted.
	TTL time.Duration
	// TurnBudget bounds the compute time of one turn.
	TurnBudget time.Duration
	// SweepInterval is how often the eviction sweep runs.
	SweepInterval time.Duration
}

// DefaultOptions mirror the documented environment defaults.
func DefaultOptions() Options {
	return Options{
		TTL:           2 * time.Hour,
		TurnBudget:    500 * time.Millisecond,
		SweepInterval: time.Minute,
	}
}

// Controller owns the session map and drives a turn through the engine,
// tracker, and feedback generator in order.
type Controller struct {
	catalog *catalog.Catalog
	store   Store
	logger  *zap.Logger
	opts    Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	stopOnce sync.Once
	started  bool
	stop     chan struct{}
	done     chan struct{}
}

// NewController wires a controller over a catalogue and a store.
func NewController(cat *catalog.Catalog, store Store, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultOptions().TTL
	}
	if opts.TurnBudget <= 0 {
		opts.TurnBudget = DefaultOptions().TurnBudget
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultOptions().SweepInterval
	}
	return &Controller{
		catalog: cat,
		store:   store,
		logger:  logger,
		opts:    opts,
		locks:   make(map[string]*sync.Mutex),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// StartSweeper launches the background eviction sweep. Call Close to stop it.
func (c *Controller) StartSweeper() {
	c.started = true
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.opts.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-c.opts.TTL)
				if n := c.store.Sweep(context.Background(), cutoff); n > 0 {
					c.logger.Info("evicted idle sessions", zap.Int("count", n))
					c.pruneLocks()
				}
			}
		}
	}()
}

// Close stops the sweeper. Safe to call more than once.
func (c *Controller) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
		if c.started {
			<-c.done
		}
	})
}

// pruneLocks drops mutexes for sessions the store no longer knows. Locks are
// tiny, so this only matters across very long uptimes.
func (c *Controller) pruneLocks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.locks {
		if _, err := c.store.Get(context.Background(), id); err != nil {
			delete(c.locks, id)
		}
	}
}

func (c *Controller) lockFor(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[id]
	if !ok {
		l = &sync.Mutex{}
		c.locks[id] = l
	}
	return l
}

// newSeed generates a high-entropy seed for a session's random streams.
func newSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Create builds a new session for a scenario. A nil seed gets a random one;
// passing a seed makes every return draw of the session reproducible.
func (c *Controller) Create(ctx context.Context, scenarioID, difficulty string, seed *int64) (*Session, catalog.Scenario, error) {
	scn, err := c.catalog.Get(scenarioID)
	if err != nil {
		return nil, catalog.Scenario{}, err
	}
	rule, ok := engine.Lookup(scenarioID)
	if !ok {
		return nil, catalog.Scenario{}, apperr.New(apperr.KindUnknownScenario,
			"no transition rule registered for scenario %q", scenarioID)
	}
	if difficulty == "" {
		difficulty = scn.Difficulty
	}

	var s int64
	if seed != nil {
		s = *seed
	} else {
		s, err = newSeed()
		if err != nil {
			return nil, catalog.Scenario{}, err
		}
	}

	st := rule.InitialState(scn.InitialStateTemplate, difficulty, s)
	now := time.Now().UTC()
	sess := &Session{
		ID:                     uuid.NewString(),
		ScenarioID:             scenarioID,
		Difficulty:             difficulty,
		Seed:                   s,
		CreatedAt:              now,
		LastActive:             now,
		State:                  st,
		FirstDetected:          make(map[string]int),
		Revealed:               make(map[string]bool),
		SatisfactionTrajectory: []float64{st.Satisfaction},
		ResourcesTrajectory:    []float64{st.Resources},
	}
	if err := c.store.Put(ctx, sess); err != nil {
		return nil, catalog.Scenario{}, err
	}
	c.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("scenario_id", scenarioID),
		zap.String("difficulty", difficulty))
	return sess, scn, nil
}

// AdvanceResult is the outcome of one committed turn.
type AdvanceResult struct {
	State    state.State       `json:"state"`
	Feedback feedback.Feedback `json:"feedback"`
	Detected []bias.Detection  `json:"detected_biases"`
	Terminal bool              `json:"terminal"`
}

// Advance applies one decision to a session. The turn commits atomically:
// either the turn number increments and history grows by one, or — on any
// engine error, timeout, or cancellation — nothing changes. Tracker and
// generator failures never block the commit.
func (c *Controller) Advance(ctx context.Context, id string, d state.Decision) (*AdvanceResult, error) {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Terminal() {
		return nil, apperr.New(apperr.KindSessionTerminated,
			"session %q reached a terminal state (%s)", id, sess.State.TerminalReason)
	}
	scn, err := c.catalog.Get(sess.ScenarioID)
	if err != nil {
		return nil, err
	}

	next, err := c.applyWithBudget(ctx, sess, d)
	if err != nil {
		return nil, err
	}

	playedTurn := sess.State.TurnNumber
	record := state.DecisionRecord{
		TurnNumber: playedTurn,
		Action:     d.Action,
		Amount:     d.Amount,
		Stance:     d.Stance,
		Confidence: d.Confidence,
		Timestamp:  time.Now().UTC(),
		PreState:   sess.State.Snapshot(),
		PostState:  next.Snapshot(),
	}

	if !next.Terminal && next.TurnNumber > scn.TurnLimit {
		next.Terminal = true
		next.TerminalReason = "turn_limit"
	}

	// Commit: the turn exists from here on, whatever tracker or generator do.
	sess.State = next
	sess.History = append(sess.History, record)
	sess.SatisfactionTrajectory = append(sess.SatisfactionTrajectory, next.Satisfaction)
	sess.ResourcesTrajectory = append(sess.ResourcesTrajectory, next.Resources)
	sess.LastActive = time.Now().UTC()

	c.track(sess, scn, playedTurn)
	fb := c.generate(sess, scn, d, record, playedTurn)

	if err := c.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return &AdvanceResult{
		State:    sess.State,
		Feedback: fb,
		Detected: sess.Detected,
		Terminal: sess.State.Terminal,
	}, nil
}

// applyWithBudget races the engine against the turn budget. Rules are pure
// functions of a cloned state, so an abandoned computation cannot corrupt
// the session.
func (c *Controller) applyWithBudget(ctx context.Context, sess *Session, d state.Decision) (state.State, error) {
	tctx, cancel := context.WithTimeout(ctx, c.opts.TurnBudget)
	defer cancel()

	type outcome struct {
		next state.State
		err  error
	}
	ch := make(chan outcome, 1)
	cur := sess.State.Clone()
	scenarioID := sess.ScenarioID
	go func() {
		next, err := engine.Apply(scenarioID, cur, d)
		ch <- outcome{next: next, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			if apperr.Is(o.err, apperr.KindInternalRuleError) {
				c.logger.Error("transition rule failed",
					zap.String("scenario_id", scenarioID), zap.Error(o.err))
			}
			return state.State{}, o.err
		}
		return o.next, nil
	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return state.State{}, apperr.New(apperr.KindTurnTimeout,
				"turn exceeded %s budget", c.opts.TurnBudget)
		}
		return state.State{}, tctx.Err()
	}
}

// track re-evaluates bias patterns. Failures are demoted to warnings and
// leave the previous detections in place.
func (c *Controller) track(sess *Session, scn catalog.Scenario, playedTurn int) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("bias tracker failed; keeping previous detections",
				zap.String("session_id", sess.ID), zap.Any("panic", r))
		}
	}()
	res := bias.Evaluate(scn, sess.History)
	sess.Detected = res.Detected
	sess.Latent = res.Latent
	for _, det := range res.Detected {
		if _, seen := sess.FirstDetected[det.Tag]; !seen {
			sess.FirstDetected[det.Tag] = playedTurn
		}
	}
}

// generate produces turn feedback, falling back to a stock message on any
// failure. The turn is never rolled back on the generator's account.
func (c *Controller) generate(sess *Session, scn catalog.Scenario, d state.Decision, record state.DecisionRecord, playedTurn int) (fb feedback.Feedback) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("feedback generator failed; using fallback",
				zap.String("session_id", sess.ID), zap.Any("panic", r))
			fb = feedback.Fallback()
		}
	}()
	var revealed string
	fb, revealed = feedback.Generate(feedback.Input{
		Scenario: scn,
		Turn:     playedTurn,
		Decision: d,
		Record:   record,
		History:  sess.History,
		Detected: sess.Detected,
		Revealed: sess.Revealed,
	})
	if revealed != "" {
		sess.Revealed[revealed] = true
	}
	return fb
}

// Get returns a deep copy of the session. Copying under the session lock
// keeps readers off the state a concurrent Advance is committing.
func (c *Controller) Get(ctx context.Context, id string) (*Session, error) {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

// Summarize aggregates a session into its read-only summary.
func (c *Controller) Summarize(ctx context.Context, id string) (Summary, error) {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := c.store.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	scn, err := c.catalog.Get(sess.ScenarioID)
	if err != nil {
		return Summary{}, err
	}

	biases := make([]BiasSummary, 0, len(sess.Detected))
	for _, det := range sess.Detected {
		biases = append(biases, BiasSummary{
			Tag:               det.Tag,
			FirstDetectedTurn: sess.FirstDetected[det.Tag],
			FinalConfidence:   det.Confidence,
		})
	}

	return Summary{
		SessionID:      sess.ID,
		ScenarioID:     sess.ScenarioID,
		TurnsTaken:     len(sess.History),
		TerminalReason: sess.State.TerminalReason,
		Biases:         biases,
		Trajectory: Trajectory{
			Satisfaction: append([]float64(nil), sess.SatisfactionTrajectory...),
			Resources:    append([]float64(nil), sess.ResourcesTrajectory...),
		},
		ClosingMessage: feedback.Closing(scn, sess.History, sess.Detected),
		FinalState:     sess.State.Clone(),
	}, nil
}

// Delete removes a session and its lock.
func (c *Controller) Delete(ctx context.Context, id string) error {
	lock := c.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.locks, id)
	c.mu.Unlock()
	return nil
}
