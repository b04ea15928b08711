package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/internal/service/agent"
	"github.com/sandevgo/emilia/internal/service/emotion"
	"github.com/sandevgo/emilia/internal/service/memory"
	"github.com/sandevgo/emilia/internal/service/recommend"
	"github.com/sandevgo/emilia/pkg/log"
)

const crisisFlushTimeout = 2 * time.Second

type Router interface {
	Classify(ctx context.Context, in core.TurnContext) (core.RouteDecision, error)
}

type Agents interface {
	Get(label core.AgentLabel) (agent.Agent, error)
}

type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) []core.ContentItem
}

type Deps struct {
	Router      Router
	Agents      Agents
	Recommender Recommender
	Repo        core.LongTermRepository
}

// Orchestrator runs the per-turn graph and owns every live session.
type Orchestrator struct {
	cfg     config.OrchestratorConfig
	safety  config.SafetyConfig
	deps    Deps
	tracker *emotion.Tracker
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	onClose  []func(sessionID string)
}

func New(cfg config.OrchestratorConfig, safety config.SafetyConfig, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		safety:   safety,
		deps:     deps,
		tracker:  emotion.NewTracker(cfg.DecayFactor),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// OnClose registers a hook run after a session is torn down.
func (o *Orchestrator) OnClose(fn func(sessionID string)) {
	o.mu.Lock()
	o.onClose = append(o.onClose, fn)
	o.mu.Unlock()
}

func (o *Orchestrator) session(id string) *Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s, ok := o.sessions[id]; ok {
		return s
	}
	mem := memory.New(id, memory.Config{
		Capacity:         o.cfg.MemoryCapacity,
		SummaryMaxLength: o.cfg.SummaryMaxLength,
	}, o.deps.Repo)
	s := newSession(id, mem, o.now())
	o.sessions[id] = s
	return s
}

// Session returns a live session.
func (o *Orchestrator) Session(id string) (*Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[id]
	return s, ok
}

// Snapshot reports a live session without touching it.
func (o *Orchestrator) Snapshot(id string) (Snapshot, bool) {
	s, ok := o.Session(id)
	if !ok {
		return Snapshot{}, false
	}
	return s.Snapshot(), true
}

func (o *Orchestrator) SessionCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

// SubmitTurn is the entry point used by transports.
func (o *Orchestrator) SubmitTurn(ctx context.Context, sessionID, text string) (core.Reply, error) {
	return o.HandleTurn(ctx, sessionID, text)
}

// HandleTurn runs one user message through routing, the agent, state and
// memory updates and recommendation. Only one turn per session runs at a
// time.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, text string) (core.Reply, error) {
	text = strings.TrimSpace(text)
	if sessionID == "" || text == "" {
		return core.Reply{}, core.ErrEmptyInput
	}

	sess, err := o.claim(ctx, sessionID)
	if err != nil {
		return core.Reply{}, err
	}
	defer sess.release()

	ctx = log.WithFields(ctx, "session", sessionID)
	return o.runTurn(ctx, sess, text)
}

// claim returns the live session with its slot held. A session closed while
// waiting is replaced by a fresh one.
func (o *Orchestrator) claim(ctx context.Context, sessionID string) (*Session, error) {
	for {
		sess := o.session(sessionID)
		if o.cfg.QueueTurns {
			if err := sess.acquire(ctx); err != nil {
				return nil, err
			}
		} else if !sess.tryAcquire() {
			return nil, core.ErrTurnInProgress
		}

		if !sess.isClosed() {
			return sess, nil
		}
		sess.release()
	}
}

func (o *Orchestrator) runTurn(ctx context.Context, sess *Session, text string) (core.Reply, error) {
	logger := log.FromCtx(ctx)
	mem := sess.Memory()
	sess.touch(o.now())

	// 1. user turn; kept even if the turn is later aborted
	userSeq := sess.nextSeq()
	if err := mem.Append(core.NewUserTurn(userSeq, text, o.now())); err != nil {
		return core.Reply{}, o.violation(ctx, sess, err)
	}

	prior := sess.State()
	tc := core.TurnContext{
		SessionID: sess.ID,
		Seq:       userSeq,
		Window:    mem.Window(o.cfg.WindowSize),
		State:     prior,
		Summary:   mem.SummaryText(),
	}

	// 2. route
	route, err := o.deps.Router.Classify(ctx, tc)
	crisis := route.CrisisOverride || route.Agent == core.AgentCrisisManagement
	if err != nil {
		if ctx.Err() != nil {
			return o.interrupted(ctx, logger, sess, userSeq, crisis)
		}
		logger.Warn().Err(err).Str("agent", string(route.Agent)).Msg("classification failed, using default route")
	}

	// 3. agent
	res, degraded := o.runAgent(ctx, route, crisis, tc)
	if ctx.Err() != nil {
		return o.interrupted(ctx, logger, sess, userSeq, crisis)
	}
	if degraded && !crisis {
		route = core.RouteDecision{Agent: core.AgentGeneralChat, Confidence: route.Confidence}
	}

	// 4. state and agent turn
	agentSeq := sess.nextSeq()
	next := o.tracker.Apply(prior, res.Delta, agentSeq)
	if err := next.Validate(); err != nil {
		return core.Reply{}, o.violation(ctx, sess, err)
	}
	sess.setState(next)

	if err := mem.Append(core.NewAgentTurn(agentSeq, res.Text, o.now(), route, next)); err != nil {
		return core.Reply{}, o.violation(ctx, sess, err)
	}
	if err := mem.Check(); err != nil {
		return core.Reply{}, o.violation(ctx, sess, err)
	}

	switch {
	case crisis:
		o.markSignificant(logger, mem, agentSeq, core.ReasonCrisis, nil)
	case res.Significant:
		o.markSignificant(logger, mem, agentSeq, core.ReasonAgent, nil)
	}

	// 5. recommendations
	recs := o.deps.Recommender.Recommend(ctx, recommend.Request{
		State:    next,
		Route:    route,
		Excluded: mem.SurfacedIDs(),
	})
	if len(recs) > 0 {
		ids := make([]string, 0, len(recs))
		for _, r := range recs {
			ids = append(ids, r.ID)
		}
		o.markSignificant(logger, mem, agentSeq, core.ReasonRecommendation, ids)
	}

	if err := mem.Flush(ctx); err != nil {
		logger.Warn().Err(err).Int("pending", mem.Pending()).Msg("long-term log flush deferred")
	}
	sess.touch(o.now())

	logger.Info().
		Int("seq", agentSeq).
		Str("agent", string(route.Agent)).
		Float64("confidence", route.Confidence).
		Bool("crisis", crisis).
		Bool("degraded", degraded).
		Int("recommendations", len(recs)).
		Str("state", next.String()).
		Msg("turn completed")

	// 6. reply
	if recs == nil {
		recs = []core.ContentItem{}
	}
	return core.Reply{
		SessionID:       sess.ID,
		Seq:             agentSeq,
		Text:            res.Text,
		Agent:           route.Agent,
		Crisis:          crisis,
		Degraded:        degraded,
		Recommendations: recs,
	}, nil
}

// runAgent never fails: a failing agent is replaced by the crisis fallback on
// the crisis path and by the general fallback otherwise.
func (o *Orchestrator) runAgent(ctx context.Context, route core.RouteDecision, crisis bool, tc core.TurnContext) (core.AgentResult, bool) {
	logger := log.FromCtx(ctx)

	label := route.Agent
	if crisis {
		label = core.AgentCrisisManagement
	}

	a, err := o.deps.Agents.Get(label)
	if err == nil {
		var res core.AgentResult
		res, err = a.Handle(ctx, tc)
		if err == nil {
			return res, false
		}
	}
	if ctx.Err() != nil {
		return core.AgentResult{}, true
	}

	logger.Error().
		Err(err).
		Str("agent", string(label)).
		Bool("model_failure", core.IsModelFailure(err)).
		Msg("agent failed, using fallback reply")

	if crisis {
		return core.AgentResult{Text: agent.CrisisFallback(o.safety), Significant: true}, true
	}
	return core.AgentResult{Text: agent.GeneralFallback()}, true
}

func (o *Orchestrator) markSignificant(logger *zerolog.Logger, mem *memory.Memory, seq int, reason core.SignificanceReason, ids []string) {
	if err := mem.MarkSignificant(seq, reason, ids); err != nil {
		logger.Error().Err(err).Int("seq", seq).Str("reason", string(reason)).Msg("failed to mark turn significant")
	}
}

// interrupted ends a turn whose context is done without touching state. A
// crisis turn that ran out of time still gets the safety reply; only caller
// cancellation aborts it.
func (o *Orchestrator) interrupted(ctx context.Context, logger *zerolog.Logger, sess *Session, userSeq int, crisis bool) (core.Reply, error) {
	cause := ctx.Err()
	if !crisis || !errors.Is(cause, context.DeadlineExceeded) {
		return core.Reply{}, o.aborted(logger, userSeq, cause)
	}

	mem := sess.Memory()
	o.markSignificant(logger, mem, userSeq, core.ReasonCrisis, nil)

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), crisisFlushTimeout)
	defer cancel()
	if err := mem.Flush(flushCtx); err != nil {
		logger.Warn().Err(err).Int("pending", mem.Pending()).Msg("long-term log flush deferred")
	}

	logger.Warn().
		Err(cause).
		Int("seq", userSeq).
		Msg("crisis turn ran out of time, sending safety reply")

	return core.Reply{
		SessionID:       sess.ID,
		Seq:             userSeq,
		Text:            agent.CrisisFallback(o.safety),
		Agent:           core.AgentCrisisManagement,
		Crisis:          true,
		Degraded:        true,
		Recommendations: []core.ContentItem{},
	}, nil
}

func (o *Orchestrator) aborted(logger *zerolog.Logger, seq int, cause error) error {
	logger.Info().Err(cause).Int("seq", seq).Msg("turn aborted by caller, state untouched")
	return fmt.Errorf("%w: %w", core.ErrTurnAborted, cause)
}

// violation resets the session to a safe state and fails the turn.
func (o *Orchestrator) violation(ctx context.Context, sess *Session, err error) error {
	log.FromCtx(ctx).Error().Err(err).Msg("invariant violated, resetting session state")
	sess.setState(core.NeutralState())
	sess.Memory().Repair()
	if !errors.Is(err, core.ErrInvariantViolation) {
		err = fmt.Errorf("%w: %w", core.ErrInvariantViolation, err)
	}
	return err
}

// CloseSession waits for any in-flight turn, flushes the long-term log and
// forgets the session. Closing an unknown session is a no-op.
func (o *Orchestrator) CloseSession(ctx context.Context, sessionID string) error {
	sess, ok := o.Session(sessionID)
	if !ok {
		return nil
	}
	if err := sess.acquire(ctx); err != nil {
		return err
	}
	defer sess.release()

	return o.teardown(ctx, sess)
}

func (o *Orchestrator) teardown(ctx context.Context, sess *Session) error {
	if sess.isClosed() {
		return nil
	}
	sess.markClosed()

	o.mu.Lock()
	if cur, ok := o.sessions[sess.ID]; ok && cur == sess {
		delete(o.sessions, sess.ID)
	}
	hooks := append([]func(string){}, o.onClose...)
	o.mu.Unlock()

	for _, fn := range hooks {
		fn(sess.ID)
	}

	if err := sess.Memory().Flush(ctx); err != nil {
		return fmt.Errorf("close session %s: %w", sess.ID, err)
	}
	log.FromCtx(ctx).Info().Str("session", sess.ID).Msg("session closed")
	return nil
}

// CloseIdle tears down sessions inactive for longer than idle. Sessions with
// a turn in flight are left alone.
func (o *Orchestrator) CloseIdle(ctx context.Context, idle time.Duration) int {
	cutoff := o.now().Add(-idle)

	o.mu.Lock()
	var stale []*Session
	for _, s := range o.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
		}
	}
	o.mu.Unlock()

	closed := 0
	for _, s := range stale {
		if !s.tryAcquire() {
			continue
		}
		if err := o.teardown(ctx, s); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("idle session flush failed")
		}
		s.release()
		closed++
	}
	return closed
}

// CloseAll tears down every session, used on shutdown.
func (o *Orchestrator) CloseAll(ctx context.Context) error {
	o.mu.Lock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	o.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := o.CloseSession(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LongTermLog returns the durable log of a session, including entries of a
// live session not yet flushed.
func (o *Orchestrator) LongTermLog(ctx context.Context, sessionID string) ([]core.LongTermEntry, error) {
	if sess, ok := o.Session(sessionID); ok {
		if err := sess.Memory().Flush(ctx); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("flush before listing failed")
			return sess.Memory().LongTerm(), nil
		}
	}
	if o.deps.Repo == nil {
		return nil, nil
	}
	return o.deps.Repo.List(ctx, sessionID)
}
