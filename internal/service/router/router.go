package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

type Config struct {
	CrisisValence   float64
	CrisisArousal   float64
	DistressValence float64
	DistressArousal float64
}

// Router resolves a turn to exactly one agent through a fixed priority
// chain: crisis, academic, emotional support, general chat.
type Router struct {
	predicates map[core.AgentLabel][]Predicate
}

func New() *Router {
	return &Router{predicates: make(map[core.AgentLabel][]Predicate)}
}

// NewDefault wires the keyword and state predicates, plus model scoring when
// scorer is not nil.
func NewDefault(cfg Config, scorer *ModelScorer) *Router {
	r := New()

	r.Register(core.AgentCrisisManagement, NewKeywordPredicate("crisis_keywords", 0.95, crisisTerms...))
	r.Register(core.AgentCrisisManagement, NewStatePredicate("crisis_state", 0.9, func(s core.EmotionalState) bool {
		return s.Valence <= cfg.CrisisValence && s.Arousal >= cfg.CrisisArousal
	}))

	r.Register(core.AgentAcademicPlanning, NewKeywordPredicate("academic_keywords", 0.6, academicTerms...))

	r.Register(core.AgentEmotionalSupport, NewKeywordPredicate("emotional_keywords", 0.6, emotionalTerms...))
	r.Register(core.AgentEmotionalSupport, NewStatePredicate("distress_state", 0.55, func(s core.EmotionalState) bool {
		return s.Valence <= cfg.DistressValence || s.Arousal >= cfg.DistressArousal
	}))

	if scorer != nil {
		for _, l := range []core.AgentLabel{core.AgentCrisisManagement, core.AgentAcademicPlanning, core.AgentEmotionalSupport} {
			r.Register(l, scorer.Predicate(l))
		}
	}
	return r
}

// Register adds a predicate for label. general_chat takes none; it is the
// default when nothing fires.
func (r *Router) Register(label core.AgentLabel, p Predicate) {
	r.predicates[label] = append(r.predicates[label], p)
}

type stage struct {
	signal Signal
	failed int
	total  int
	errs   []error
}

func (r *Router) evaluate(ctx context.Context, logger zerolog.Logger, label core.AgentLabel, in core.TurnContext) stage {
	var st stage
	for _, p := range r.predicates[label] {
		st.total++
		sig, err := p.Evaluate(ctx, in)
		if err != nil {
			st.failed++
			st.errs = append(st.errs, fmt.Errorf("%s: %w", p.Name(), err))
			logger.Warn().Err(err).Str("predicate", p.Name()).Msg("predicate failed")
			continue
		}
		if sig.Fired && (!st.signal.Fired || sig.Confidence > st.signal.Confidence) {
			st.signal = sig
		}
	}
	return st
}

// Classify returns the route for the turn. Failing predicates are skipped;
// an error is returned only when no predicate could be evaluated at all, or
// the context ended. Even then the decision is usable: crisis when any
// crisis predicate fired, general_chat otherwise.
func (r *Router) Classify(ctx context.Context, in core.TurnContext) (core.RouteDecision, error) {
	logger := log.FromCtx(ctx).With().Str("component", "router").Logger()

	// Crisis predicates are evaluated in full every turn.
	crisis := r.evaluate(ctx, logger, core.AgentCrisisManagement, in)
	if crisis.signal.Fired {
		return core.RouteDecision{
			Agent:          core.AgentCrisisManagement,
			Confidence:     crisis.signal.Confidence,
			CrisisOverride: true,
		}, nil
	}

	fallback := core.RouteDecision{Agent: core.AgentGeneralChat, Confidence: 1}
	if err := ctx.Err(); err != nil {
		return fallback, err
	}

	academic := r.evaluate(ctx, logger, core.AgentAcademicPlanning, in)
	emotional := r.evaluate(ctx, logger, core.AgentEmotionalSupport, in)

	failed := crisis.failed + academic.failed + emotional.failed
	total := crisis.total + academic.total + emotional.total
	if total > 0 && failed == total {
		errs := append(append(crisis.errs, academic.errs...), emotional.errs...)
		return fallback, fmt.Errorf("classify: %w", errors.Join(errs...))
	}

	a, e := academic.signal, emotional.signal
	switch {
	case a.Fired && e.Fired:
		if a.Confidence > e.Confidence {
			return core.RouteDecision{Agent: core.AgentAcademicPlanning, Confidence: a.Confidence}, nil
		}
		if a.Confidence == e.Confidence {
			logger.Debug().
				Err(core.ErrClassificationAmbiguous).
				Float64("confidence", a.Confidence).
				Msg("academic and emotional tied, preferring emotional support")
		}
		return core.RouteDecision{Agent: core.AgentEmotionalSupport, Confidence: e.Confidence}, nil
	case a.Fired:
		return core.RouteDecision{Agent: core.AgentAcademicPlanning, Confidence: a.Confidence}, nil
	case e.Fired:
		return core.RouteDecision{Agent: core.AgentEmotionalSupport, Confidence: e.Confidence}, nil
	}
	return fallback, nil
}
