package router

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultCfg = Config{
	CrisisValence:   -0.8,
	CrisisArousal:   0.75,
	DistressValence: -0.3,
	DistressArousal: 0.6,
}

func input(text string, state core.EmotionalState) core.TurnContext {
	return core.TurnContext{
		SessionID: "s1",
		Seq:       1,
		Window:    []core.Turn{core.NewUserTurn(1, text, t0)},
		State:     state,
	}
}

func fixed(name string, sig Signal, err error) Predicate {
	return PredicateFunc{ID: name, Fn: func(context.Context, core.TurnContext) (Signal, error) {
		return sig, err
	}}
}

func TestClassify_DefaultChain(t *testing.T) {
	r := NewDefault(defaultCfg, nil)

	tests := []struct {
		name  string
		text  string
		state core.EmotionalState
		want  core.AgentLabel
	}{
		{"small talk", "hi, how is your day going?", core.NeutralState(), core.AgentGeneralChat},
		{"academic", "I have an exam on Friday and no study plan", core.NeutralState(), core.AgentAcademicPlanning},
		{"emotional", "I feel so lonely and sad lately", core.NeutralState(), core.AgentEmotionalSupport},
		{"spanish emotional", "Estoy muy triste y agobiada", core.NeutralState(), core.AgentEmotionalSupport},
		{"crisis keyword", "I want to die", core.NeutralState(), core.AgentCrisisManagement},
		{"spanish crisis", "ya no quiero vivir", core.NeutralState(), core.AgentCrisisManagement},
		{"crisis from state", "whatever", core.EmotionalState{Valence: -0.9, Arousal: 0.8}, core.AgentCrisisManagement},
		{"distress state", "ok", core.EmotionalState{Valence: -0.5, Arousal: 0.2}, core.AgentEmotionalSupport},
		{"prefix match", "procrastinating on everything", core.NeutralState(), core.AgentAcademicPlanning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Classify(context.Background(), input(tt.text, tt.state))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Agent)
			assert.Equal(t, tt.want == core.AgentCrisisManagement, got.CrisisOverride)
		})
	}
}

func TestClassify_CrisisOverridesEverything(t *testing.T) {
	r := New()
	r.Register(core.AgentAcademicPlanning, fixed("academic", Signal{Fired: true, Confidence: 1}, nil))
	r.Register(core.AgentEmotionalSupport, fixed("emotional", Signal{Fired: true, Confidence: 1}, nil))
	r.Register(core.AgentCrisisManagement, fixed("crisis", Signal{Fired: true, Confidence: 0.1}, nil))

	got, err := r.Classify(context.Background(), input("x", core.NeutralState()))
	require.NoError(t, err)
	assert.Equal(t, core.AgentCrisisManagement, got.Agent)
	assert.True(t, got.CrisisOverride)
}

func TestClassify_EvaluatesEveryCrisisPredicate(t *testing.T) {
	var calls atomic.Int32
	counting := PredicateFunc{ID: "count", Fn: func(context.Context, core.TurnContext) (Signal, error) {
		calls.Add(1)
		return Signal{}, nil
	}}

	r := New()
	r.Register(core.AgentCrisisManagement, fixed("boom", Signal{}, errors.New("boom")))
	r.Register(core.AgentCrisisManagement, counting)
	r.Register(core.AgentCrisisManagement, fixed("fires", Signal{Fired: true, Confidence: 0.7}, nil))

	got, err := r.Classify(context.Background(), input("x", core.NeutralState()))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, core.AgentCrisisManagement, got.Agent)
	assert.Equal(t, 0.7, got.Confidence)
}

func TestClassify_TieBreaks(t *testing.T) {
	tests := []struct {
		name      string
		academic  float64
		emotional float64
		want      core.AgentLabel
	}{
		{"academic stronger", 0.8, 0.6, core.AgentAcademicPlanning},
		{"emotional stronger", 0.6, 0.8, core.AgentEmotionalSupport},
		{"exact tie prefers emotional", 0.7, 0.7, core.AgentEmotionalSupport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			r.Register(core.AgentAcademicPlanning, fixed("a", Signal{Fired: true, Confidence: tt.academic}, nil))
			r.Register(core.AgentEmotionalSupport, fixed("e", Signal{Fired: true, Confidence: tt.emotional}, nil))

			got, err := r.Classify(context.Background(), input("x", core.NeutralState()))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Agent)
		})
	}
}

func TestClassify_AllPredicatesFail(t *testing.T) {
	boom := errors.New("model down")

	r := New()
	r.Register(core.AgentCrisisManagement, fixed("c", Signal{}, boom))
	r.Register(core.AgentAcademicPlanning, fixed("a", Signal{}, boom))

	got, err := r.Classify(context.Background(), input("x", core.NeutralState()))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, core.AgentGeneralChat, got.Agent)
	assert.False(t, got.CrisisOverride)
}

func TestClassify_PartialFailureStillRoutes(t *testing.T) {
	r := New()
	r.Register(core.AgentAcademicPlanning, fixed("broken", Signal{}, errors.New("nope")))
	r.Register(core.AgentAcademicPlanning, fixed("ok", Signal{Fired: true, Confidence: 0.6}, nil))

	got, err := r.Classify(context.Background(), input("x", core.NeutralState()))
	require.NoError(t, err)
	assert.Equal(t, core.AgentAcademicPlanning, got.Agent)
}

func TestKeywordPredicate_Confidence(t *testing.T) {
	p := NewKeywordPredicate("k", 0.6, "exam", "deadline", "essay")

	one, err := p.Evaluate(context.Background(), input("exam soon", core.NeutralState()))
	require.NoError(t, err)
	two, err := p.Evaluate(context.Background(), input("exam and essay deadline", core.NeutralState()))
	require.NoError(t, err)
	none, err := p.Evaluate(context.Background(), input("examine this", core.NeutralState()))
	require.NoError(t, err)

	assert.True(t, one.Fired)
	assert.InDelta(t, 0.6, one.Confidence, 1e-9)
	assert.InDelta(t, 0.8, two.Confidence, 1e-9)
	assert.False(t, none.Fired)
}
