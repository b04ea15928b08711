package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/sandevgo/emilia/internal/core"
)

const classifierPrompt = `You score a student's latest message for a support service.
Answer with one JSON object and nothing else:
{"crisis": <0..1>, "academic": <0..1>, "emotional": <0..1>}
crisis: risk of self-harm or suicide. academic: study, exams, coursework.
emotional: stress, sadness, anxiety or loneliness.`

const modelFireThreshold = 0.5

type modelScores struct {
	Crisis    float64 `json:"crisis"`
	Academic  float64 `json:"academic"`
	Emotional float64 `json:"emotional"`
}

// ModelScorer asks the model for all three need scores in a single call and
// shares the result among the per-label predicates of the same turn.
type ModelScorer struct {
	ai core.AIProvider

	mu   sync.Mutex
	last map[string]modelResult
}

type modelResult struct {
	seq    int
	scores modelScores
	err    error
}

func NewModelScorer(ai core.AIProvider) *ModelScorer {
	return &ModelScorer{ai: ai, last: make(map[string]modelResult)}
}

// Predicate returns the view of the scorer for one agent label.
func (m *ModelScorer) Predicate(label core.AgentLabel) Predicate {
	return PredicateFunc{
		ID: "model_" + string(label),
		Fn: func(ctx context.Context, in core.TurnContext) (Signal, error) {
			s, err := m.scores(ctx, in)
			if err != nil {
				return Signal{}, err
			}
			var v float64
			switch label {
			case core.AgentCrisisManagement:
				v = s.Crisis
			case core.AgentAcademicPlanning:
				v = s.Academic
			case core.AgentEmotionalSupport:
				v = s.Emotional
			}
			return Signal{Fired: v >= modelFireThreshold, Confidence: v}, nil
		},
	}
}

// Forget drops the cached result of a closed session.
func (m *ModelScorer) Forget(sessionID string) {
	m.mu.Lock()
	delete(m.last, sessionID)
	m.mu.Unlock()
}

func (m *ModelScorer) scores(ctx context.Context, in core.TurnContext) (modelScores, error) {
	m.mu.Lock()
	if r, ok := m.last[in.SessionID]; ok && r.seq == in.Seq {
		m.mu.Unlock()
		return r.scores, r.err
	}
	m.mu.Unlock()

	s, err := m.ask(ctx, in)

	m.mu.Lock()
	m.last[in.SessionID] = modelResult{seq: in.Seq, scores: s, err: err}
	m.mu.Unlock()
	return s, err
}

func (m *ModelScorer) ask(ctx context.Context, in core.TurnContext) (modelScores, error) {
	msgs := []core.Message{
		{Role: core.RoleSystem, Content: classifierPrompt},
		{Role: core.RoleSystem, Content: "Current affect: " + in.State.String()},
		{Role: core.RoleUser, Content: in.LastUserText()},
	}

	resp, err := m.ai.Chat(ctx, msgs, nil)
	if err != nil {
		return modelScores{}, err
	}
	return parseScores(resp.Content)
}

func parseScores(content string) (modelScores, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return modelScores{}, fmt.Errorf("classifier returned no json: %q", content)
	}

	var s modelScores
	if err := json.Unmarshal([]byte(content[start:end+1]), &s); err != nil {
		return modelScores{}, fmt.Errorf("decode classifier scores: %w", err)
	}
	s.Crisis = min(1, max(0, s.Crisis))
	s.Academic = min(1, max(0, s.Academic))
	s.Emotional = min(1, max(0, s.Emotional))
	return s, nil
}
