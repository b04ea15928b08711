package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	messages []core.Message
	tools    []core.Tool
}

type scriptedModel struct {
	mu      sync.Mutex
	replies []core.Message
	err     error
	calls   []recordedCall
}

func (m *scriptedModel) Chat(_ context.Context, messages []core.Message, tools []core.Tool) (core.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, recordedCall{messages: append([]core.Message(nil), messages...), tools: tools})
	if m.err != nil {
		return core.Message{}, m.err
	}
	if len(m.replies) == 0 {
		return core.Message{Role: core.RoleAssistant, Content: "default"}, nil
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	return r, nil
}

func toolCall(id, name, args string) core.ToolCall {
	return core.ToolCall{ID: id, Type: "function", Function: core.FunctionCall{Name: name, Arguments: args}}
}

func turnContext(text string) core.TurnContext {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return core.TurnContext{
		SessionID: "s1",
		Seq:       3,
		Window: []core.Turn{
			core.NewUserTurn(1, "hello", at),
			core.NewAgentTurn(2, "hi there", at, core.RouteDecision{Agent: core.AgentGeneralChat}, core.NeutralState()),
			core.NewUserTurn(3, text, at),
		},
		State:   core.EmotionalState{Valence: -0.2, Arousal: 0.4},
		Summary: "Earlier: 2 turn(s) #1-#2.",
	}
}

var safety = config.DefaultSafetyConfig()

func TestModelAgent_PlainReply(t *testing.T) {
	m := &scriptedModel{replies: []core.Message{{Role: core.RoleAssistant, Content: "Let's plan it."}}}
	a := NewModelAgent(core.AgentAcademicPlanning, m, NewPrompter("", 0), NewToolset(studyStrategiesTool()), 3)

	res, err := a.Handle(context.Background(), turnContext("exam next week"))
	require.NoError(t, err)
	assert.Equal(t, "Let's plan it.", res.Text)
	assert.True(t, res.Delta.IsEmpty())

	require.Len(t, m.calls, 1)
	msgs := m.calls[0].messages
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "valence=-0.20")
	assert.Contains(t, msgs[1].Content, "Earlier: 2 turn(s)")
	assert.Equal(t, core.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "exam next week", msgs[len(msgs)-1].Content)

	var names []string
	for _, tool := range m.calls[0].tools {
		names = append(names, tool.Function.Name)
	}
	assert.Equal(t, []string{ReportAffectTool, "get_study_strategies"}, names)
}

func TestModelAgent_ToolRoundsAndAffect(t *testing.T) {
	m := &scriptedModel{replies: []core.Message{
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{
			toolCall("c1", ReportAffectTool, `{"valence_delta": -0.3, "arousal_delta": 0.2}`),
			toolCall("c2", "get_coping_exercises", `{"type": "anxiety"}`),
		}},
		{Role: core.RoleAssistant, Content: "Try box breathing with me."},
	}}
	a := NewModelAgent(core.AgentEmotionalSupport, m, NewPrompter("", 0), NewToolset(copingExercisesTool()), 3)

	res, err := a.Handle(context.Background(), turnContext("I am so anxious"))
	require.NoError(t, err)
	assert.Equal(t, "Try box breathing with me.", res.Text)
	assert.True(t, res.Delta.HasValence)
	assert.InDelta(t, -0.3, res.Delta.Valence, 1e-9)
	assert.InDelta(t, 0.2, res.Delta.Arousal, 1e-9)

	require.Len(t, m.calls, 2)
	second := m.calls[1].messages
	last := second[len(second)-1]
	assert.Equal(t, core.RoleTool, last.Role)
	assert.Equal(t, "c2", last.ToolCallID)
	assert.Contains(t, last.Content, "grounding")
}

func TestModelAgent_ToolRoundsAreBounded(t *testing.T) {
	loop := core.Message{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{toolCall("c", "get_coping_exercises", `{}`)}}
	m := &scriptedModel{replies: []core.Message{loop, loop, {Role: core.RoleAssistant, Content: "done"}}}
	a := NewModelAgent(core.AgentEmotionalSupport, m, NewPrompter("", 0), NewToolset(copingExercisesTool()), 2)

	res, err := a.Handle(context.Background(), turnContext("hmm"))
	require.NoError(t, err)
	assert.Equal(t, "done", res.Text)
	require.Len(t, m.calls, 3)
	assert.Nil(t, m.calls[2].tools)
}

func TestModelAgent_UnknownToolIsReportedToModel(t *testing.T) {
	m := &scriptedModel{replies: []core.Message{
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{toolCall("c1", "rm_rf", `{}`)}},
		{Role: core.RoleAssistant, Content: "ok"},
	}}
	a := NewModelAgent(core.AgentGeneralChat, m, NewPrompter("", 0), nil, 3)

	_, err := a.Handle(context.Background(), turnContext("hi"))
	require.NoError(t, err)
	msgs := m.calls[1].messages
	assert.True(t, strings.HasPrefix(msgs[len(msgs)-1].Content, "Error:"))
}

func TestModelAgent_EstimatesAffectWhenNotReported(t *testing.T) {
	m := &scriptedModel{replies: []core.Message{{Role: core.RoleAssistant, Content: "I hear you."}}}
	a := NewModelAgent(core.AgentEmotionalSupport, m, NewPrompter("", 0), nil, 3)

	res, err := a.Handle(context.Background(), turnContext("I feel sad and lonely"))
	require.NoError(t, err)
	assert.True(t, res.Delta.HasValence)
	assert.Less(t, res.Delta.Valence, 0.0)
}

func TestModelAgent_Errors(t *testing.T) {
	boom := core.NewModelError(core.ModelTimeout, errors.New("slow"))
	a := NewModelAgent(core.AgentGeneralChat, &scriptedModel{err: boom}, NewPrompter("", 0), nil, 3)

	_, err := a.Handle(context.Background(), turnContext("hi"))
	assert.ErrorIs(t, err, core.ErrModelTimeout)

	empty := &scriptedModel{replies: []core.Message{{Role: core.RoleAssistant}}}
	a = NewModelAgent(core.AgentGeneralChat, empty, NewPrompter("", 0), nil, 3)
	_, err = a.Handle(context.Background(), turnContext("hi"))
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
}

func TestCrisisAgent_AppendsResources(t *testing.T) {
	m := &scriptedModel{replies: []core.Message{{Role: core.RoleAssistant, Content: "I'm here with you."}}}
	a := NewCrisisAgent(NewModelAgent(core.AgentCrisisManagement, m, NewPrompter("", 0), nil, 3), safety)

	res, err := a.Handle(context.Background(), turnContext("I want to die"))
	require.NoError(t, err)
	assert.True(t, res.Significant)
	assert.Contains(t, res.Text, "I'm here with you.")
	assert.Contains(t, res.Text, "988")
	assert.Contains(t, res.Text, "911")

	_, err = NewCrisisAgent(NewModelAgent(core.AgentCrisisManagement, &scriptedModel{err: core.ErrModelUnavailable}, NewPrompter("", 0), nil, 1), safety).
		Handle(context.Background(), turnContext("x"))
	assert.Error(t, err)
}

func TestFallbacks(t *testing.T) {
	crisis := CrisisFallback(safety)
	assert.Contains(t, crisis, "988")
	assert.Contains(t, crisis, "741741")
	assert.NotEqual(t, GeneralFallback(), crisis)
}

func TestDefaultSet(t *testing.T) {
	s := NewDefaultSet(&scriptedModel{}, NewPrompter("", 0), safety, 3)
	for _, l := range core.AgentLabels {
		a, err := s.Get(l)
		require.NoError(t, err)
		assert.Equal(t, l, a.Label())
	}
	_, err := s.Get("astrology")
	assert.ErrorIs(t, err, core.ErrUnknownAgent)

	_, err = NewSet(NewModelAgent(core.AgentGeneralChat, &scriptedModel{}, NewPrompter("", 0), nil, 1))
	assert.Error(t, err)
}

func TestPrompter_Override(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "general_chat.md"), []byte("Custom persona."), 0o644))

	p := NewPrompter(dir, 0)
	assert.Equal(t, "Custom persona.", p.Persona(core.AgentGeneralChat))
	assert.Equal(t, personas[core.AgentAcademicPlanning], p.Persona(core.AgentAcademicPlanning))
}

func TestPrompter_Fit(t *testing.T) {
	p := NewPrompter("", 10)
	p.count = func(s string) int { return len(strings.Fields(s)) }

	msgs := []core.Message{
		{Role: core.RoleSystem, Content: "one two three"},
		{Role: core.RoleUser, Content: "four five six"},
		{Role: core.RoleAssistant, Content: "seven eight nine"},
		{Role: core.RoleUser, Content: "ten eleven"},
	}

	got := p.Fit(msgs)
	require.Len(t, got, 3)
	assert.Equal(t, core.RoleSystem, got[0].Role)
	assert.Equal(t, "seven eight nine", got[1].Content)
	assert.Equal(t, "ten eleven", got[2].Content)

	assert.Equal(t, msgs, NewPrompter("", 0).Fit(msgs))
}

func TestParseAffect(t *testing.T) {
	d, err := parseAffect(`{"valence_delta": -3}`)
	require.NoError(t, err)
	assert.True(t, d.HasValence)
	assert.False(t, d.HasArousal)
	assert.Equal(t, -1.0, d.Valence)

	d, err = parseAffect("")
	require.NoError(t, err)
	assert.True(t, d.IsEmpty())

	_, err = parseAffect("{")
	assert.Error(t, err)
}

func TestPlanDays(t *testing.T) {
	plan := planDays(4, []string{"math", "history"})
	require.Len(t, plan, 4)
	assert.Equal(t, "math", plan[0].Focus)
	assert.Equal(t, "history", plan[1].Focus)
	assert.Equal(t, "math", plan[2].Focus)
	assert.Equal(t, "review and rest", plan[3].Focus)

	assert.Len(t, planDays(1, nil), 1)
}

func TestExecutor_Truncate(t *testing.T) {
	e := NewExecutor(NewToolset())

	t.Run("ascii", func(t *testing.T) {
		out := e.truncate(strings.Repeat("x", 5000))
		assert.Contains(t, out, "[TRUNCATED 3000 chars]")
		assert.Less(t, len(out), 2100)
	})

	t.Run("multibyte text stays valid", func(t *testing.T) {
		// Byte offset 500 falls inside a 3-byte rune.
		long := strings.Repeat("€", 5000)
		out := e.truncate(long)
		assert.True(t, utf8.ValidString(out))
		assert.Contains(t, out, "[TRUNCATED 3000 chars]")
		assert.True(t, strings.HasPrefix(out, strings.Repeat("€", 500)+"\n"))
		assert.True(t, strings.HasSuffix(out, "\n"+strings.Repeat("€", 1500)))
	})

	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, "día", e.truncate("día"))
	})
}

func TestExecutor_ReportAffect(t *testing.T) {
	e := NewExecutor(NewToolset())

	var delta core.StateDelta
	msgs, reported := e.Execute(context.Background(), []core.ToolCall{
		toolCall("c1", ReportAffectTool, `{"valence_delta": -0.2}`),
	}, &delta)
	require.Len(t, msgs, 1)
	assert.True(t, reported)
	assert.Equal(t, "recorded", msgs[0].Content)
	assert.InDelta(t, -0.2, delta.Valence, 1e-9)

	delta = core.StateDelta{}
	msgs, reported = e.Execute(context.Background(), []core.ToolCall{
		toolCall("c2", ReportAffectTool, `{"valence_delta":`),
	}, &delta)
	require.Len(t, msgs, 1)
	assert.False(t, reported)
	assert.Contains(t, msgs[0].Content, "Error:")
	assert.True(t, delta.IsEmpty())
}

func TestModelAgent_MalformedAffectFallsBackToEstimate(t *testing.T) {
	m := &scriptedModel{replies: []core.Message{
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{toolCall("c1", ReportAffectTool, `{"valence_delta": oops}`)}},
		{Role: core.RoleAssistant, Content: "I'm sorry it's been hard."},
	}}
	a := NewModelAgent(core.AgentEmotionalSupport, m, NewPrompter("", 0), NewToolset(), 3)

	res, err := a.Handle(context.Background(), turnContext("I feel sad"))
	require.NoError(t, err)
	assert.True(t, res.Delta.HasValence)
	assert.InDelta(t, -0.2, res.Delta.Valence, 1e-9)
}
