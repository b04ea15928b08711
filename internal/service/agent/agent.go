package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

var errEmptyReply = errors.New("model returned no text")

// Agent handles turns routed to its label.
type Agent interface {
	Label() core.AgentLabel
	Handle(ctx context.Context, tc core.TurnContext) (core.AgentResult, error)
}

// ModelAgent answers through the model capability with a persona prompt and a
// closed tool set.
type ModelAgent struct {
	label     core.AgentLabel
	ai        core.AIProvider
	prompter  *Prompter
	tools     *Toolset
	executor  *Executor
	maxRounds int
}

func NewModelAgent(label core.AgentLabel, ai core.AIProvider, prompter *Prompter, tools *Toolset, maxRounds int) *ModelAgent {
	if tools == nil {
		tools = NewToolset()
	}
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &ModelAgent{
		label:     label,
		ai:        ai,
		prompter:  prompter,
		tools:     tools,
		executor:  NewExecutor(tools),
		maxRounds: maxRounds,
	}
}

func (a *ModelAgent) Label() core.AgentLabel {
	return a.label
}

func (a *ModelAgent) Handle(ctx context.Context, tc core.TurnContext) (core.AgentResult, error) {
	logger := log.FromCtx(ctx).With().Str("agent", string(a.label)).Logger()

	messages := a.prompter.Build(a.label, tc)
	tools := a.tools.Definitions()

	var (
		final    string
		delta    core.StateDelta
		reported bool
	)

	for round := 0; round <= a.maxRounds; round++ {
		// The last round goes without tools so the model has to answer.
		if round == a.maxRounds {
			tools = nil
		}

		messages = sanitizeToolCalls(ctx, a.prompter.Fit(messages))
		resp, err := a.ai.Chat(ctx, messages, tools)
		if err != nil {
			return core.AgentResult{}, fmt.Errorf("%s: %w", a.label, err)
		}
		messages = append(messages, resp)

		if resp.Content != "" {
			final = resp.Content
		}
		if len(resp.ToolCalls) == 0 {
			break
		}

		results, ok := a.executor.Execute(ctx, resp.ToolCalls, &delta)
		reported = reported || ok
		messages = append(messages, results...)
	}

	if final == "" {
		return core.AgentResult{}, fmt.Errorf("%s: %w", a.label, core.NewModelError(core.ModelUnavailable, errEmptyReply))
	}

	if !reported {
		delta = estimateAffect(tc.LastUserText())
	}

	logger.Debug().
		Bool("reported_affect", reported).
		Bool("has_delta", !delta.IsEmpty()).
		Msg("agent replied")

	return core.AgentResult{Text: final, Delta: delta}, nil
}
