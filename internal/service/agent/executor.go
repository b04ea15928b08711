package agent

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

type ToolCaller interface {
	CallTool(ctx context.Context, name, args string) (string, error)
}

// Executor runs the tool calls of one model response. report_affect is
// answered here and folded into the turn's delta.
type Executor struct {
	tools ToolCaller
}

func NewExecutor(tools ToolCaller) *Executor {
	return &Executor{
		tools: tools,
	}
}

// Execute returns one tool message per call. reported is true when at least
// one report_affect call was well formed.
func (e *Executor) Execute(ctx context.Context, toolCalls []core.ToolCall, delta *core.StateDelta) (results []core.Message, reported bool) {
	logger := log.FromCtx(ctx)

	for _, tc := range toolCalls {
		var (
			res string
			err error
		)
		if tc.Function.Name == ReportAffectTool {
			var d core.StateDelta
			d, err = parseAffect(tc.Function.Arguments)
			if err == nil {
				*delta = delta.Merge(d)
				res = "recorded"
				reported = true
			} else {
				logger.Debug().Err(err).Msg("malformed report_affect arguments")
			}
		} else {
			logger.Debug().Str("tool", tc.Function.Name).Msg("executing tool")
			res, err = e.tools.CallTool(ctx, tc.Function.Name, tc.Function.Arguments)
		}
		if err != nil {
			res = fmt.Sprintf("Error: %v", err)
		}

		results = append(results, core.Message{
			Role:       core.RoleTool,
			Content:    e.truncate(res),
			ToolCallID: tc.ID,
		})
	}
	return results, reported
}

// truncate keeps the head and tail of long tool output, cutting on rune
// boundaries.
func (e *Executor) truncate(input string) string {
	const maxLen = 2000
	if utf8.RuneCountInString(input) <= maxLen {
		return input
	}

	runes := []rune(input)
	head := string(runes[:500])
	tail := string(runes[len(runes)-(maxLen-500):])
	return fmt.Sprintf("%s\n\n... [TRUNCATED %d chars] ...\n\n%s", head, len(runes)-maxLen, tail)
}
