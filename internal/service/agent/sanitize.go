package agent

import (
	"context"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

// sanitizeToolCalls drops tool results that no longer follow the assistant
// message that requested them. Providers reject such orphans.
func sanitizeToolCalls(ctx context.Context, messages []core.Message) []core.Message {
	var out []core.Message
	pending := make(map[string]struct{})

	for _, m := range messages {
		switch m.Role {
		case core.RoleTool:
			if _, ok := pending[m.ToolCallID]; !ok {
				log.FromCtx(ctx).Debug().Str("tool_call_id", m.ToolCallID).Msg("dropping orphaned tool result")
				continue
			}
			delete(pending, m.ToolCallID)
		case core.RoleAssistant:
			clear(pending)
			for _, tc := range m.ToolCalls {
				pending[tc.ID] = struct{}{}
			}
		case core.RoleUser:
			clear(pending)
		}
		out = append(out, m)
	}
	return out
}
