package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/emilia/internal/core"
)

// SubmitTurnTool handles the submit_turn MCP tool.
type SubmitTurnTool struct {
	convs core.Conversations
}

func (t *SubmitTurnTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_turn",
		mcp.WithDescription(
			"Send one user message to Emilia and get the reply with any content recommendations. "+
				"Messages with the same session_id share mood tracking and memory.",
		),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Conversation id chosen by the caller"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The user's message"),
		),
	)
}

func (t *SubmitTurnTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	text := req.GetString("text", "")
	if sessionID == "" || text == "" {
		return mcp.NewToolResultError("'session_id' and 'text' are required"), nil
	}

	reply, err := t.convs.SubmitTurn(ctx, sessionID, text)
	if err != nil {
		if errors.Is(err, core.ErrTurnInProgress) {
			return mcp.NewToolResultError("a turn for this session is still running, retry later"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("turn failed: %v", err)), nil
	}
	return jsonResult(reply)
}

// CloseSessionTool handles the close_session MCP tool.
type CloseSessionTool struct {
	convs core.Conversations
}

func (t *CloseSessionTool) Definition() mcp.Tool {
	return mcp.NewTool("close_session",
		mcp.WithDescription("End a conversation. Its long-term log is saved and its short-term memory dropped."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Conversation id to close"),
		),
	)
}

func (t *CloseSessionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if err := t.convs.CloseSession(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("close failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s closed.", sessionID)), nil
}

// LongTermLogTool handles the long_term_log MCP tool.
type LongTermLogTool struct {
	convs core.Conversations
}

func (t *LongTermLogTool) Definition() mcp.Tool {
	return mcp.NewTool("long_term_log",
		mcp.WithDescription("List the significant turns recorded for a conversation: crises and issued recommendations."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Conversation id"),
		),
	)
}

func (t *LongTermLogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	entries, err := t.convs.LongTermLog(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read log: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No significant turns recorded for this session."), nil
	}
	return jsonResult(entries)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
