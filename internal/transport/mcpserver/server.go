package mcpserver

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

const Version = "0.1.0"

// New builds the MCP server exposing the conversation tools.
func New(convs core.Conversations) *server.MCPServer {
	s := server.NewMCPServer(
		"emilia",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Emilia is a supportive assistant for students. "+
			"Call submit_turn with a stable session_id for each conversation and close_session when it ends."),
	)

	submit := &SubmitTurnTool{convs: convs}
	s.AddTool(submit.Definition(), submit.Handle)

	closer := &CloseSessionTool{convs: convs}
	s.AddTool(closer.Definition(), closer.Handle)

	ltl := &LongTermLogTool{convs: convs}
	s.AddTool(ltl.Definition(), ltl.Handle)

	return s
}

// Stdio serves MCP over stdin/stdout as a srv.Service.
type Stdio struct {
	server *server.MCPServer
	in     io.Reader
	out    io.Writer
}

func NewStdio(convs core.Conversations) *Stdio {
	return &Stdio{server: New(convs), in: os.Stdin, out: os.Stdout}
}

func (s *Stdio) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("serving mcp on stdio")
	err := server.NewStdioServer(s.server).Listen(ctx, s.in, s.out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Stdio) Shutdown(ctx context.Context) error {
	return nil
}
