package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

const defaultSessionID = "cli-local"

type ReadLine struct {
	cfg       *config.AppConfig
	convs     core.Conversations
	cmds      core.CmdRouter
	sessionID string
	rl        *readline.Instance
}

func NewReadLine(convs core.Conversations, cmds core.CmdRouter, cfg *config.AppConfig, sessionID string) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you › ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:       cfg,
		convs:     convs,
		cmds:      cmds,
		sessionID: sessionID,
		rl:        rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("session", r.sessionID).Msg("chat started. Type 'exit' to quit, /help for commands.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		fmt.Fprint(r.rl.Stdout(), r.handle(ctx, line))
	}
}

func (r *ReadLine) handle(ctx context.Context, line string) string {
	if out, ok := r.cmds.Execute(ctx, r.sessionID, line); ok {
		return out + "\n"
	}

	reply, err := r.convs.SubmitTurn(ctx, r.sessionID, line)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("turn failed")
		return warnStyle.Render(fmt.Sprintf("Error: %v", err)) + "\n"
	}
	return render(reply)
}

// Shutdown flushes the conversation before closing the terminal.
func (r *ReadLine) Shutdown(ctx context.Context) error {
	err := r.convs.CloseSession(ctx, r.sessionID)
	if r.rl != nil {
		err = errors.Join(err, r.rl.Close())
	}
	return err
}
