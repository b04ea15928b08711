package main

import (
	"context"
	"errors"
	"os"

	"github.com/sandevgo/emilia/internal/transport/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve Emilia as an MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol.
		ctx, flushLog := setupLoggerTo(cmd.Context(), os.Stderr)
		defer flushLog()

		app := NewApp(ctx)
		runErr := mcpserver.NewStdio(app.Orchestrator).Start(ctx)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return errors.Join(runErr, app.Orchestrator.CloseAll(shutdownCtx), app.Close())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
