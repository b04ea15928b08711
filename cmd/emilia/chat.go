package main

import (
	"context"
	"errors"

	"github.com/sandevgo/emilia/internal/transport/cli"
	"github.com/spf13/cobra"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to Emilia in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		app := NewApp(ctx)
		rl, err := cli.NewReadLine(app.Orchestrator, app.Commands, app.Config, chatSession)
		if err != nil {
			return err
		}

		runErr := rl.Start(ctx)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return errors.Join(runErr, rl.Shutdown(shutdownCtx), app.Orchestrator.CloseAll(shutdownCtx), app.Close())
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to continue (default cli-local)")
	rootCmd.AddCommand(chatCmd)
}
