package main

import (
	"time"

	"github.com/sandevgo/emilia/pkg/log"
	"github.com/sandevgo/emilia/pkg/srv"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Emilia services",
	Long:  `Starts the configured transports (HTTP, Telegram) and the idle session reaper.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting emilia")

		app := NewApp(ctx)
		if err := srv.Run(ctx, app.Services(ctx), shutdownTimeout); err != nil {
			return err
		}

		logger.Info().Msg("emilia has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
