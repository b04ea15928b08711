package main

import (
	"context"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	usageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	descStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	flagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

var rootCmd = &cobra.Command{
	Use:   "emilia",
	Short: "Emilia: multi-agent student support assistant",
	Long: `Emilia routes each message to a specialised agent (emotional support,
academic planning, crisis management or general chat), tracks mood across
the conversation and recommends content that fits.`,
	SilenceUsage: true,
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
	customizeHelp(rootCmd)
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	return setupLoggerTo(ctx, nil)
}

// setupLoggerTo is used by the stdio transport, which owns stdout.
func setupLoggerTo(ctx context.Context, out io.Writer) (context.Context, func()) {
	return log.NewContextWithOptions(ctx, log.Options{
		Debug: debug || config.IsDebug(),
		JSON:  config.IsJSONLog(),
		Out:   out,
	})
}

func customizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return titleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return usageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return flagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return descStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{StyleFlag (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
