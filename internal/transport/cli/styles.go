package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sandevgo/emilia/internal/core"
)

var (
	// ANSI colors read well on both light and dark terminals.
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	crisisStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	recStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	descStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// render formats a reply for the terminal.
func render(r core.Reply) string {
	var sb strings.Builder

	label := agentStyle.Render(string(r.Agent))
	if r.Crisis {
		label = crisisStyle.Render(string(r.Agent))
	}
	sb.WriteString(label)
	if r.Degraded {
		sb.WriteString(" " + warnStyle.Render("(fallback)"))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(r.Text))
	sb.WriteString("\n")

	for _, item := range r.Recommendations {
		line := fmt.Sprintf("  › %s", item.Title)
		if item.Duration != "" {
			line += " · " + item.Duration
		}
		sb.WriteString(recStyle.Render(line))
		if item.Reference != "" {
			sb.WriteString(" " + descStyle.Render(item.Reference))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
