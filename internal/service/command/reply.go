package command

import (
	"fmt"
	"strings"

	"github.com/sandevgo/emilia/internal/core"
)

// FormatReply renders a reply and its recommendations as Markdown for the
// chat transports.
func FormatReply(r core.Reply) string {
	f := NewResponseFormatter()
	text := strings.TrimSpace(r.Text)
	if len(r.Recommendations) == 0 {
		return text
	}

	items := make([]string, 0, len(r.Recommendations))
	for _, item := range r.Recommendations {
		items = append(items, formatItem(item))
	}
	title := "Might help"
	if r.Crisis {
		title = "Support available now"
	}
	return f.Combine(text, f.Section("📎", title, f.List(items)))
}

func formatItem(item core.ContentItem) string {
	var sb strings.Builder
	if item.Reference != "" {
		sb.WriteString(fmt.Sprintf("[%s](%s)", item.Title, item.Reference))
	} else {
		sb.WriteString(fmt.Sprintf("**%s**", item.Title))
	}
	if item.Duration != "" {
		sb.WriteString(fmt.Sprintf(" · %s", item.Duration))
	}
	if item.Summary != "" {
		sb.WriteString(fmt.Sprintf("\n  %s", item.Summary))
	}
	return sb.String()
}
