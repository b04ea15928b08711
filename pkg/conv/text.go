package conv

import (
	"strings"

	"github.com/inbucket/html2text"
)

// LooksLikeHTML is a cheap check for markup worth converting.
func LooksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	return i >= 0 && strings.IndexByte(s[i:], '>') > 0
}

// HTMLToText flattens catalog summaries authored as HTML into plain text.
// Plain input is returned trimmed and untouched.
func HTMLToText(s string) (string, error) {
	if !LooksLikeHTML(s) {
		return strings.TrimSpace(s), nil
	}
	text, err := html2text.FromString(s, html2text.Options{OmitLinks: true})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
