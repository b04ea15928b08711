package conv

import (
	"testing"
)

func TestMarkdownToTelegramHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain reply",
			input:    "I hear you.",
			expected: "I hear you.\n",
		},
		{
			name:     "bold hotline",
			input:    "Call **988** now",
			expected: "Call <strong>988</strong> now\n",
		},
		{
			name:     "recommendation link",
			input:    "[Box breathing](https://example.com/box)",
			expected: "<a href=\"https://example.com/box\">Box breathing</a>\n",
		},
		{
			name:     "header tags stripped",
			input:    "# Resources",
			expected: "Resources\n",
		},
		{
			name:     "script tags sanitized",
			input:    "<script>alert('xss')</script>",
			expected: "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToTelegramHTML([]byte(tt.input))
			if got != tt.expected {
				t.Errorf("MarkdownToTelegramHTML(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text untouched", input: "  Breathe slowly.  ", expected: "Breathe slowly."},
		{name: "paragraph flattened", input: "<p>Breathe slowly.</p>", expected: "Breathe slowly."},
		{name: "comparison is not markup", input: "a < b", expected: "a < b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToText(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("HTMLToText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
