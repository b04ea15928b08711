package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionID(t *testing.T) {
	assert.Equal(t, "telegram-42", SessionID(42))
	assert.Equal(t, "telegram--1001", SessionID(-1001))
}

func TestAllowed(t *testing.T) {
	assert.True(t, allowed(nil, 7))
	assert.True(t, allowed([]int64{1, 7}, 7))
	assert.False(t, allowed([]int64{1, 2}, 7))
}

func TestSplitHTML(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, splitHTML("hello", 10))
	})

	t.Run("splits at newline", func(t *testing.T) {
		text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
		assert.Equal(t, []string{"aaaaaa", "bbbbbb"}, splitHTML(text, 10))
	})

	t.Run("hard split without newline", func(t *testing.T) {
		chunks := splitHTML(strings.Repeat("x", 25), 10)
		assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
	})
}
