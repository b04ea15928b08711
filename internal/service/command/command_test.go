package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/internal/service/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	snaps    map[string]orchestrator.Snapshot
	closed   []string
	closeErr error
}

func (f *fakeSessions) CloseSession(_ context.Context, id string) error {
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed = append(f.closed, id)
	delete(f.snaps, id)
	return nil
}

func (f *fakeSessions) Snapshot(id string) (orchestrator.Snapshot, bool) {
	s, ok := f.snaps[id]
	return s, ok
}

func newFake() *fakeSessions {
	return &fakeSessions{snaps: map[string]orchestrator.Snapshot{
		"42": {
			ID:         "42",
			State:      core.EmotionalState{Valence: -0.5, Arousal: 0.7, UpdatedTurn: 6},
			Turns:      6,
			Summary:    "Earlier: 2 turn(s) #1-#2.",
			Pending:    1,
			LastActive: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}}
}

func TestRouter_Execute(t *testing.T) {
	sessions := newFake()
	r := New(NewCommands(sessions))
	ctx := context.Background()

	t.Run("plain text is not a command", func(t *testing.T) {
		out, handled := r.Execute(ctx, "42", "hello")
		assert.False(t, handled)
		assert.Empty(t, out)
	})

	t.Run("unknown command", func(t *testing.T) {
		out, handled := r.Execute(ctx, "42", "/nope")
		assert.True(t, handled)
		assert.Contains(t, out, "Unknown command: /nope")
	})

	t.Run("state", func(t *testing.T) {
		out, handled := r.Execute(ctx, "42", "/state")
		require.True(t, handled)
		assert.Contains(t, out, "distressed")
		assert.Contains(t, out, "-0.50")
		assert.Contains(t, out, "Earlier: 2 turn(s)")
		assert.Contains(t, out, "Unsaved log entries")
	})

	t.Run("bot suffix is ignored", func(t *testing.T) {
		out, handled := r.Execute(ctx, "42", "/state@emilia_bot")
		require.True(t, handled)
		assert.Contains(t, out, "Valence")
	})

	t.Run("help lists every command", func(t *testing.T) {
		out, handled := r.Execute(ctx, "42", "/help")
		require.True(t, handled)
		assert.Contains(t, out, "/close")
		assert.Contains(t, out, "/help")
		assert.Contains(t, out, "/state")
	})

	t.Run("close", func(t *testing.T) {
		out, handled := r.Execute(ctx, "42", "/close")
		require.True(t, handled)
		assert.Contains(t, out, "Conversation closed")
		assert.Equal(t, []string{"42"}, sessions.closed)

		out, _ = r.Execute(ctx, "42", "/close")
		assert.Contains(t, out, "No open conversation")
		out, _ = r.Execute(ctx, "42", "/state")
		assert.Contains(t, out, "No open conversation")
	})
}

func TestCloseCommand_Error(t *testing.T) {
	sessions := newFake()
	sessions.closeErr = errors.New("disk full")
	r := New(NewCommands(sessions))

	out, handled := r.Execute(context.Background(), "42", "/close")
	assert.True(t, handled)
	assert.Equal(t, "Error: failed to close session: disk full", out)
}

func TestListCommands_Sorted(t *testing.T) {
	r := New(NewCommands(newFake()))

	var names []string
	for _, c := range r.ListCommands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"close", "help", "state"}, names)
}

func TestMoodLabel(t *testing.T) {
	tests := []struct {
		state core.EmotionalState
		want  string
	}{
		{core.NeutralState(), "neutral"},
		{core.EmotionalState{Valence: -0.5, Arousal: 0.2}, "low"},
		{core.EmotionalState{Valence: 0.5, Arousal: 0.8}, "energized"},
		{core.EmotionalState{Valence: 0.5, Arousal: 0.1}, "content"},
		{core.EmotionalState{Valence: 0, Arousal: 0.9}, "tense"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, moodLabel(tt.state))
		})
	}
}
