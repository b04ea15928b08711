package command

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/internal/service/orchestrator"
)

// Sessions is the part of the orchestrator the chat commands need.
type Sessions interface {
	CloseSession(ctx context.Context, sessionID string) error
	Snapshot(sessionID string) (orchestrator.Snapshot, bool)
}

type CloseCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewCloseCommand(sessions Sessions) *CloseCommand {
	return &CloseCommand{
		sessions:  sessions,
		formatter: NewResponseFormatter(),
	}
}

func (c *CloseCommand) Name() string {
	return "close"
}

func (c *CloseCommand) Description() string {
	return "End the conversation and start fresh"
}

func (c *CloseCommand) Execute(ctx context.Context, sessionID string, _ []string) (string, error) {
	if _, ok := c.sessions.Snapshot(sessionID); !ok {
		return c.formatter.Combine(
			c.formatter.Info("Session"),
			c.formatter.Label("Status", "No open conversation"),
		), nil
	}
	if err := c.sessions.CloseSession(ctx, sessionID); err != nil {
		return "", fmt.Errorf("failed to close session: %w", err)
	}
	return c.formatter.Success("Conversation closed. Your next message starts a new one."), nil
}

type StateCommand struct {
	sessions  Sessions
	formatter *ResponseFormatter
}

func NewStateCommand(sessions Sessions) *StateCommand {
	return &StateCommand{
		sessions:  sessions,
		formatter: NewResponseFormatter(),
	}
}

func (c *StateCommand) Name() string {
	return "state"
}

func (c *StateCommand) Description() string {
	return "Show the tracked mood and memory of this conversation"
}

func (c *StateCommand) Execute(_ context.Context, sessionID string, _ []string) (string, error) {
	snap, ok := c.sessions.Snapshot(sessionID)
	if !ok {
		return c.formatter.Combine(
			c.formatter.Info("Session"),
			c.formatter.Label("Status", "No open conversation"),
			c.formatter.Tip("Send any message to start one"),
		), nil
	}

	sections := []string{
		c.formatter.Info("Session"),
		c.formatter.Label("Mood", moodLabel(snap.State)),
		c.formatter.Label("Valence", fmt.Sprintf("%+.2f", snap.State.Valence)),
		c.formatter.Label("Arousal", fmt.Sprintf("%.2f", snap.State.Arousal)),
		c.formatter.Label("Turns", fmt.Sprintf("%d", snap.Turns)),
		c.formatter.Label("Last active", snap.LastActive.Format(time.RFC3339)),
	}
	if snap.Pending > 0 {
		sections = append(sections, c.formatter.Label("Unsaved log entries", fmt.Sprintf("%d", snap.Pending)))
	}
	if snap.Summary != "" {
		sections = append(sections, c.formatter.Section("🗂", "Summary", snap.Summary))
	}
	return c.formatter.Combine(sections...), nil
}

func moodLabel(s core.EmotionalState) string {
	switch {
	case s.Valence <= -0.3 && s.Arousal >= 0.5:
		return "distressed"
	case s.Valence <= -0.3:
		return "low"
	case s.Valence >= 0.3 && s.Arousal >= 0.5:
		return "energized"
	case s.Valence >= 0.3:
		return "content"
	case s.Arousal >= 0.5:
		return "tense"
	default:
		return "neutral"
	}
}
