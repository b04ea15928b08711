package core

import (
	"context"
	"time"
)

type SignificanceReason string

const (
	ReasonCrisis         SignificanceReason = "crisis"
	ReasonRecommendation SignificanceReason = "recommendation"
	ReasonAgent          SignificanceReason = "agent"
)

// LongTermEntry is one durable record of a significant turn.
type LongTermEntry struct {
	ID         string             `json:"id"`
	SessionID  string             `json:"session_id"`
	Seq        int                `json:"seq"`
	Role       TurnRole           `json:"role"`
	Agent      AgentLabel         `json:"agent,omitempty"`
	Text       string             `json:"text"`
	Reason     SignificanceReason `json:"reason"`
	Valence    float64            `json:"valence"`
	Arousal    float64            `json:"arousal"`
	ContentIDs []string           `json:"content_ids,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// LongTermRepository persists long-term entries. Appends within a session
// arrive in order; nothing is ever updated or deleted.
type LongTermRepository interface {
	Append(ctx context.Context, entries []LongTermEntry) error
	List(ctx context.Context, sessionID string) ([]LongTermEntry, error)
}
