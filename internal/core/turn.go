package core

import "time"

type TurnRole string

const (
	TurnRoleUser  TurnRole = "user"
	TurnRoleAgent TurnRole = "agent"
)

// Turn is created once per message and never mutated. Route and Affect are
// only set on agent turns.
type Turn struct {
	Seq       int            `json:"seq"`
	Role      TurnRole       `json:"role"`
	Text      string         `json:"text"`
	Timestamp time.Time      `json:"timestamp"`
	Agent     AgentLabel     `json:"agent,omitempty"`
	Route     RouteDecision  `json:"route"`
	Affect    EmotionalState `json:"affect"`
}

func NewUserTurn(seq int, text string, at time.Time) Turn {
	return Turn{Seq: seq, Role: TurnRoleUser, Text: text, Timestamp: at}
}

func NewAgentTurn(seq int, text string, at time.Time, route RouteDecision, affect EmotionalState) Turn {
	return Turn{
		Seq:       seq,
		Role:      TurnRoleAgent,
		Text:      text,
		Timestamp: at,
		Agent:     route.Agent,
		Route:     route,
		Affect:    affect,
	}
}
