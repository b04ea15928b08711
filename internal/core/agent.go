package core

import "fmt"

// AgentLabel is the closed set of agents a turn can be dispatched to.
type AgentLabel string

const (
	AgentEmotionalSupport AgentLabel = "emotional_support"
	AgentAcademicPlanning AgentLabel = "academic_planning"
	AgentCrisisManagement AgentLabel = "crisis_management"
	AgentGeneralChat      AgentLabel = "general_chat"
)

// AgentLabels lists every label in routing priority order.
var AgentLabels = []AgentLabel{
	AgentCrisisManagement,
	AgentAcademicPlanning,
	AgentEmotionalSupport,
	AgentGeneralChat,
}

func (l AgentLabel) Valid() bool {
	switch l {
	case AgentEmotionalSupport, AgentAcademicPlanning, AgentCrisisManagement, AgentGeneralChat:
		return true
	}
	return false
}

func ParseAgentLabel(s string) (AgentLabel, error) {
	l := AgentLabel(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown agent label: %q", s)
	}
	return l, nil
}

// RouteDecision is produced fresh for every turn.
type RouteDecision struct {
	Agent          AgentLabel `json:"agent"`
	Confidence     float64    `json:"confidence"`
	CrisisOverride bool       `json:"crisis_override"`
}

// TurnContext is what the router and agents see of a session.
type TurnContext struct {
	SessionID string
	Seq       int
	Window    []Turn
	State     EmotionalState
	Summary   string
}

// LastUserText returns the text of the most recent user turn in the window.
func (c TurnContext) LastUserText() string {
	for i := len(c.Window) - 1; i >= 0; i-- {
		if c.Window[i].Role == TurnRoleUser {
			return c.Window[i].Text
		}
	}
	return ""
}

// AgentResult is what a handler hands back to the executor.
type AgentResult struct {
	Text        string
	Delta       StateDelta
	Significant bool
}
