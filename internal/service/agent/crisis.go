package agent

import (
	"context"
	"strings"

	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
)

// CrisisAgent makes sure every crisis reply carries escalation contacts and
// lands in the long-term log.
type CrisisAgent struct {
	inner  Agent
	safety config.SafetyConfig
}

func NewCrisisAgent(inner Agent, safety config.SafetyConfig) *CrisisAgent {
	return &CrisisAgent{inner: inner, safety: safety}
}

func (a *CrisisAgent) Label() core.AgentLabel {
	return core.AgentCrisisManagement
}

func (a *CrisisAgent) Handle(ctx context.Context, tc core.TurnContext) (core.AgentResult, error) {
	res, err := a.inner.Handle(ctx, tc)
	if err != nil {
		return core.AgentResult{}, err
	}
	if !strings.Contains(res.Text, a.safety.CrisisHotline) {
		res.Text = strings.TrimRight(res.Text, "\n") + "\n\n" + resourcesBlock(a.safety)
	}
	res.Significant = true
	return res, nil
}
