package agent

import (
	"fmt"

	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
)

// Set maps every agent label to its handler.
type Set struct {
	agents map[core.AgentLabel]Agent
}

// NewSet requires a handler for every label.
func NewSet(agents ...Agent) (*Set, error) {
	s := &Set{agents: make(map[core.AgentLabel]Agent, len(agents))}
	for _, a := range agents {
		s.agents[a.Label()] = a
	}
	for _, l := range core.AgentLabels {
		if _, ok := s.agents[l]; !ok {
			return nil, fmt.Errorf("no agent registered for %s", l)
		}
	}
	return s, nil
}

func (s *Set) Get(label core.AgentLabel) (Agent, error) {
	a, ok := s.agents[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownAgent, label)
	}
	return a, nil
}

// NewDefaultSet builds the four model-backed agents with their tools.
func NewDefaultSet(ai core.AIProvider, prompter *Prompter, safety config.SafetyConfig, maxRounds int) *Set {
	crisis := NewModelAgent(core.AgentCrisisManagement, ai, prompter, NewToolset(crisisResourcesTool(safety)), maxRounds)

	s, _ := NewSet(
		NewModelAgent(core.AgentEmotionalSupport, ai, prompter, NewToolset(copingExercisesTool()), maxRounds),
		NewModelAgent(core.AgentAcademicPlanning, ai, prompter, NewToolset(studyStrategiesTool(), academicPlanTool()), maxRounds),
		NewCrisisAgent(crisis, safety),
		NewModelAgent(core.AgentGeneralChat, ai, prompter, nil, maxRounds),
	)
	return s
}
