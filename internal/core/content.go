package core

import "fmt"

type Category string

const (
	CategoryMindfulness Category = "mindfulness"
	CategoryAcademic    Category = "academic"
	CategoryMotivation  Category = "motivation"
	CategoryCrisis      Category = "crisis"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMindfulness, CategoryAcademic, CategoryMotivation, CategoryCrisis:
		return true
	}
	return false
}

// CategoryFor maps a routed agent to the content category that serves its need.
func CategoryFor(agent AgentLabel) Category {
	switch agent {
	case AgentCrisisManagement:
		return CategoryCrisis
	case AgentAcademicPlanning:
		return CategoryAcademic
	case AgentEmotionalSupport:
		return CategoryMindfulness
	default:
		return CategoryMotivation
	}
}

type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) within(lo, hi float64) error {
	if r.Min > r.Max {
		return fmt.Errorf("min %.2f greater than max %.2f", r.Min, r.Max)
	}
	if r.Min < lo || r.Max > hi {
		return fmt.Errorf("range [%.2f,%.2f] outside [%g,%g]", r.Min, r.Max, lo, hi)
	}
	return nil
}

// TriggerVector is the emotional region a content item is relevant for.
type TriggerVector struct {
	Valence Range `json:"valence" yaml:"valence"`
	Arousal Range `json:"arousal" yaml:"arousal"`
}

func (t TriggerVector) Validate() error {
	if err := t.Valence.within(MinValence, MaxValence); err != nil {
		return fmt.Errorf("valence: %w", err)
	}
	if err := t.Arousal.within(MinArousal, MaxArousal); err != nil {
		return fmt.Errorf("arousal: %w", err)
	}
	return nil
}

// ContentItem is immutable reference data shared by every session.
type ContentItem struct {
	ID        string        `json:"id" yaml:"id"`
	Category  Category      `json:"category" yaml:"category"`
	Title     string        `json:"title" yaml:"title"`
	Type      string        `json:"type,omitempty" yaml:"type"`
	Reference string        `json:"reference" yaml:"reference"`
	Summary   string        `json:"summary,omitempty" yaml:"summary"`
	Duration  string        `json:"duration,omitempty" yaml:"duration"`
	Trigger   TriggerVector `json:"trigger" yaml:"trigger"`
}
