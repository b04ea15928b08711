package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
)

const ReportAffectTool = "report_affect"

// LocalTool is a tool served in-process.
type LocalTool struct {
	Name        string
	Description string
	Schema      string
	Fn          func(ctx context.Context, args json.RawMessage) (string, error)
}

func (t LocalTool) Definition() core.Tool {
	return core.Tool{
		Type: "function",
		Function: core.Function{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  json.RawMessage(t.Schema),
		},
	}
}

// Toolset is the closed set of tools one agent may call.
type Toolset struct {
	tools map[string]LocalTool
}

func NewToolset(tools ...LocalTool) *Toolset {
	ts := &Toolset{tools: make(map[string]LocalTool, len(tools))}
	for _, t := range tools {
		ts.tools[t.Name] = t
	}
	return ts
}

// Definitions returns tool definitions sorted by name, always including
// report_affect.
func (ts *Toolset) Definitions() []core.Tool {
	names := make([]string, 0, len(ts.tools))
	for name := range ts.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]core.Tool, 0, len(names)+1)
	defs = append(defs, reportAffectDefinition())
	for _, name := range names {
		defs = append(defs, ts.tools[name].Definition())
	}
	return defs
}

func (ts *Toolset) CallTool(ctx context.Context, name, args string) (string, error) {
	t, ok := ts.tools[name]
	if !ok {
		return "", fmt.Errorf("tool %q is not available to this agent", name)
	}
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	return t.Fn(ctx, json.RawMessage(args))
}

func reportAffectDefinition() core.Tool {
	return LocalTool{
		Name: ReportAffectTool,
		Description: "Report how the user's emotional state shifted this turn. " +
			"valence_delta moves mood (negative is worse), arousal_delta moves activation. Omit an axis with no evidence.",
		Schema: `{"type":"object","properties":{` +
			`"valence_delta":{"type":"number","minimum":-1,"maximum":1},` +
			`"arousal_delta":{"type":"number","minimum":-1,"maximum":1}}}`,
	}.Definition()
}

// parseAffect turns report_affect arguments into a delta, each axis bounded
// to [-1,1].
func parseAffect(args string) (core.StateDelta, error) {
	var in struct {
		Valence *float64 `json:"valence_delta"`
		Arousal *float64 `json:"arousal_delta"`
	}
	if strings.TrimSpace(args) == "" {
		return core.StateDelta{}, nil
	}
	if err := json.Unmarshal([]byte(args), &in); err != nil {
		return core.StateDelta{}, fmt.Errorf("invalid %s arguments: %w", ReportAffectTool, err)
	}

	var d core.StateDelta
	if in.Valence != nil {
		d.Valence, d.HasValence = min(1, max(-1, *in.Valence)), true
	}
	if in.Arousal != nil {
		d.Arousal, d.HasArousal = min(1, max(-1, *in.Arousal)), true
	}
	return d, nil
}

func crisisResourcesTool(safety config.SafetyConfig) LocalTool {
	return LocalTool{
		Name:        "get_crisis_resources",
		Description: "Emergency and crisis contacts to share with a user at risk.",
		Schema:      `{"type":"object","properties":{"location":{"type":"string"}}}`,
		Fn: func(_ context.Context, _ json.RawMessage) (string, error) {
			return toJSON(map[string]string{
				"crisis_hotline":   safety.CrisisHotline,
				"crisis_text_line": safety.CrisisText,
				"emergency":        safety.EmergencyNumber,
				"instructions":     "If the user is in immediate danger, urge them to call emergency services now.",
			})
		},
	}
}

var studyStrategies = map[string][]string{
	"focus": {
		"Work in 25 minute blocks with 5 minute breaks",
		"Silence notifications and keep the phone in another room",
		"Start each session by writing the single goal for it",
	},
	"exams": {
		"Practice retrieval with past papers instead of rereading",
		"Space reviews over several days",
		"Sleep at least 7 hours the night before",
	},
	"procrastination": {
		"Shrink the first step until it takes under two minutes",
		"Schedule the task at a fixed time and place",
		"Reward yourself after each finished block",
	},
	"general": {
		"Review notes within 24 hours of class",
		"Explain the topic out loud as if teaching it",
		"Mix subjects within a study day",
	},
}

func studyStrategiesTool() LocalTool {
	return LocalTool{
		Name:        "get_study_strategies",
		Description: "Evidence-based study strategies for a topic: focus, exams, procrastination or general.",
		Schema:      `{"type":"object","properties":{"topic":{"type":"string","enum":["focus","exams","procrastination","general"]}}}`,
		Fn: func(_ context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Topic string `json:"topic"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			list, ok := studyStrategies[strings.ToLower(in.Topic)]
			if !ok {
				list = studyStrategies["general"]
			}
			return toJSON(map[string]any{"strategies": list})
		},
	}
}

func academicPlanTool() LocalTool {
	return LocalTool{
		Name:        "get_academic_plan",
		Description: "Split the days left before a deadline across subjects, keeping the last day for review.",
		Schema: `{"type":"object","required":["days","subjects"],"properties":{` +
			`"days":{"type":"integer","minimum":1,"maximum":60},` +
			`"subjects":{"type":"array","items":{"type":"string"}}}}`,
		Fn: func(_ context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Days     int      `json:"days"`
				Subjects []string `json:"subjects"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			return toJSON(map[string]any{"plan": planDays(in.Days, in.Subjects)})
		},
	}
}

type planDay struct {
	Day   int    `json:"day"`
	Focus string `json:"focus"`
}

func planDays(days int, subjects []string) []planDay {
	days = min(60, max(1, days))
	if len(subjects) == 0 {
		subjects = []string{"coursework"}
	}

	plan := make([]planDay, 0, days)
	study := days
	if days > 1 {
		study = days - 1
	}
	for d := 0; d < study; d++ {
		plan = append(plan, planDay{Day: d + 1, Focus: subjects[d%len(subjects)]})
	}
	if days > 1 {
		plan = append(plan, planDay{Day: days, Focus: "review and rest"})
	}
	return plan
}

var copingExercises = map[string][]string{
	"anxiety":    {"Box breathing, four counts in, hold, out, hold", "5-4-3-2-1 grounding", "Progressive muscle relaxation"},
	"depression": {"Schedule one small pleasant activity today", "Write down three things that went okay", "A ten minute walk outside"},
	"stress":     {"Brain dump every open task onto paper", "Two minutes of slow exhaling", "Pick the one task that matters most today"},
	"general":    {"A one minute mindful check-in", "Self-compassion break", "Name the feeling and where you notice it"},
}

func copingExercisesTool() LocalTool {
	return LocalTool{
		Name:        "get_coping_exercises",
		Description: "Short coping exercises for anxiety, depression, stress or general use.",
		Schema:      `{"type":"object","properties":{"type":{"type":"string","enum":["anxiety","depression","stress","general"]}}}`,
		Fn: func(_ context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			list, ok := copingExercises[strings.ToLower(in.Type)]
			if !ok {
				list = copingExercises["general"]
			}
			return toJSON(map[string]any{
				"exercises":    list,
				"instructions": "Start with five minutes and stop if anything feels uncomfortable.",
			})
		},
	}
}

func toJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
