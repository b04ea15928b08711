package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

var personas = map[core.AgentLabel]string{
	core.AgentEmotionalSupport: `You are Emilia, a warm listener for university students.
Reflect what you hear, validate feelings, and offer at most one gentle coping idea.
Keep replies short and never diagnose.`,
	core.AgentAcademicPlanning: `You are Emilia, a practical study coach for university students.
Turn vague worries about coursework into concrete next steps and realistic schedules.
Acknowledge stress briefly, then focus on a plan.`,
	core.AgentCrisisManagement: `You are Emilia, responding to a student who may be at risk.
Stay calm and direct. Express care, ask whether they are safe right now, and share crisis contacts.
Do not debate, minimize, or leave the topic of safety.`,
	core.AgentGeneralChat: `You are Emilia, a friendly companion for university students.
Chat naturally and keep an eye out for anything the student may need help with.`,
}

const toolGuidance = `Call report_affect once per reply when the message tells you something about the user's mood.`

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.FromCtx(context.Background()).Warn().Err(err).Msg("tokenizer unavailable, estimating token counts")
			return
		}
		tk = enc
	})
	return tk
}

// countTokens falls back to a four-characters-per-token estimate when the
// encoding cannot be loaded.
func countTokens(text string) int {
	if text == "" {
		return 0
	}
	if enc := getTokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

// Prompter assembles the model input for an agent.
type Prompter struct {
	dir    string
	budget int
	count  func(string) int
}

// NewPrompter reads persona overrides from dir/<label>.md when present and
// keeps prompts within budget tokens.
func NewPrompter(dir string, budget int) *Prompter {
	return &Prompter{dir: dir, budget: budget, count: countTokens}
}

func (p *Prompter) Persona(label core.AgentLabel) string {
	if p.dir != "" {
		content, err := os.ReadFile(filepath.Join(p.dir, string(label)+".md"))
		if err == nil && strings.TrimSpace(string(content)) != "" {
			return string(content)
		}
	}
	return personas[label]
}

func (p *Prompter) Build(label core.AgentLabel, tc core.TurnContext) []core.Message {
	messages := []core.Message{
		{Role: core.RoleSystem, Content: p.Persona(label) + "\n\n" + toolGuidance},
		{Role: core.RoleSystem, Content: sessionContext(tc)},
	}
	for _, t := range tc.Window {
		role := core.RoleUser
		if t.Role == core.TurnRoleAgent {
			role = core.RoleAssistant
		}
		messages = append(messages, core.Message{Role: role, Content: t.Text})
	}
	return messages
}

func sessionContext(tc core.TurnContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current affect: %s.", tc.State)
	if tc.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(tc.Summary)
	}
	return sb.String()
}

// Fit drops the oldest non-system messages until the prompt is within budget.
// The final message is always kept.
func (p *Prompter) Fit(messages []core.Message) []core.Message {
	if p.budget <= 0 {
		return messages
	}

	total := 0
	sizes := make([]int, len(messages))
	for i, m := range messages {
		sizes[i] = p.count(m.Content)
		total += sizes[i]
	}
	if total <= p.budget {
		return messages
	}

	out := make([]core.Message, 0, len(messages))
	for i, m := range messages {
		if total > p.budget && m.Role != core.RoleSystem && i < len(messages)-1 {
			total -= sizes[i]
			continue
		}
		out = append(out, m)
	}
	return out
}
