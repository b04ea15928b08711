package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/emilia/internal/core"
)

const excerptLength = 48

// Summary is the bounded digest of every turn evicted from the buffer. Its
// size does not grow with the number of folded turns.
type Summary struct {
	Evicted  int
	FirstSeq int
	LastSeq  int
	Topics   map[core.AgentLabel]int

	// Valence of the first and last evicted agent turn.
	FirstValence float64
	LastValence  float64
	hasAffect    bool

	LastExcerpt string
}

func (s *Summary) Fold(t core.Turn) {
	if s.Evicted == 0 {
		s.FirstSeq = t.Seq
	}
	s.Evicted++
	s.LastSeq = t.Seq

	switch t.Role {
	case core.TurnRoleAgent:
		if s.Topics == nil {
			s.Topics = make(map[core.AgentLabel]int)
		}
		s.Topics[t.Agent]++
		if !s.hasAffect {
			s.FirstValence = t.Affect.Valence
			s.hasAffect = true
		}
		s.LastValence = t.Affect.Valence
	case core.TurnRoleUser:
		s.LastExcerpt = excerpt(t.Text, excerptLength)
	}
}

func (s Summary) IsEmpty() bool {
	return s.Evicted == 0
}

// DominantTopic is the most frequent agent among evicted turns. Ties follow
// routing priority order.
func (s Summary) DominantTopic() (core.AgentLabel, bool) {
	var (
		best  core.AgentLabel
		count int
	)
	for _, l := range core.AgentLabels {
		if n := s.Topics[l]; n > count {
			best, count = l, n
		}
	}
	return best, count > 0
}

// Trend describes how valence moved across the evicted span.
func (s Summary) Trend() string {
	if !s.hasAffect {
		return ""
	}
	switch d := s.LastValence - s.FirstValence; {
	case d > 0.1:
		return "improving"
	case d < -0.1:
		return "worsening"
	default:
		return "steady"
	}
}

// Render formats the summary and cuts it to at most limit runes.
func (s Summary) Render(limit int) string {
	if s.IsEmpty() {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Earlier: %d turn(s) #%d-#%d.", s.Evicted, s.FirstSeq, s.LastSeq)

	if topic, ok := s.DominantTopic(); ok {
		fmt.Fprintf(&sb, " Mostly %s", topic)
		if others := s.otherTopics(topic); others != "" {
			fmt.Fprintf(&sb, " (also %s)", others)
		}
		sb.WriteString(".")
	}
	if trend := s.Trend(); trend != "" {
		fmt.Fprintf(&sb, " Mood %s (%+.2f to %+.2f).", trend, s.FirstValence, s.LastValence)
	}
	if s.LastExcerpt != "" {
		fmt.Fprintf(&sb, " Last said: %q.", s.LastExcerpt)
	}

	return excerpt(sb.String(), limit)
}

func (s Summary) otherTopics(dominant core.AgentLabel) string {
	var others []string
	for l, n := range s.Topics {
		if l != dominant && n > 0 {
			others = append(others, string(l))
		}
	}
	sort.Strings(others)
	return strings.Join(others, ", ")
}

func excerpt(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
