package agent

import (
	"strings"
	"unicode"

	"github.com/sandevgo/emilia/internal/core"
)

type affectWeight struct {
	valence float64
	arousal float64
}

// affectLexicon backs the estimate used when the model does not report
// affect itself.
var affectLexicon = map[string]affectWeight{
	"happy": {0.2, 0.05}, "glad": {0.15, 0}, "better": {0.15, -0.05}, "great": {0.2, 0.05},
	"calm": {0.1, -0.15}, "relieved": {0.2, -0.15}, "thanks": {0.1, -0.05}, "excited": {0.2, 0.15},
	"sad": {-0.2, 0}, "lonely": {-0.2, 0}, "tired": {-0.1, -0.1}, "hopeless": {-0.3, 0},
	"depressed": {-0.3, -0.05}, "anxious": {-0.15, 0.2}, "stressed": {-0.15, 0.2},
	"panic": {-0.2, 0.3}, "scared": {-0.2, 0.2}, "angry": {-0.2, 0.25}, "overwhelmed": {-0.2, 0.2},
	"worthless": {-0.3, 0}, "die": {-0.4, 0.3}, "suicide": {-0.5, 0.3},
	"feliz": {0.2, 0.05}, "mejor": {0.15, -0.05}, "tranquilo": {0.1, -0.15}, "tranquila": {0.1, -0.15},
	"triste": {-0.2, 0}, "ansiedad": {-0.15, 0.2}, "agobiado": {-0.2, 0.2}, "agobiada": {-0.2, 0.2},
	"miedo": {-0.2, 0.2}, "morir": {-0.4, 0.3},
}

// estimateAffect scores a user message against the lexicon. An empty delta
// means no evidence.
func estimateAffect(text string) core.StateDelta {
	var (
		d    core.StateDelta
		hits int
	)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) }) {
		w, ok := affectLexicon[tok]
		if !ok {
			continue
		}
		hits++
		d.Valence += w.valence
		d.Arousal += w.arousal
	}
	if hits == 0 {
		return core.StateDelta{}
	}
	d.Valence = min(0.6, max(-0.6, d.Valence))
	d.Arousal = min(0.6, max(-0.6, d.Arousal))
	d.HasValence, d.HasArousal = true, true
	return d
}
