package router

import (
	"context"
	"strings"
	"unicode"

	"github.com/sandevgo/emilia/internal/core"
)

// Signal is the outcome of one predicate.
type Signal struct {
	Fired      bool
	Confidence float64
}

// Predicate is a total, bounded-latency test for one routing need.
type Predicate interface {
	Name() string
	Evaluate(ctx context.Context, in core.TurnContext) (Signal, error)
}

// KeywordPredicate fires when the latest user message contains any of its
// terms. Single-word terms also match as word prefixes.
type KeywordPredicate struct {
	name  string
	terms []string
	base  float64
	step  float64
}

func NewKeywordPredicate(name string, base float64, terms ...string) *KeywordPredicate {
	norm := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.Join(tokenize(t), " "); t != "" {
			norm = append(norm, t)
		}
	}
	return &KeywordPredicate{name: name, terms: norm, base: base, step: 0.1}
}

func (p *KeywordPredicate) Name() string { return p.name }

func (p *KeywordPredicate) Evaluate(_ context.Context, in core.TurnContext) (Signal, error) {
	tokens := tokenize(in.LastUserText())
	if len(tokens) == 0 {
		return Signal{}, nil
	}
	joined := " " + strings.Join(tokens, " ") + " "

	hits := 0
	for _, term := range p.terms {
		if matchTerm(term, tokens, joined) {
			hits++
		}
	}
	if hits == 0 {
		return Signal{}, nil
	}
	return Signal{Fired: true, Confidence: min(1, p.base+p.step*float64(hits-1))}, nil
}

func matchTerm(term string, tokens []string, joined string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(joined, " "+term+" ")
	}
	for _, tok := range tokens {
		if tok == term || (len(term) >= 5 && strings.HasPrefix(tok, term)) {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// StatePredicate fires on the session's affect alone.
type StatePredicate struct {
	name       string
	confidence float64
	test       func(core.EmotionalState) bool
}

func NewStatePredicate(name string, confidence float64, test func(core.EmotionalState) bool) *StatePredicate {
	return &StatePredicate{name: name, confidence: confidence, test: test}
}

func (p *StatePredicate) Name() string { return p.name }

func (p *StatePredicate) Evaluate(_ context.Context, in core.TurnContext) (Signal, error) {
	if p.test(in.State) {
		return Signal{Fired: true, Confidence: p.confidence}, nil
	}
	return Signal{}, nil
}

// PredicateFunc adapts a plain function.
type PredicateFunc struct {
	ID string
	Fn func(ctx context.Context, in core.TurnContext) (Signal, error)
}

func (p PredicateFunc) Name() string { return p.ID }

func (p PredicateFunc) Evaluate(ctx context.Context, in core.TurnContext) (Signal, error) {
	return p.Fn(ctx, in)
}
