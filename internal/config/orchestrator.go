package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/emilia/pkg/log"
)

// OrchestratorConfig holds every tunable of the turn pipeline.
type OrchestratorConfig struct {
	// Short-term buffer capacity N, fixed per session at creation.
	MemoryCapacity int `env:"MEMORY_CAPACITY" envDefault:"10"`
	// Turns handed to the router and agents.
	WindowSize int `env:"WINDOW_SIZE" envDefault:"6"`
	// Upper bound on the rendered rolling summary, in runes.
	SummaryMaxLength int `env:"SUMMARY_MAX_LENGTH" envDefault:"280"`

	// Per-turn multiplier applied to the deviation from neutral.
	DecayFactor float64 `env:"DECAY_FACTOR" envDefault:"0.7"`

	// Recommendation count K and minimum score.
	RecommendationLimit    int     `env:"RECOMMENDATION_LIMIT" envDefault:"3"`
	RecommendationMinScore float64 `env:"RECOMMENDATION_MIN_SCORE" envDefault:"0.55"`
	ContextBonus           float64 `env:"RECOMMENDATION_CONTEXT_BONUS" envDefault:"0.25"`

	// State thresholds used by the routing predicates.
	CrisisValence    float64 `env:"CRISIS_VALENCE" envDefault:"-0.8"`
	CrisisArousal    float64 `env:"CRISIS_AROUSAL" envDefault:"0.75"`
	DistressValence  float64 `env:"DISTRESS_VALENCE" envDefault:"-0.3"`
	DistressArousal  float64 `env:"DISTRESS_AROUSAL" envDefault:"0.6"`
	ModelClassifier  bool    `env:"MODEL_CLASSIFIER" envDefault:"false"`
	MaxToolRounds    int     `env:"MAX_TOOL_ROUNDS" envDefault:"3"`
	PromptTokenLimit int     `env:"PROMPT_TOKEN_LIMIT" envDefault:"3000"`

	// Session lifecycle.
	QueueTurns   bool          `env:"TURN_QUEUE" envDefault:"false"`
	IdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	ReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"1m"`
}

// DefaultOrchestratorConfig returns the envDefault values without reading the environment.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MemoryCapacity:         10,
		WindowSize:             6,
		SummaryMaxLength:       280,
		DecayFactor:            0.7,
		RecommendationLimit:    3,
		RecommendationMinScore: 0.55,
		ContextBonus:           0.25,
		CrisisValence:          -0.8,
		CrisisArousal:          0.75,
		DistressValence:        -0.3,
		DistressArousal:        0.6,
		MaxToolRounds:          3,
		PromptTokenLimit:       3000,
		IdleTimeout:            30 * time.Minute,
		ReapInterval:           time.Minute,
	}
}

func (c OrchestratorConfig) Validate() error {
	if c.MemoryCapacity < 1 {
		return fmt.Errorf("MEMORY_CAPACITY must be positive, got %d", c.MemoryCapacity)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("WINDOW_SIZE must be positive, got %d", c.WindowSize)
	}
	if c.DecayFactor <= 0 || c.DecayFactor >= 1 {
		return fmt.Errorf("DECAY_FACTOR must be in (0,1), got %g", c.DecayFactor)
	}
	if c.RecommendationLimit < 0 {
		return fmt.Errorf("RECOMMENDATION_LIMIT must not be negative, got %d", c.RecommendationLimit)
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("MAX_TOOL_ROUNDS must be positive, got %d", c.MaxToolRounds)
	}
	return nil
}

func LoadOrchestratorConfig() (*OrchestratorConfig, error) {
	c := &OrchestratorConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func NewOrchestratorConfig(ctx context.Context) *OrchestratorConfig {
	c, err := LoadOrchestratorConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Orchestrator config")
	}
	return c
}
