package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/emilia/pkg/log"
)

type ModelConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"openrouter"`
	Model    string `env:"LLM_MODEL" envDefault:"google/gemini-2.0-flash-001"`

	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY"`
	OllamaAPIKey        string `env:"OLLAMA_API_KEY"`
	OllamaBaseURL       string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	CustomOpenAIBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomOpenAIAPIKey  string `env:"CUSTOM_OPENAI_API_KEY"`

	// Per-attempt timeout and bounded retry policy.
	AttemptTimeout time.Duration `env:"MODEL_ATTEMPT_TIMEOUT" envDefault:"30s"`
	MaxRetries     int           `env:"MODEL_MAX_RETRIES" envDefault:"2"`
	InitialBackoff time.Duration `env:"MODEL_INITIAL_BACKOFF" envDefault:"500ms"`
	MaxBackoff     time.Duration `env:"MODEL_MAX_BACKOFF" envDefault:"5s"`
	BackoffFactor  float64       `env:"MODEL_BACKOFF_FACTOR" envDefault:"2"`
	BackoffJitter  time.Duration `env:"MODEL_BACKOFF_JITTER" envDefault:"100ms"`

	// Process-wide request rate; zero disables the limiter.
	RateLimit float64 `env:"MODEL_RATE_LIMIT" envDefault:"5"`
	RateBurst int     `env:"MODEL_RATE_BURST" envDefault:"10"`

	BreakerFailures uint32        `env:"MODEL_BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown time.Duration `env:"MODEL_BREAKER_COOLDOWN" envDefault:"30s"`
}

func (c ModelConfig) GetModel() string {
	return c.Model
}

func (c ModelConfig) GetProvider() string {
	return c.Provider
}

func LoadModelConfig() (*ModelConfig, error) {
	c := &ModelConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	return c, nil
}

func NewModelConfig(ctx context.Context) *ModelConfig {
	c, err := LoadModelConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Model config")
	}
	return c
}
