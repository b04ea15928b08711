package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/emilia/pkg/log"
)

// SafetyConfig carries the escalation contacts surfaced on every crisis path.
type SafetyConfig struct {
	CrisisHotline   string `env:"CRISIS_HOTLINE" envDefault:"988"`
	CrisisText      string `env:"CRISIS_TEXT_LINE" envDefault:"Text HOME to 741741"`
	EmergencyNumber string `env:"EMERGENCY_NUMBER" envDefault:"911"`
}

func DefaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		CrisisHotline:   "988",
		CrisisText:      "Text HOME to 741741",
		EmergencyNumber: "911",
	}
}

func NewSafetyConfig(ctx context.Context) *SafetyConfig {
	c := &SafetyConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Safety config")
	}
	return c
}
