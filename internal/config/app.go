package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/emilia/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"EMILIA_RUNTIME_PATH" envDefault:".emilia"`

	// Transport Flags
	EnableHTTP     bool `env:"ENABLE_HTTP" envDefault:"true"`
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`

	// Long-term log persistence; in-memory only when disabled.
	EnablePersistence bool `env:"ENABLE_PERSISTENCE" envDefault:"true"`

	// Optional catalog file; the embedded catalog is used when empty.
	CatalogPath string `env:"CATALOG_PATH"`
}

func LoadAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	c.RuntimePath = GetRuntimePath()
	return c, nil
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := LoadAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "emilia.db")
}

func (c AppConfig) GetPromptsPath() string {
	return filepath.Join(c.RuntimePath, "prompts")
}

func (c AppConfig) GetCatalogPath() string {
	return c.CatalogPath
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
