package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/internal/providers/llm"
	"github.com/sandevgo/emilia/internal/service/agent"
	"github.com/sandevgo/emilia/internal/service/catalog"
	"github.com/sandevgo/emilia/internal/service/command"
	"github.com/sandevgo/emilia/internal/service/orchestrator"
	"github.com/sandevgo/emilia/internal/service/recommend"
	"github.com/sandevgo/emilia/internal/service/router"
	"github.com/sandevgo/emilia/internal/storage/sqlite"
	"github.com/sandevgo/emilia/internal/transport/rest"
	"github.com/sandevgo/emilia/internal/transport/telegram"
	"github.com/sandevgo/emilia/pkg/log"
	"github.com/sandevgo/emilia/pkg/srv"
)

// App is the wired orchestrator plus what has to be released on exit.
type App struct {
	Config       *config.AppConfig
	Orchestrator *orchestrator.Orchestrator
	Commands     *command.Router
	Reaper       *orchestrator.Reaper
	db           *sql.DB
}

func NewApp(ctx context.Context) *App {
	logger := log.FromCtx(ctx)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	orchCfg := config.NewOrchestratorConfig(ctx)
	modelCfg := config.NewModelConfig(ctx)
	safety := config.NewSafetyConfig(ctx)

	// 2. Storage
	db, repo, err := initStorage(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// 3. Catalog
	cat, err := catalog.Load(appCfg.GetCatalogPath())
	if err != nil {
		logger.Fatal().Err(err).Str("path", appCfg.GetCatalogPath()).Msg("failed to load content catalog")
	}
	logger.Info().Int("items", cat.Len()).Msg("content catalog loaded")

	// 4. AI Provider
	ai, err := llm.NewResilientProvider(ctx, modelCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 5. Router, agents and recommender
	var scorer *router.ModelScorer
	if orchCfg.ModelClassifier {
		scorer = router.NewModelScorer(ai)
	}
	rt := router.NewDefault(router.Config{
		CrisisValence:   orchCfg.CrisisValence,
		CrisisArousal:   orchCfg.CrisisArousal,
		DistressValence: orchCfg.DistressValence,
		DistressArousal: orchCfg.DistressArousal,
	}, scorer)

	prompter := agent.NewPrompter(appCfg.GetPromptsPath(), orchCfg.PromptTokenLimit)
	agents := agent.NewDefaultSet(ai, prompter, *safety, orchCfg.MaxToolRounds)

	rec := recommend.New(cat, recommend.Config{
		Limit:        orchCfg.RecommendationLimit,
		MinScore:     orchCfg.RecommendationMinScore,
		ContextBonus: orchCfg.ContextBonus,
	})

	// 6. Orchestrator
	orch := orchestrator.New(*orchCfg, *safety, orchestrator.Deps{
		Router:      rt,
		Agents:      agents,
		Recommender: rec,
		Repo:        repo,
	})
	if scorer != nil {
		orch.OnClose(scorer.Forget)
	}

	return &App{
		Config:       appCfg,
		Orchestrator: orch,
		Commands:     command.New(command.NewCommands(orch)),
		Reaper:       orchestrator.NewReaper(orch, orchCfg.IdleTimeout, orchCfg.ReapInterval),
		db:           db,
	}
}

// Close releases the database. Sessions must be closed first.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Services lists the long-running services in start order. Shutdown runs in
// reverse, so transports stop before the reaper flushes sessions and the
// database closes last.
func (a *App) Services(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := []srv.Service{srv.NewCleanup(a.Close), a.Reaper}

	transports, err := initTransports(ctx, a)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	return append(services, transports...)
}

func initStorage(ctx context.Context, cfg *config.AppConfig) (*sql.DB, core.LongTermRepository, error) {
	if !cfg.EnablePersistence {
		log.FromCtx(ctx).Warn().Msg("persistence disabled, long-term log kept in memory")
		return nil, sqlite.NewMemoryLongTermRepo(), nil
	}

	if err := os.MkdirAll(cfg.GetRuntimePath(), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}
	db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
	if err != nil {
		return nil, nil, err
	}
	return db, sqlite.NewLongTermRepo(db), nil
}

func initTransports(ctx context.Context, a *App) ([]srv.Service, error) {
	var services []srv.Service

	if a.Config.EnableHTTP {
		services = append(services, rest.NewServer(config.NewHTTPConfig(ctx), a.Orchestrator))
	}

	// Telegram Bot
	if a.Config.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, a.Orchestrator, a.Commands)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no transport enabled, set ENABLE_HTTP or ENABLE_TELEGRAM")
	}
	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
