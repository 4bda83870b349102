package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/dayflow/internal/dispatch"
	"github.com/nhle/dayflow/internal/intent"
	"github.com/nhle/dayflow/internal/model"
	"github.com/nhle/dayflow/internal/orchestrator"
	"github.com/nhle/dayflow/internal/repo"
	"github.com/nhle/dayflow/internal/routine"
	"github.com/nhle/dayflow/internal/server"
	"github.com/nhle/dayflow/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("loading config")
	}

	log := newLogger(cfg.Log.Level)

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("opening store")
	}
	defer s.Close()

	if cfg.AI.APIKey == "" {
		log.Warn().Msg("no API key configured; intent extraction will fail")
	}

	repository := repo.New(s)
	engine := routine.NewEngine(repository, log)
	dispatcher := dispatch.New(repository, engine, log)
	extractor := intent.NewClaudeExtractor(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.MaxTokens)
	orch := orchestrator.New(repository, dispatcher, extractor, log)

	srv := server.New(orch, dispatcher, repository, log)
	log.Info().Int("port", cfg.Server.Port).Msg("starting server")
	if err := srv.Run(cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// newLogger builds the application logger: human-readable console
// output for local development, JSON otherwise.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("DAYFLOW_ENV") == "local" {
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = os.Stdout
		logger = logger.Output(consoleWriter)
	}
	return logger
}
