package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/susu3304/loanbot/internal/config"
	"github.com/susu3304/loanbot/internal/db"
	"github.com/susu3304/loanbot/internal/dialogue"
	"github.com/susu3304/loanbot/internal/fallback"
	"github.com/susu3304/loanbot/internal/feedback"
	"github.com/susu3304/loanbot/internal/ledger"
	"github.com/susu3304/loanbot/internal/rules"
	"github.com/susu3304/loanbot/internal/sqlite"
)

// store is everything the three drivers implement: the ledger, its
// repayment history and the intent feedback log.
type store interface {
	ledger.Ledger
	ledger.History
	feedback.Recorder
	feedback.Lister
}

func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch cfg.LedgerDriver {
	case config.DriverMemory:
		return ledger.NewMemory(), func() {}, nil

	case config.DriverPostgres:
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.RunMigrations(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return database, database.Close, nil

	default:
		database, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
		}
		return database, func() { _ = database.Close() }, nil
	}
}

func newEngine(cfg *config.Config, st store, logger *zap.Logger) (*dialogue.Engine, error) {
	opts := []dialogue.Option{
		dialogue.WithFeedback(st),
		dialogue.WithLogger(logger.Named("dialogue")),
	}
	if cfg.VocabularyFile != "" {
		vocab, err := dialogue.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load vocabulary: %w", err)
		}
		opts = append(opts, dialogue.WithVocabulary(vocab))
	}

	var fb dialogue.FallbackParser = fallback.Disabled{}
	if cfg.LLMEnabled {
		fb = fallback.NewClient(fallback.Config{
			BaseURL: cfg.LLMBaseURL,
			APIKey:  cfg.LLMAPIKey,
			Model:   cfg.LLMModel,
			Timeout: cfg.LLMTimeout,
		}, logger.Named("fallback"))
		logger.Info("fallback parser enabled",
			zap.String("base_url", cfg.LLMBaseURL),
			zap.String("model", cfg.LLMModel),
		)
	}

	return dialogue.NewEngine(st, rules.New(), fb, opts...), nil
}
