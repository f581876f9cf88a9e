package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/susu3304/loanbot/internal/api"
	"github.com/susu3304/loanbot/internal/bot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, web UI and Discord bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("ledger opened", zap.String("driver", cfg.LedgerDriver))
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty, the protected /api routes will refuse every request")
	}

	engine, err := newEngine(cfg, st, logger)
	if err != nil {
		return err
	}

	var discordBot *bot.Bot
	if cfg.DiscordToken != "" {
		discordBot, err = bot.New(cfg.DiscordToken, engine, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("DISCORD_TOKEN is empty, discord bot disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	apiServer := api.New(cfg, engine, st, logger.Named("api"))
	g.Go(func() error {
		return apiServer.Start(gctx)
	})
	if discordBot != nil {
		g.Go(func() error {
			return discordBot.Run(gctx)
		})
	}

	err = g.Wait()
	logger.Info("shutting down")
	return err
}
