package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/loanbot/internal/commands"
)

type Bot struct {
	session *discordgo.Session
	engine  commands.Engine
	logger  *zap.Logger

	// base is cancelled by Stop so in-flight turns give up with the session.
	base   context.Context
	cancel context.CancelFunc
}

func New(token string, engine commands.Engine, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	base, cancel := context.WithCancel(context.Background())
	bot := &Bot{
		session: session,
		engine:  engine,
		logger:  logger.Named("discord"),
		base:    base,
		cancel:  cancel,
	}

	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return bot, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	b.logger.Info("discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	b.cancel()
	return b.session.Close()
}

// Run opens the session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return b.Stop()
}
