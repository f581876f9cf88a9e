package bot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/susu3304/loanbot/internal/commands"
)

// sender is the slice of *discordgo.Session needed to answer a message.
type sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("connected", zap.String("user", event.User.Username), zap.Int("guilds", len(event.Guilds)))

	// global registration so the commands also show up in DMs
	if _, err := s.ApplicationCommandBulkOverwrite(event.User.ID, "", commands.GetCommands()); err != nil {
		b.logger.Error("failed to register application commands", zap.Error(err))
		return
	}
	b.logger.Info("registered application commands")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s.State == nil || s.State.User == nil {
		return
	}
	b.handleMessage(b.base, s, s.State.User.ID, m.Message)
}

func (b *Bot) handleMessage(ctx context.Context, s sender, botID string, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	text, ok := addressedText(m, botID)
	if !ok {
		return
	}

	if err := s.ChannelTyping(m.ChannelID); err != nil {
		b.logger.Debug("typing indicator failed", zap.Error(err))
	}

	reply := b.engine.Handle(ctx, m.Author.ID, text)
	for _, chunk := range commands.SplitMessage(reply, commands.MessageLimit) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			b.logger.Error("failed to send reply",
				zap.String("channel_id", m.ChannelID),
				zap.Error(err),
			)
			return
		}
	}
}

// addressedText returns the message text with bot mentions removed. Only DMs
// and messages that mention the bot are addressed to it.
func addressedText(m *discordgo.Message, botID string) (string, bool) {
	direct := m.GuildID == ""
	mentioned := false
	for _, u := range m.Mentions {
		if u != nil && u.ID == botID {
			mentioned = true
			break
		}
	}
	if !direct && !mentioned {
		return "", false
	}

	text := m.Content
	if botID != "" {
		text = strings.ReplaceAll(text, "<@"+botID+">", "")
		text = strings.ReplaceAll(text, "<@!"+botID+">", "")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	var err error
	switch data.Name {
	case commands.LedgerCommand:
		err = commands.HandleLedger(b.base, s, i, b.engine)
	case commands.LoansCommand:
		err = commands.HandleLoans(b.base, s, i, b.engine)
	default:
		return
	}
	if err != nil {
		b.logger.Error("command failed", zap.String("command", data.Name), zap.Error(err))
	}
}
