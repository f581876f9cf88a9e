package commands

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Engine is the conversation engine the slash commands drive.
type Engine interface {
	Handle(ctx context.Context, userID, text string) string
	Summary(ctx context.Context, userID string) string
}

// HandleLedger feeds the text option through the engine exactly like a DM.
func HandleLedger(ctx context.Context, s Session, i *discordgo.InteractionCreate, engine Engine) error {
	userID := UserID(i)
	message := strings.TrimSpace(stringOption(i.ApplicationCommandData(), "text"))
	if userID == "" || message == "" {
		return respondText(s, i, "Tell me something like `I lent John 50`.")
	}

	// the fallback parser can take longer than the interaction deadline
	if err := deferResponse(s, i); err != nil {
		return err
	}
	return editDeferred(s, i, engine.Handle(ctx, userID, message))
}

func HandleLoans(ctx context.Context, s Session, i *discordgo.InteractionCreate, engine Engine) error {
	userID := UserID(i)
	if userID == "" {
		return respondText(s, i, "I couldn't tell who you are.")
	}
	if err := deferResponse(s, i); err != nil {
		return err
	}
	return editDeferred(s, i, engine.Summary(ctx, userID))
}
