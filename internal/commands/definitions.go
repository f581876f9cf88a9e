package commands

import "github.com/bwmarrin/discordgo"

const (
	LedgerCommand = "ledger"
	LoansCommand  = "loans"
)

func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         LedgerCommand,
			Description:  "Tell the ledger about money you lent or got back",
			DMPermission: boolPtr(true),
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "e.g. I lent John 50, John paid me back 20, who owes me?",
					Required:    true,
					MaxLength:   500,
				},
			},
		},
		{
			Name:         LoansCommand,
			Description:  "Show who still owes you money",
			DMPermission: boolPtr(true),
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}
