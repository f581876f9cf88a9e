package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent   []string
	typing int
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSender) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	f.typing++
	return nil
}

type echoEngine struct {
	users []string
	texts []string
	reply string
}

func (e *echoEngine) Handle(ctx context.Context, userID, text string) string {
	e.users = append(e.users, userID)
	e.texts = append(e.texts, text)
	if e.reply != "" {
		return e.reply
	}
	return "got: " + text
}

func (e *echoEngine) Summary(ctx context.Context, userID string) string {
	return "summary"
}

func newTestBot(engine *echoEngine) *Bot {
	return &Bot{engine: engine, logger: zap.NewNop(), base: context.Background()}
}

func TestAddressedText(t *testing.T) {
	const botID = "999"
	tests := []struct {
		name string
		msg  *discordgo.Message
		want string
		ok   bool
	}{
		{
			name: "direct message",
			msg:  &discordgo.Message{Content: "  I lent John 50 "},
			want: "I lent John 50",
			ok:   true,
		},
		{
			name: "guild message without mention",
			msg:  &discordgo.Message{GuildID: "1", Content: "I lent John 50"},
		},
		{
			name: "guild mention",
			msg: &discordgo.Message{
				GuildID:  "1",
				Content:  "<@999> who owes me?",
				Mentions: []*discordgo.User{{ID: botID}},
			},
			want: "who owes me?",
			ok:   true,
		},
		{
			name: "nickname mention",
			msg: &discordgo.Message{
				GuildID:  "1",
				Content:  "<@!999> yes",
				Mentions: []*discordgo.User{{ID: botID}},
			},
			want: "yes",
			ok:   true,
		},
		{
			name: "bare mention",
			msg: &discordgo.Message{
				GuildID:  "1",
				Content:  "<@999>",
				Mentions: []*discordgo.User{{ID: botID}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := addressedText(tt.msg, botID)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleMessageRepliesToDM(t *testing.T) {
	engine := &echoEngine{}
	b := newTestBot(engine)
	s := &fakeSender{}

	b.handleMessage(t.Context(), s, "999", &discordgo.Message{
		ChannelID: "c1",
		Content:   "I lent John 50",
		Author:    &discordgo.User{ID: "u1"},
	})

	require.Equal(t, []string{"u1"}, engine.users)
	assert.Equal(t, []string{"I lent John 50"}, engine.texts)
	assert.Equal(t, []string{"got: I lent John 50"}, s.sent)
	assert.Equal(t, 1, s.typing)
}

func TestHandleMessageIgnoresBots(t *testing.T) {
	engine := &echoEngine{}
	b := newTestBot(engine)
	s := &fakeSender{}

	b.handleMessage(t.Context(), s, "999", &discordgo.Message{
		Content: "hello",
		Author:  &discordgo.User{ID: "u2", Bot: true},
	})

	assert.Empty(t, engine.texts)
	assert.Empty(t, s.sent)
}

func TestHandleMessageSplitsLongReplies(t *testing.T) {
	line := strings.Repeat("x", 900)
	engine := &echoEngine{reply: strings.Join([]string{line, line, line}, "\n")}
	b := newTestBot(engine)
	s := &fakeSender{}

	b.handleMessage(t.Context(), s, "999", &discordgo.Message{
		Content: "who owes me",
		Author:  &discordgo.User{ID: "u1"},
	})

	require.Len(t, s.sent, 2)
	assert.Equal(t, line+"\n"+line, s.sent[0])
	assert.Equal(t, line, s.sent[1])
}
