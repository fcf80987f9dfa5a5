package latom

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	ChannelID string
	Content   string
}

type sentEmbed struct {
	ChannelID string
	Embed     *discordgo.MessageEmbed
}

type sentFile struct {
	ChannelID string
	Name      string
	Data      []byte
}

// fakeSession implements DiscordSessionHandler in-memory, recording every
// outbound call so tests can assert on exactly what would have been sent.
type fakeSession struct {
	mu sync.Mutex

	messages       []sentMessage
	replies        []sentMessage
	embeds         []sentEmbed
	files          []sentFile
	typingChannels []string

	interactionResponses []*discordgo.InteractionResponse
	followups            []*discordgo.WebhookParams
	statusUpdates        []discordgo.UpdateStatusData
	registeredCommands   []*discordgo.ApplicationCommand

	// permissions are keyed by user ID
	permissions    map[string]int64
	permissionsErr error

	guilds map[string]*discordgo.Guild
}

var _ DiscordSessionHandler = (*fakeSession)(nil)

func newFakeSession() *fakeSession {
	return &fakeSession{
		permissions: map[string]int64{},
		guilds:      map[string]*discordgo.Guild{},
	}
}

func (f *fakeSession) Open() error { return nil }

func (f *fakeSession) Close() error { return nil }

func (f *fakeSession) AddHandler(_ any) func() { return func() {} }

func (f *fakeSession) ChannelMessageSend(
	channelID string,
	message string,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(
		f.messages,
		sentMessage{ChannelID: channelID, Content: message},
	)
	return &discordgo.Message{ChannelID: channelID, Content: message}, nil
}

func (f *fakeSession) ChannelMessageSendReply(
	channelID string,
	content string,
	_ *discordgo.MessageReference,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(
		f.replies,
		sentMessage{ChannelID: channelID, Content: content},
	)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(
	channelID string,
	embed *discordgo.MessageEmbed,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, sentEmbed{ChannelID: channelID, Embed: embed})
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelFileSend(
	channelID string,
	name string,
	r io.Reader,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(
		f.files,
		sentFile{ChannelID: channelID, Name: name, Data: data},
	)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelTyping(
	channelID string,
	_ ...discordgo.RequestOption,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typingChannels = append(f.typingChannels, channelID)
	return nil
}

func (f *fakeSession) ApplicationCommandBulkOverwrite(
	_ string,
	_ string,
	commands []*discordgo.ApplicationCommand,
	_ ...discordgo.RequestOption,
) ([]*discordgo.ApplicationCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registeredCommands = commands
	return commands, nil
}

func (f *fakeSession) InteractionRespond(
	_ *discordgo.Interaction,
	resp *discordgo.InteractionResponse,
	_ ...discordgo.RequestOption,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interactionResponses = append(f.interactionResponses, resp)
	return nil
}

func (f *fakeSession) FollowupMessageCreate(
	_ *discordgo.Interaction,
	_ bool,
	data *discordgo.WebhookParams,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) UpdateStatusComplex(
	data discordgo.UpdateStatusData,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, data)
	return nil
}

func (f *fakeSession) UserChannelPermissions(
	userID string,
	_ string,
	_ ...discordgo.RequestOption,
) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.permissionsErr != nil {
		return 0, f.permissionsErr
	}
	return f.permissions[userID], nil
}

func (f *fakeSession) Guild(
	guildID string,
	_ ...discordgo.RequestOption,
) (*discordgo.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.guilds[guildID]; ok {
		return g, nil
	}
	return &discordgo.Guild{ID: guildID, Name: guildID}, nil
}

func (f *fakeSession) SetLogLevel(_ slog.Level) error { return nil }

func (f *fakeSession) SetHTTPClient(_ *http.Client) {}

func (f *fakeSession) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

func (f *fakeSession) sentFollowups() []*discordgo.WebhookParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*discordgo.WebhookParams, len(f.followups))
	copy(out, f.followups)
	return out
}

// newTestLatom assembles a bot wired to the given fake session.
func newTestLatom(t testing.TB, session *fakeSession) *Latom {
	t.Helper()
	config := DefaultConfig()
	config.Discord.Token = "test-bot-token"
	config.Discord.ApplicationID = "test-application-id"
	config.LogLevel.Set(slog.LevelError)
	config.Discord.LogLevel.Set(slog.LevelError)
	config.Gemini.LogLevel.Set(slog.LevelError)
	config.Stability.LogLevel.Set(slog.LevelError)

	l, err := New(config)
	require.NoError(t, err)
	l.discord.session = session
	return l
}

// messageFrom builds a guild message as the gateway would deliver it.
func messageFrom(
	userID string,
	guildID string,
	channelID string,
	content string,
) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "message-id",
			GuildID:   guildID,
			ChannelID: channelID,
			Content:   content,
			Author:    &discordgo.User{ID: userID, Username: "tester"},
		},
	}
}

// slashInteraction builds an application-command interaction with the
// given options, issued by a member with the given permissions.
func slashInteraction(
	command string,
	guildID string,
	permissions int64,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:      "interaction-id",
			Type:    discordgo.InteractionApplicationCommand,
			GuildID: guildID,
			Member: &discordgo.Member{
				User:        &discordgo.User{ID: "user-id", Username: "tester"},
				Permissions: permissions,
			},
			Data: discordgo.ApplicationCommandInteractionData{
				Name:    command,
				Options: options,
			},
		},
	}
}

func stringOption(
	name string,
	value string,
) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}
