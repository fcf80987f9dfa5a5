package latom

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// isAdminMessage checks the author's permissions in the channel the
// message was posted in. The gateway message payload doesn't carry
// resolved permissions the way interactions do, so this asks the API.
func (l *Latom) isAdminMessage(m *discordgo.MessageCreate) bool {
	perms, err := l.discord.session.UserChannelPermissions(
		m.Author.ID,
		m.ChannelID,
	)
	if err != nil {
		l.logger.Error(
			"error resolving channel permissions",
			tint.Err(err),
			"user_id", m.Author.ID,
			"channel_id", m.ChannelID,
		)
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func (l *Latom) sendText(channelID string, content string) {
	for _, chunk := range chunkMessage(content) {
		if _, err := l.discord.session.ChannelMessageSend(
			channelID,
			chunk,
		); err != nil {
			l.logger.Error(
				"error sending message",
				tint.Err(err),
				"channel_id", channelID,
			)
			return
		}
	}
}

// handleMessageCreate dispatches the free-text (prefixed) command
// surface. Each guild's configured prefix applies; a message that starts
// with the prefix but whose first token isn't a known command is ignored
// without reply.
func (l *Latom) handleMessageCreate(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	defer l.handleRecover()

	settings := l.settings.Effective(m.GuildID)
	prefix := settings.Prefix
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}
	raw := strings.TrimSpace(strings.TrimPrefix(m.Content, prefix))
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return
	}
	// exact first-token match: `&settings` must never be taken for `&set`
	token := fields[0]
	remainder := strings.TrimSpace(strings.TrimPrefix(raw, token))

	ctx := l.runContext()
	logger := l.logger.With(
		slog.Group(
			"message",
			"id", m.ID,
			"command", token,
			"guild_id", m.GuildID,
			"author_id", m.Author.ID,
		),
	)

	switch token {
	case CommandHello:
		l.sendText(m.ChannelID, helloReply)
	case CommandMf:
		if _, err := l.discord.session.ChannelMessageSendReply(
			m.ChannelID,
			mfReply,
			m.Reference(),
		); err != nil {
			logger.Error("error sending reply", tint.Err(err))
		}
	case CommandHelp:
		if _, err := l.discord.session.ChannelMessageSendEmbed(
			m.ChannelID,
			helpEmbed(prefix, m.Author),
		); err != nil {
			logger.Error("error sending help embed", tint.Err(err))
		}
	case CommandAsk:
		if remainder == "" {
			l.sendText(
				m.ChannelID,
				fmt.Sprintf(
					"Please provide a question! Usage: `%sask your question here`",
					prefix,
				),
			)
			break
		}
		logger.Info("received ask command")
		if err := l.discord.session.ChannelTyping(m.ChannelID); err != nil {
			logger.Warn("error sending typing indicator", tint.Err(err))
		}
		reply := l.gemini.Respond(ctx, remainder, m.GuildID)
		if reply == "" {
			reply = emptyReplyFallback
		}
		l.sendText(m.ChannelID, reply)
	case CommandImagine:
		if remainder == "" {
			l.sendText(
				m.ChannelID,
				fmt.Sprintf(
					"Please provide a prompt! Usage: `%simagine your prompt`",
					prefix,
				),
			)
			break
		}
		logger.Info("received imagine command")
		if err := l.discord.session.ChannelTyping(m.ChannelID); err != nil {
			logger.Warn("error sending typing indicator", tint.Err(err))
		}
		result := l.stability.Respond(ctx, remainder)
		if !result.OK {
			l.sendText(m.ChannelID, result.Message)
			break
		}
		if _, err := l.discord.session.ChannelFileSend(
			m.ChannelID,
			generatedImageFilename,
			bytes.NewReader(result.Image),
		); err != nil {
			logger.Error("error uploading image", tint.Err(err))
		}
	case CommandSetWelcomeChannel:
		if !l.isAdminMessage(m) {
			l.sendText(m.ChannelID, denyWelcomeChannel)
			break
		}
		l.welcome.Set(m.GuildID, m.ChannelID)
		l.sendText(
			m.ChannelID,
			fmt.Sprintf("Welcome channel set to <#%s>.", m.ChannelID),
		)
	case CommandGetWelcomeChannel:
		channelID, ok := l.welcome.Get(m.GuildID)
		if !ok {
			l.sendText(m.ChannelID, welcomeChannelUnset)
			break
		}
		l.sendText(
			m.ChannelID,
			fmt.Sprintf("Welcome channel is set to <#%s>.", channelID),
		)
	case CommandSet:
		if !l.isAdminMessage(m) {
			l.sendText(m.ChannelID, denyChangeSettings)
			break
		}
		args := strings.Fields(remainder)
		if len(args) < 2 {
			l.sendText(
				m.ChannelID,
				fmt.Sprintf(
					"Usage: `%sset <option> <value>`\nAvailable options: %s",
					prefix,
					settingsUsage,
				),
			)
			break
		}
		option := strings.ToLower(args[0])
		value := strings.Join(args[1:], " ")
		l.sendText(m.ChannelID, l.applySetting(m.GuildID, option, value))
	case CommandSettings:
		if !l.isAdminMessage(m) {
			l.sendText(m.ChannelID, denyViewSettings)
			break
		}
		current, ok := l.settings.Snapshot(m.GuildID)
		if !ok {
			l.sendText(m.ChannelID, noCustomSettings)
			break
		}
		if _, err := l.discord.session.ChannelMessageSendEmbed(
			m.ChannelID,
			settingsEmbed(l.guildName(m.GuildID), current, m.Author),
		); err != nil {
			logger.Error("error sending settings embed", tint.Err(err))
		}
	default:
		// unrecognized token after a valid prefix: stay silent
		return
	}

	l.activity.Mark()
}
