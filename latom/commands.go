package latom

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// Command names, shared verbatim by the slash and free-text surfaces.
const (
	CommandHello             = "hello"
	CommandMf                = "mf"
	CommandAsk               = "ask"
	CommandImagine           = "imagine"
	CommandSetWelcomeChannel = "setwelcomechannel"
	CommandGetWelcomeChannel = "getwelcomechannel"
	CommandSet               = "set"
	CommandSettings          = "settings"
	CommandHelp              = "help"

	askQuestionOption    = "question"
	imaginePromptOption  = "prompt"
	welcomeChannelOption = "channel"
	setOptionOption      = "option"
	setValueOption       = "value"

	generatedImageFilename = "image.png"
)

const (
	helloReply = "Hii!"
	mfReply    = "latom!"

	denyWelcomeChannel = "You have to be an admin to set the welcome channel."
	denyViewSettings   = "You have to be an admin to view bot settings."
	denyChangeSettings = "You have to be an admin to change bot settings."

	welcomeChannelUnset = "Welcome channel is not set."

	// imageSettingsNoop answers the documented no-op settings options.
	imageSettingsNoop = "Image generation is fixed to Stability SDXL; " +
		"no image settings to change."

	noCustomSettings = "No custom settings found. Using default settings."

	emptyReplyFallback = "Sorry, I couldn't generate a response."
)

// applicationCommands returns the statically declared slash command set,
// bulk-overwritten on startup.
func applicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandHello,
			Description: "Say hi",
		},
		{
			Name:        CommandMf,
			Description: "Replies 'latom!'",
		},
		{
			Name:        CommandAsk,
			Description: "Ask the AI assistant anything",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        askQuestionOption,
					Description: "Your question for the AI",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandImagine,
			Description: "Generate an image from a prompt",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        imaginePromptOption,
					Description: "Describe the image you want",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandSetWelcomeChannel,
			Description: "Set the welcome channel (Admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        welcomeChannelOption,
					Description: "Channel to send welcome messages in",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
			},
		},
		{
			Name:        CommandGetWelcomeChannel,
			Description: "Show the current welcome channel",
		},
		{
			Name:        CommandSet,
			Description: "Configure bot settings (Admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        setOptionOption,
					Description: "Setting to change",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: SettingPrefix, Value: SettingPrefix},
						{Name: SettingAIModel, Value: SettingAIModel},
						{Name: SettingAITemperature, Value: SettingAITemperature},
						{Name: SettingAIMaxTokens, Value: SettingAIMaxTokens},
						{Name: SettingAIPersona, Value: SettingAIPersona},
						{Name: "image_model", Value: "image_model"},
						{Name: "image_provider", Value: "image_provider"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        setValueOption,
					Description: "New value",
					Required:    true,
				},
			},
		},
		{
			Name:        CommandSettings,
			Description: "View current bot settings (Admin only)",
		},
		{
			Name:        CommandHelp,
			Description: "Show available commands",
		},
	}
}

// applySetting routes one settings write and returns the reply text for
// either surface. The image options are accepted but deliberately inert.
func (l *Latom) applySetting(guildID string, option string, value string) string {
	switch option {
	case "image_model", "image_provider":
		return imageSettingsNoop
	}

	stored, err := l.settings.SetField(guildID, option, value)
	if err != nil {
		return err.Error()
	}
	switch option {
	case SettingPrefix:
		return fmt.Sprintf("Bot prefix set to: `%s`", stored)
	case SettingAIModel:
		return fmt.Sprintf("AI model set to: `%s`", stored)
	case SettingAITemperature:
		return fmt.Sprintf("AI temperature set to: `%s`", stored)
	case SettingAIMaxTokens:
		return fmt.Sprintf("AI max tokens set to: `%s`", stored)
	case SettingAIPersona:
		return "AI persona updated."
	default:
		return fmt.Sprintf("`%s` set to: `%s`", option, stored)
	}
}

// guildName resolves a display name for embeds; falls back to the raw ID
// when the guild can't be fetched.
func (l *Latom) guildName(guildID string) string {
	guild, err := l.discord.session.Guild(guildID)
	if err != nil || guild == nil {
		return guildID
	}
	return guild.Name
}

func isAdminInteraction(i *discordgo.InteractionCreate) bool {
	return i.Member != nil &&
		i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func (l *Latom) respondText(
	i *discordgo.InteractionCreate,
	content string,
	ephemeral bool,
) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := l.discord.session.InteractionRespond(
		i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		},
	); err != nil {
		l.logger.Error(
			"error responding to interaction",
			tint.Err(err),
			"interaction_id", i.ID,
		)
	}
}

func (l *Latom) respondEmbed(
	i *discordgo.InteractionCreate,
	embed *discordgo.MessageEmbed,
) {
	if err := l.discord.session.InteractionRespond(
		i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds: []*discordgo.MessageEmbed{embed},
			},
		},
	); err != nil {
		l.logger.Error(
			"error responding to interaction",
			tint.Err(err),
			"interaction_id", i.ID,
		)
	}
}

// ackInteraction defers the response so slow work (the AI calls) can
// finish after Discord's initial response deadline.
func (l *Latom) ackInteraction(i *discordgo.InteractionCreate) error {
	return l.discord.session.InteractionRespond(
		i.Interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		},
	)
}

func (l *Latom) followupText(i *discordgo.InteractionCreate, content string) {
	for _, chunk := range chunkMessage(content) {
		if _, err := l.discord.session.FollowupMessageCreate(
			i.Interaction,
			true,
			&discordgo.WebhookParams{Content: chunk},
		); err != nil {
			l.logger.Error(
				"error sending followup",
				tint.Err(err),
				"interaction_id", i.ID,
			)
			return
		}
	}
}

// handleInteraction dispatches the structured (slash) command surface.
func (l *Latom) handleInteraction(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	defer l.handleRecover()

	ctx := l.runContext()
	data := i.ApplicationCommandData()
	logger := l.logger.With(
		slog.Group(
			"interaction",
			"id", i.ID,
			"command", data.Name,
			"guild_id", i.GuildID,
		),
	)
	logger.Info("received slash command")

	switch data.Name {
	case CommandHello:
		l.respondText(i, helloReply, false)
	case CommandMf:
		l.respondText(i, mfReply, false)
	case CommandHelp:
		user := getDiscordUser(i)
		prefix := l.settings.Effective(i.GuildID).Prefix
		l.respondEmbed(i, helpEmbed(prefix, user))
	case CommandAsk:
		opts := discordInteractionOptions(i)
		question := opts[askQuestionOption].StringValue()
		if err := l.ackInteraction(i); err != nil {
			logger.Error("error acknowledging interaction", tint.Err(err))
			return
		}
		reply := l.gemini.Respond(ctx, question, i.GuildID)
		if reply == "" {
			reply = emptyReplyFallback
		}
		l.followupText(i, reply)
	case CommandImagine:
		opts := discordInteractionOptions(i)
		prompt := opts[imaginePromptOption].StringValue()
		if err := l.ackInteraction(i); err != nil {
			logger.Error("error acknowledging interaction", tint.Err(err))
			return
		}
		result := l.stability.Respond(ctx, prompt)
		if !result.OK {
			l.followupText(i, result.Message)
			break
		}
		if _, err := l.discord.session.FollowupMessageCreate(
			i.Interaction,
			true,
			&discordgo.WebhookParams{
				Files: []*discordgo.File{
					{
						Name:   generatedImageFilename,
						Reader: bytes.NewReader(result.Image),
					},
				},
			},
		); err != nil {
			logger.Error("error sending image followup", tint.Err(err))
		}
	case CommandSetWelcomeChannel:
		if !isAdminInteraction(i) {
			l.respondText(i, denyWelcomeChannel, true)
			break
		}
		opts := discordInteractionOptions(i)
		channel := opts[welcomeChannelOption].ChannelValue(nil)
		l.welcome.Set(i.GuildID, channel.ID)
		l.respondText(
			i,
			fmt.Sprintf("Welcome channel set to <#%s>.", channel.ID),
			false,
		)
	case CommandGetWelcomeChannel:
		channelID, ok := l.welcome.Get(i.GuildID)
		if !ok {
			l.respondText(i, welcomeChannelUnset, false)
			break
		}
		l.respondText(
			i,
			fmt.Sprintf("Welcome channel is set to <#%s>.", channelID),
			false,
		)
	case CommandSet:
		if !isAdminInteraction(i) {
			l.respondText(i, denyChangeSettings, true)
			break
		}
		opts := discordInteractionOptions(i)
		option := opts[setOptionOption].StringValue()
		value := opts[setValueOption].StringValue()
		l.respondText(i, l.applySetting(i.GuildID, option, value), false)
	case CommandSettings:
		if !isAdminInteraction(i) {
			l.respondText(i, denyViewSettings, true)
			break
		}
		settings, ok := l.settings.Snapshot(i.GuildID)
		if !ok {
			l.respondText(i, noCustomSettings, false)
			break
		}
		l.respondEmbed(
			i,
			settingsEmbed(l.guildName(i.GuildID), settings, getDiscordUser(i)),
		)
	default:
		logger.Warn("unknown slash command")
		return
	}

	l.activity.Mark()
}
