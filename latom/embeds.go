package latom

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	helpEmbedColor     = 0x3091ff
	settingsEmbedColor = 0x00ff00
	welcomeEmbedColor  = 0xfc30ff

	helpEmbedImageURL    = "https://cdn.discordapp.com/attachments/998612463492812822/1067016016485416990/maxresdefault.jpg"
	welcomeEmbedImageURL = "https://cdn.discordapp.com/attachments/998612463492812822/1063409897871511602/welcome.png"

	settingsPersonaPreviewLength = 80
)

// helpEmbed lists every command, using the guild's effective prefix for
// the free-text forms.
func helpEmbed(prefix string, requester *discordgo.User) *discordgo.MessageEmbed {
	field := func(name string, value string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{
			Name:  prefix + name,
			Value: value,
		}
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Help",
		Description: "List of commands:",
		Color:       helpEmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			field("setwelcomechannel", "Sets the welcome channel for the current server"),
			field("getwelcomechannel", "Gets the welcome channel for the current server"),
			field("hello", "Says Hii!"),
			field("mf", "Replies latom!"),
			field("ask [question]", "Ask the AI assistant anything!"),
			field("imagine [prompt]", "Generate an image from text (Stability SDXL)."),
			field("set ai_persona [text]", "Change AI personality (Admin)"),
			field("set [option] [value]", "Configure bot settings (Admin only)"),
			field("settings", "View current bot settings (Admin only)"),
		},
		Image: &discordgo.MessageEmbedImage{URL: helpEmbedImageURL},
	}
	if requester != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("Requested by %s", requester.Username),
			IconURL: requester.AvatarURL(""),
		}
	}
	return embed
}

// settingsEmbed renders the guild's current settings. The persona is
// previewed rather than dumped in full.
func settingsEmbed(
	guildName string,
	settings GuildSettings,
	requester *discordgo.User,
) *discordgo.MessageEmbed {
	personaPreview := settings.AIPersona
	if personaPreview == "" {
		personaPreview = "default rowdy persona"
	} else if len([]rune(personaPreview)) > settingsPersonaPreviewLength {
		personaPreview = truncate(personaPreview, settingsPersonaPreviewLength) + "…"
	}

	inline := func(name string, value string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{
			Name:   name,
			Value:  fmt.Sprintf("`%s`", value),
			Inline: true,
		}
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Bot Settings",
		Description: fmt.Sprintf("Current settings for **%s**", guildName),
		Color:       settingsEmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			inline("Prefix", settings.Prefix),
			inline("AI Model", settings.AIModel),
			inline("AI Temperature", fmt.Sprintf("%g", settings.AITemperature)),
			inline("AI Max Tokens", fmt.Sprintf("%d", settings.AIMaxTokens)),
			{
				Name:  "AI Persona",
				Value: fmt.Sprintf("`%s`", personaPreview),
			},
		},
	}
	if requester != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("Requested by %s", requester.Username),
			IconURL: requester.AvatarURL(""),
		}
	}
	return embed
}

// welcomeEmbed greets a newly joined member.
func welcomeEmbed(member *discordgo.Member, guildName string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Welcome!",
		Description: fmt.Sprintf(
			"Ara ara! %s, welcome to **%s**! Hope you find Peace here.",
			member.Mention(),
			guildName,
		),
		Color: welcomeEmbedColor,
		Image: &discordgo.MessageEmbedImage{URL: welcomeEmbedImageURL},
	}
	if member.User != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{
			URL: member.User.AvatarURL(""),
		}
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s joined!", member.User.Username),
		}
	}
	return embed
}
