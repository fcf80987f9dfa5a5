//nolint:lll // struct tags can't be split
package latom

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	EnvvarSetEnvPrefix = "LATOM_ENV_PREFIX"
	DefaultEnvPrefix   = "LATOM"

	DefaultLogLevel        = slog.LevelInfo
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDiscordLogLevel      = slog.LevelInfo
	DefaultDiscordgoLogLevel    = slog.LevelWarn
	DefaultDiscordGatewayIntent = discordgo.IntentsAll

	DefaultGeminiBaseURL  = "https://generativelanguage.googleapis.com"
	DefaultGeminiTimeout  = 60 * time.Second
	DefaultGeminiLogLevel = slog.LevelInfo

	DefaultStabilityBaseURL  = "https://api.stability.ai"
	DefaultStabilityEngine   = "stable-diffusion-xl-1024-v1-0"
	DefaultStabilityTimeout  = 90 * time.Second
	DefaultStabilityLogLevel = slog.LevelInfo

	// discordMaxMessageLength is Discord's hard cap on message content.
	// Replies longer than this are split into chunks of
	// discordMessageChunkSize characters.
	discordMaxMessageLength = 2000
	discordMessageChunkSize = 1990

	presenceTickInterval = 1 * time.Second
	presenceIdleWindow   = 120 * time.Second

	presenceIdleActivity   = "Dynamically"
	presenceOnlineActivity = "help"
)

// Config is the static (environment-provided) configuration. Per-guild
// settings live in SettingsRegistry and are mutated through chat commands.
type Config struct {
	// LogLevel is the base log level, for the default logger
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// ShutdownTimeout is the time to allow for a graceful shutdown. After
	// this elapses, the bot force-closes the gateway connection and exits.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	// Discord configures the discord bot itself
	Discord *DiscordConfig `yaml:"discord" mapstructure:"discord" json:"discord"`

	// Gemini configures the generative-text provider
	Gemini *GeminiConfig `yaml:"gemini" mapstructure:"gemini" json:"gemini"`

	// Stability configures the generative-image provider
	Stability *StabilityConfig `yaml:"stability" mapstructure:"stability" json:"stability"`
}

func (c Config) LogValue() slog.Value {
	return structToSlogValue(c)
}

// DiscordConfig configures the discord session.
//
//nolint:lll // can't break tags
type DiscordConfig struct {
	// Discord bot token (from the 'Bot' tab in the discord dev portal)
	Token string `yaml:"token" mapstructure:"token" json:"token" log:"[redacted]" binding:"required"`

	// Discord application ID (from the 'General Information' tab in the discord dev portal)
	ApplicationID string `yaml:"application_id" mapstructure:"application_id" json:"application_id" binding:"required"`

	// GuildID specifies the guild ID used when registering slash commands.
	// Leave empty for commands to be registered as global.
	GuildID string `yaml:"guild_id" mapstructure:"guild_id" json:"guild_id"`

	// Base discord logging level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`

	// Log level for the `discordgo` library's logger
	DiscordGoLogLevel *slog.LevelVar `yaml:"discordgo_log_level" mapstructure:"discordgo_log_level" json:"discordgo_log_level"`

	// Discord gateway intents. The message-content and guild-members
	// intents are required for the free-text surface and the member-join
	// notifier. See: https://discord.com/developers/docs/topics/gateway#gateway-intents
	GatewayIntents discordgo.Intent `yaml:"gateway_intents" mapstructure:"gateway_intents" json:"gateway_intents"`

	httpClient *http.Client
}

// GeminiConfig configures the generative-text provider. The API key is
// deliberately not required at startup: its absence is reported per-call
// as a user-visible message.
//
//nolint:lll // can't break tags
type GeminiConfig struct {
	// Gemini API key
	APIKey string `yaml:"api_key" mapstructure:"api_key" json:"api_key" log:"[redacted]"`

	// BaseURL is the provider host, without a trailing slash
	BaseURL string `yaml:"base_url" mapstructure:"base_url" json:"base_url" binding:"required"`

	// Timeout bounds a single generateContent request
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout" binding:"required"`

	// Gemini base log level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`
}

// StabilityConfig configures the generative-image provider. Generation
// parameters (size, samples, steps, guidance) are fixed and not
// configurable per guild.
//
//nolint:lll // can't break tags
type StabilityConfig struct {
	// Stability API key
	APIKey string `yaml:"api_key" mapstructure:"api_key" json:"api_key" log:"[redacted]"`

	// BaseURL is the provider host, without a trailing slash
	BaseURL string `yaml:"base_url" mapstructure:"base_url" json:"base_url" binding:"required"`

	// Engine is the text-to-image engine ID used in the request path
	Engine string `yaml:"engine" mapstructure:"engine" json:"engine" binding:"required"`

	// Timeout bounds a single text-to-image request
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout" binding:"required"`

	// Stability base log level
	LogLevel *slog.LevelVar `yaml:"log_level" mapstructure:"log_level" json:"log_level"`
}

// DefaultConfig returns a Config with all default settings populated
func DefaultConfig() *Config {
	mainLogLevel := &slog.LevelVar{}
	discordLogLevel := &slog.LevelVar{}
	discordgoLogLevel := &slog.LevelVar{}
	geminiLogLevel := &slog.LevelVar{}
	stabilityLogLevel := &slog.LevelVar{}

	mainLogLevel.Set(DefaultLogLevel)
	discordLogLevel.Set(DefaultDiscordLogLevel)
	discordgoLogLevel.Set(DefaultDiscordgoLogLevel)
	geminiLogLevel.Set(DefaultGeminiLogLevel)
	stabilityLogLevel.Set(DefaultStabilityLogLevel)

	return &Config{
		LogLevel:        mainLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		Discord: &DiscordConfig{
			GatewayIntents:    DefaultDiscordGatewayIntent,
			LogLevel:          discordLogLevel,
			DiscordGoLogLevel: discordgoLogLevel,
		},
		Gemini: &GeminiConfig{
			BaseURL:  DefaultGeminiBaseURL,
			Timeout:  DefaultGeminiTimeout,
			LogLevel: geminiLogLevel,
		},
		Stability: &StabilityConfig{
			BaseURL:  DefaultStabilityBaseURL,
			Engine:   DefaultStabilityEngine,
			Timeout:  DefaultStabilityTimeout,
			LogLevel: stabilityLogLevel,
		},
	}
}
