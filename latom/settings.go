package latom

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultPrefix        = "&"
	DefaultAIModel       = "gemini-2.0-flash"
	DefaultAITemperature = 0.7
	DefaultAIMaxTokens   = 500

	// DefaultAIPersona is the system instruction used when a guild hasn't
	// set one. The content-safety clause is part of the default on purpose.
	DefaultAIPersona = "Talk like a casual, rowdy friend: cheeky, energetic, " +
		"a bit teasing; use light slang and occasional emojis. Keep it short " +
		"and helpful. No profanity, slurs, NSFW, harassment, hate, or " +
		"personal attacks. Follow Discord rules."
)

// Settable field names, shared by both command surfaces.
const (
	SettingPrefix        = "prefix"
	SettingAIModel       = "ai_model"
	SettingAITemperature = "ai_temperature"
	SettingAIMaxTokens   = "ai_max_tokens"
	SettingAIPersona     = "ai_persona"
)

// settingsUsage lists the options advertised in usage/error messages.
var settingsUsage = strings.Join(
	[]string{
		"`" + SettingPrefix + "`",
		"`" + SettingAIModel + "`",
		"`" + SettingAITemperature + "`",
		"`" + SettingAIMaxTokens + "`",
		"`" + SettingAIPersona + "`",
	},
	", ",
)

// structValidator validates GuildSettings writes and the static Config.
// The `binding` tag name matches gin-style validation.
var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

// GuildSettings is one guild's bot configuration. Fields are only ever
// written through SettingsRegistry.SetField, which validates before
// storing, so readers never re-validate.
//
//nolint:lll // can't break tags
type GuildSettings struct {
	Prefix        string  `json:"prefix" binding:"max=3"`
	AIModel       string  `json:"ai_model" binding:"oneof=gemini-2.0-flash gemini-2.0-pro"`
	AITemperature float64 `json:"ai_temperature" binding:"min=0,max=2"`
	AIMaxTokens   int     `json:"ai_max_tokens" binding:"min=50,max=2000"`
	AIPersona     string  `json:"ai_persona" binding:"max=800"`
}

// DefaultGuildSettings returns the record used for guilds that have never
// been customized.
func DefaultGuildSettings() GuildSettings {
	return GuildSettings{
		Prefix:        DefaultPrefix,
		AIModel:       DefaultAIModel,
		AITemperature: DefaultAITemperature,
		AIMaxTokens:   DefaultAIMaxTokens,
		AIPersona:     DefaultAIPersona,
	}
}

// UnknownFieldError indicates a `set` option that doesn't exist.
type UnknownFieldError struct {
	Field string
}

func (e UnknownFieldError) Error() string {
	return fmt.Sprintf("Unknown setting. Available options: %s", settingsUsage)
}

// FormatError indicates a value for a numeric field that couldn't be
// parsed. The message is the field-specific hint shown to the user.
type FormatError struct {
	Field string
	Hint  string
}

func (e FormatError) Error() string {
	return e.Hint
}

// RangeError indicates a parsed value outside the field's allowed range
// (or an over-long string). The message is the field-specific hint shown
// to the user.
type RangeError struct {
	Field string
	Hint  string
}

func (e RangeError) Error() string {
	return e.Hint
}

// rangeHints maps each settable field to the message rendered when a
// syntactically valid value fails its range rule.
var rangeHints = map[string]string{
	SettingPrefix:        "Prefix must be 3 characters or less.",
	SettingAIModel:       "Invalid AI model. Available models: gemini-2.0-flash, gemini-2.0-pro",
	SettingAITemperature: "Temperature must be between 0 and 2.",
	SettingAIMaxTokens:   "Max tokens must be between 50 and 2000.",
	SettingAIPersona:     "Persona is too long (max 800 characters).",
}

// SettingsRegistry holds per-guild settings, keyed by guild ID. State is
// in-memory only and lost on restart. Records are created lazily on the
// first successful SetField for a guild and never deleted.
//
// discordgo dispatches gateway events on separate goroutines, so every
// read-modify-write sequence runs under the mutex.
type SettingsRegistry struct {
	mu     sync.RWMutex
	guilds map[string]*GuildSettings
}

func NewSettingsRegistry() *SettingsRegistry {
	return &SettingsRegistry{guilds: map[string]*GuildSettings{}}
}

// Effective returns the guild's stored settings, or the full default
// record when guildID is empty or unknown.
func (r *SettingsRegistry) Effective(guildID string) GuildSettings {
	if guildID == "" {
		return DefaultGuildSettings()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if gs, ok := r.guilds[guildID]; ok {
		return *gs
	}
	return DefaultGuildSettings()
}

// Snapshot returns the guild's stored settings and whether a record
// exists. Used by the `settings` command, which distinguishes "custom
// settings" from "all defaults".
func (r *SettingsRegistry) Snapshot(guildID string) (GuildSettings, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if gs, ok := r.guilds[guildID]; ok {
		return *gs, true
	}
	return DefaultGuildSettings(), false
}

// SetField validates raw against the named field's rule and, on success,
// stores the coerced value and returns its display form. The guild's
// record is created (seeded with defaults) on the first successful write.
// A failed write never changes stored state.
func (r *SettingsRegistry) SetField(
	guildID string,
	field string,
	raw string,
) (string, error) {
	candidate := r.Effective(guildID)
	var display string

	switch field {
	case SettingPrefix:
		candidate.Prefix = raw
		display = raw
	case SettingAIModel:
		candidate.AIModel = raw
		display = raw
	case SettingAITemperature:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", FormatError{
				Field: field,
				Hint:  "Temperature must be a number between 0 and 2.",
			}
		}
		candidate.AITemperature = v
		display = strconv.FormatFloat(v, 'g', -1, 64)
	case SettingAIMaxTokens:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return "", FormatError{
				Field: field,
				Hint:  "Max tokens must be a number between 50 and 2000.",
			}
		}
		candidate.AIMaxTokens = v
		display = strconv.Itoa(v)
	case SettingAIPersona:
		candidate.AIPersona = raw
		display = raw
	default:
		return "", UnknownFieldError{Field: field}
	}

	if err := structValidator.Struct(candidate); err != nil {
		return "", RangeError{Field: field, Hint: rangeHints[field]}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	gs, ok := r.guilds[guildID]
	if !ok {
		seeded := DefaultGuildSettings()
		gs = &seeded
		r.guilds[guildID] = gs
	}
	switch field {
	case SettingPrefix:
		gs.Prefix = candidate.Prefix
	case SettingAIModel:
		gs.AIModel = candidate.AIModel
	case SettingAITemperature:
		gs.AITemperature = candidate.AITemperature
	case SettingAIMaxTokens:
		gs.AIMaxTokens = candidate.AIMaxTokens
	case SettingAIPersona:
		gs.AIPersona = candidate.AIPersona
	}
	return display, nil
}
