package latom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"
)

// Build info, injected via ldflags.
var (
	Version   = "dev"
	CommitSHA = ""
	BuildTime = ""
)

// Latom is the bot. It owns the gateway session, the per-guild
// registries, both AI responders and the presence heartbeat. All state
// is in-memory and lost on restart.
type Latom struct {
	config    *Config
	logger    *slog.Logger
	discord   *Discord
	gemini    *Gemini
	stability *Stability
	settings  *SettingsRegistry
	welcome   *WelcomeChannels
	activity  *Activity

	runMu sync.Mutex
	ctx   context.Context
}

// New validates the given config and assembles a Latom from it. The
// returned bot doesn't touch the network until Run.
func New(config *Config) (*Latom, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	settings := NewSettingsRegistry()
	l := &Latom{
		config:   config,
		logger:   slog.New(newLogHandler(config.LogLevel)).With(loggerNameKey, "latom"),
		settings: settings,
		welcome:  NewWelcomeChannels(),
		activity: NewActivity(),
		discord:  newDiscord(config.Discord, newLogHandler(config.Discord.LogLevel)),
		gemini: newGemini(
			config.Gemini,
			settings,
			newLogHandler(config.Gemini.LogLevel),
		),
		stability: newStability(
			config.Stability,
			newLogHandler(config.Stability.LogLevel),
		),
	}
	return l, nil
}

// ValidateConfig validates the config via the `binding` struct tags and
// returns all failures joined, so a misconfigured bot reports everything
// at once instead of one missing field per start.
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.New("config cannot be nil")
	}
	if config.Discord == nil || config.Gemini == nil || config.Stability == nil {
		return errors.New(
			"discord, gemini and stability config sections are required",
		)
	}

	var errs []error
	if err := structValidator.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, ve := range validationErrors {
				errs = append(
					errs,
					fmt.Errorf(
						"%s: '%v' failed validation: %s",
						ve.Namespace(),
						ve.Value(),
						ve.Tag(),
					),
				)
			}
		} else {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runContext returns the context Run was started with, for gateway
// handlers that outlive their triggering event.
func (l *Latom) runContext() context.Context {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.ctx != nil {
		return l.ctx
	}
	return context.Background()
}

// handleRecover converts a panicking gateway handler into an error log.
// discordgo would swallow the panic otherwise and the goroutine dies
// silently.
func (l *Latom) handleRecover() {
	if rc := recover(); rc != nil {
		l.logger.Error(
			"recovered from panic",
			"panic", rc,
			"stack", string(debug.Stack()),
		)
	}
}

// Run connects to the Discord gateway, registers the slash command set,
// starts the presence heartbeat and blocks until ctx is canceled, then
// shuts down within ShutdownTimeout.
func (l *Latom) Run(ctx context.Context) error {
	l.runMu.Lock()
	l.ctx = ctx
	l.runMu.Unlock()

	l.logger.Info(
		"starting",
		"version", Version,
		"config", l.config,
	)

	session, err := l.discord.newSession()
	if err != nil {
		return err
	}
	l.discord.session = session

	discordgo.Logger = discordgoLoggerFunc(
		ctx,
		newLogHandler(l.config.Discord.DiscordGoLogLevel).WithAttrs(
			[]slog.Attr{slog.String(loggerNameKey, "discordgo")},
		),
	)

	session.AddHandler(l.discord.handlerReady())
	session.AddHandler(l.discord.handlerConnect())
	session.AddHandler(l.discord.handlerDisconnect())
	session.AddHandler(l.handleInteraction)
	session.AddHandler(l.handleMessageCreate)
	session.AddHandler(l.handleMemberJoin)
	session.AddHandler(l.handleGuildJoin)

	if err = session.Open(); err != nil {
		return fmt.Errorf("error opening discord connection: %w", err)
	}

	// command registration failure is not fatal: the free-text surface
	// still works without slash commands
	if _, err = l.discord.registerCommands(applicationCommands()); err != nil {
		l.logger.Error("error registering commands", tint.Err(err))
	}

	var wg sync.WaitGroup
	presenceCtx, presenceCancel := context.WithCancel(ctx)
	defer presenceCancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		l.watchPresence(presenceCtx, l.logger.With(loggerNameKey, "presence"))
	}()

	<-ctx.Done()
	l.logger.Info("shutting down")
	presenceCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	shutdownTimer := time.NewTimer(l.config.ShutdownTimeout)
	defer shutdownTimer.Stop()
	select {
	case <-done:
	case <-shutdownTimer.C:
		l.logger.Warn("shutdown timeout elapsed")
	}

	if err = session.Close(); err != nil {
		l.logger.Error("error closing discord session", tint.Err(err))
		return err
	}
	l.logger.Info("shutdown complete")
	return nil
}

// handleMemberJoin posts the welcome embed for new members, when the
// guild has bound a welcome channel.
func (l *Latom) handleMemberJoin(
	_ *discordgo.Session,
	e *discordgo.GuildMemberAdd,
) {
	defer l.handleRecover()
	if e.Member == nil {
		return
	}
	if e.User != nil && e.User.Bot {
		return
	}
	channelID, ok := l.welcome.Get(e.GuildID)
	if !ok {
		return
	}
	if _, err := l.discord.session.ChannelMessageSendEmbed(
		channelID,
		welcomeEmbed(e.Member, l.guildName(e.GuildID)),
	); err != nil {
		l.logger.Error(
			"error sending welcome message",
			tint.Err(err),
			"guild_id", e.GuildID,
			"channel_id", channelID,
		)
	}
}

// handleGuildJoin logs guild availability events.
func (l *Latom) handleGuildJoin(
	_ *discordgo.Session,
	e *discordgo.GuildCreate,
) {
	defer l.handleRecover()
	if e.Guild == nil {
		return
	}
	l.logger.Info(
		"guild available",
		"guild_id", e.ID,
		"name", e.Name,
		"member_count", e.MemberCount,
	)
}
