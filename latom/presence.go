package latom

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// Activity is the shared last-command clock. Both command surfaces call
// Mark after a successful dispatch; the presence heartbeat reads it.
type Activity struct {
	mu     sync.RWMutex
	last   time.Time
	marked bool
}

func NewActivity() *Activity {
	return &Activity{}
}

// Mark records that a command was just dispatched.
func (a *Activity) Mark() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = time.Now()
	a.marked = true
}

// Idle reports whether no command has been dispatched within the given
// window as of now. A clock that was never marked is idle.
func (a *Activity) Idle(now time.Time, window time.Duration) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.marked {
		return true
	}
	return now.Sub(a.last) > window
}

// presenceStatusUpdate returns the gateway status update for the given
// idle state: idle guilds see "Playing Dynamically", active ones
// "Listening to help".
func presenceStatusUpdate(idle bool) discordgo.UpdateStatusData {
	if idle {
		return discordgo.UpdateStatusData{
			Status: string(discordgo.StatusIdle),
			Activities: []*discordgo.Activity{
				{
					Name: presenceIdleActivity,
					Type: discordgo.ActivityTypeGame,
				},
			},
		}
	}
	return discordgo.UpdateStatusData{
		Status: string(discordgo.StatusOnline),
		Activities: []*discordgo.Activity{
			{
				Name: presenceOnlineActivity,
				Type: discordgo.ActivityTypeListening,
			},
		},
	}
}

// watchPresence runs the presence heartbeat until ctx is canceled: once
// per second it derives the bot's status from the activity clock and
// pushes an update when the status changed. Purely cosmetic.
func (l *Latom) watchPresence(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(presenceTickInterval)
	defer ticker.Stop()

	var lastIdle *bool
	for {
		select {
		case <-ctx.Done():
			logger.Debug("presence heartbeat stopped")
			return
		case <-ticker.C:
			idle := l.activity.Idle(time.Now(), presenceIdleWindow)
			if lastIdle != nil && *lastIdle == idle {
				continue
			}
			if err := l.discord.updateStatusComplex(
				presenceStatusUpdate(idle),
			); err != nil {
				logger.Warn("error updating presence", tint.Err(err))
				continue
			}
			lastIdle = &idle
		}
	}
}
