package latom

import "sync"

// WelcomeChannels maps guild IDs to the channel the member-join notifier
// posts to. Like SettingsRegistry, it's process-lifetime state only.
// Authorization for Set is the dispatcher's responsibility.
type WelcomeChannels struct {
	mu       sync.RWMutex
	channels map[string]string
}

func NewWelcomeChannels() *WelcomeChannels {
	return &WelcomeChannels{channels: map[string]string{}}
}

// Set binds the guild's welcome channel, overwriting any prior binding.
func (w *WelcomeChannels) Set(guildID string, channelID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.channels[guildID] = channelID
}

// Get returns the guild's bound channel ID, if any.
func (w *WelcomeChannels) Get(guildID string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	channelID, ok := w.channels[guildID]
	return channelID, ok
}
