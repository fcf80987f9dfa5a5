package latom

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityIdle(t *testing.T) {
	activity := NewActivity()

	now := time.Now()
	assert.True(
		t,
		activity.Idle(now, presenceIdleWindow),
		"a never-marked clock is idle",
	)

	activity.Mark()
	assert.False(t, activity.Idle(time.Now(), presenceIdleWindow))

	// still active just inside the window
	assert.False(
		t,
		activity.Idle(time.Now().Add(presenceIdleWindow-time.Second), presenceIdleWindow),
	)

	// idle again once the window has fully elapsed
	assert.True(
		t,
		activity.Idle(time.Now().Add(presenceIdleWindow+time.Second), presenceIdleWindow),
	)
}

func TestPresenceStatusUpdate(t *testing.T) {
	idle := presenceStatusUpdate(true)
	assert.Equal(t, string(discordgo.StatusIdle), idle.Status)
	require.Len(t, idle.Activities, 1)
	assert.Equal(t, "Dynamically", idle.Activities[0].Name)
	assert.Equal(t, discordgo.ActivityTypeGame, idle.Activities[0].Type)

	active := presenceStatusUpdate(false)
	assert.Equal(t, string(discordgo.StatusOnline), active.Status)
	require.Len(t, active.Activities, 1)
	assert.Equal(t, "help", active.Activities[0].Name)
	assert.Equal(t, discordgo.ActivityTypeListening, active.Activities[0].Type)
}

func TestWatchPresencePushesIdleStatus(t *testing.T) {
	session := newFakeSession()
	l := newTestLatom(t, session)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.watchPresence(ctx, l.logger)
	}()

	// no activity was ever marked, so the first pushed status is idle
	require.Eventually(
		t,
		func() bool {
			session.mu.Lock()
			defer session.mu.Unlock()
			return len(session.statusUpdates) >= 1
		},
		5*time.Second,
		50*time.Millisecond,
	)

	cancel()
	wg.Wait()

	session.mu.Lock()
	defer session.mu.Unlock()
	first := session.statusUpdates[0]
	assert.Equal(t, string(discordgo.StatusIdle), first.Status)

	// unchanged state is never re-pushed
	for _, update := range session.statusUpdates {
		assert.Equal(t, first, update)
	}
	assert.Len(t, session.statusUpdates, 1)
}
