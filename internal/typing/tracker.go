// Package typing implements the client-side half of the typing-indicator
// protocol: it debounces keystrokes into at most one typing_start per burst
// and emits typing_stop after a quiet window with no input.
package typing

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultQuietWindow is how long after the last keystroke the tracker
// waits before declaring the user stopped typing.
const DefaultQuietWindow = 3 * time.Second

// Notifier receives typing transitions for a channel.
type Notifier interface {
	TypingStarted(channelID int64)
	TypingStopped(channelID int64)
}

// NotifierFuncs adapts plain functions to the Notifier interface.
type NotifierFuncs struct {
	OnStart func(channelID int64)
	OnStop  func(channelID int64)
}

func (n NotifierFuncs) TypingStarted(channelID int64) {
	if n.OnStart != nil {
		n.OnStart(channelID)
	}
}

func (n NotifierFuncs) TypingStopped(channelID int64) {
	if n.OnStop != nil {
		n.OnStop(channelID)
	}
}

// Tracker tracks typing activity per channel. Touch on every keystroke;
// the tracker collapses bursts into a single started/stopped pair.
type Tracker struct {
	notifier Notifier
	window   time.Duration
	clock    clock.Clock

	mu     sync.Mutex
	timers map[int64]*clock.Timer
}

// NewTracker builds a tracker with the given quiet window. A zero window
// uses DefaultQuietWindow.
func NewTracker(n Notifier, window time.Duration) *Tracker {
	return newTracker(n, window, clock.New())
}

func newTracker(n Notifier, window time.Duration, clk clock.Clock) *Tracker {
	if window <= 0 {
		window = DefaultQuietWindow
	}
	return &Tracker{
		notifier: n,
		window:   window,
		clock:    clk,
		timers:   make(map[int64]*clock.Timer),
	}
}

// Touch records a keystroke in the channel. The first touch of a burst
// fires TypingStarted; subsequent touches just push the quiet deadline out.
func (t *Tracker) Touch(channelID int64) {
	t.mu.Lock()
	timer, active := t.timers[channelID]
	if active {
		timer.Reset(t.window)
		t.mu.Unlock()
		return
	}
	t.timers[channelID] = t.clock.AfterFunc(t.window, func() {
		t.expire(channelID)
	})
	t.mu.Unlock()

	t.notifier.TypingStarted(channelID)
}

// Stop ends the burst immediately, as when the user sends the message.
// No-op if the channel has no active burst.
func (t *Tracker) Stop(channelID int64) {
	t.mu.Lock()
	timer, active := t.timers[channelID]
	if active {
		timer.Stop()
		delete(t.timers, channelID)
	}
	t.mu.Unlock()

	if active {
		t.notifier.TypingStopped(channelID)
	}
}

// StopAll ends every active burst, as on disconnect.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	channels := make([]int64, 0, len(t.timers))
	for id, timer := range t.timers {
		timer.Stop()
		channels = append(channels, id)
	}
	t.timers = make(map[int64]*clock.Timer)
	t.mu.Unlock()

	for _, id := range channels {
		t.notifier.TypingStopped(id)
	}
}

func (t *Tracker) expire(channelID int64) {
	t.mu.Lock()
	_, active := t.timers[channelID]
	delete(t.timers, channelID)
	t.mu.Unlock()

	if active {
		t.notifier.TypingStopped(channelID)
	}
}
