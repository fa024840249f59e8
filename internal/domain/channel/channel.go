package channel

import (
	"sync"

	"github.com/lucidide/backend/internal/events"
)

// Preferences provides live-read access to output settings. The history
// bound is re-read on every completed line so preference changes take
// effect without restarting.
type Preferences interface {
	MaxChannelHistory() int
}

// Channel is an append-only, bounded-history text stream identified by name.
// Completed lines are kept in FIFO order; an in-progress accumulator holds
// text appended since the last completed line.
type Channel struct {
	mu      sync.RWMutex
	name    string
	lines   []string
	current string
	partial bool // current holds an unterminated line
	visible bool
	locked  bool
	prefs   Preferences

	contentChanged    *events.Emitter[*Channel]
	visibilityChanged *events.Emitter[bool]
	lockChanged       *events.Emitter[bool]
}

// New creates an empty, visible, unlocked channel.
func New(name string, prefs Preferences) *Channel {
	return &Channel{
		name:              name,
		visible:           true,
		prefs:             prefs,
		contentChanged:    events.NewEmitter[*Channel](),
		visibilityChanged: events.NewEmitter[bool](),
		lockChanged:       events.NewEmitter[bool](),
	}
}

// Name returns the channel's unique name.
func (c *Channel) Name() string {
	return c.name
}

// Append adds text to the in-progress line without completing it.
func (c *Channel) Append(text string) {
	c.mu.Lock()
	c.current += text
	c.partial = true
	c.mu.Unlock()

	c.contentChanged.Emit(c)
}

// AppendLine completes the in-progress line with text and pushes it onto
// the history, then evicts the oldest lines until the history bound holds.
func (c *Channel) AppendLine(text string) {
	c.mu.Lock()
	if c.partial {
		c.lines = append(c.lines, c.current+text)
		c.current = ""
		c.partial = false
	} else {
		c.lines = append(c.lines, text)
	}

	if max := c.prefs.MaxChannelHistory(); max > 0 && len(c.lines) > max {
		c.lines = append([]string(nil), c.lines[len(c.lines)-max:]...)
	}
	c.mu.Unlock()

	c.contentChanged.Emit(c)
}

// Clear empties the history and discards any in-progress line.
func (c *Channel) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.current = ""
	c.partial = false
	c.mu.Unlock()

	c.contentChanged.Emit(c)
}

// Lines returns a snapshot of completed lines, with any in-progress
// accumulator as the trailing element. The snapshot does not alias
// internal storage.
func (c *Channel) Lines() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.lines)
	if c.partial {
		n++
	}
	snapshot := make([]string, 0, n)
	snapshot = append(snapshot, c.lines...)
	if c.partial {
		snapshot = append(snapshot, c.current)
	}
	return snapshot
}

// Visible reports whether the channel is currently rendered.
func (c *Channel) Visible() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visible
}

// SetVisibility sets the visibility flag. Selection follow-up is the
// manager's concern.
func (c *Channel) SetVisibility(visible bool) {
	c.mu.Lock()
	c.visible = visible
	c.mu.Unlock()

	c.visibilityChanged.Emit(visible)
}

// Locked reports whether auto-scroll is suppressed for this channel.
func (c *Channel) Locked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locked
}

// ToggleLocked flips the scroll-lock flag.
func (c *Channel) ToggleLocked() {
	c.mu.Lock()
	c.locked = !c.locked
	locked := c.locked
	c.mu.Unlock()

	c.lockChanged.Emit(locked)
}

// OnContentChanged registers a listener for append/clear notifications.
func (c *Channel) OnContentChanged(fn func(*Channel)) *events.Subscription[*Channel] {
	return c.contentChanged.Subscribe(fn)
}

// OnVisibilityChanged registers a listener for visibility flips.
func (c *Channel) OnVisibilityChanged(fn func(bool)) *events.Subscription[bool] {
	return c.visibilityChanged.Subscribe(fn)
}

// OnLockChanged registers a listener for scroll-lock flips.
func (c *Channel) OnLockChanged(fn func(bool)) *events.Subscription[bool] {
	return c.lockChanged.Subscribe(fn)
}

// Dispose detaches all of the channel's listeners. Events fired afterwards
// are not delivered.
func (c *Channel) Dispose() {
	c.contentChanged.Dispose()
	c.visibilityChanged.Dispose()
	c.lockChanged.Dispose()
}
