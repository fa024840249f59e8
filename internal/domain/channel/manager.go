package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/lucidide/backend/internal/events"
	"github.com/lucidide/backend/internal/logging"
)

// LockedChannelsKey is the persistence key for the scroll-locked channel list.
const LockedChannelsKey = "output.lockedChannels"

// Store persists small opaque blobs across sessions.
type Store interface {
	GetData(ctx context.Context, key string) ([]byte, error)
	SetData(ctx context.Context, key string, data []byte) error
}

// Manager owns the set of channels, the current selection, and the
// persisted scroll-lock state.
type Manager struct {
	mu         sync.RWMutex
	channels   map[string]*Channel
	order      []string // registry insertion order, used for selection fallback
	selected   *Channel
	toBeLocked map[string]struct{} // names restored from a prior session, applied lazily

	prefs Preferences
	store Store
	log   *logging.Logger

	added            *events.Emitter[*Channel]
	deleted          *events.Emitter[string]
	selectionChanged *events.Emitter[*Channel]
	listChanged      *events.Emitter[*Channel] // fires on add, delete, and selection change
	lockChanged      *events.Emitter[*Channel]
}

// NewManager creates a manager with no channels and no selection.
func NewManager(prefs Preferences, store Store, log *logging.Logger) *Manager {
	return &Manager{
		channels:         make(map[string]*Channel),
		toBeLocked:       make(map[string]struct{}),
		prefs:            prefs,
		store:            store,
		log:              log,
		added:            events.NewEmitter[*Channel](),
		deleted:          events.NewEmitter[string](),
		selectionChanged: events.NewEmitter[*Channel](),
		listChanged:      events.NewEmitter[*Channel](),
		lockChanged:      events.NewEmitter[*Channel](),
	}
}

// GetChannel returns the channel registered under name, creating and
// registering it on first use. Creation never happens twice for one name.
func (m *Manager) GetChannel(name string) *Channel {
	m.mu.Lock()
	if ch, ok := m.channels[name]; ok {
		m.mu.Unlock()
		return ch
	}

	ch := New(name, m.prefs)
	m.channels[name] = ch
	m.order = append(m.order, name)

	_, restoreLock := m.toBeLocked[name]
	if restoreLock {
		delete(m.toBeLocked, name)
	}
	autoSelect := m.selected == nil
	m.mu.Unlock()

	ch.OnVisibilityChanged(func(visible bool) {
		m.channelVisibilityChanged(ch, visible)
	})
	ch.OnLockChanged(func(bool) {
		m.lockChanged.Emit(ch)
	})

	// Restore the persisted lock state lazily, on first creation of the name.
	if restoreLock {
		ch.ToggleLocked()
	}

	// Creation is one logical change: the combined event fires once below,
	// even when the new channel takes the selection.
	if autoSelect {
		m.setSelected(ch)
	}

	m.added.Emit(ch)
	m.listChanged.Emit(ch)
	return ch
}

// DeleteChannel removes the channel registered under name and detaches its
// listeners. Unknown names are a logged no-op.
func (m *Manager) DeleteChannel(name string) {
	m.mu.Lock()
	ch, ok := m.channels[name]
	if !ok {
		m.mu.Unlock()
		m.log.Warn("could not delete output channel: unknown name", zap.String("channel", name))
		return
	}

	delete(m.channels, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	wasSelected := m.selected == ch
	m.mu.Unlock()

	ch.Dispose()
	m.deleted.Emit(name)
	m.listChanged.Emit(nil)

	if wasSelected {
		m.Select(m.firstVisible())
	}
}

// Find returns the channel registered under name, without creating one.
func (m *Manager) Find(name string) (*Channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ch, ok := m.channels[name]
	return ch, ok
}

// Channels returns all registered channels in insertion order.
func (m *Manager) Channels() []*Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chs := make([]*Channel, 0, len(m.order))
	for _, name := range m.order {
		chs = append(chs, m.channels[name])
	}
	return chs
}

// VisibleChannels returns registered channels whose visibility flag is set.
func (m *Manager) VisibleChannels() []*Channel {
	var visible []*Channel
	for _, ch := range m.Channels() {
		if ch.Visible() {
			visible = append(visible, ch)
		}
	}
	return visible
}

// Selected returns the currently selected channel, or nil.
func (m *Manager) Selected() *Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected
}

// Select makes ch the selected channel. Passing nil clears the selection.
func (m *Manager) Select(ch *Channel) {
	m.setSelected(ch)
	m.listChanged.Emit(ch)
}

// setSelected updates the selection and fires the discrete selection event.
func (m *Manager) setSelected(ch *Channel) {
	m.mu.Lock()
	m.selected = ch
	m.mu.Unlock()

	m.selectionChanged.Emit(ch)
}

// ToggleScrollLock toggles the lock flag of ch, defaulting to the current
// selection. With no target and no selection it is a logged no-op.
func (m *Manager) ToggleScrollLock(ch *Channel) {
	if ch == nil {
		ch = m.Selected()
	}
	if ch == nil {
		m.log.Warn("could not toggle scroll lock: no channel selected")
		return
	}
	ch.ToggleLocked()
}

// OnStart loads the list of channel names that were scroll-locked in a
// prior session. The lock flag is restored lazily, when the named channel
// is next created. A malformed blob reads as no locked channels.
func (m *Manager) OnStart(ctx context.Context) error {
	data, err := m.store.GetData(ctx, LockedChannelsKey)
	if err != nil || len(data) == 0 {
		return nil
	}

	var names []string
	if err := sonic.Unmarshal(data, &names); err != nil {
		m.log.Debug("discarding malformed locked-channel state", zap.Error(err))
		return nil
	}

	m.mu.Lock()
	for _, name := range names {
		m.toBeLocked[name] = struct{}{}
	}
	m.mu.Unlock()
	return nil
}

// OnStop persists the names of currently locked channels, overwriting any
// prior value.
func (m *Manager) OnStop(ctx context.Context) error {
	locked := []string{}
	for _, ch := range m.Channels() {
		if ch.Locked() {
			locked = append(locked, ch.Name())
		}
	}

	data, err := sonic.Marshal(locked)
	if err != nil {
		return fmt.Errorf("failed to encode locked-channel state: %w", err)
	}
	if err := m.store.SetData(ctx, LockedChannelsKey, data); err != nil {
		return fmt.Errorf("failed to persist locked-channel state: %w", err)
	}
	return nil
}

// OnChannelAdded registers a listener fired when a channel is first created.
func (m *Manager) OnChannelAdded(fn func(*Channel)) *events.Subscription[*Channel] {
	return m.added.Subscribe(fn)
}

// OnChannelDeleted registers a listener fired with the deleted channel's name.
func (m *Manager) OnChannelDeleted(fn func(string)) *events.Subscription[string] {
	return m.deleted.Subscribe(fn)
}

// OnSelectionChanged registers a listener fired with the new selection (nil
// when the selection clears).
func (m *Manager) OnSelectionChanged(fn func(*Channel)) *events.Subscription[*Channel] {
	return m.selectionChanged.Subscribe(fn)
}

// OnListOrSelectionChanged registers a listener fired whenever the channel
// list or the selection changes.
func (m *Manager) OnListOrSelectionChanged(fn func(*Channel)) *events.Subscription[*Channel] {
	return m.listChanged.Subscribe(fn)
}

// OnLockChanged registers a listener fired with the channel whose lock flag
// flipped.
func (m *Manager) OnLockChanged(fn func(*Channel)) *events.Subscription[*Channel] {
	return m.lockChanged.Subscribe(fn)
}

// Dispose releases all manager-level emitters and every channel's listeners.
func (m *Manager) Dispose() {
	for _, ch := range m.Channels() {
		ch.Dispose()
	}

	m.added.Dispose()
	m.deleted.Dispose()
	m.selectionChanged.Dispose()
	m.listChanged.Dispose()
	m.lockChanged.Dispose()
}

// channelVisibilityChanged keeps the selection consistent as channels are
// shown and hidden.
func (m *Manager) channelVisibilityChanged(ch *Channel, visible bool) {
	if visible {
		m.Select(ch)
		return
	}
	if m.Selected() == ch {
		m.Select(m.firstVisible())
	}
}

// firstVisible returns the first visible channel in insertion order, or nil.
func (m *Manager) firstVisible() *Channel {
	for _, ch := range m.Channels() {
		if ch.Visible() {
			return ch
		}
	}
	return nil
}
