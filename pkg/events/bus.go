// Package events delivers layout notifications to interested subscribers.
// Delivery is fire-and-continue: a slow or absent subscriber never blocks or
// fails the operation that published the event.
package events

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/panekit/panekit/pkg/id"
	"github.com/panekit/panekit/pkg/logging"
)

// Kind identifies an event type.
type Kind string

const (
	// PanelDocked fires after a panel lands in a container.
	PanelDocked Kind = "panel.docked"
	// PanelUndocked fires after a panel is torn out into its own window.
	PanelUndocked Kind = "panel.undocked"
	// PanelClosed fires after a panel is removed from the layout.
	PanelClosed Kind = "panel.closed"
	// PanelActivated fires when a panel becomes its group's active tab.
	PanelActivated Kind = "panel.activated"
	// WindowOpened fires when a new floating window appears.
	WindowOpened Kind = "window.opened"
	// WindowClosed fires when a floating window is destroyed.
	WindowClosed Kind = "window.closed"
	// WindowRaised fires when a window moves to the top of the stack.
	WindowRaised Kind = "window.raised"
	// LayoutChanged fires after any structural mutation, including restores.
	LayoutChanged Kind = "layout.changed"
	// LayoutRestored fires after a saved layout is applied.
	LayoutRestored Kind = "layout.restored"
)

// Event is one notification. PanelID and RootID are set when they apply.
type Event struct {
	Kind    Kind
	PanelID string
	RootID  id.RootID
}

type subscriber struct {
	ch    chan Event
	kinds map[Kind]bool
	// closeOnce guards the channel close: a subscriber may be shut down by
	// its own cancel func, by Bus.Close, or by both.
	closeOnce sync.Once
}

func (s *subscriber) wants(k Kind) bool {
	return len(s.kinds) == 0 || s.kinds[k]
}

func (s *subscriber) shutdown() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Bus fans events out to subscribers over buffered channels. Publishing
// never blocks: an event a subscriber cannot accept is dropped for that
// subscriber and counted.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]*subscriber
	nextID  int
	dropped atomic.Uint64
	log     *logging.Logger
}

// BufferSize is each subscriber's channel capacity.
const BufferSize = 64

// NewBus creates an event bus.
func NewBus(log *logging.Logger) *Bus {
	return &Bus{
		subs: make(map[int]*subscriber),
		log:  log.OrNop().Named("events"),
	}
}

// Subscribe registers interest in the given kinds (all kinds when none are
// named) and returns the delivery channel plus a cancel func. Cancel closes
// the channel.
func (b *Bus) Subscribe(kinds ...Kind) (<-chan Event, func()) {
	s := &subscriber{
		ch:    make(chan Event, BufferSize),
		kinds: make(map[Kind]bool, len(kinds)),
	}
	for _, k := range kinds {
		s.kinds[k] = true
	}

	b.mu.Lock()
	sid := b.nextID
	b.nextID++
	b.subs[sid] = s
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs, sid)
		b.mu.Unlock()
		s.shutdown()
	}
	return s.ch, cancel
}

// Publish delivers the event to every matching subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, s := range b.subs {
		if !s.wants(e.Kind) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
			b.log.Warn("subscriber buffer full, event dropped",
				zap.String("kind", string(e.Kind)),
				zap.String("panel_id", e.PanelID))
		}
	}
}

// Dropped reports how many events were discarded due to full buffers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close cancels all subscribers.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[int]*subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		s.shutdown()
	}
}
