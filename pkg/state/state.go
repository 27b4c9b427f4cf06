// Package state implements the operation state machine that serializes
// pointer-driven operations. Exactly one machine exists per docking manager;
// it is the single authoritative gate that keeps a tab drag, a window resize,
// and a layout rebuild from ever interleaving.
package state

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/panekit/panekit/pkg/logging"
)

// State is the current docking operation.
type State int

const (
	// Idle means no operation is in progress. The only state from which a
	// drag, resize, or rebuild may start.
	Idle State = iota
	// Rendering means the live widget tree is being rebuilt from the model.
	Rendering
	// DraggingWindow means a floating window is being moved by its title bar.
	DraggingWindow
	// ResizingWindow means a window edge is being dragged.
	ResizingWindow
	// DraggingTab means a tab is being dragged out of or across tab bars.
	DraggingTab
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case DraggingWindow:
		return "dragging_window"
	case ResizingWindow:
		return "resizing_window"
	case DraggingTab:
		return "dragging_tab"
	}
	return "unknown"
}

// Event requests a transition.
type Event int

const (
	// EventBeginRender starts a layout rebuild (Idle -> Rendering).
	EventBeginRender Event = iota
	// EventRenderDone completes a rebuild (Rendering -> Idle).
	EventRenderDone
	// EventBeginWindowDrag starts moving a window (Idle -> DraggingWindow).
	EventBeginWindowDrag
	// EventBeginResize starts resizing a window (Idle -> ResizingWindow).
	EventBeginResize
	// EventBeginTabDrag starts dragging a tab (Idle -> DraggingTab).
	EventBeginTabDrag
	// EventPointerUp ends the current interaction (dragging/resizing -> Idle).
	EventPointerUp
	// EventCancel aborts the current interaction (dragging/resizing -> Idle).
	EventCancel
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventBeginRender:
		return "begin_render"
	case EventRenderDone:
		return "render_done"
	case EventBeginWindowDrag:
		return "begin_window_drag"
	case EventBeginResize:
		return "begin_resize"
	case EventBeginTabDrag:
		return "begin_tab_drag"
	case EventPointerUp:
		return "pointer_up"
	case EventCancel:
		return "cancel"
	}
	return "unknown"
}

var (
	// ErrBusy is returned when an interaction is requested while another
	// operation is already in progress. The request is ignored.
	ErrBusy = errors.New("another operation is in progress")

	// ErrInvalidTransition is returned for a request that is never legal from
	// the current state. The request is a no-op.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Machine is the operation state machine. The zero value is not usable;
// create one with New and share it by reference.
type Machine struct {
	mu      sync.Mutex
	current State
	log     *logging.Logger
}

// New creates a machine in the Idle state.
func New(log *logging.Logger) *Machine {
	return &Machine{log: log.Named("state")}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsIdle reports whether no operation is in progress.
func (m *Machine) IsIdle() bool { return m.Current() == Idle }

// IsRendering reports whether a rebuild is in progress.
func (m *Machine) IsRendering() bool { return m.Current() == Rendering }

// IsUserInteracting reports whether a pointer-driven operation is active.
func (m *Machine) IsUserInteracting() bool {
	s := m.Current()
	return s == DraggingWindow || s == ResizingWindow || s == DraggingTab
}

// Request attempts a transition and returns the resulting state. Illegal
// requests leave the state unchanged: a begin-interaction event outside Idle
// fails with ErrBusy, everything else illegal with ErrInvalidTransition.
// Failures are logged, never coerced.
func (m *Machine) Request(ev Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.next(ev)
	if err != nil {
		m.log.Warn("transition rejected",
			zap.String("event", ev.String()),
			zap.String("state", m.current.String()),
			zap.Error(err))
		return m.current, err
	}

	if next != m.current {
		m.log.Debug("transition",
			zap.String("from", m.current.String()),
			zap.String("to", next.String()))
	}
	m.current = next
	return m.current, nil
}

// next computes the target state for ev, or an error. Caller holds mu.
func (m *Machine) next(ev Event) (State, error) {
	switch ev {
	case EventBeginRender:
		if m.current != Idle {
			return m.current, ErrBusy
		}
		return Rendering, nil

	case EventRenderDone:
		if m.current != Rendering {
			return m.current, ErrInvalidTransition
		}
		return Idle, nil

	case EventBeginWindowDrag, EventBeginResize, EventBeginTabDrag:
		if m.current != Idle {
			return m.current, ErrBusy
		}
		switch ev {
		case EventBeginWindowDrag:
			return DraggingWindow, nil
		case EventBeginResize:
			return ResizingWindow, nil
		default:
			return DraggingTab, nil
		}

	case EventPointerUp, EventCancel:
		if m.current != DraggingWindow && m.current != ResizingWindow && m.current != DraggingTab {
			return m.current, ErrInvalidTransition
		}
		return Idle, nil
	}
	return m.current, ErrInvalidTransition
}

// BeginRender acquires the Rendering state with release-on-exit semantics.
// The returned release func is idempotent and must be deferred by the caller
// so that a panic mid-rebuild still returns the machine to Idle; otherwise
// every subsequent drag would be rejected forever.
func (m *Machine) BeginRender() (release func(), err error) {
	if _, err := m.Request(EventBeginRender); err != nil {
		return nil, err
	}

	var once sync.Once
	release = func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			// Unconditional: even if something illegal happened in between,
			// a finished rebuild always lands on Idle.
			m.current = Idle
		})
	}
	return release, nil
}
