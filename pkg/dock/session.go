package dock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panekit/panekit/pkg/events"
	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/hittest"
	"github.com/panekit/panekit/pkg/id"
	"github.com/panekit/panekit/pkg/layout"
	"github.com/panekit/panekit/pkg/state"
)

// ErrSessionDone is returned when a finished session is used again.
var ErrSessionDone = errors.New("session already finished")

// DragKind distinguishes what a session is moving.
type DragKind string

const (
	// DragTab moves a single panel out of its tab group.
	DragTab DragKind = "tab"
	// DragWindow moves a whole floating window's content.
	DragWindow DragKind = "window"
)

// Feedback is what a drag overlay needs to render at the current pointer
// position.
type Feedback struct {
	// Target is the entry under the pointer; zero value when Valid is false.
	Target hittest.Entry
	// Position is the dock position the current point would produce.
	Position layout.DockPosition
	// Valid reports whether dropping here docks anywhere at all.
	Valid bool
}

// DragSession is one in-flight drag. The target snapshot is taken at
// construction and never refreshed; Move and Drop resolve against it.
type DragSession struct {
	mgr     *Manager
	id      id.DragID
	kind    DragKind
	payload layout.Payload
	// originGroup lets a tab dropped back onto its own group's center
	// resolve to a no-op instead of a failed transaction.
	originGroup uuid.UUID
	sourceRoot  id.RootID
	cache       *hittest.Cache
	started     time.Time

	mu   sync.Mutex
	done bool
}

// BeginTabDrag starts dragging one panel by its tab. Fails with
// state.ErrBusy while another operation is in progress.
func (m *Manager) BeginTabDrag(persistentID string) (*DragSession, error) {
	if _, err := m.machine.Request(state.EventBeginTabDrag); err != nil {
		m.reject("tab_drag")
		return nil, fmt.Errorf("tab drag: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.model.FindHost(persistentID)
	if !ok {
		m.machine.Request(state.EventCancel)
		return nil, fmt.Errorf("%w: panel %q", layout.ErrNotFound, persistentID)
	}

	// A window holding nothing but the dragged panel will vanish on drop,
	// so it must not offer itself as a target.
	exclude := id.RootID("")
	if len(layout.CollectWidgets(h.Root.Node)) == 1 {
		exclude = h.Root.ID
	}

	s := &DragSession{
		mgr:         m,
		id:          id.NewDragID(),
		kind:        DragTab,
		payload:     layout.Payload{PersistentID: persistentID},
		originGroup: h.Group.ID,
		sourceRoot:  h.Root.ID,
		cache:       hittest.Build(m.model, m.view, exclude),
		started:     time.Now(),
	}

	m.log.Debug("tab drag started",
		zap.String("drag_id", string(s.id)),
		zap.String("panel_id", persistentID),
		zap.Int("targets", s.cache.Len()))
	if m.metrics != nil {
		m.metrics.RecordDragStart(string(DragTab), s.cache.Len())
	}
	return s, nil
}

// BeginWindowDrag starts dragging a whole floating window. Dropping it on a
// target merges all its panels there; releasing over nothing just moves the
// window.
func (m *Manager) BeginWindowDrag(rootID id.RootID) (*DragSession, error) {
	if _, err := m.machine.Request(state.EventBeginWindowDrag); err != nil {
		m.reject("window_drag")
		return nil, fmt.Errorf("window drag: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	root, ok := m.model.Root(rootID)
	if !ok || root.Kind == layout.MainArea {
		m.machine.Request(state.EventCancel)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownWindow, rootID)
		}
		return nil, fmt.Errorf("%w: the main area cannot be dragged", ErrUnknownWindow)
	}

	s := &DragSession{
		mgr:        m,
		id:         id.NewDragID(),
		kind:       DragWindow,
		payload:    layout.Payload{RootID: rootID},
		sourceRoot: rootID,
		cache:      hittest.Build(m.model, m.view, rootID),
		started:    time.Now(),
	}

	m.log.Debug("window drag started",
		zap.String("drag_id", string(s.id)),
		zap.String("root_id", string(rootID)),
		zap.Int("targets", s.cache.Len()))
	if m.metrics != nil {
		m.metrics.RecordDragStart(string(DragWindow), s.cache.Len())
	}
	return s, nil
}

// ID returns the session's drag ID.
func (s *DragSession) ID() id.DragID { return s.id }

// Kind returns what the session is moving.
func (s *DragSession) Kind() DragKind { return s.kind }

// Targets reports how many candidate targets the snapshot holds.
func (s *DragSession) Targets() int { return s.cache.Len() }

// Move resolves the pointer position against the snapshot, for overlay
// feedback. It never touches the model. A finished session fails with
// ErrSessionDone.
func (s *DragSession) Move(pt geometry.Point) (Feedback, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done {
		return Feedback{}, ErrSessionDone
	}

	e, ok := s.cache.Resolve(pt)
	if s.mgr.metrics != nil {
		result := "miss"
		if ok {
			result = "hit"
		}
		s.mgr.metrics.RecordHitTest(result)
	}
	if !ok {
		return Feedback{}, nil
	}
	_, pos, ok := s.cache.ResolveDrop(e, pt)
	if !ok {
		return Feedback{}, nil
	}
	return Feedback{Target: e, Position: pos, Valid: true}, nil
}

// Drop finishes the drag at the given pointer position. Over a target the
// payload is detached and re-inserted there in one transaction; over nothing
// a tab payload floats in a new window at the pointer and a window payload
// simply stays where it was released.
func (s *DragSession) Drop(pt geometry.Point) error {
	if err := s.finish(); err != nil {
		return err
	}
	m := s.mgr
	defer m.machine.Request(state.EventPointerUp)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, hit := s.cache.Resolve(pt)
	if !hit {
		return s.dropNowhere(pt)
	}
	target, pos, ok := s.cache.ResolveDrop(entry, pt)
	if !ok {
		return s.dropNowhere(pt)
	}

	// Dropping a tab back onto its own group's body changes nothing.
	if s.kind == DragTab && pos.Kind == layout.DockCenter && target.GroupID == s.originGroup {
		s.endDrag("noop")
		return nil
	}

	if err := m.model.ApplyDrop(s.payload, target, pos); err != nil {
		// A target that detached mid-transaction (dropping a tab on its own
		// group's edge empties the group) is not a failure: the transaction
		// rolled back, and the release degrades to a tear-out.
		if errors.Is(err, layout.ErrDetachedTarget) || errors.Is(err, layout.ErrMalformedDrop) {
			m.log.Debug("drop target vanished, tearing out",
				zap.String("drag_id", string(s.id)),
				zap.Error(err))
			return s.dropNowhere(pt)
		}
		m.recordMutation("drop", "error")
		s.endDrag("error")
		return err
	}

	m.afterPanelCountChange()
	m.recordMutation("drop", "ok")
	if m.metrics != nil {
		m.metrics.RecordDrop(pos.Kind.String())
	}
	s.endDrag("dock")
	m.bus.Publish(events.Event{Kind: events.PanelDocked, PanelID: s.payload.PersistentID, RootID: target.RootID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: target.RootID})
	return nil
}

// dropNowhere handles a release over empty space. Caller holds the lock.
func (s *DragSession) dropNowhere(pt geometry.Point) error {
	m := s.mgr

	if s.kind == DragWindow {
		// The window just lands where it was released.
		if root, ok := m.model.Root(s.sourceRoot); ok {
			root.Geometry = geometry.Rect{X: pt.X, Y: pt.Y, W: root.Geometry.W, H: root.Geometry.H}
			m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: root.ID})
		}
		s.endDrag("move")
		return nil
	}

	geom := geometry.Rect{X: pt.X, Y: pt.Y, W: defaultFloatW, H: defaultFloatH}
	root, err := m.model.Float(s.payload, geom)
	if err != nil {
		m.recordMutation("float", "error")
		s.endDrag("error")
		return err
	}

	m.afterPanelCountChange()
	m.recordMutation("float", "ok")
	s.endDrag("float")
	m.bus.Publish(events.Event{Kind: events.PanelUndocked, PanelID: s.payload.PersistentID, RootID: root.ID})
	m.bus.Publish(events.Event{Kind: events.WindowOpened, PanelID: s.payload.PersistentID, RootID: root.ID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: root.ID})
	return nil
}

// Cancel abandons the drag. The model was never touched, so there is
// nothing to undo.
func (s *DragSession) Cancel() error {
	if err := s.finish(); err != nil {
		return err
	}
	s.mgr.machine.Request(state.EventCancel)
	s.endDrag("cancel")
	s.mgr.log.Debug("drag cancelled", zap.String("drag_id", string(s.id)))
	return nil
}

func (s *DragSession) finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return ErrSessionDone
	}
	s.done = true
	return nil
}

func (s *DragSession) endDrag(outcome string) {
	if s.mgr.metrics != nil {
		s.mgr.metrics.RecordDragEnd(string(s.kind), outcome, time.Since(s.started))
	}
}

// ResizeSession tracks one interactive window resize.
type ResizeSession struct {
	mgr    *Manager
	rootID id.RootID
	// orig is the geometry at BeginResize, restored by Cancel.
	orig geometry.Rect

	mu   sync.Mutex
	done bool
}

// BeginResize starts an interactive resize of a window. Other operations
// are rejected as busy until End or Cancel.
func (m *Manager) BeginResize(rootID id.RootID) (*ResizeSession, error) {
	if _, err := m.machine.Request(state.EventBeginResize); err != nil {
		m.reject("resize")
		return nil, fmt.Errorf("resize: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	root, ok := m.model.Root(rootID)
	if !ok {
		m.machine.Request(state.EventCancel)
		return nil, fmt.Errorf("%w: %s", ErrUnknownWindow, rootID)
	}
	return &ResizeSession{mgr: m, rootID: rootID, orig: root.Geometry}, nil
}

// Update applies live geometry while the resize is in progress.
func (s *ResizeSession) Update(geom geometry.Rect) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done {
		return ErrSessionDone
	}

	s.mgr.mu.Lock()
	defer s.mgr.mu.Unlock()
	root, ok := s.mgr.model.Root(s.rootID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, s.rootID)
	}
	root.Geometry = geom
	return nil
}

// End finishes the resize and announces the final geometry.
func (s *ResizeSession) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return ErrSessionDone
	}
	s.done = true

	s.mgr.machine.Request(state.EventPointerUp)
	s.mgr.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: s.rootID})
	return nil
}

// Cancel abandons the resize, discarding the in-progress geometry and
// restoring what the window had at BeginResize.
func (s *ResizeSession) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return ErrSessionDone
	}
	s.done = true

	s.mgr.mu.Lock()
	if root, ok := s.mgr.model.Root(s.rootID); ok {
		root.Geometry = s.orig
	}
	s.mgr.mu.Unlock()

	s.mgr.machine.Request(state.EventCancel)
	return nil
}
