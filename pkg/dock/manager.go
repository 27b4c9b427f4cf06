// Package dock coordinates the docking subsystems: the operation state
// machine, the layout tree, hit testing, the panel registry, persistence,
// and notifications. A Manager is the single entry point an embedding shell
// talks to.
package dock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/panekit/panekit/pkg/events"
	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/hittest"
	"github.com/panekit/panekit/pkg/id"
	"github.com/panekit/panekit/pkg/layout"
	"github.com/panekit/panekit/pkg/logging"
	"github.com/panekit/panekit/pkg/monitoring"
	"github.com/panekit/panekit/pkg/registry"
	"github.com/panekit/panekit/pkg/serialize"
	"github.com/panekit/panekit/pkg/state"
)

var (
	// ErrPanelExists is returned when opening a panel whose persistent ID is
	// already in the layout.
	ErrPanelExists = errors.New("panel already open")
	// ErrUnknownWindow is returned for operations on a root that is not
	// registered.
	ErrUnknownWindow = errors.New("unknown window")
	// ErrMainAreaExists is returned when a second main area is requested.
	ErrMainAreaExists = errors.New("main area already exists")
)

// Cascade placement for new floating windows.
const (
	cascadeBaseX = 120
	cascadeBaseY = 120
	cascadeStep  = 32

	defaultFloatW = 480
	defaultFloatH = 360
)

// Manager owns the layout model and serializes all access to it. Every
// mutation runs to completion under the internal lock; concurrent callers
// observe either the old or the new layout, never a partial one.
type Manager struct {
	mu       sync.Mutex
	machine  *state.Machine
	model    *layout.Model
	registry *registry.Registry
	bus      *events.Bus
	view     hittest.ViewProvider
	log      *logging.Logger
	metrics  *monitoring.Metrics

	// focusBusy suppresses activation feedback loops: a raise triggered by
	// an activation must not re-enter activation.
	focusBusy bool
}

// NewManager creates a manager with an empty layout.
func NewManager(reg *registry.Registry, log *logging.Logger) *Manager {
	log = log.OrNop()
	return &Manager{
		machine:  state.New(log),
		model:    layout.NewModel(),
		registry: reg,
		bus:      events.NewBus(log),
		view:     hittest.ModelView{},
		log:      log.Named("dock"),
	}
}

// WithMetrics attaches a metrics collector.
func (m *Manager) WithMetrics(mx *monitoring.Metrics) *Manager {
	m.metrics = mx
	return m
}

// WithView substitutes the geometry source used for hit testing. Embedding
// UIs pass their real widget geometry here.
func (m *Manager) WithView(v hittest.ViewProvider) *Manager {
	m.view = v
	return m
}

// Events returns the notification bus.
func (m *Manager) Events() *events.Bus { return m.bus }

// Registry returns the panel factory registry.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// State returns the current operation state.
func (m *Manager) State() state.State { return m.machine.Current() }

// Snapshot returns a deep copy of the current layout for inspection.
func (m *Manager) Snapshot() *layout.Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model.Clone()
}

// CreateMainArea registers the persistent main dock area. At most one may
// exist.
func (m *Manager) CreateMainArea(geom geometry.Rect) (id.RootID, error) {
	if err := m.gate("create_main_area"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.model.MainRoot(); ok {
		return "", ErrMainAreaExists
	}
	root := m.model.AddRoot(layout.MainArea, geom)
	m.log.Info("main area created", zap.String("root_id", string(root.ID)))
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: root.ID})
	return root.ID, nil
}

// OpenPanel adds a new panel in its own floating window, cascade-placed
// relative to earlier windows.
func (m *Manager) OpenPanel(persistentID, title string, content any) (id.RootID, error) {
	if err := m.gate("open_panel"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.model.FindHost(persistentID); ok {
		return "", fmt.Errorf("%w: %q", ErrPanelExists, persistentID)
	}

	root := m.model.AddRoot(layout.FloatingWindow, m.cascadeRect())
	root.Node = layout.NewTabGroup(layout.NewWidgetNode(persistentID, title, content))

	m.log.Info("panel opened",
		zap.String("panel_id", persistentID),
		zap.String("root_id", string(root.ID)))
	m.afterPanelCountChange()
	if m.metrics != nil {
		m.metrics.IncPanelsTotal()
	}
	m.bus.Publish(events.Event{Kind: events.WindowOpened, PanelID: persistentID, RootID: root.ID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: root.ID})
	return root.ID, nil
}

// DockPanel adds a new panel directly at a dock position.
func (m *Manager) DockPanel(persistentID, title string, content any, target layout.DropTarget, pos layout.DockPosition) error {
	if err := m.gate("dock_panel"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.model.FindHost(persistentID); ok {
		return fmt.Errorf("%w: %q", ErrPanelExists, persistentID)
	}

	// Stage the panel in a throwaway window, then move it with the regular
	// transactional drop. The staging window empties and closes itself.
	staging := m.model.AddRoot(layout.FloatingWindow, m.cascadeRect())
	staging.Node = layout.NewTabGroup(layout.NewWidgetNode(persistentID, title, content))

	if err := m.model.ApplyDrop(layout.Payload{PersistentID: persistentID}, target, pos); err != nil {
		m.model.RemoveRoot(staging.ID)
		m.recordMutation("dock", "error")
		return err
	}

	m.log.Info("panel docked",
		zap.String("panel_id", persistentID),
		zap.String("root_id", string(target.RootID)))
	m.afterPanelCountChange()
	if m.metrics != nil {
		m.metrics.IncPanelsTotal()
	}
	m.recordMutation("dock", "ok")
	m.bus.Publish(events.Event{Kind: events.PanelDocked, PanelID: persistentID, RootID: target.RootID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: target.RootID})
	return nil
}

// MovePanel re-docks an existing panel at a new position.
func (m *Manager) MovePanel(persistentID string, target layout.DropTarget, pos layout.DockPosition) error {
	if err := m.gate("move_panel"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.model.ApplyDrop(layout.Payload{PersistentID: persistentID}, target, pos); err != nil {
		m.recordMutation("move", "error")
		return err
	}

	m.afterPanelCountChange()
	m.recordMutation("move", "ok")
	m.bus.Publish(events.Event{Kind: events.PanelDocked, PanelID: persistentID, RootID: target.RootID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: target.RootID})
	return nil
}

// FloatPanel tears a docked panel out into its own window at geom.
func (m *Manager) FloatPanel(persistentID string, geom geometry.Rect) (id.RootID, error) {
	if err := m.gate("float_panel"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	root, err := m.model.Float(layout.Payload{PersistentID: persistentID}, geom)
	if err != nil {
		m.recordMutation("float", "error")
		return "", err
	}

	m.afterPanelCountChange()
	m.recordMutation("float", "ok")
	m.bus.Publish(events.Event{Kind: events.PanelUndocked, PanelID: persistentID, RootID: root.ID})
	m.bus.Publish(events.Event{Kind: events.WindowOpened, PanelID: persistentID, RootID: root.ID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: root.ID})
	return root.ID, nil
}

// FloatGroup tears a whole tab group out into its own window at geom, tabs
// and active selection intact.
func (m *Manager) FloatGroup(groupID uuid.UUID, geom geometry.Rect) (id.RootID, error) {
	if err := m.gate("float_group"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	root, err := m.model.Float(layout.Payload{GroupID: groupID}, geom)
	if err != nil {
		m.recordMutation("float_group", "error")
		return "", err
	}

	m.afterPanelCountChange()
	m.recordMutation("float_group", "ok")
	for _, w := range layout.CollectWidgets(root.Node) {
		m.bus.Publish(events.Event{Kind: events.PanelUndocked, PanelID: w.PersistentID, RootID: root.ID})
	}
	m.bus.Publish(events.Event{Kind: events.WindowOpened, RootID: root.ID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: root.ID})
	return root.ID, nil
}

// ClosePanel removes a panel from the layout.
func (m *Manager) ClosePanel(persistentID string) error {
	if err := m.gate("close_panel"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.model.CloseWidget(persistentID); err != nil {
		return err
	}

	m.log.Info("panel closed", zap.String("panel_id", persistentID))
	m.afterPanelCountChange()
	if m.metrics != nil {
		m.metrics.IncPanelsClosed()
	}
	m.recordMutation("close", "ok")
	m.bus.Publish(events.Event{Kind: events.PanelClosed, PanelID: persistentID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged})
	return nil
}

// CloseWindow closes a floating window and every panel in it. The main area
// cannot be closed.
func (m *Manager) CloseWindow(rootID id.RootID) error {
	if err := m.gate("close_window"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	root, ok := m.model.Root(rootID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, rootID)
	}
	if root.Kind == layout.MainArea {
		return fmt.Errorf("%w: cannot close the main area", ErrUnknownWindow)
	}

	var closed []string
	if root.Node != nil {
		for _, w := range layout.CollectWidgets(root.Node) {
			closed = append(closed, w.PersistentID)
		}
	}
	m.model.RemoveRoot(rootID)

	m.log.Info("window closed",
		zap.String("root_id", string(rootID)),
		zap.Int("panels", len(closed)))
	m.afterPanelCountChange()
	for _, pid := range closed {
		if m.metrics != nil {
			m.metrics.IncPanelsClosed()
		}
		m.bus.Publish(events.Event{Kind: events.PanelClosed, PanelID: pid, RootID: rootID})
	}
	m.bus.Publish(events.Event{Kind: events.WindowClosed, RootID: rootID})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged})
	return nil
}

// ActivatePanel makes the panel its group's active tab and raises its
// window. During an interaction, and while an earlier activation is still in
// flight, the call is a no-op.
func (m *Manager) ActivatePanel(persistentID string) error {
	if !m.machine.IsIdle() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.focusBusy {
		return nil
	}
	m.focusBusy = true
	defer func() { m.focusBusy = false }()

	h, ok := m.model.FindHost(persistentID)
	if !ok {
		return fmt.Errorf("%w: panel %q", layout.ErrNotFound, persistentID)
	}
	h.Group.Active = h.Index
	m.model.BringToFront(h.Root.ID)

	m.bus.Publish(events.Event{Kind: events.PanelActivated, PanelID: persistentID, RootID: h.Root.ID})
	m.bus.Publish(events.Event{Kind: events.WindowRaised, RootID: h.Root.ID})
	return nil
}

// RaiseWindow moves a window to the top of the stack.
func (m *Manager) RaiseWindow(rootID id.RootID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.model.Root(rootID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, rootID)
	}
	m.model.BringToFront(rootID)
	m.bus.Publish(events.Event{Kind: events.WindowRaised, RootID: rootID})
	return nil
}

// MaximizeWindow expands a window, remembering its normal geometry for
// RestoreWindow.
func (m *Manager) MaximizeWindow(rootID id.RootID, screen geometry.Rect) error {
	if err := m.gate("maximize_window"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	root, ok := m.model.Root(rootID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, rootID)
	}
	if root.Maximized {
		return nil
	}
	root.NormalGeometry = root.Geometry
	root.Geometry = screen
	root.Maximized = true
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: rootID})
	return nil
}

// RestoreWindow returns a maximized window to its remembered geometry.
func (m *Manager) RestoreWindow(rootID id.RootID) error {
	if err := m.gate("restore_window"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	root, ok := m.model.Root(rootID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, rootID)
	}
	if !root.Maximized {
		return nil
	}
	root.Geometry = root.NormalGeometry
	root.Maximized = false
	m.bus.Publish(events.Event{Kind: events.LayoutChanged, RootID: rootID})
	return nil
}

// SetSplitterRatios records new pane proportions after a divider move.
func (m *Manager) SetSplitterRatios(splitterID uuid.UUID, ratios []float64) error {
	if err := m.gate("set_ratios"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.model.SetRatios(splitterID, ratios); err != nil {
		return err
	}
	m.bus.Publish(events.Event{Kind: events.LayoutChanged})
	return nil
}

// Save serializes the current layout. The layout is frozen for the duration:
// interactions beginning mid-save are rejected as busy.
func (m *Manager) Save() ([]byte, error) {
	release, err := m.machine.BeginRender()
	if err != nil {
		m.reject("save")
		return nil, fmt.Errorf("save: %w", err)
	}
	defer release()

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := serialize.NewEncoder(m.log).Encode(m.model)
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.IncLayoutsSaved()
	}
	m.log.Info("layout saved", zap.Int("bytes", len(data)))
	return data, nil
}

// Restore replaces the entire layout with a previously saved one. Panels
// whose factory is missing are skipped and returned as warnings; the current
// layout is only replaced when decoding succeeds.
func (m *Manager) Restore(data []byte) ([]serialize.Warning, error) {
	release, err := m.machine.BeginRender()
	if err != nil {
		m.reject("restore")
		return nil, fmt.Errorf("restore: %w", err)
	}
	defer release()

	m.mu.Lock()
	defer m.mu.Unlock()

	model, warnings, err := serialize.NewDecoder(m.registry, m.log).Decode(data)
	if err != nil {
		return nil, err
	}
	m.model = model

	m.afterPanelCountChange()
	if m.metrics != nil {
		m.metrics.IncLayoutsRestored()
		m.metrics.AddRestoreWarnings(len(warnings))
	}
	m.log.Info("layout restored",
		zap.Int("roots", len(model.Roots())),
		zap.Int("warnings", len(warnings)))
	m.bus.Publish(events.Event{Kind: events.LayoutRestored})
	m.bus.Publish(events.Event{Kind: events.LayoutChanged})
	return warnings, nil
}

// gate rejects the operation unless the machine is idle.
func (m *Manager) gate(op string) error {
	if s := m.machine.Current(); s != state.Idle {
		m.reject(op)
		return fmt.Errorf("%s: %w (state %s)", op, state.ErrBusy, s)
	}
	return nil
}

func (m *Manager) reject(op string) {
	if m.metrics != nil {
		m.metrics.RecordReject(op)
	}
}

func (m *Manager) recordMutation(op, status string) {
	if m.metrics != nil {
		m.metrics.RecordMutation(op, status)
	}
}

// afterPanelCountChange refreshes the panel and window gauges. Caller holds
// the lock.
func (m *Manager) afterPanelCountChange() {
	if m.metrics == nil {
		return
	}
	m.metrics.SetPanelsOpen(len(m.model.Widgets()))
	m.metrics.SetWindowsFloating(len(m.model.FloatingRoots()))
}

// cascadeRect places a new floating window offset from the previous ones.
// Caller holds the lock.
func (m *Manager) cascadeRect() geometry.Rect {
	n := len(m.model.FloatingRoots())
	return geometry.Rect{
		X: cascadeBaseX + n*cascadeStep,
		Y: cascadeBaseY + n*cascadeStep,
		W: defaultFloatW,
		H: defaultFloatH,
	}
}
