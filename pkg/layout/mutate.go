package layout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/id"
)

// PositionKind is where a drop lands relative to its target.
type PositionKind int

const (
	DockLeft PositionKind = iota
	DockRight
	DockTop
	DockBottom
	// DockCenter merges into the target's tab group, or becomes the root of
	// an empty dock area.
	DockCenter
	// DockTabInsert places the payload at a specific tab index.
	DockTabInsert
)

// String returns the position name.
func (k PositionKind) String() string {
	switch k {
	case DockLeft:
		return "left"
	case DockRight:
		return "right"
	case DockTop:
		return "top"
	case DockBottom:
		return "bottom"
	case DockCenter:
		return "center"
	case DockTabInsert:
		return "tab_insert"
	}
	return "unknown"
}

// DockPosition is a resolved drop position. Index is only meaningful for
// DockTabInsert.
type DockPosition struct {
	Kind  PositionKind
	Index int
}

// TabInsertBefore returns the position for dropping into the gap left of
// tab i.
func TabInsertBefore(i int) DockPosition { return DockPosition{Kind: DockTabInsert, Index: i} }

// TabInsertAfter returns the position for dropping into the gap right of
// tab i.
func TabInsertAfter(i int) DockPosition { return DockPosition{Kind: DockTabInsert, Index: i + 1} }

// Edge reports whether the position splits the target rather than merging
// into it.
func (p DockPosition) Edge() bool {
	switch p.Kind {
	case DockLeft, DockRight, DockTop, DockBottom:
		return true
	}
	return false
}

// orientation returns the splitter axis implied by an edge position.
func (p DockPosition) orientation() Orientation {
	if p.Kind == DockTop || p.Kind == DockBottom {
		return Vertical
	}
	return Horizontal
}

// before reports whether the payload lands before the target along the axis.
func (p DockPosition) before() bool {
	return p.Kind == DockLeft || p.Kind == DockTop
}

// DropTarget names the container region a drop resolved to. A zero GroupID
// targets the root container itself.
type DropTarget struct {
	RootID  id.RootID
	GroupID uuid.UUID
}

// Payload identifies what a drag is moving: a single panel by persistent ID,
// a whole tab group by node ID, or a window's entire content by root ID.
type Payload struct {
	PersistentID string
	GroupID      uuid.UUID
	RootID       id.RootID
}

// ApplyDrop detaches the payload from its origin and inserts it at the
// resolved target. The whole operation is one transaction: on any error the
// model is restored to its pre-call state and the error returned.
func (m *Model) ApplyDrop(p Payload, target DropTarget, pos DockPosition) error {
	snap := m.Clone()
	pos = m.adjustTabIndex(p, target, pos)

	moving, err := m.detachPayload(p)
	if err == nil {
		err = m.insert(moving, target, pos)
	}
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// Float detaches the payload and gives it a new floating window of its own.
// Used for tear-outs and for drops that resolved to no target.
func (m *Model) Float(p Payload, geom geometry.Rect) (*Root, error) {
	snap := m.Clone()

	moving, err := m.detachPayload(p)
	if err != nil {
		m.restore(snap)
		return nil, err
	}

	root := m.AddRoot(FloatingWindow, geom)
	root.Node = asBranch(moving)

	if err := m.Validate(); err != nil {
		m.restore(snap)
		return nil, err
	}
	return root, nil
}

// CloseWidget removes the panel from the model entirely, simplifying its
// origin. The caller owns notifying listeners and releasing live content.
func (m *Model) CloseWidget(persistentID string) error {
	snap := m.Clone()
	if _, err := m.detachPayload(Payload{PersistentID: persistentID}); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// SetRatios records new size ratios on a splitter after a resize. Values are
// normalized; a length mismatch is rejected.
func (m *Model) SetRatios(splitterID uuid.UUID, ratios []float64) error {
	for _, rid := range m.order {
		root := m.roots[rid]
		if root.Node == nil {
			continue
		}
		var target *Splitter
		Walk(root.Node, func(n Node) bool {
			if s, ok := n.(*Splitter); ok && s.ID == splitterID {
				target = s
				return false
			}
			return true
		})
		if target == nil {
			continue
		}
		if len(ratios) != len(target.Children) {
			return fmt.Errorf("%w: %d ratios for %d children", ErrMalformedDrop, len(ratios), len(target.Children))
		}
		target.Ratios = append([]float64(nil), ratios...)
		target.normalizeRatios()
		return nil
	}
	return ErrNotFound
}

// adjustTabIndex compensates a tab-insert index for a widget moving within
// its own group: the gap indices were resolved against the pre-detach tab
// order, and detaching shifts every tab right of the widget one slot left.
func (m *Model) adjustTabIndex(p Payload, target DropTarget, pos DockPosition) DockPosition {
	if pos.Kind != DockTabInsert || p.PersistentID == "" {
		return pos
	}
	h, ok := m.FindHost(p.PersistentID)
	if !ok {
		return pos
	}

	groupID := target.GroupID
	if groupID == uuid.Nil {
		// Container-level tab inserts land in the container's first group.
		root, ok := m.roots[target.RootID]
		if !ok || root.Node == nil {
			return pos
		}
		if g := firstTabGroup(root.Node); g != nil {
			groupID = g.ID
		}
	}

	if h.Group.ID == groupID && h.Index < pos.Index {
		pos.Index--
	}
	return pos
}

// detachPayload removes the payload subtree from wherever it lives and
// simplifies the origin root. Callers run inside a transaction.
func (m *Model) detachPayload(p Payload) (Node, error) {
	switch {
	case p.RootID != "":
		return m.detachRoot(p.RootID)
	case p.GroupID != uuid.Nil:
		return m.detachGroup(p.GroupID)
	}
	return m.detachWidget(p.PersistentID)
}

func (m *Model) detachRoot(rootID id.RootID) (Node, error) {
	root, ok := m.roots[rootID]
	if !ok {
		return nil, fmt.Errorf("%w: root %s", ErrNotFound, rootID)
	}
	if root.Node == nil {
		return nil, fmt.Errorf("%w: root %s is empty", ErrNotFound, rootID)
	}
	node := root.Node
	root.Node = nil
	if !root.Kind.Persistent() {
		m.RemoveRoot(rootID)
	}
	return node, nil
}

func (m *Model) detachWidget(persistentID string) (Node, error) {
	h, ok := m.FindHost(persistentID)
	if !ok {
		return nil, fmt.Errorf("%w: panel %q", ErrNotFound, persistentID)
	}

	g := h.Group
	g.Children = append(g.Children[:h.Index], g.Children[h.Index+1:]...)
	switch {
	case h.Index < g.Active:
		g.Active--
	case g.Active >= len(g.Children):
		g.Active = len(g.Children) - 1
	}
	if g.Active < 0 {
		g.Active = 0
	}

	m.simplifyRoot(h.Root)
	return h.Widget, nil
}

func (m *Model) detachGroup(groupID uuid.UUID) (Node, error) {
	group, parent, root, ok := m.FindGroup(groupID)
	if !ok {
		return nil, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
	}

	if parent == nil {
		root.Node = nil
	} else {
		for i, c := range parent.Children {
			if c == Node(group) {
				parent.removeChildAt(i)
				break
			}
		}
	}
	m.simplifyRoot(root)
	return group, nil
}

// insert places the moving subtree at the target per the resolved position.
func (m *Model) insert(moving Node, target DropTarget, pos DockPosition) error {
	root, ok := m.roots[target.RootID]
	if !ok {
		return fmt.Errorf("%w: root %s", ErrDetachedTarget, target.RootID)
	}

	// Whole-container target.
	if target.GroupID == uuid.Nil {
		return m.insertAtRoot(root, moving, pos)
	}

	group, parent, groupRoot, ok := m.FindGroup(target.GroupID)
	if !ok || groupRoot != root {
		return fmt.Errorf("%w: group %s", ErrDetachedTarget, target.GroupID)
	}

	switch {
	case pos.Kind == DockCenter:
		mergeIntoGroup(group, moving, len(group.Children))
		return nil

	case pos.Kind == DockTabInsert:
		if pos.Index < 0 || pos.Index > len(group.Children) {
			return fmt.Errorf("%w: tab index %d of %d", ErrMalformedDrop, pos.Index, len(group.Children))
		}
		mergeIntoGroup(group, moving, pos.Index)
		return nil

	case pos.Edge():
		m.splitAround(root, parent, group, moving, pos)
		return nil
	}
	return fmt.Errorf("%w: position %s", ErrMalformedDrop, pos.Kind)
}

// insertAtRoot handles drops on a container rather than a specific group.
func (m *Model) insertAtRoot(root *Root, moving Node, pos DockPosition) error {
	// An empty dock area adopts the payload as its root regardless of the
	// requested position.
	if root.Node == nil {
		root.Node = asBranch(moving)
		return nil
	}

	if pos.Kind == DockCenter || pos.Kind == DockTabInsert {
		// Center on a populated container merges into its first tab group.
		group := firstTabGroup(root.Node)
		if group == nil {
			return fmt.Errorf("%w: container %s has no tab group", ErrMalformedDrop, root.ID)
		}
		at := len(group.Children)
		if pos.Kind == DockTabInsert {
			if pos.Index < 0 || pos.Index > len(group.Children) {
				return fmt.Errorf("%w: tab index %d of %d", ErrMalformedDrop, pos.Index, len(group.Children))
			}
			at = pos.Index
		}
		mergeIntoGroup(group, moving, at)
		return nil
	}

	if !pos.Edge() {
		return fmt.Errorf("%w: position %s", ErrMalformedDrop, pos.Kind)
	}

	branch := asBranch(moving)
	orient := pos.orientation()

	// Insert into the existing root splitter when the orientation already
	// matches, instead of nesting a new one.
	if s, ok := root.Node.(*Splitter); ok && s.Orientation == orient {
		if pos.before() {
			s.insertChildAt(0, branch)
		} else {
			s.insertChildAt(len(s.Children), branch)
		}
		return nil
	}

	if pos.before() {
		root.Node = NewSplitter(orient, branch, root.Node)
	} else {
		root.Node = NewSplitter(orient, root.Node, branch)
	}
	return nil
}

// splitAround inserts the payload beside a tab group, reusing the parent
// splitter when its orientation matches and wrapping otherwise.
func (m *Model) splitAround(root *Root, parent *Splitter, group *TabGroup, moving Node, pos DockPosition) {
	branch := asBranch(moving)
	orient := pos.orientation()

	if parent != nil && parent.Orientation == orient {
		idx := 0
		for i, c := range parent.Children {
			if c == Node(group) {
				idx = i
				break
			}
		}
		if pos.before() {
			parent.insertChildAt(idx, branch)
		} else {
			parent.insertChildAt(idx+1, branch)
		}
		return
	}

	var wrapped *Splitter
	if pos.before() {
		wrapped = NewSplitter(orient, branch, group)
	} else {
		wrapped = NewSplitter(orient, group, branch)
	}

	if parent == nil {
		root.Node = wrapped
		return
	}
	for i, c := range parent.Children {
		if c == Node(group) {
			parent.Children[i] = wrapped
			return
		}
	}
}

// mergeIntoGroup flattens the payload into individual widgets and inserts
// them at the given index, activating the first of them.
func mergeIntoGroup(group *TabGroup, moving Node, at int) {
	widgets := CollectWidgets(moving)
	if len(widgets) == 0 {
		return
	}
	tail := append([]*WidgetNode(nil), group.Children[at:]...)
	group.Children = append(group.Children[:at], widgets...)
	group.Children = append(group.Children, tail...)
	group.Active = at
}

// firstTabGroup returns the first tab group under node in visual order.
func firstTabGroup(node Node) *TabGroup {
	var found *TabGroup
	Walk(node, func(n Node) bool {
		if g, ok := n.(*TabGroup); ok {
			found = g
			return false
		}
		return true
	})
	return found
}

// simplifyRoot restores the collapse invariants after a removal: empty tab
// groups are dropped, single-child splitters replaced by their child, and an
// emptied non-persistent root is closed.
func (m *Model) simplifyRoot(root *Root) {
	root.Node = simplifyNode(root.Node)

	if root.Node == nil && !root.Kind.Persistent() {
		m.RemoveRoot(root.ID)
	}
}

func simplifyNode(node Node) Node {
	switch n := node.(type) {
	case nil:
		return nil
	case *WidgetNode:
		return n
	case *TabGroup:
		if len(n.Children) == 0 {
			return nil
		}
		return n
	case *Splitter:
		kept := make([]Node, 0, len(n.Children))
		ratios := make([]float64, 0, len(n.Ratios))
		for i, c := range n.Children {
			sc := simplifyNode(c)
			if sc == nil {
				continue
			}
			kept = append(kept, sc)
			if i < len(n.Ratios) {
				ratios = append(ratios, n.Ratios[i])
			}
		}
		n.Children = kept
		n.Ratios = ratios
		n.normalizeRatios()

		switch len(n.Children) {
		case 0:
			return nil
		case 1:
			return n.Children[0]
		}
		return n
	}
	return node
}
