package layout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/id"
)

// RootKind classifies a top-level container.
type RootKind int

const (
	// MainArea is the application's primary dock area. Persistent: it
	// survives becoming empty.
	MainArea RootKind = iota
	// FloatingRoot is a secondary persistent dock area in its own window.
	FloatingRoot
	// FloatingWindow is an ordinary torn-out window. It closes automatically
	// when its last panel leaves.
	FloatingWindow
)

// String returns the kind name.
func (k RootKind) String() string {
	switch k {
	case MainArea:
		return "main"
	case FloatingRoot:
		return "floating_root"
	case FloatingWindow:
		return "floating"
	}
	return "unknown"
}

// Persistent reports whether a root of this kind survives becoming empty.
func (k RootKind) Persistent() bool { return k == MainArea || k == FloatingRoot }

// Root is one top-level container: the main dock area or a floating window.
type Root struct {
	ID       id.RootID
	Kind     RootKind
	Geometry geometry.Rect

	// Maximized tracks window state; NormalGeometry is the restore target
	// and only meaningful while Maximized.
	Maximized      bool
	NormalGeometry geometry.Rect

	// Node is the layout tree, or nil for an empty dock area.
	Node Node
}

// Empty reports whether the root holds no panels.
func (r *Root) Empty() bool {
	return r.Node == nil || len(CollectWidgets(r.Node)) == 0
}

// Model is the root registry: every floating window and the main dock area
// owns exactly one entry. Order models the window stacking order, last
// element frontmost.
type Model struct {
	roots map[id.RootID]*Root
	order []id.RootID
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{roots: make(map[id.RootID]*Root)}
}

// AddRoot registers a new top-level container and places it frontmost.
func (m *Model) AddRoot(kind RootKind, geom geometry.Rect) *Root {
	r := &Root{ID: id.NewRootID(), Kind: kind, Geometry: geom}
	m.roots[r.ID] = r
	m.order = append(m.order, r.ID)
	return r
}

// AdoptRoot inserts an already-built root, keeping its ID. Used when
// rebuilding a model from a saved layout.
func (m *Model) AdoptRoot(r *Root) {
	m.roots[r.ID] = r
	m.order = append(m.order, r.ID)
}

// RemoveRoot unregisters a container and its entire tree.
func (m *Model) RemoveRoot(rootID id.RootID) {
	delete(m.roots, rootID)
	for i, rid := range m.order {
		if rid == rootID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Root returns the container with the given ID.
func (m *Model) Root(rootID id.RootID) (*Root, bool) {
	r, ok := m.roots[rootID]
	return r, ok
}

// Roots returns all containers in stacking order, backmost first.
func (m *Model) Roots() []*Root {
	out := make([]*Root, 0, len(m.order))
	for _, rid := range m.order {
		out = append(out, m.roots[rid])
	}
	return out
}

// MainRoot returns the main dock area, if one exists.
func (m *Model) MainRoot() (*Root, bool) {
	for _, r := range m.roots {
		if r.Kind == MainArea {
			return r, true
		}
	}
	return nil, false
}

// BringToFront moves the container to the top of the stacking order.
func (m *Model) BringToFront(rootID id.RootID) {
	if _, ok := m.roots[rootID]; !ok {
		return
	}
	kept := m.order[:0]
	for _, rid := range m.order {
		if rid != rootID {
			kept = append(kept, rid)
		}
	}
	m.order = append(kept, rootID)
}

// Host bundles everything known about a widget's position in the model.
type Host struct {
	Widget *WidgetNode
	Group  *TabGroup
	// Parent is the splitter directly holding Group, nil when the group is
	// the root node.
	Parent *Splitter
	Root   *Root
	// Index is the widget's tab position inside Group.
	Index int
}

// FindHost locates the tab group hosting the given panel. The mapping is
// recomputed on each call; nothing in the tree stores back-pointers.
func (m *Model) FindHost(persistentID string) (Host, bool) {
	for _, rid := range m.order {
		root := m.roots[rid]
		if root.Node == nil {
			continue
		}
		if h, ok := findInNode(root.Node, nil, persistentID); ok {
			h.Root = root
			return h, true
		}
	}
	return Host{}, false
}

func findInNode(node Node, parent *Splitter, persistentID string) (Host, bool) {
	switch n := node.(type) {
	case *TabGroup:
		if i := n.indexOf(persistentID); i >= 0 {
			return Host{Widget: n.Children[i], Group: n, Parent: parent, Index: i}, true
		}
	case *Splitter:
		for _, c := range n.Children {
			if h, ok := findInNode(c, n, persistentID); ok {
				return h, true
			}
		}
	}
	return Host{}, false
}

// FindGroup locates a tab group by node ID along with its parent splitter
// and root.
func (m *Model) FindGroup(groupID uuid.UUID) (*TabGroup, *Splitter, *Root, bool) {
	for _, rid := range m.order {
		root := m.roots[rid]
		var (
			found  *TabGroup
			parent *Splitter
		)
		var search func(n Node, p *Splitter) bool
		search = func(n Node, p *Splitter) bool {
			switch t := n.(type) {
			case *TabGroup:
				if t.ID == groupID {
					found, parent = t, p
					return false
				}
			case *Splitter:
				for _, c := range t.Children {
					if !search(c, t) {
						return false
					}
				}
			}
			return true
		}
		if root.Node != nil {
			search(root.Node, nil)
		}
		if found != nil {
			return found, parent, root, true
		}
	}
	return nil, nil, nil, false
}

// FindWidget returns the panel's leaf node anywhere in the model.
func (m *Model) FindWidget(persistentID string) (*WidgetNode, bool) {
	h, ok := m.FindHost(persistentID)
	if !ok {
		return nil, false
	}
	return h.Widget, true
}

// Widgets returns every panel in the model in group order within roots,
// backmost root first.
func (m *Model) Widgets() []*WidgetNode {
	var out []*WidgetNode
	for _, rid := range m.order {
		if n := m.roots[rid].Node; n != nil {
			out = append(out, CollectWidgets(n)...)
		}
	}
	return out
}

// FloatingRoots returns all non-main containers in stacking order.
func (m *Model) FloatingRoots() []*Root {
	var out []*Root
	for _, rid := range m.order {
		if r := m.roots[rid]; r.Kind != MainArea {
			out = append(out, r)
		}
	}
	return out
}

// Clone deep-copies the model. Used to snapshot state before a mutation
// transaction.
func (m *Model) Clone() *Model {
	cp := NewModel()
	for _, rid := range m.order {
		r := m.roots[rid]
		rc := *r
		if r.Node != nil {
			rc.Node = r.Node.Clone()
		}
		cp.roots[rc.ID] = &rc
		cp.order = append(cp.order, rc.ID)
	}
	return cp
}

// restore overwrites m with the snapshot's contents, rolling back a failed
// transaction in place so callers' *Model references stay valid.
func (m *Model) restore(snap *Model) {
	m.roots = snap.roots
	m.order = snap.order
}

// Validate checks the structural invariants that must hold between
// operations: tab groups are non-empty, splitters have at least two children
// with matching normalized ratios, splitter children are never bare widgets,
// and every persistent ID appears exactly once across all roots.
func (m *Model) Validate() error {
	seen := make(map[string]id.RootID)
	for _, rid := range m.order {
		root := m.roots[rid]
		if root.Node == nil {
			continue
		}
		if err := validateNode(root.Node); err != nil {
			return fmt.Errorf("root %s: %w", rid, err)
		}
		for _, w := range CollectWidgets(root.Node) {
			if prev, dup := seen[w.PersistentID]; dup {
				return fmt.Errorf("%w: panel %q present in roots %s and %s",
					ErrInvariant, w.PersistentID, prev, rid)
			}
			seen[w.PersistentID] = rid
		}
	}
	return nil
}

func validateNode(node Node) error {
	switch n := node.(type) {
	case *WidgetNode:
		if n.PersistentID == "" {
			return fmt.Errorf("%w: widget with empty persistent ID", ErrInvariant)
		}
	case *TabGroup:
		if len(n.Children) == 0 {
			return fmt.Errorf("%w: empty tab group %s", ErrInvariant, n.ID)
		}
		for _, c := range n.Children {
			if err := validateNode(c); err != nil {
				return err
			}
		}
	case *Splitter:
		if len(n.Children) < 2 {
			return fmt.Errorf("%w: splitter %s with %d children", ErrInvariant, n.ID, len(n.Children))
		}
		if len(n.Ratios) != len(n.Children) {
			return fmt.Errorf("%w: splitter %s ratio/child mismatch", ErrInvariant, n.ID)
		}
		var sum float64
		for _, r := range n.Ratios {
			if r < 0 {
				return fmt.Errorf("%w: splitter %s negative ratio", ErrInvariant, n.ID)
			}
			sum += r
		}
		if sum < 0.999 || sum > 1.001 {
			return fmt.Errorf("%w: splitter %s ratios sum to %f", ErrInvariant, n.ID, sum)
		}
		for _, c := range n.Children {
			if _, bad := c.(*WidgetNode); bad {
				return fmt.Errorf("%w: splitter %s holds a bare widget", ErrInvariant, n.ID)
			}
			if err := validateNode(c); err != nil {
				return err
			}
		}
	}
	return nil
}
