// Package layout holds the tree model describing panel arrangement and the
// mutation engine that moves panels between containers. The model is the
// single source of truth: the live widget tree is a projection kept in sync
// by whoever owns the model, never the reverse.
package layout

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a persistent ID or node ID does not exist
	// anywhere in the model.
	ErrNotFound = errors.New("node not found in layout model")

	// ErrDetachedTarget is returned when a drop targets a node that is no
	// longer attached to any root. The drop is expected to be treated as a
	// tear-out by the caller.
	ErrDetachedTarget = errors.New("drop target is no longer attached")

	// ErrMalformedDrop is returned for a drop that cannot be expressed, such
	// as an out-of-range tab insertion index.
	ErrMalformedDrop = errors.New("malformed drop")

	// ErrInvariant is returned when a mutation would leave the tree violating
	// a structural invariant. The mutation is rolled back.
	ErrInvariant = errors.New("layout invariant violation")
)

// Orientation is a splitter's axis.
type Orientation int

const (
	// Horizontal splitters arrange children left-to-right.
	Horizontal Orientation = iota
	// Vertical splitters arrange children top-to-bottom.
	Vertical
)

// String returns the orientation name.
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Node is one vertex of a layout tree. Exactly three implementations exist:
// WidgetNode (leaf), TabGroup (ordered widgets), and Splitter (ordered
// subtrees with size ratios).
type Node interface {
	// NodeID returns the node's runtime identity. Not persisted.
	NodeID() uuid.UUID
	// Clone returns a deep copy. Widget content references are shared, the
	// tree structure is not.
	Clone() Node

	isNode()
}

// WidgetNode is a leaf: one dockable panel.
type WidgetNode struct {
	ID           uuid.UUID
	PersistentID string
	Title        string

	// Content is the transient live instance produced by the panel factory.
	// Never serialized; nil in headless use.
	Content any
}

// NewWidgetNode creates a leaf for the given panel.
func NewWidgetNode(persistentID, title string, content any) *WidgetNode {
	return &WidgetNode{
		ID:           uuid.New(),
		PersistentID: persistentID,
		Title:        title,
		Content:      content,
	}
}

func (w *WidgetNode) NodeID() uuid.UUID { return w.ID }
func (w *WidgetNode) isNode()           {}

// Clone copies the leaf. The clone keeps the node ID so cached references
// (hit-test entries, drag sessions) stay resolvable across a rollback.
func (w *WidgetNode) Clone() Node {
	cp := *w
	return &cp
}

// TabGroup is an ordered sequence of widgets sharing one tab bar. A group
// observable between operations always has at least one child; groups
// emptied mid-mutation are deleted by simplification before control returns.
type TabGroup struct {
	ID       uuid.UUID
	Children []*WidgetNode
	// Active is the index of the selected tab.
	Active int
}

// NewTabGroup creates a group holding the given widgets.
func NewTabGroup(widgets ...*WidgetNode) *TabGroup {
	return &TabGroup{
		ID:       uuid.New(),
		Children: widgets,
	}
}

func (g *TabGroup) NodeID() uuid.UUID { return g.ID }
func (g *TabGroup) isNode()           {}

func (g *TabGroup) Clone() Node {
	cp := &TabGroup{ID: g.ID, Active: g.Active}
	cp.Children = make([]*WidgetNode, len(g.Children))
	for i, c := range g.Children {
		cp.Children[i] = c.Clone().(*WidgetNode)
	}
	return cp
}

// ActiveWidget returns the selected tab's widget, or nil for an empty group.
func (g *TabGroup) ActiveWidget() *WidgetNode {
	if len(g.Children) == 0 {
		return nil
	}
	if g.Active < 0 || g.Active >= len(g.Children) {
		return g.Children[0]
	}
	return g.Children[g.Active]
}

// indexOf returns the position of the widget with the given persistent ID,
// or -1.
func (g *TabGroup) indexOf(persistentID string) int {
	for i, c := range g.Children {
		if c.PersistentID == persistentID {
			return i
		}
	}
	return -1
}

// Splitter arranges two or more subtrees along one axis. Ratios is parallel
// to Children and sums to 1.0. A splitter reduced to one child is replaced
// by that child during simplification.
type Splitter struct {
	ID          uuid.UUID
	Orientation Orientation
	Children    []Node // TabGroup or nested Splitter, never WidgetNode
	Ratios      []float64
}

// NewSplitter creates a splitter over the given children with equal ratios.
func NewSplitter(o Orientation, children ...Node) *Splitter {
	s := &Splitter{
		ID:          uuid.New(),
		Orientation: o,
		Children:    children,
	}
	if n := len(children); n > 0 {
		s.Ratios = make([]float64, n)
		for i := range s.Ratios {
			s.Ratios[i] = 1.0 / float64(n)
		}
	}
	return s
}

func (s *Splitter) NodeID() uuid.UUID { return s.ID }
func (s *Splitter) isNode()           {}

func (s *Splitter) Clone() Node {
	cp := &Splitter{ID: s.ID, Orientation: s.Orientation}
	cp.Children = make([]Node, len(s.Children))
	for i, c := range s.Children {
		cp.Children[i] = c.Clone()
	}
	cp.Ratios = append([]float64(nil), s.Ratios...)
	return cp
}

// normalizeRatios rescales Ratios to sum to 1.0. Called after any child
// insertion or removal.
func (s *Splitter) normalizeRatios() {
	if len(s.Children) == 0 {
		s.Ratios = nil
		return
	}
	if len(s.Ratios) != len(s.Children) {
		s.Ratios = make([]float64, len(s.Children))
		for i := range s.Ratios {
			s.Ratios[i] = 1.0 / float64(len(s.Children))
		}
		return
	}
	var sum float64
	for _, r := range s.Ratios {
		sum += r
	}
	if sum <= 0 {
		for i := range s.Ratios {
			s.Ratios[i] = 1.0 / float64(len(s.Ratios))
		}
		return
	}
	for i := range s.Ratios {
		s.Ratios[i] /= sum
	}
}

// removeChildAt drops the child at index i and redistributes its ratio.
func (s *Splitter) removeChildAt(i int) {
	s.Children = append(s.Children[:i], s.Children[i+1:]...)
	if i < len(s.Ratios) {
		s.Ratios = append(s.Ratios[:i], s.Ratios[i+1:]...)
	}
	s.normalizeRatios()
}

// insertChildAt places child at index i, carving its ratio out of the
// neighbor at the insertion point so one existing region is halved rather
// than disturbing the whole row.
func (s *Splitter) insertChildAt(i int, child Node) {
	if i < 0 {
		i = 0
	}
	if i > len(s.Children) {
		i = len(s.Children)
	}
	s.Children = append(s.Children, nil)
	copy(s.Children[i+1:], s.Children[i:])
	s.Children[i] = child

	// Halve the ratio of the displaced neighbor (or the one before when
	// appending at the end).
	donor := i
	if donor >= len(s.Ratios) {
		donor = len(s.Ratios) - 1
	}
	var share float64
	if donor >= 0 && donor < len(s.Ratios) {
		share = s.Ratios[donor] / 2
		s.Ratios[donor] = share
	} else {
		share = 1.0
	}
	s.Ratios = append(s.Ratios, 0)
	copy(s.Ratios[i+1:], s.Ratios[i:])
	s.Ratios[i] = share
	s.normalizeRatios()
}

// CollectWidgets returns every widget leaf under node in visual order.
func CollectWidgets(node Node) []*WidgetNode {
	var out []*WidgetNode
	Walk(node, func(n Node) bool {
		if w, ok := n.(*WidgetNode); ok {
			out = append(out, w)
		}
		return true
	})
	return out
}

// Walk visits node and its descendants depth-first. Returning false from fn
// stops the walk.
func Walk(node Node, fn func(Node) bool) bool {
	if node == nil {
		return true
	}
	if !fn(node) {
		return false
	}
	switch n := node.(type) {
	case *TabGroup:
		for _, c := range n.Children {
			if !Walk(c, fn) {
				return false
			}
		}
	case *Splitter:
		for _, c := range n.Children {
			if !Walk(c, fn) {
				return false
			}
		}
	}
	return true
}

// asBranch wraps a moving payload so it can live inside a splitter: a bare
// widget is wrapped in a fresh tab group, groups and splitters pass through.
func asBranch(n Node) Node {
	if w, ok := n.(*WidgetNode); ok {
		return NewTabGroup(w)
	}
	return n
}
