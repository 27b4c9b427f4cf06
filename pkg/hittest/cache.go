// Package hittest resolves pointer positions to drop targets during drags.
//
// A Cache is an immutable snapshot of every visible target rectangle, built
// once when a drag starts and discarded when it ends. Screen geometry never
// gets re-queried mid-drag, so resolution stays cheap and stable even while
// the model is about to change.
package hittest

import (
	"github.com/google/uuid"

	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/id"
	"github.com/panekit/panekit/pkg/layout"
)

// TargetKind classifies what a cache entry covers.
type TargetKind int

const (
	// KindContainer is a whole dock area, including an empty one.
	KindContainer TargetKind = iota
	// KindGroup is the content area of one tab group.
	KindGroup
	// KindTabGap is the slot between two tabs (or before the first / after
	// the last) in a group's tab strip.
	KindTabGap
)

// String returns the kind name.
func (k TargetKind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindGroup:
		return "group"
	case KindTabGap:
		return "tab_gap"
	}
	return "unknown"
}

// Entry is one candidate drop target with its screen rectangle.
type Entry struct {
	Kind    TargetKind
	Rect    geometry.Rect
	RootID  id.RootID
	GroupID uuid.UUID
	// TabIndex is the insertion index a KindTabGap entry represents.
	TabIndex int

	seq int
}

// Cache is a frozen set of drop targets for one drag.
type Cache struct {
	entries []Entry
}

// ViewProvider supplies screen rectangles for model nodes. The zero model
// geometry is authoritative in headless use; an embedding UI substitutes its
// real widget geometry here.
type ViewProvider interface {
	// ContainerRect returns the screen rect of a dock area, and whether the
	// area is currently visible.
	ContainerRect(root *layout.Root) (geometry.Rect, bool)
	// GroupRect returns the content rect of a tab group inside its root.
	GroupRect(root *layout.Root, group *layout.TabGroup) (geometry.Rect, bool)
	// TabGapRects returns one rect per insertion slot in the group's tab
	// strip, index 0 before the first tab through len(tabs) after the last.
	TabGapRects(root *layout.Root, group *layout.TabGroup) []geometry.Rect
}

// Build snapshots every visible target in the model except the excluded
// root (the window being dragged never targets itself). Roots are visited
// backmost first so later entries are higher in the stacking order.
func Build(m *layout.Model, view ViewProvider, exclude id.RootID) *Cache {
	c := &Cache{}
	for _, root := range m.Roots() {
		if root.ID == exclude {
			continue
		}
		rect, visible := view.ContainerRect(root)
		if !visible {
			continue
		}
		c.add(Entry{Kind: KindContainer, Rect: rect, RootID: root.ID})

		if root.Node == nil {
			continue
		}
		layout.Walk(root.Node, func(n layout.Node) bool {
			g, ok := n.(*layout.TabGroup)
			if !ok {
				return true
			}
			gr, vis := view.GroupRect(root, g)
			if !vis {
				return true
			}
			c.add(Entry{Kind: KindGroup, Rect: gr, RootID: root.ID, GroupID: g.ID})
			for i, gap := range view.TabGapRects(root, g) {
				c.add(Entry{Kind: KindTabGap, Rect: gap, RootID: root.ID, GroupID: g.ID, TabIndex: i})
			}
			return true
		})
	}
	return c
}

func (c *Cache) add(e Entry) {
	e.seq = len(c.entries)
	c.entries = append(c.entries, e)
}

// Len reports how many targets the snapshot holds.
func (c *Cache) Len() int { return len(c.entries) }

// Resolve picks the target under the point. The smallest containing
// rectangle wins; on equal area the entry added last wins, which is the one
// highest in the stacking order.
func (c *Cache) Resolve(pt geometry.Point) (Entry, bool) {
	var (
		best  Entry
		found bool
	)
	for _, e := range c.entries {
		if !e.Rect.Contains(pt) {
			continue
		}
		if !found || e.Rect.Area() < best.Rect.Area() ||
			(e.Rect.Area() == best.Rect.Area() && e.seq > best.seq) {
			best = e
			found = true
		}
	}
	return best, found
}

// edgeFraction of a target rect that maps to a split rather than a merge.
const edgeFraction = 0.25

// ResolveDrop refines a resolved entry into the concrete target and
// position a drop at pt would produce.
func (c *Cache) ResolveDrop(e Entry, pt geometry.Point) (layout.DropTarget, layout.DockPosition, bool) {
	target := layout.DropTarget{RootID: e.RootID, GroupID: e.GroupID}

	switch e.Kind {
	case KindTabGap:
		return target, layout.TabInsertBefore(e.TabIndex), true

	case KindContainer, KindGroup:
		if !e.Rect.Contains(pt) {
			return layout.DropTarget{}, layout.DockPosition{}, false
		}
		return target, zonePosition(e.Rect, pt), true
	}
	return layout.DropTarget{}, layout.DockPosition{}, false
}

// zonePosition divides the rect into four edge bands and a center. A point
// inside more than one band resolves to its nearest edge.
func zonePosition(r geometry.Rect, pt geometry.Point) layout.DockPosition {
	u := float64(pt.X-r.X) / float64(r.W)
	v := float64(pt.Y-r.Y) / float64(r.H)

	kind := layout.DockCenter
	depth := edgeFraction
	for _, zone := range []struct {
		d float64
		k layout.PositionKind
	}{
		{u, layout.DockLeft},
		{1 - u, layout.DockRight},
		{v, layout.DockTop},
		{1 - v, layout.DockBottom},
	} {
		if zone.d < depth {
			depth = zone.d
			kind = zone.k
		}
	}
	return layout.DockPosition{Kind: kind}
}
