package hittest

import (
	"github.com/google/uuid"

	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/layout"
)

// Tab strip metrics for the computed view. An embedding UI with real widget
// geometry supplies its own ViewProvider instead.
const (
	// TabStripHeight is the height of the tab strip at the top of a group.
	TabStripHeight = 28
	// TabWidth is the nominal width of one tab in the strip.
	TabWidth = 120
	// TabGapWidth is the width of an insertion slot between tabs.
	TabGapWidth = 16
)

// ModelView derives target rectangles purely from root geometry and splitter
// ratios. It makes the resolver usable headless: the tree itself is the
// source of truth for where everything is.
type ModelView struct{}

// ContainerRect implements ViewProvider. A maximized root covers its normal
// geometry's screen; minimized state is not modeled, so every root is
// visible.
func (ModelView) ContainerRect(root *layout.Root) (geometry.Rect, bool) {
	return root.Geometry, !root.Geometry.Empty()
}

// GroupRect implements ViewProvider by subdividing the root rect along each
// splitter on the path to the group.
func (v ModelView) GroupRect(root *layout.Root, group *layout.TabGroup) (geometry.Rect, bool) {
	if root.Node == nil {
		return geometry.Rect{}, false
	}
	rect, ok := v.nodeRect(root.Node, root.Geometry, group.ID)
	return rect, ok && !rect.Empty()
}

// TabGapRects implements ViewProvider. Slots sit on the group's tab strip:
// one before each tab and one after the last.
func (v ModelView) TabGapRects(root *layout.Root, group *layout.TabGroup) []geometry.Rect {
	rect, ok := v.GroupRect(root, group)
	if !ok || rect.H < TabStripHeight {
		return nil
	}
	gaps := make([]geometry.Rect, 0, len(group.Children)+1)
	for i := 0; i <= len(group.Children); i++ {
		x := rect.X + i*TabWidth - TabGapWidth/2
		if i == 0 {
			x = rect.X
		}
		gap := geometry.Rect{X: x, Y: rect.Y, W: TabGapWidth, H: TabStripHeight}
		if gap.X+gap.W > rect.X+rect.W {
			gap.W = rect.X + rect.W - gap.X
		}
		if gap.W <= 0 {
			break
		}
		gaps = append(gaps, gap)
	}
	return gaps
}

// nodeRect finds the rect of the node carrying wantID inside the given
// bounds, recursing through splitters with their stored ratios.
func (v ModelView) nodeRect(node layout.Node, bounds geometry.Rect, wantID uuid.UUID) (geometry.Rect, bool) {
	switch n := node.(type) {
	case *layout.WidgetNode:
		return geometry.Rect{}, false
	case *layout.TabGroup:
		if n.ID == wantID {
			return bounds, true
		}
		return geometry.Rect{}, false
	case *layout.Splitter:
		if n.ID == wantID {
			return bounds, true
		}
		offset := 0
		extent := bounds.W
		if n.Orientation == layout.Vertical {
			extent = bounds.H
		}
		for i, child := range n.Children {
			share := int(float64(extent) * n.Ratios[i])
			if i == len(n.Children)-1 {
				share = extent - offset
			}
			var slice geometry.Rect
			if n.Orientation == layout.Horizontal {
				slice = geometry.Rect{X: bounds.X + offset, Y: bounds.Y, W: share, H: bounds.H}
			} else {
				slice = geometry.Rect{X: bounds.X, Y: bounds.Y + offset, W: bounds.W, H: share}
			}
			if r, ok := v.nodeRect(child, slice, wantID); ok {
				return r, true
			}
			offset += share
		}
	}
	return geometry.Rect{}, false
}
