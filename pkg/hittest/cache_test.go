package hittest

import (
	"testing"

	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/layout"
)

func dockedPair(t *testing.T) (*layout.Model, *layout.Root, *layout.TabGroup, *layout.TabGroup) {
	t.Helper()
	m := layout.NewModel()
	root := m.AddRoot(layout.MainArea, geometry.Rect{W: 1000, H: 600})
	left := layout.NewTabGroup(layout.NewWidgetNode("files", "Files", nil))
	right := layout.NewTabGroup(layout.NewWidgetNode("editor", "Editor", nil))
	root.Node = layout.NewSplitter(layout.Horizontal, left, right)
	return m, root, left, right
}

func TestResolvePrefersSmallestTarget(t *testing.T) {
	m, root, left, _ := dockedPair(t)
	c := Build(m, ModelView{}, "")

	// A point inside the left group is covered by both the container entry
	// and the group entry; the group is smaller and must win.
	e, ok := c.Resolve(geometry.Point{X: 250, Y: 300})
	if !ok {
		t.Fatal("expected a hit")
	}
	if e.Kind != KindGroup || e.GroupID != left.ID {
		t.Errorf("expected left group, got kind=%s group=%s", e.Kind, e.GroupID)
	}
	if e.RootID != root.ID {
		t.Error("wrong root")
	}
}

func TestResolveTieBreaksByStacking(t *testing.T) {
	m := layout.NewModel()
	m.AddRoot(layout.MainArea, geometry.Rect{W: 200, H: 200})

	// Two same-size floating windows at the same spot: the one in front, the
	// later entry in the snapshot, must win.
	back := m.AddRoot(layout.FloatingWindow, geometry.Rect{X: 400, Y: 100, W: 300, H: 200})
	back.Node = layout.NewTabGroup(layout.NewWidgetNode("a", "A", nil))
	front := m.AddRoot(layout.FloatingWindow, geometry.Rect{X: 400, Y: 100, W: 300, H: 200})
	front.Node = layout.NewTabGroup(layout.NewWidgetNode("b", "B", nil))

	c := Build(m, ModelView{}, "")
	e, ok := c.Resolve(geometry.Point{X: 500, Y: 180})
	if !ok {
		t.Fatal("expected a hit")
	}
	if e.RootID != front.ID {
		t.Errorf("front window should win the tie, got %s", e.RootID)
	}

	m.BringToFront(back.ID)
	c = Build(m, ModelView{}, "")
	e, _ = c.Resolve(geometry.Point{X: 500, Y: 180})
	if e.RootID != back.ID {
		t.Error("raised window should win after BringToFront")
	}
}

func TestBuildExcludesDraggedRoot(t *testing.T) {
	m, _, _, _ := dockedPair(t)
	f := m.AddRoot(layout.FloatingWindow, geometry.Rect{X: 100, Y: 100, W: 300, H: 200})
	f.Node = layout.NewTabGroup(layout.NewWidgetNode("drag", "Dragged", nil))

	c := Build(m, ModelView{}, f.ID)
	for _, pt := range []geometry.Point{{X: 150, Y: 150}, {X: 350, Y: 250}} {
		if e, ok := c.Resolve(pt); ok && e.RootID == f.ID {
			t.Errorf("dragged window must not appear in its own snapshot (hit at %v)", pt)
		}
	}
}

func TestSnapshotIgnoresLaterModelChanges(t *testing.T) {
	m, root, _, right := dockedPair(t)
	c := Build(m, ModelView{}, "")
	before := c.Len()

	// Mutating the model after the snapshot must not change resolution.
	if err := m.CloseWidget("editor"); err != nil {
		t.Fatalf("CloseWidget failed: %v", err)
	}
	if c.Len() != before {
		t.Error("snapshot size changed after model mutation")
	}
	e, ok := c.Resolve(geometry.Point{X: 750, Y: 300})
	if !ok || e.GroupID != right.ID {
		t.Error("snapshot should still resolve the closed group")
	}
	_ = root
}

func TestResolveDropZones(t *testing.T) {
	m, root, left, _ := dockedPair(t)
	c := Build(m, ModelView{}, "")

	// Left group occupies x [0,500), y [0,600).
	cases := []struct {
		name string
		pt   geometry.Point
		want layout.PositionKind
	}{
		{"center", geometry.Point{X: 250, Y: 300}, layout.DockCenter},
		{"left band", geometry.Point{X: 30, Y: 300}, layout.DockLeft},
		{"right band", geometry.Point{X: 480, Y: 300}, layout.DockRight},
		{"top band", geometry.Point{X: 250, Y: 40}, layout.DockTop},
		{"bottom band", geometry.Point{X: 250, Y: 580}, layout.DockBottom},
		// In a corner the nearer edge wins.
		{"corner nearer left", geometry.Point{X: 20, Y: 100}, layout.DockLeft},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, ok := c.Resolve(tc.pt)
			if !ok {
				t.Fatal("expected a hit")
			}
			target, pos, ok := c.ResolveDrop(e, tc.pt)
			if !ok {
				t.Fatal("expected a drop resolution")
			}
			if pos.Kind != tc.want {
				t.Errorf("expected %s, got %s", tc.want, pos.Kind)
			}
			if target.RootID != root.ID || target.GroupID != left.ID {
				t.Error("wrong drop target")
			}
		})
	}
}

func TestResolveDropTabGap(t *testing.T) {
	m, root, _, right := dockedPair(t)
	c := Build(m, ModelView{}, "")

	// The slot after the right group's single tab sits one TabWidth into its
	// strip. Right group starts at x=500.
	pt := geometry.Point{X: 500 + TabWidth, Y: TabStripHeight / 2}
	e, ok := c.Resolve(pt)
	if !ok {
		t.Fatal("expected a hit")
	}
	if e.Kind != KindTabGap {
		t.Fatalf("expected tab gap, got %s", e.Kind)
	}
	target, pos, ok := c.ResolveDrop(e, pt)
	if !ok {
		t.Fatal("expected a drop resolution")
	}
	if pos.Kind != layout.DockTabInsert || pos.Index != 1 {
		t.Errorf("expected insert at 1, got kind=%s index=%d", pos.Kind, pos.Index)
	}
	if target.GroupID != right.ID || target.RootID != root.ID {
		t.Error("wrong drop target")
	}
}

func TestResolveMiss(t *testing.T) {
	m, _, _, _ := dockedPair(t)
	c := Build(m, ModelView{}, "")

	if _, ok := c.Resolve(geometry.Point{X: 5000, Y: 5000}); ok {
		t.Error("point outside every window should miss")
	}
}
