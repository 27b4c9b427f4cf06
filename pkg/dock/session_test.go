package dock

import (
	"errors"
	"testing"

	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/layout"
	"github.com/panekit/panekit/pkg/state"
)

// splitMain builds a main area with two groups split left/right and returns
// the manager. Panels: left holds "panel:files", right holds "panel:editor"
// and "panel:log".
func splitMain(t *testing.T) *Manager {
	t.Helper()
	m := newTestManager(t)
	target := mainWithPanels(t, m, "panel:files")
	if err := m.DockPanel("panel:editor", "Editor", nil, target, layout.DockPosition{Kind: layout.DockRight}); err != nil {
		t.Fatalf("DockPanel failed: %v", err)
	}
	snap := m.Snapshot()
	root, _ := snap.MainRoot()
	s := root.Node.(*layout.Splitter)
	right := s.Children[1].(*layout.TabGroup)
	if err := m.DockPanel("panel:log", "Log", nil,
		layout.DropTarget{RootID: root.ID, GroupID: right.ID},
		layout.DockPosition{Kind: layout.DockCenter}); err != nil {
		t.Fatalf("DockPanel failed: %v", err)
	}
	return m
}

func TestTabDragDropOnGroup(t *testing.T) {
	m := splitMain(t)

	s, err := m.BeginTabDrag("panel:files")
	if err != nil {
		t.Fatalf("BeginTabDrag failed: %v", err)
	}
	if m.State() != state.DraggingTab {
		t.Fatalf("expected DraggingTab, got %s", m.State())
	}

	// The right half of the main area, dead center: merge into that group.
	pt := geometry.Point{X: 960, Y: 360}
	fb, err := s.Move(pt)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !fb.Valid || fb.Position.Kind != layout.DockCenter {
		t.Fatalf("expected valid center feedback, got %+v", fb)
	}

	if err := s.Drop(pt); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if m.State() != state.Idle {
		t.Errorf("expected Idle after drop, got %s", m.State())
	}

	snap := m.Snapshot()
	root, _ := snap.MainRoot()
	g, ok := root.Node.(*layout.TabGroup)
	if !ok {
		t.Fatalf("splitter should collapse to one group, got %T", root.Node)
	}
	if len(g.Children) != 3 {
		t.Errorf("expected 3 tabs, got %d", len(g.Children))
	}

	if err := s.Drop(pt); !errors.Is(err, ErrSessionDone) {
		t.Errorf("reusing a finished session should fail, got %v", err)
	}
}

func TestTabDragDropNowhereFloats(t *testing.T) {
	m := splitMain(t)

	s, err := m.BeginTabDrag("panel:editor")
	if err != nil {
		t.Fatalf("BeginTabDrag failed: %v", err)
	}

	pt := geometry.Point{X: 4000, Y: 2000}
	if fb, _ := s.Move(pt); fb.Valid {
		t.Fatal("point outside everything should give no feedback")
	}
	if err := s.Drop(pt); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	snap := m.Snapshot()
	floats := snap.FloatingRoots()
	if len(floats) != 1 {
		t.Fatalf("expected a new floating window, got %d", len(floats))
	}
	if floats[0].Geometry.X != 4000 {
		t.Errorf("window should open at the drop point, got %v", floats[0].Geometry)
	}
	h, ok := snap.FindHost("panel:editor")
	if !ok || h.Root.ID != floats[0].ID {
		t.Error("panel should live in the new window")
	}
}

func TestTabDragDropOnOwnGroupIsNoop(t *testing.T) {
	m := splitMain(t)
	before, err := m.Save()
	if err != nil {
		t.Fatal(err)
	}

	s, err := m.BeginTabDrag("panel:editor")
	if err != nil {
		t.Fatalf("BeginTabDrag failed: %v", err)
	}
	// Center of the right group, where the panel already lives.
	if err := s.Drop(geometry.Point{X: 960, Y: 360}); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if m.State() != state.Idle {
		t.Errorf("expected Idle, got %s", m.State())
	}

	after, err := m.Save()
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("dropping a tab on its own group should change nothing")
	}
}

func TestTabDragDropOnOwnGroupEdgeTearsOut(t *testing.T) {
	m := splitMain(t)

	s, err := m.BeginTabDrag("panel:files")
	if err != nil {
		t.Fatalf("BeginTabDrag failed: %v", err)
	}

	// Left edge zone of the panel's own group. Detaching the sole tab
	// empties the group, so the resolved target no longer exists by insert
	// time; the release must degrade to a tear-out, not an error.
	pt := geometry.Point{X: 40, Y: 360}
	if err := s.Drop(pt); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if m.State() != state.Idle {
		t.Errorf("expected Idle, got %s", m.State())
	}

	snap := m.Snapshot()
	floats := snap.FloatingRoots()
	if len(floats) != 1 {
		t.Fatalf("expected the panel to float, got %d floating windows", len(floats))
	}
	if floats[0].Geometry.X != 40 || floats[0].Geometry.Y != 360 {
		t.Errorf("tear-out should open at the release point, got %v", floats[0].Geometry)
	}
	h, ok := snap.FindHost("panel:files")
	if !ok || h.Root.ID != floats[0].ID {
		t.Error("panel should live in the torn-out window")
	}
	root, _ := snap.MainRoot()
	g, ok := root.Node.(*layout.TabGroup)
	if !ok || len(g.Children) != 2 {
		t.Errorf("main area should collapse to the remaining group, got %#v", root.Node)
	}
}

func TestMoveAfterFinishFails(t *testing.T) {
	m := splitMain(t)

	s, err := m.BeginTabDrag("panel:files")
	if err != nil {
		t.Fatalf("BeginTabDrag failed: %v", err)
	}
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if _, err := s.Move(geometry.Point{X: 960, Y: 360}); !errors.Is(err, ErrSessionDone) {
		t.Errorf("Move on a finished session should fail, got %v", err)
	}
}

func TestSoleTabDragExcludesOwnWindow(t *testing.T) {
	m := newTestManager(t)
	mainWithPanels(t, m, "panel:a")
	m.OpenPanel("panel:solo", "Solo", nil)

	s, err := m.BeginTabDrag("panel:solo")
	if err != nil {
		t.Fatalf("BeginTabDrag failed: %v", err)
	}
	defer s.Cancel()

	// The pointer sits inside the solo window's own geometry, which must
	// not offer itself as a target.
	fb, _ := s.Move(geometry.Point{X: cascadeBaseX + 10, Y: cascadeBaseY + 10})
	if fb.Valid && fb.Target.RootID != "" {
		snap := m.Snapshot()
		h, _ := snap.FindHost("panel:solo")
		if fb.Target.RootID == h.Root.ID {
			t.Error("a window emptied by its own drag must not be a target")
		}
	}
}

func TestWindowDragMergesAllPanels(t *testing.T) {
	m := splitMain(t)
	winID, err := m.OpenPanel("panel:one", "One", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.DockPanel("panel:two", "Two", nil,
		layout.DropTarget{RootID: winID}, layout.DockPosition{Kind: layout.DockCenter}); err != nil {
		t.Fatal(err)
	}

	s, err := m.BeginWindowDrag(winID)
	if err != nil {
		t.Fatalf("BeginWindowDrag failed: %v", err)
	}
	if m.State() != state.DraggingWindow {
		t.Fatalf("expected DraggingWindow, got %s", m.State())
	}

	// Drop on the center of the left group of the main area.
	if err := s.Drop(geometry.Point{X: 320, Y: 360}); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	snap := m.Snapshot()
	if _, ok := snap.Root(winID); ok {
		t.Error("merged window should be gone")
	}
	h, ok := snap.FindHost("panel:two")
	if !ok {
		t.Fatal("panel lost in merge")
	}
	if len(h.Group.Children) != 3 {
		t.Errorf("left group should hold files+one+two, got %d tabs", len(h.Group.Children))
	}
}

func TestWindowDragReleaseOverNothingMoves(t *testing.T) {
	m := newTestManager(t)
	mainWithPanels(t, m, "panel:a")
	winID, _ := m.OpenPanel("panel:solo", "Solo", nil)

	s, err := m.BeginWindowDrag(winID)
	if err != nil {
		t.Fatalf("BeginWindowDrag failed: %v", err)
	}
	if err := s.Drop(geometry.Point{X: 3000, Y: 1500}); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	snap := m.Snapshot()
	r, ok := snap.Root(winID)
	if !ok {
		t.Fatal("window should survive a drop over nothing")
	}
	if r.Geometry.X != 3000 || r.Geometry.Y != 1500 {
		t.Errorf("window should move to the release point, got %v", r.Geometry)
	}
	if r.Geometry.W != defaultFloatW {
		t.Error("size should be preserved")
	}
}

func TestWindowDragRefusesMainArea(t *testing.T) {
	m := newTestManager(t)
	target := mainWithPanels(t, m, "panel:a")

	if _, err := m.BeginWindowDrag(target.RootID); err == nil {
		t.Fatal("main area must not be draggable")
	}
	if m.State() != state.Idle {
		t.Errorf("failed begin must roll the state back, got %s", m.State())
	}
}

func TestResizeSession(t *testing.T) {
	m := newTestManager(t)
	winID, _ := m.OpenPanel("panel:solo", "Solo", nil)

	rs, err := m.BeginResize(winID)
	if err != nil {
		t.Fatalf("BeginResize failed: %v", err)
	}
	if m.State() != state.ResizingWindow {
		t.Fatalf("expected ResizingWindow, got %s", m.State())
	}
	if err := m.ClosePanel("panel:solo"); !errors.Is(err, state.ErrBusy) {
		t.Errorf("operations during resize should be busy, got %v", err)
	}

	want := geometry.Rect{X: 100, Y: 100, W: 640, H: 480}
	if err := rs.Update(want); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := rs.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if m.State() != state.Idle {
		t.Errorf("expected Idle after resize, got %s", m.State())
	}

	r, _ := m.Snapshot().Root(winID)
	if r.Geometry != want {
		t.Errorf("geometry should stick, got %v", r.Geometry)
	}
	if err := rs.Update(want); !errors.Is(err, ErrSessionDone) {
		t.Errorf("update after End should fail, got %v", err)
	}
}

func TestResizeCancelDiscardsGeometry(t *testing.T) {
	m := newTestManager(t)
	winID, _ := m.OpenPanel("panel:solo", "Solo", nil)
	orig, _ := m.Snapshot().Root(winID)

	rs, err := m.BeginResize(winID)
	if err != nil {
		t.Fatalf("BeginResize failed: %v", err)
	}
	if err := rs.Update(geometry.Rect{X: 10, Y: 10, W: 900, H: 700}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := rs.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if m.State() != state.Idle {
		t.Errorf("expected Idle after cancel, got %s", m.State())
	}

	r, _ := m.Snapshot().Root(winID)
	if r.Geometry != orig.Geometry {
		t.Errorf("cancel should restore %v, got %v", orig.Geometry, r.Geometry)
	}
	if err := rs.Update(geometry.Rect{}); !errors.Is(err, ErrSessionDone) {
		t.Errorf("update after cancel should fail, got %v", err)
	}
}

func TestCacheSnapshotSurvivesModelChanges(t *testing.T) {
	m := splitMain(t)

	s, err := m.BeginTabDrag("panel:files")
	if err != nil {
		t.Fatalf("BeginTabDrag failed: %v", err)
	}
	targets := s.Targets()
	if targets == 0 {
		t.Fatal("expected targets in the snapshot")
	}

	// The snapshot is fixed for the life of the drag.
	fb, err := s.Move(geometry.Point{X: 960, Y: 360})
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !fb.Valid {
		t.Fatal("expected valid feedback")
	}
	if s.Targets() != targets {
		t.Error("snapshot must not change mid-drag")
	}
	s.Cancel()
}
