package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/panekit/panekit/pkg/dock"
	"github.com/panekit/panekit/pkg/layout"
	"github.com/panekit/panekit/pkg/registry"
)

func newScenarioManager(t *testing.T, sc *Scenario) *dock.Manager {
	t.Helper()
	reg := registry.New(nil)
	registerFactories(reg, sc)
	return dock.NewManager(reg, nil)
}

func TestReplayEditorScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "editor.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "editor-workspace" {
		t.Fatalf("name = %q", sc.Name)
	}

	mgr := newScenarioManager(t, sc)
	if err := sc.Run(mgr, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	snap := mgr.Snapshot()
	if got := len(snap.Roots()); got != 1 {
		t.Fatalf("roots = %d, want everything docked back into the main area", got)
	}
	if got := len(snap.Widgets()); got != 4 {
		t.Fatalf("widgets = %d, want 4", got)
	}

	// term:2 was closed, leaving term:1 alone and selected.
	h, ok := snap.FindHost("term:1")
	if !ok {
		t.Fatal("term:1 missing")
	}
	if len(h.Group.Children) != 1 || h.Group.Active != 0 {
		t.Fatalf("terminal group children=%d active=%d", len(h.Group.Children), h.Group.Active)
	}

	root, _ := snap.MainRoot()
	outer, ok := root.Node.(*layout.Splitter)
	if !ok {
		t.Fatalf("main root node is %T, want splitter", root.Node)
	}
	if outer.Orientation != layout.Vertical || len(outer.Children) != 2 {
		t.Fatalf("outer splitter orientation=%v children=%d", outer.Orientation, len(outer.Children))
	}
	inner, ok := outer.Children[0].(*layout.Splitter)
	if !ok || inner.Orientation != layout.Horizontal {
		t.Fatalf("top half = %#v, want horizontal splitter", outer.Children[0])
	}
}

func TestReplaySaveRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.pnkl")
	sc := &Scenario{
		MainArea: &AreaSize{Width: 800, Height: 600},
		Steps: []Step{
			{Dock: &DockStep{Panel: "log:1", Target: "main"}},
			{Dock: &DockStep{Panel: "log:2", Target: "log:1", Position: "right"}},
			{Save: &PathStep{}},
			{Close: strPtr("log:2")},
			{Restore: &PathStep{}},
		},
	}

	mgr := newScenarioManager(t, sc)
	if err := sc.Run(mgr, path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("layout file: %v", err)
	}
	if got := len(mgr.Snapshot().Widgets()); got != 2 {
		t.Fatalf("widgets after restore = %d, want 2", got)
	}
}

func TestReplayRejectsBadPosition(t *testing.T) {
	sc := &Scenario{Steps: []Step{
		{Dock: &DockStep{Panel: "a:1", Target: "main", Position: "sideways"}},
	}}
	mgr := newScenarioManager(t, sc)
	if err := sc.Run(mgr, ""); err == nil {
		t.Fatal("expected position error")
	}
}

func strPtr(s string) *string { return &s }
