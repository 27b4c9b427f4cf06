package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/panekit/panekit/pkg/dock"
	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/layout"
)

// Scenario is a YAML-described sequence of docking operations to replay
// against a fresh manager.
type Scenario struct {
	Name     string    `yaml:"name"`
	MainArea *AreaSize `yaml:"main_area"`
	Steps    []Step    `yaml:"steps"`
}

// AreaSize sizes the main dock area.
type AreaSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Step is one operation. Exactly one field should be set.
type Step struct {
	Open     *OpenStep  `yaml:"open"`
	Dock     *DockStep  `yaml:"dock"`
	Move     *MoveStep  `yaml:"move"`
	Drag     *DragStep  `yaml:"drag"`
	Float    *FloatStep `yaml:"float"`
	Close    *string    `yaml:"close"`
	Activate *string    `yaml:"activate"`
	Save     *PathStep  `yaml:"save"`
	Restore  *PathStep  `yaml:"restore"`
}

type OpenStep struct {
	Panel string `yaml:"panel"`
	Title string `yaml:"title"`
}

type DockStep struct {
	Panel    string `yaml:"panel"`
	Title    string `yaml:"title"`
	Target   string `yaml:"target"` // "main" or an existing panel ID
	Position string `yaml:"position"`
	Index    int    `yaml:"index"`
}

type MoveStep struct {
	Panel    string `yaml:"panel"`
	Target   string `yaml:"target"`
	Position string `yaml:"position"`
	Index    int    `yaml:"index"`
}

type DragStep struct {
	Panel string `yaml:"panel"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
}

type FloatStep struct {
	Panel string `yaml:"panel"`
	X     int    `yaml:"x"`
	Y     int    `yaml:"y"`
	W     int    `yaml:"w"`
	H     int    `yaml:"h"`
}

type PathStep struct {
	Path string `yaml:"path"`
}

// LoadScenario parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &sc, nil
}

// parsePosition maps a YAML position name to a dock position.
func parsePosition(name string, index int) (layout.DockPosition, error) {
	switch name {
	case "left":
		return layout.DockPosition{Kind: layout.DockLeft}, nil
	case "right":
		return layout.DockPosition{Kind: layout.DockRight}, nil
	case "top":
		return layout.DockPosition{Kind: layout.DockTop}, nil
	case "bottom":
		return layout.DockPosition{Kind: layout.DockBottom}, nil
	case "center", "":
		return layout.DockPosition{Kind: layout.DockCenter}, nil
	case "tab":
		return layout.TabInsertBefore(index), nil
	}
	return layout.DockPosition{}, fmt.Errorf("unknown position %q", name)
}

// resolveTarget maps a YAML target name to a concrete drop target: "main"
// is the main area container, anything else the group holding that panel.
func resolveTarget(mgr *dock.Manager, name string) (layout.DropTarget, error) {
	snap := mgr.Snapshot()
	if name == "main" || name == "" {
		root, ok := snap.MainRoot()
		if !ok {
			return layout.DropTarget{}, fmt.Errorf("no main area")
		}
		return layout.DropTarget{RootID: root.ID}, nil
	}
	h, ok := snap.FindHost(name)
	if !ok {
		return layout.DropTarget{}, fmt.Errorf("target panel %q not in layout", name)
	}
	return layout.DropTarget{RootID: h.Root.ID, GroupID: h.Group.ID}, nil
}

// Run replays the scenario against the manager.
func (sc *Scenario) Run(mgr *dock.Manager, defaultLayoutPath string) error {
	if sc.MainArea != nil {
		geom := geometry.Rect{W: sc.MainArea.Width, H: sc.MainArea.Height}
		if _, err := mgr.CreateMainArea(geom); err != nil {
			return fmt.Errorf("main area: %w", err)
		}
	}

	for i, step := range sc.Steps {
		if err := sc.runStep(mgr, step, defaultLayoutPath); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (sc *Scenario) runStep(mgr *dock.Manager, step Step, defaultLayoutPath string) error {
	switch {
	case step.Open != nil:
		_, err := mgr.OpenPanel(step.Open.Panel, titleOf(step.Open.Title, step.Open.Panel), nil)
		return err

	case step.Dock != nil:
		pos, err := parsePosition(step.Dock.Position, step.Dock.Index)
		if err != nil {
			return err
		}
		target, err := resolveTarget(mgr, step.Dock.Target)
		if err != nil {
			return err
		}
		return mgr.DockPanel(step.Dock.Panel, titleOf(step.Dock.Title, step.Dock.Panel), nil, target, pos)

	case step.Move != nil:
		target, err := resolveTarget(mgr, step.Move.Target)
		if err != nil {
			return err
		}
		pos, err := parsePosition(step.Move.Position, step.Move.Index)
		if err != nil {
			return err
		}
		return mgr.MovePanel(step.Move.Panel, target, pos)

	case step.Drag != nil:
		s, err := mgr.BeginTabDrag(step.Drag.Panel)
		if err != nil {
			return err
		}
		return s.Drop(geometry.Point{X: step.Drag.X, Y: step.Drag.Y})

	case step.Float != nil:
		geom := geometry.Rect{X: step.Float.X, Y: step.Float.Y, W: step.Float.W, H: step.Float.H}
		if geom.Empty() {
			geom.W, geom.H = 480, 360
		}
		_, err := mgr.FloatPanel(step.Float.Panel, geom)
		return err

	case step.Close != nil:
		return mgr.ClosePanel(*step.Close)

	case step.Activate != nil:
		return mgr.ActivatePanel(*step.Activate)

	case step.Save != nil:
		data, err := mgr.Save()
		if err != nil {
			return err
		}
		return os.WriteFile(pathOf(step.Save, defaultLayoutPath), data, 0o644)

	case step.Restore != nil:
		data, err := os.ReadFile(pathOf(step.Restore, defaultLayoutPath))
		if err != nil {
			return err
		}
		warnings, err := mgr.Restore(data)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		return nil
	}
	return fmt.Errorf("empty step")
}

func titleOf(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}

func pathOf(p *PathStep, fallback string) string {
	if p.Path != "" {
		return p.Path
	}
	return fallback
}
