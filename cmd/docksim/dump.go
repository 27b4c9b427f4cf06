package main

import (
	"encoding/json"
	"io"

	"github.com/panekit/panekit/pkg/dock"
	"github.com/panekit/panekit/pkg/layout"
)

type dumpRoot struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Geometry  [4]int    `json:"geometry"`
	Maximized bool      `json:"maximized,omitempty"`
	Tree      *dumpNode `json:"tree,omitempty"`
}

type dumpNode struct {
	Type        string      `json:"type"`
	Orientation string      `json:"orientation,omitempty"`
	Ratios      []float64   `json:"ratios,omitempty"`
	Active      int         `json:"active,omitempty"`
	Tabs        []string    `json:"tabs,omitempty"`
	Children    []*dumpNode `json:"children,omitempty"`
}

// dumpJSON writes the current layout as indented JSON, backmost root first.
func dumpJSON(w io.Writer, mgr *dock.Manager) error {
	snap := mgr.Snapshot()
	out := make([]dumpRoot, 0, len(snap.Roots()))
	for _, r := range snap.Roots() {
		g := r.Geometry
		out = append(out, dumpRoot{
			ID:        string(r.ID),
			Kind:      r.Kind.String(),
			Geometry:  [4]int{g.X, g.Y, g.W, g.H},
			Maximized: r.Maximized,
			Tree:      dumpTree(r.Node),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func dumpTree(n layout.Node) *dumpNode {
	switch t := n.(type) {
	case *layout.TabGroup:
		tabs := make([]string, len(t.Children))
		for i, w := range t.Children {
			tabs[i] = w.PersistentID
		}
		return &dumpNode{Type: "tabs", Tabs: tabs, Active: t.Active}
	case *layout.Splitter:
		children := make([]*dumpNode, len(t.Children))
		for i, c := range t.Children {
			children[i] = dumpTree(c)
		}
		return &dumpNode{
			Type:        "split",
			Orientation: t.Orientation.String(),
			Ratios:      t.Ratios,
			Children:    children,
		}
	case *layout.WidgetNode:
		return &dumpNode{Type: "widget", Tabs: []string{t.PersistentID}}
	}
	return nil
}
