// Package serialize persists dock layouts to a versioned binary stream and
// rebuilds them. The stream is a 4-byte magic, a format version byte, and a
// gzip-compressed JSON document. Decoding is recoverable: panels whose
// factory is missing are skipped with a warning instead of failing the whole
// restore.
package serialize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/id"
	"github.com/panekit/panekit/pkg/layout"
	"github.com/panekit/panekit/pkg/logging"
	"github.com/panekit/panekit/pkg/registry"
)

// Version is the current stream format version.
const Version = 1

var magic = [4]byte{'P', 'N', 'K', 'L'}

var (
	// ErrCorruptStream means the input is not a layout stream or is damaged.
	ErrCorruptStream = errors.New("corrupt layout stream")
	// ErrUnknownVersion means the stream was written by a newer format.
	ErrUnknownVersion = errors.New("unknown layout stream version")
)

// StateSaver is implemented by panel content that persists internal state
// alongside the layout.
type StateSaver interface {
	SaveState() ([]byte, error)
}

// StateRestorer is implemented by panel content that accepts its saved
// internal state back after a restore.
type StateRestorer interface {
	RestoreState([]byte) error
}

// Warning records a panel that could not be restored. The rest of the
// layout is unaffected.
type Warning struct {
	PersistentID string
	Err          error
}

func (w Warning) String() string {
	return fmt.Sprintf("panel %q: %v", w.PersistentID, w.Err)
}

const (
	nodeWidget = "widget"
	nodeTabs   = "tabs"
	nodeSplit  = "split"
)

type nodeDTO struct {
	Type string `json:"type"`

	// widget
	PersistentID string          `json:"persistent_id,omitempty"`
	Title        string          `json:"title,omitempty"`
	State        json.RawMessage `json:"state,omitempty"`

	// tabs
	Children []nodeDTO `json:"children,omitempty"`
	Active   int       `json:"active,omitempty"`

	// split
	Orientation string    `json:"orientation,omitempty"`
	Ratios      []float64 `json:"ratios,omitempty"`
}

type rootDTO struct {
	ID             string        `json:"id"`
	Kind           string        `json:"kind"`
	Geometry       geometry.Rect `json:"geometry"`
	Maximized      bool          `json:"maximized,omitempty"`
	NormalGeometry geometry.Rect `json:"normal_geometry,omitempty"`
	Node           *nodeDTO      `json:"node,omitempty"`
}

type layoutDTO struct {
	Roots []rootDTO `json:"roots"`
}

// Encoder writes layouts.
type Encoder struct {
	log *logging.Logger
}

// NewEncoder creates an encoder.
func NewEncoder(log *logging.Logger) *Encoder {
	return &Encoder{log: log.OrNop().Named("serialize")}
}

// Encode serializes the model. Panel content implementing StateSaver gets
// its state captured inline; a save failure skips that panel's state but
// keeps the panel.
func (e *Encoder) Encode(m *layout.Model) ([]byte, error) {
	dto := layoutDTO{}
	for _, root := range m.Roots() {
		rd := rootDTO{
			ID:             string(root.ID),
			Kind:           kindName(root.Kind),
			Geometry:       root.Geometry,
			Maximized:      root.Maximized,
			NormalGeometry: root.NormalGeometry,
		}
		if root.Node != nil {
			nd := e.encodeNode(root.Node)
			rd.Node = &nd
		}
		dto.Roots = append(dto.Roots, rd)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	buf.WriteByte(Version)

	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(dto); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress layout: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Encoder) encodeNode(node layout.Node) nodeDTO {
	switch n := node.(type) {
	case *layout.WidgetNode:
		d := nodeDTO{Type: nodeWidget, PersistentID: n.PersistentID, Title: n.Title}
		if saver, ok := n.Content.(StateSaver); ok {
			state, err := saver.SaveState()
			if err != nil {
				e.log.Warn("panel state save failed",
					zap.String("panel_id", n.PersistentID), zap.Error(err))
			} else if len(state) > 0 {
				d.State = state
			}
		}
		return d
	case *layout.TabGroup:
		d := nodeDTO{Type: nodeTabs, Active: n.Active}
		for _, w := range n.Children {
			d.Children = append(d.Children, e.encodeNode(w))
		}
		return d
	case *layout.Splitter:
		d := nodeDTO{
			Type:   nodeSplit,
			Ratios: append([]float64(nil), n.Ratios...),
		}
		if n.Orientation == layout.Vertical {
			d.Orientation = "vertical"
		} else {
			d.Orientation = "horizontal"
		}
		for _, c := range n.Children {
			d.Children = append(d.Children, e.encodeNode(c))
		}
		return d
	}
	return nodeDTO{}
}

// Decoder rebuilds layouts, using a registry to recreate panel content.
type Decoder struct {
	reg *registry.Registry
	log *logging.Logger
}

// NewDecoder creates a decoder backed by the given factory registry.
func NewDecoder(reg *registry.Registry, log *logging.Logger) *Decoder {
	return &Decoder{reg: reg, log: log.OrNop().Named("serialize")}
}

// Decode rebuilds a model from a stream produced by Encode. Panels whose
// factory is missing or fails are dropped and reported as warnings; the
// surrounding structure is simplified around the holes.
func (d *Decoder) Decode(data []byte) (*layout.Model, []Warning, error) {
	if len(data) < len(magic)+1 || !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, nil, ErrCorruptStream
	}
	if v := data[len(magic)]; v != Version {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownVersion, v)
	}

	zr, err := gzip.NewReader(bytes.NewReader(data[len(magic)+1:]))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	var dto layoutDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	m := layout.NewModel()
	var warnings []Warning
	for _, rd := range dto.Roots {
		kind, err := parseKind(rd.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
		}
		root := &layout.Root{
			ID:             id.RootID(rd.ID),
			Kind:           kind,
			Geometry:       rd.Geometry,
			Maximized:      rd.Maximized,
			NormalGeometry: rd.NormalGeometry,
		}
		if rd.Node != nil {
			root.Node = d.decodeNode(*rd.Node, &warnings)
		}
		// A floating window whose panels all failed to restore has nothing
		// left to show.
		if root.Node == nil && !kind.Persistent() {
			continue
		}
		m.AdoptRoot(root)
	}

	if err := m.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	return m, warnings, nil
}

func (d *Decoder) decodeNode(nd nodeDTO, warnings *[]Warning) layout.Node {
	switch nd.Type {
	case nodeWidget:
		w := d.decodeWidget(nd, warnings)
		if w == nil {
			return nil
		}
		return w

	case nodeTabs:
		var widgets []*layout.WidgetNode
		for _, cd := range nd.Children {
			if w := d.decodeWidget(cd, warnings); w != nil {
				widgets = append(widgets, w)
			}
		}
		if len(widgets) == 0 {
			return nil
		}
		g := layout.NewTabGroup(widgets...)
		if nd.Active >= 0 && nd.Active < len(widgets) {
			g.Active = nd.Active
		}
		return g

	case nodeSplit:
		var (
			children []layout.Node
			ratios   []float64
		)
		for i, cd := range nd.Children {
			c := d.decodeNode(cd, warnings)
			if c == nil {
				continue
			}
			children = append(children, c)
			if i < len(nd.Ratios) {
				ratios = append(ratios, nd.Ratios[i])
			}
		}
		switch len(children) {
		case 0:
			return nil
		case 1:
			return children[0]
		}
		orient := layout.Horizontal
		if nd.Orientation == "vertical" {
			orient = layout.Vertical
		}
		s := layout.NewSplitter(orient, children...)
		if len(ratios) == len(children) {
			var sum float64
			for _, r := range ratios {
				sum += r
			}
			// Dropped children leave the surviving ratios short of 1.
			if sum > 0 {
				for i := range ratios {
					ratios[i] /= sum
				}
				s.Ratios = ratios
			}
		}
		return s
	}

	*warnings = append(*warnings, Warning{Err: fmt.Errorf("unknown node type %q", nd.Type)})
	return nil
}

func (d *Decoder) decodeWidget(nd nodeDTO, warnings *[]Warning) *layout.WidgetNode {
	if nd.Type != nodeWidget {
		*warnings = append(*warnings, Warning{Err: fmt.Errorf("unexpected %q inside tab group", nd.Type)})
		return nil
	}

	panel, err := d.reg.Create(FactoryKey(nd.PersistentID), nd.PersistentID)
	if err != nil {
		d.log.Warn("panel restore skipped",
			zap.String("panel_id", nd.PersistentID), zap.Error(err))
		*warnings = append(*warnings, Warning{PersistentID: nd.PersistentID, Err: err})
		return nil
	}

	title := nd.Title
	if title == "" {
		title = panel.Title
	}
	w := layout.NewWidgetNode(nd.PersistentID, title, panel.Content)

	if len(nd.State) > 0 {
		if restorer, ok := panel.Content.(StateRestorer); ok {
			if err := restorer.RestoreState(nd.State); err != nil {
				d.log.Warn("panel state restore failed",
					zap.String("panel_id", nd.PersistentID), zap.Error(err))
				*warnings = append(*warnings, Warning{PersistentID: nd.PersistentID, Err: err})
			}
		}
	}
	return w
}

// FactoryKey extracts the registry key from a persistent panel ID. IDs use
// the form "key" or "key:instance".
func FactoryKey(persistentID string) string {
	if i := strings.IndexByte(persistentID, ':'); i >= 0 {
		return persistentID[:i]
	}
	return persistentID
}

func kindName(k layout.RootKind) string {
	switch k {
	case layout.MainArea:
		return "main"
	case layout.FloatingRoot:
		return "floating_root"
	case layout.FloatingWindow:
		return "floating_window"
	}
	return "unknown"
}

func parseKind(s string) (layout.RootKind, error) {
	switch s {
	case "main":
		return layout.MainArea, nil
	case "floating_root":
		return layout.FloatingRoot, nil
	case "floating_window":
		return layout.FloatingWindow, nil
	}
	return 0, fmt.Errorf("unknown root kind %q", s)
}
