package serialize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panekit/panekit/pkg/geometry"
	"github.com/panekit/panekit/pkg/layout"
	"github.com/panekit/panekit/pkg/registry"
)

// statefulPanel remembers a value across save/restore.
type statefulPanel struct {
	Value string `json:"value"`
}

func (p *statefulPanel) SaveState() ([]byte, error)  { return json.Marshal(p) }
func (p *statefulPanel) RestoreState(b []byte) error { return json.Unmarshal(b, p) }

func testRegistry() *registry.Registry {
	r := registry.New(nil)
	for _, key := range []string{"files", "editor", "term"} {
		r.Register(key, func(pid string) (registry.Panel, error) {
			return registry.Panel{Title: pid, Content: &statefulPanel{}}, nil
		})
	}
	return r
}

func sampleModel() *layout.Model {
	m := layout.NewModel()
	main := m.AddRoot(layout.MainArea, geometry.Rect{W: 1280, H: 720})
	left := layout.NewTabGroup(layout.NewWidgetNode("files", "Files", &statefulPanel{Value: "tree"}))
	right := layout.NewTabGroup(
		layout.NewWidgetNode("editor:1", "Editor", &statefulPanel{Value: "main.go"}),
		layout.NewWidgetNode("editor:2", "Editor 2", &statefulPanel{}),
	)
	right.Active = 1
	main.Node = layout.NewSplitter(layout.Horizontal, left, right)

	f := m.AddRoot(layout.FloatingWindow, geometry.Rect{X: 200, Y: 100, W: 500, H: 400})
	f.Node = layout.NewTabGroup(layout.NewWidgetNode("term", "Terminal", &statefulPanel{Value: "~"}))
	return m
}

func TestRoundTrip(t *testing.T) {
	m := sampleModel()

	data, err := NewEncoder(nil).Encode(m)
	require.NoError(t, err)

	got, warnings, err := NewDecoder(testRegistry(), nil).Decode(data)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, got.Roots(), 2)
	mainRoot, ok := got.MainRoot()
	require.True(t, ok)
	assert.Equal(t, geometry.Rect{W: 1280, H: 720}, mainRoot.Geometry)

	s, ok := mainRoot.Node.(*layout.Splitter)
	require.True(t, ok, "main root should hold a splitter")
	assert.Equal(t, layout.Horizontal, s.Orientation)

	right, ok := s.Children[1].(*layout.TabGroup)
	require.True(t, ok)
	assert.Equal(t, 1, right.Active)
	assert.Equal(t, "editor:2", right.Children[1].PersistentID)

	// Panel state came back through the factory content.
	w, ok := got.FindWidget("editor:1")
	require.True(t, ok)
	assert.Equal(t, "main.go", w.Content.(*statefulPanel).Value)

	floats := got.FloatingRoots()
	require.Len(t, floats, 1)
	assert.Equal(t, geometry.Rect{X: 200, Y: 100, W: 500, H: 400}, floats[0].Geometry)
}

func TestRoundTripStability(t *testing.T) {
	data, err := NewEncoder(nil).Encode(sampleModel())
	require.NoError(t, err)

	m2, _, err := NewDecoder(testRegistry(), nil).Decode(data)
	require.NoError(t, err)

	data2, err := NewEncoder(nil).Encode(m2)
	require.NoError(t, err)

	// Save of a restore equals the original save.
	assert.Equal(t, data, data2)
}

func TestDecodeMissingFactorySkipsPanel(t *testing.T) {
	data, err := NewEncoder(nil).Encode(sampleModel())
	require.NoError(t, err)

	reg := testRegistry()
	reg.Unregister("files")

	m, warnings, err := NewDecoder(reg, nil).Decode(data)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, "files", warnings[0].PersistentID)
	assert.ErrorIs(t, warnings[0].Err, registry.ErrUnknownPanel)

	// The emptied left group collapsed; the editors survive.
	mainRoot, _ := m.MainRoot()
	g, ok := mainRoot.Node.(*layout.TabGroup)
	require.True(t, ok, "splitter should collapse around the missing panel")
	assert.Len(t, g.Children, 2)
	_, found := m.FindWidget("files")
	assert.False(t, found)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	dec := NewDecoder(testRegistry(), nil)

	cases := map[string][]byte{
		"empty":       nil,
		"short":       []byte("PN"),
		"wrong magic": []byte("XXXX\x01rest"),
		"not gzip":    []byte("PNKL\x01not-gzip-at-all"),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := dec.Decode(data)
			assert.ErrorIs(t, err, ErrCorruptStream)
		})
	}
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	data, err := NewEncoder(nil).Encode(sampleModel())
	require.NoError(t, err)
	data[4] = 99

	_, _, err = NewDecoder(testRegistry(), nil).Decode(data)
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestFactoryKey(t *testing.T) {
	assert.Equal(t, "editor", FactoryKey("editor:1"))
	assert.Equal(t, "files", FactoryKey("files"))
	assert.Equal(t, "a", FactoryKey("a:b:c"))
}

func TestEncodeEmptyMainArea(t *testing.T) {
	m := layout.NewModel()
	m.AddRoot(layout.MainArea, geometry.Rect{W: 800, H: 600})

	data, err := NewEncoder(nil).Encode(m)
	require.NoError(t, err)

	got, warnings, err := NewDecoder(testRegistry(), nil).Decode(data)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	root, ok := got.MainRoot()
	require.True(t, ok, "empty main area must survive the round trip")
	assert.True(t, root.Empty())
}

func TestWarningString(t *testing.T) {
	w := Warning{PersistentID: "x", Err: errors.New("gone")}
	assert.Contains(t, w.String(), "x")
}
