package id

import (
	"strings"
	"testing"
)

func TestPrefixedIDs(t *testing.T) {
	root := NewRootID()
	if !strings.HasPrefix(root.String(), "win_") {
		t.Errorf("root ID %q missing prefix", root)
	}
	drag := NewDragID()
	if !strings.HasPrefix(drag.String(), "drag_") {
		t.Errorf("drag ID %q missing prefix", drag)
	}

	raw := strings.TrimPrefix(root.String(), "win_")
	if !IsValid(raw) {
		t.Errorf("%q is not a valid ULID", raw)
	}
}

func TestGenerateUnique(t *testing.T) {
	g := NewGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := g.GenerateString()
		if seen[s] {
			t.Fatalf("duplicate ULID %q", s)
		}
		seen[s] = true
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	g := NewGenerator()
	s := g.GenerateString()
	ts, err := Timestamp(s)
	if err != nil {
		t.Fatal(err)
	}
	if ts.IsZero() {
		t.Fatal("zero timestamp")
	}
}
