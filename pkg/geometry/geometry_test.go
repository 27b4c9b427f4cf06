package geometry

import "testing"

func TestContainsEdgeExclusive(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 100, H: 50}
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{10, 10}, true},    // top-left corner inclusive
		{Point{109, 59}, true},   // last interior pixel
		{Point{110, 10}, false},  // right edge exclusive
		{Point{10, 60}, false},   // bottom edge exclusive
		{Point{9, 30}, false},
		{Point{60, 30}, true},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestEdgeZones(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 400, H: 200}
	tests := []struct {
		edge Edge
		want Rect
	}{
		{EdgeLeft, Rect{0, 0, 100, 200}},
		{EdgeRight, Rect{300, 0, 100, 200}},
		{EdgeTop, Rect{0, 0, 400, 50}},
		{EdgeBottom, Rect{0, 150, 400, 50}},
	}
	for _, tt := range tests {
		if got := r.EdgeZone(tt.edge, 0.25); got != tt.want {
			t.Errorf("EdgeZone(%v) = %v, want %v", tt.edge, got, tt.want)
		}
	}
	if got := r.CenterZone(0.25); got != (Rect{100, 50, 200, 100}) {
		t.Errorf("CenterZone = %v", got)
	}
}

func TestSplitsCoverWholeRect(t *testing.T) {
	// Odd sizes: the second half takes the remainder.
	r := Rect{X: 3, Y: 7, W: 101, H: 51}

	l, rt := r.SplitH()
	if l.W+rt.W != r.W || rt.X != l.X+l.W {
		t.Fatalf("SplitH gap: %v %v", l, rt)
	}
	top, bot := r.SplitV()
	if top.H+bot.H != r.H || bot.Y != top.Y+top.H {
		t.Fatalf("SplitV gap: %v %v", top, bot)
	}
}

func TestInsetCollapse(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 100}
	got := r.Inset(8)
	if !got.Empty() {
		t.Fatalf("Inset past width should be empty, got %v", got)
	}
	if got.X != 5 {
		t.Fatalf("collapsed rect should sit at the center, got %v", got)
	}
}

func TestIntersects(t *testing.T) {
	a := Rect{0, 0, 10, 10}
	if !a.Intersects(Rect{5, 5, 10, 10}) {
		t.Fatal("overlapping rects")
	}
	if a.Intersects(Rect{10, 0, 5, 5}) {
		t.Fatal("touching edges do not overlap")
	}
}
