// Package geometry provides the screen-space primitives used by the
// hit-testing and layout subsystems: integer points, rectangles, and the
// edge/zone math for resolving dock positions.
package geometry

// Point is a position in screen coordinates.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a screen-space rectangle. W and H are always non-negative.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Edge identifies one side of a rectangle.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// String returns the lowercase edge name.
func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	}
	return "unknown"
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive, matching widget-toolkit hit testing.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Area returns the rectangle's area.
func (r Rect) Area() int {
	return r.W * r.H
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Center returns the rectangle's center point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// Inset returns r shrunk by n on every side. A rect smaller than 2n in
// either dimension collapses to empty at its center.
func (r Rect) Inset(n int) Rect {
	out := Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
	if out.W < 0 {
		out.X = r.X + r.W/2
		out.W = 0
	}
	if out.H < 0 {
		out.Y = r.Y + r.H/2
		out.H = 0
	}
	return out
}

// EdgeZone returns the sub-rectangle covering the given edge's drop zone,
// where frac is the fraction of the rectangle's extent the zone occupies
// (0 < frac <= 0.5).
func (r Rect) EdgeZone(e Edge, frac float64) Rect {
	w := int(float64(r.W) * frac)
	h := int(float64(r.H) * frac)
	switch e {
	case EdgeLeft:
		return Rect{X: r.X, Y: r.Y, W: w, H: r.H}
	case EdgeRight:
		return Rect{X: r.X + r.W - w, Y: r.Y, W: w, H: r.H}
	case EdgeTop:
		return Rect{X: r.X, Y: r.Y, W: r.W, H: h}
	case EdgeBottom:
		return Rect{X: r.X, Y: r.Y + r.H - h, W: r.W, H: h}
	}
	return Rect{}
}

// CenterZone returns the inner rectangle left after removing frac-sized
// margins from all four sides.
func (r Rect) CenterZone(frac float64) Rect {
	w := int(float64(r.W) * frac)
	h := int(float64(r.H) * frac)
	return Rect{X: r.X + w, Y: r.Y + h, W: r.W - 2*w, H: r.H - 2*h}
}

// SplitH returns the left and right halves of r.
func (r Rect) SplitH() (Rect, Rect) {
	half := r.W / 2
	return Rect{X: r.X, Y: r.Y, W: half, H: r.H},
		Rect{X: r.X + half, Y: r.Y, W: r.W - half, H: r.H}
}

// SplitV returns the top and bottom halves of r.
func (r Rect) SplitV() (Rect, Rect) {
	half := r.H / 2
	return Rect{X: r.X, Y: r.Y, W: r.W, H: half},
		Rect{X: r.X, Y: r.Y + half, W: r.W, H: r.H - half}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}
