// Package geom holds the pure geometry behind a page fold: points and rectangles in
// page-local space, the fold angle and folded rectangle solver, clip-line intersections,
// shadow geometry and the affine math used to move between coordinate spaces.
//
// Page-local space has its origin at the spine-facing top corner of the page being folded,
// with x growing away from the spine and y growing downwards.
package geom

import "math"

// Point is a 2D point or vector.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point        { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point        { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Scale(s float64) Point    { return Point{X: p.X * s, Y: p.Y * s} }
func (p Point) IsFinite() bool           { return isFinite(p.X) && isFinite(p.Y) }
func (p Point) Distance(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Lerp interpolates between p (t=0) and q (t=1).
func Lerp(p, q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Segment is a line segment between two points.
type Segment [2]Point

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// RectPoints are the four corners of a (possibly rotated) rectangle.
type RectPoints struct {
	TopLeft     Point `json:"topLeft"`
	TopRight    Point `json:"topRight"`
	BottomLeft  Point `json:"bottomLeft"`
	BottomRight Point `json:"bottomRight"`
}

// Polygon returns the corners in drawing order.
func (r RectPoints) Polygon() []Point {
	return []Point{r.TopLeft, r.TopRight, r.BottomRight, r.BottomLeft}
}

// Corner is the horizontal edge a fold pivots near.
type Corner int

const (
	CornerTop Corner = iota
	CornerBottom
)

func (c Corner) String() string {
	if c == CornerBottom {
		return "bottom"
	}
	return "top"
}

// Direction is the way a page travels during a flip.
type Direction int

const (
	Forward Direction = iota
	Back
)

func (d Direction) String() string {
	if d == Back {
		return "back"
	}
	return "forward"
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
