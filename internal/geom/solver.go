package geom

import (
	"errors"
	"math"
)

var (
	// ErrDegenerateFold is returned when the fold line is undefined for a pointer position:
	// the pointer sits on the page corner itself or the fold would turn the page by π.
	ErrDegenerateFold = errors.New("degenerate fold")

	// ErrOverlappingSegments is returned when two segments lie on the same line and so have no
	// single intersection point.
	ErrOverlappingSegments = errors.New("overlapping segments")
)

// foldEpsilon is how close to π a fold angle may get before it is treated as degenerate.
const foldEpsilon = 0.003

// FoldAngle returns the rotation of the folded part of the page when its active corner is
// dragged to pos (page-local).
func FoldAngle(pos Point, pageWidth, pageHeight float64, corner Corner) (float64, error) {
	left := pageWidth - pos.X + 1
	top := pos.Y
	if corner == CornerBottom {
		top = pageHeight - pos.Y
	}

	angle := 2 * math.Acos(left/math.Sqrt(top*top+left*left))
	if top < 0 {
		angle = -angle
	}

	if !isFinite(angle) || math.Abs(math.Pi-angle) < foldEpsilon {
		return 0, ErrDegenerateFold
	}

	if corner == CornerBottom {
		angle = -angle
	}
	return angle, nil
}

// RotatePoint rotates p by angle about the origin and then moves it to origin.
func RotatePoint(p, origin Point, angle float64) Point {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return Point{
		X: p.X*cos + p.Y*sin + origin.X,
		Y: p.Y*cos - p.X*sin + origin.Y,
	}
}

// FoldedRect returns the quadrilateral the folded paper occupies when the active corner
// is at localPos and the fold angle is angle.
func FoldedRect(localPos Point, pageWidth, pageHeight float64, corner Corner, angle float64) RectPoints {
	base := [4]Point{{0, 0}, {pageWidth, 0}, {0, pageHeight}, {pageWidth, pageHeight}}
	if corner == CornerBottom {
		base = [4]Point{{0, -pageHeight}, {pageWidth, -pageHeight}, {0, 0}, {pageWidth, 0}}
	}

	return RectPoints{
		TopLeft:     RotatePoint(base[0], localPos, angle),
		TopRight:    RotatePoint(base[1], localPos, angle),
		BottomLeft:  RotatePoint(base[2], localPos, angle),
		BottomRight: RotatePoint(base[3], localPos, angle),
	}
}

// FoldIntersections are the points where the folded rectangle crosses the static page
// boundary. A nil field means the crossing falls outside the page.
type FoldIntersections struct {
	Top    *Point
	Side   *Point
	Bottom *Point
}

// Intersections computes where the edges of the folded rect cross the top edge, the outer
// side and the bottom edge of the page.
func Intersections(pos Point, pageWidth, pageHeight float64, corner Corner, rect RectPoints) (FoldIntersections, error) {
	bounds := Rect{X: -1, Y: -1, Width: pageWidth + 2, Height: pageHeight + 2}
	topEdge := Segment{{0, 0}, {pageWidth, 0}}
	sideEdge := Segment{{pageWidth, 0}, {pageWidth, pageHeight}}
	bottomEdge := Segment{{0, pageHeight}, {pageWidth, pageHeight}}

	pairs := [3][2]Segment{
		{{pos, rect.TopRight}, topEdge},
		{{pos, rect.BottomLeft}, sideEdge},
		{{rect.BottomLeft, rect.BottomRight}, bottomEdge},
	}
	if corner == CornerBottom {
		pairs = [3][2]Segment{
			{{rect.TopLeft, rect.TopRight}, topEdge},
			{{pos, rect.TopLeft}, sideEdge},
			{{rect.BottomLeft, rect.BottomRight}, bottomEdge},
		}
	}

	var out [3]*Point
	for i, pair := range pairs {
		p, err := SegmentIntersection(bounds, pair[0], pair[1])
		if err != nil {
			return FoldIntersections{}, err
		}
		out[i] = p
	}
	return FoldIntersections{Top: out[0], Side: out[1], Bottom: out[2]}, nil
}

// LineIntersection returns the crossing point of the infinite lines through a and b.
// Parallel lines give nil; lines lying on each other give ErrOverlappingSegments.
func LineIntersection(a, b Segment) (*Point, error) {
	a1, b1, c1 := lineCoefficients(a)
	a2, b2, c2 := lineCoefficients(b)

	det := a1*b2 - a2*b1
	x := -((c1*b2 - c2*b1) / det)
	y := -((a1*c2 - a2*c1) / det)
	if isFinite(x) && isFinite(y) {
		return &Point{X: x, Y: y}, nil
	}

	norm := math.Hypot(a2, b2)
	if norm > 0 && math.Abs(a2*a[0].X+b2*a[0].Y+c2)/norm < 0.1 {
		return nil, ErrOverlappingSegments
	}
	return nil, nil
}

// SegmentIntersection is LineIntersection restricted to points inside bounds.
func SegmentIntersection(bounds Rect, a, b Segment) (*Point, error) {
	p, err := LineIntersection(a, b)
	if err != nil || p == nil {
		return nil, err
	}
	if !bounds.Contains(*p) {
		return nil, nil
	}
	return p, nil
}

// lineCoefficients returns A, B, C of the line Ax + By + C = 0 through s.
func lineCoefficients(s Segment) (float64, float64, float64) {
	return s[0].Y - s[1].Y, s[1].X - s[0].X, s[0].X*s[1].Y - s[1].X*s[0].Y
}

// AngleBetweenLines returns the unsigned angle between two lines, in [0, π].
func AngleBetweenLines(a, b Segment) float64 {
	a1, b1, _ := lineCoefficients(a)
	a2, b2, _ := lineCoefficients(b)
	denom := math.Hypot(a1, b1) * math.Hypot(a2, b2)
	if denom == 0 {
		return 0
	}
	return math.Acos(clamp((a1*a2+b1*b2)/denom, -1, 1))
}

// LimitToCircle pulls p onto the circle of the given radius around center when it lies
// outside it.
func LimitToCircle(center Point, radius float64, p Point) Point {
	d := center.Distance(p)
	if d <= radius || d == 0 {
		return p
	}
	return center.Add(p.Sub(center).Scale(radius / d))
}

// Progress maps a pointer x to how far a flip has travelled across a book spanning
// [bookLeft, bookLeft+bookWidth], in [0, 100].
//
// A flip measured from the trailing edge travels with increasing x; otherwise it is
// measured from the leading edge and travels with decreasing x.
func Progress(px float64, trailing bool, bookLeft, bookWidth float64) float64 {
	if bookWidth <= 0 || math.IsNaN(px) {
		return 0
	}
	travelled := bookLeft + bookWidth - px
	if trailing {
		travelled = px - bookLeft
	}
	return clamp(travelled/bookWidth*100, 0, 100)
}

// Shadow is the geometry of the shadow cast by a folding page.
type Shadow struct {
	Pos      Point   // page-local start of the shadow line
	Angle    float64 // perpendicular to the fold line, pointing away from the turning page
	Width    float64
	Opacity  float64
	Progress float64 // 0-100
}

// ShadowGeometry derives the shadow for a fold whose shadow line starts at pos and makes
// foldAngle with the top edge.
func ShadowGeometry(pos Point, foldAngle, pageWidth, progress, maxOpacity float64) Shadow {
	progress = clamp(progress, 0, 100)
	return Shadow{
		Pos:      pos,
		Angle:    foldAngle + 3*math.Pi/2,
		Width:    pageWidth * 0.75 * progress / 100,
		Opacity:  (100 - progress) * maxOpacity / 100,
		Progress: progress,
	}
}

// PathSteps is the number of pixel-granular positions on the straight path from start to
// dest, both ends included.
func PathSteps(start, dest Point) int {
	return 1 + int(math.Max(math.Abs(start.X-dest.X), math.Abs(start.Y-dest.Y)))
}
