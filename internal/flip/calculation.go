package flip

import (
	"math"

	"github.com/pageflip/pageflip/internal/geom"
)

// Calculation is the fold geometry of one gesture. Direction, corner and page size are
// fixed when the gesture starts; Calc recomputes everything else per pointer position.
type Calculation struct {
	direction  geom.Direction
	corner     geom.Corner
	pageWidth  float64
	pageHeight float64

	angle    float64
	position geom.Point
	rect     geom.RectPoints
	cross    geom.FoldIntersections
}

// NewCalculation starts the geometry of a gesture.
func NewCalculation(dir geom.Direction, corner geom.Corner, pageWidth, pageHeight float64) *Calculation {
	return &Calculation{direction: dir, corner: corner, pageWidth: pageWidth, pageHeight: pageHeight}
}

// Calc folds the active corner towards localPos. It returns false and leaves the previous
// geometry in place when the fold is degenerate there.
func (c *Calculation) Calc(localPos geom.Point) bool {
	next := *c
	if err := next.calc(localPos); err != nil {
		return false
	}
	*c = next
	return true
}

func (c *Calculation) calc(localPos geom.Point) error {
	pos, err := c.angleAndPosition(localPos)
	if err != nil {
		return err
	}
	cross, err := geom.Intersections(pos, c.pageWidth, c.pageHeight, c.corner, c.rect)
	if err != nil {
		return err
	}
	c.position = pos
	c.cross = cross
	return nil
}

// angleAndPosition keeps the corner on paper that is still attached at the spine: within a
// page width of the spine end of its own edge, and within a diagonal of the opposite end.
func (c *Calculation) angleAndPosition(pos geom.Point) (geom.Point, error) {
	if err := c.update(pos); err != nil {
		return pos, err
	}

	near, far := geom.Point{}, geom.Pt(0, c.pageHeight)
	if c.corner == geom.CornerBottom {
		near, far = far, near
	}

	if limited := geom.LimitToCircle(near, c.pageWidth, pos); limited != pos {
		pos = limited
		if err := c.update(pos); err != nil {
			return pos, err
		}
	}

	check, corner := c.rect.BottomRight, c.rect.TopLeft
	if c.corner == geom.CornerBottom {
		check, corner = c.rect.TopRight, c.rect.BottomLeft
	}
	if check.X <= 0 {
		diagonal := math.Hypot(c.pageWidth, c.pageHeight)
		pos = geom.LimitToCircle(far, diagonal, corner)
		if err := c.update(pos); err != nil {
			return pos, err
		}
	}

	if math.Abs(pos.X-c.pageWidth) < 1 && math.Abs(pos.Y) < 1 {
		return pos, geom.ErrDegenerateFold
	}
	return pos, nil
}

func (c *Calculation) update(pos geom.Point) error {
	angle, err := geom.FoldAngle(pos, c.pageWidth, c.pageHeight, c.corner)
	if err != nil {
		return err
	}
	c.angle = angle
	c.rect = geom.FoldedRect(pos, c.pageWidth, c.pageHeight, c.corner, angle)
	return nil
}

func (c *Calculation) Direction() geom.Direction { return c.direction }
func (c *Calculation) Corner() geom.Corner       { return c.corner }

// Position is the active corner after limiting, page-local.
func (c *Calculation) Position() geom.Point { return c.position }

// Rect is the folded page rectangle.
func (c *Calculation) Rect() geom.RectPoints { return c.rect }

// Angle is the rotation to draw the turning page with.
func (c *Calculation) Angle() float64 {
	if c.direction == geom.Forward {
		return -c.angle
	}
	return c.angle
}

// ActiveCorner is where the turning page's image origin lands.
func (c *Calculation) ActiveCorner() geom.Point {
	if c.direction == geom.Forward {
		return c.rect.TopLeft
	}
	return c.rect.TopRight
}

// BottomPagePosition is where the revealed page's image origin sits.
func (c *Calculation) BottomPagePosition() geom.Point {
	if c.direction == geom.Back {
		return geom.Pt(c.pageWidth, 0)
	}
	return geom.Point{}
}

// Progress is how far the turn has travelled, in [0, 100].
func (c *Calculation) Progress() float64 {
	return geom.Progress(c.position.X, false, -c.pageWidth, 2*c.pageWidth)
}

// FlippingClipArea is the visible part of the turning page.
func (c *Calculation) FlippingClipArea() []geom.Point {
	area := []geom.Point{c.rect.TopLeft}
	area = appendPoint(area, c.cross.Top)

	clipBottom := c.cross.Side == nil
	area = appendPoint(area, c.cross.Side)
	area = appendPoint(area, c.cross.Bottom)
	if clipBottom || c.corner == geom.CornerBottom {
		area = append(area, c.rect.BottomLeft)
	}
	return area
}

// BottomClipArea is the part of the revealed page uncovered by the turn.
func (c *Calculation) BottomClipArea() []geom.Point {
	w, h := c.pageWidth, c.pageHeight
	var area []geom.Point
	area = appendPoint(area, c.cross.Top)

	if c.corner == geom.CornerTop {
		area = append(area, geom.Pt(w, 0))
	} else {
		if c.cross.Top != nil {
			area = append(area, geom.Pt(w, 0))
		}
		area = append(area, geom.Pt(w, h))
	}

	if side := c.cross.Side; side != nil {
		if c.cross.Top == nil || side.Distance(*c.cross.Top) >= 10 {
			area = append(area, *side)
		}
	} else if c.corner == geom.CornerTop {
		area = append(area, geom.Pt(w, h))
	}

	area = appendPoint(area, c.cross.Bottom)
	return appendPoint(area, c.cross.Top)
}

// ShadowStart is where the fold shadow line begins, or false when the fold line does not
// cross the page.
func (c *Calculation) ShadowStart() (geom.Point, bool) {
	p := c.cross.Top
	if c.corner == geom.CornerBottom && c.cross.Side != nil {
		p = c.cross.Side
	}
	if p == nil {
		return geom.Point{}, false
	}
	return *p, true
}

// ShadowAngle is the angle of the fold line against the top edge.
func (c *Calculation) ShadowAngle() (float64, bool) {
	start, ok := c.ShadowStart()
	if !ok {
		return 0, false
	}
	end := c.cross.Bottom
	if side := c.cross.Side; side != nil && *side != start {
		end = side
	}
	if end == nil {
		return 0, false
	}
	angle := geom.AngleBetweenLines(geom.Segment{start, *end}, geom.Segment{{}, {X: c.pageWidth}})
	if c.direction == geom.Forward {
		return angle, true
	}
	return math.Pi - angle, true
}

func appendPoint(area []geom.Point, p *geom.Point) []geom.Point {
	if p == nil {
		return area
	}
	return append(area, *p)
}
