package geom

import (
	"fmt"

	"github.com/rclancey/earcut"
)

// Triangulate splits a simple polygon into triangles using the earcut algorithm. Polygons
// with fewer than three vertices yield no triangles.
func Triangulate(polygon []Point) ([][3]Point, error) {
	if len(polygon) < 3 {
		return nil, nil
	}

	// earcut wants a flat [x0, y0, x1, y1, ...] array.
	coords := make([]float64, len(polygon)*2)
	for i, p := range polygon {
		coords[i*2] = p.X
		coords[i*2+1] = p.Y
	}

	indices, err := earcut.Earcut(coords, nil /* holeIndices */, 2 /* dim */)
	if err != nil {
		return nil, fmt.Errorf("triangulate %d-vertex polygon: %w", len(polygon), err)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("triangulate: %d indices is not a whole number of triangles", len(indices))
	}

	triangles := make([][3]Point, len(indices)/3)
	for t := range triangles {
		for v := 0; v < 3; v++ {
			triangles[t][v] = polygon[indices[t*3+v]]
		}
	}
	return triangles, nil
}

// CompactPolygon drops consecutive duplicate vertices (and a closing vertex equal to the
// first) so degenerate clip areas do not produce zero-area triangles.
func CompactPolygon(polygon []Point) []Point {
	const eps = 1e-9
	out := make([]Point, 0, len(polygon))
	for _, p := range polygon {
		if n := len(out); n > 0 && out[n-1].Distance(p) < eps {
			continue
		}
		out = append(out, p)
	}
	if n := len(out); n > 1 && out[0].Distance(out[n-1]) < eps {
		out = out[:n-1]
	}
	return out
}
