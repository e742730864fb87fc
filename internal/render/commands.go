package render

import (
	"encoding/json"
	"log/slog"

	"github.com/pageflip/pageflip/internal/geom"
	"github.com/pageflip/pageflip/internal/logging"
)

// DrawCommand is a single drawing operation for a frontend to execute, in order.
type DrawCommand struct {
	Op        string          `json:"op"`                  // "save", "clip", "page", "gradient", "restore"
	Role      Role            `json:"role,omitempty"`      // which layer produced it
	Handle    string          `json:"handle,omitempty"`    // page content to draw
	Blank     bool            `json:"blank,omitempty"`     // page is the blank filler
	Transform []float64       `json:"transform,omitempty"` // [a, b, c, d, e, f] affine matrix
	Width     float64         `json:"width,omitempty"`     // page image size
	Height    float64         `json:"height,omitempty"`    //
	Path      []PathCommand   `json:"path,omitempty"`      // polygon for "clip" and "gradient"
	Mesh      [][3]geom.Point `json:"mesh,omitempty"`      // triangulated clip polygon
	Gradient  *GradientJSON   `json:"gradient,omitempty"`
}

// PathCommand is one path segment in Canvas2D form: ["M", x, y], ["L", x, y], ["Z"].
type PathCommand []interface{}

// GradientJSON is the wire form of a Gradient.
type GradientJSON struct {
	X0    float64    `json:"x0"`
	Y0    float64    `json:"y0"`
	X1    float64    `json:"x1"`
	Y1    float64    `json:"y1"`
	Stops []StopJSON `json:"stops"`
}

// StopJSON is the wire form of a Stop.
type StopJSON struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// CompileDrawCommands generates the draw command buffer for a frame, back to front.
func CompileDrawCommands(f Frame, log *slog.Logger) []DrawCommand {
	log = logging.OrNop(log)
	var commands []DrawCommand
	if len(f.Clip) > 0 {
		commands = append(commands, DrawCommand{Op: "save"}, clipCommand(f.Clip, "", log))
	}

	for _, l := range f.Layers {
		hasClip := len(l.Clip) > 0
		if hasClip {
			commands = append(commands, DrawCommand{Op: "save"}, clipCommand(l.Clip, l.Role, log))
		}

		switch l.Kind {
		case LayerPage:
			commands = append(commands, DrawCommand{
				Op:        "page",
				Role:      l.Role,
				Handle:    string(l.Handle),
				Blank:     l.Blank,
				Transform: l.Transform.ToSlice(),
				Width:     f.Bounds.PageWidth,
				Height:    f.Bounds.Height,
			})
		case LayerShadow:
			cmd := DrawCommand{Op: "gradient", Role: l.Role, Path: polygonPath(l.Shape)}
			if g := l.Gradient; g != nil {
				cmd.Gradient = &GradientJSON{X0: g.From.X, Y0: g.From.Y, X1: g.To.X, Y1: g.To.Y}
				for _, s := range g.Stops {
					cmd.Gradient.Stops = append(cmd.Gradient.Stops, StopJSON{Offset: s.Offset, Color: s.CSS()})
				}
			}
			commands = append(commands, cmd)
		}

		if hasClip {
			commands = append(commands, DrawCommand{Op: "restore"})
		}
	}

	if len(f.Clip) > 0 {
		commands = append(commands, DrawCommand{Op: "restore"})
	}
	return commands
}

func clipCommand(polygon []geom.Point, role Role, log *slog.Logger) DrawCommand {
	cmd := DrawCommand{Op: "clip", Role: role, Path: polygonPath(polygon)}
	mesh, err := geom.Triangulate(geom.CompactPolygon(polygon))
	if err != nil {
		// The path alone is enough for 2D frontends.
		log.Debug("triangulate clip", "role", role, "points", len(polygon), "error", err)
		return cmd
	}
	cmd.Mesh = mesh
	return cmd
}

func polygonPath(polygon []geom.Point) []PathCommand {
	if len(polygon) == 0 {
		return nil
	}
	path := make([]PathCommand, 0, len(polygon)+1)
	for i, p := range polygon {
		op := "L"
		if i == 0 {
			op = "M"
		}
		path = append(path, PathCommand{op, p.X, p.Y})
	}
	return append(path, PathCommand{"Z"})
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// HitTest returns the topmost page layer containing the screen point, or false.
func HitTest(f Frame, p geom.Point) (Layer, bool) {
	for i := len(f.Layers) - 1; i >= 0; i-- {
		l := f.Layers[i]
		if l.Kind != LayerPage || !insidePolygon(l.Shape, p) {
			continue
		}
		if len(l.Clip) > 0 && !insidePolygon(l.Clip, p) {
			continue
		}
		return l, true
	}
	return Layer{}, false
}

// insidePolygon is the even-odd ray casting test.
func insidePolygon(polygon []geom.Point, p geom.Point) bool {
	in := false
	for i, j := 0, len(polygon)-1; i < len(polygon); j, i = i, i+1 {
		a, b := polygon[i], polygon[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}
