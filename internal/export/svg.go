package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/clothsim/internal/physics"
	"github.com/san-kum/clothsim/internal/render"
)

// WorldToSVG draws the box, springs and particles of w. The box fills the
// image; y points up.
func WorldToSVG(w *physics.Simulation, width, height int) string {
	b := w.Params.Bounds
	size := b.Size()
	sx, sy := float32(1), float32(1)
	if size[0] > 0 {
		sx = float32(width) / size[0]
	}
	if size[1] > 0 {
		sy = float32(height) / size[1]
	}
	project := func(x, y float32) (float32, float32) {
		return (x - b.Min[0]) * sx, float32(height) - (y-b.Min[1])*sy
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a" stroke="#444444"/>
<g stroke="#00aa88" stroke-width="1">
`, width, height, width, height))

	lines := render.Lines(nil, w)
	for i := 0; i+5 < len(lines); i += 6 {
		x1, y1 := project(lines[i], lines[i+1])
		x2, y2 := project(lines[i+3], lines[i+4])
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x1, y1, x2, y2))
	}
	sb.WriteString("</g>\n")

	points := render.Points(nil, w)
	frozen := 3 * w.Particles.FrozenStart
	writeDots := func(fill string, pts []float32) {
		sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", fill))
		for i := 0; i+2 < len(pts); i += 3 {
			cx, cy := project(pts[i], pts[i+1])
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2.5"/>
`, cx, cy))
		}
		sb.WriteString("</g>\n")
	}
	writeDots("#00ff00", points[:frozen])
	writeDots("#ff5555", points[frozen:])

	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG plots values against times as a single path. NaN samples are
// skipped.
func SeriesToSVG(times, values []float64, width, height int, strokeColor string) string {
	type point struct{ X, Y float64 }
	points := make([]point, 0, len(values))
	for i, v := range values {
		if i < len(times) && !math.IsNaN(v) && !math.IsInf(v, 0) {
			points = append(points, point{times[i], v})
		}
	}
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
