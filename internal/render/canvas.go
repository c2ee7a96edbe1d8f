package render

import (
	"strings"

	"github.com/san-kum/clothsim/internal/physics"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at (x, y) in sub-pixel coordinates. The canvas is
// (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawWorld clears the canvas and draws the box outline, every spring and
// every particle of w, scaled so the box fills the canvas.
func (c *Canvas) DrawWorld(w *physics.Simulation) {
	c.Clear()
	vp := newViewport(w.Params.Bounds, c.Width*2, c.Height*4)

	x0, y0 := 0, 0
	x1, y1 := c.Width*2-1, c.Height*4-1
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)

	pos := w.Particles.Position
	s := w.Springs
	for i := range s.M1 {
		ax, ay := vp.project(pos[s.M1[i]][0], pos[s.M1[i]][1])
		bx, by := vp.project(pos[s.M2[i]][0], pos[s.M2[i]][1])
		c.DrawLine(ax, ay, bx, by)
	}
	for _, p := range pos {
		c.Set(vp.project(p[0], p[1]))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// viewport maps world x/y in a box onto sub-pixels, y pointing down.
type viewport struct {
	minX, minY     float32
	scaleX, scaleY float32
	w, h           int
}

func newViewport(b physics.Box, w, h int) viewport {
	size := b.Size()
	vp := viewport{minX: b.Min[0], minY: b.Min[1], w: w, h: h}
	if size[0] > 0 {
		vp.scaleX = float32(w-1) / size[0]
	}
	if size[1] > 0 {
		vp.scaleY = float32(h-1) / size[1]
	}
	return vp
}

// project clamps to one sub-pixel outside the canvas so diverged points stay
// cheap to rasterize.
func (v viewport) project(x, y float32) (int, int) {
	fx := clampf((x-v.minX)*v.scaleX+0.5, -1, float32(v.w))
	fy := clampf((y-v.minY)*v.scaleY+0.5, -1, float32(v.h))
	return int(fx), v.h - 1 - int(fy)
}

func clampf(v, lo, hi float32) float32 {
	if v != v {
		return lo
	}
	return max(lo, min(v, hi))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
