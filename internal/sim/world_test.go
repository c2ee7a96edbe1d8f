package sim

import (
	"math"

	"github.com/san-kum/clothsim/internal/dynamo"
)

// counter moves x by one unit per tick, whatever dt is. blowAt > 0 turns x
// into NaN on that tick.
type counter struct {
	x      float32
	ticks  int
	blowAt int
}

func (c *counter) Step(dt float32) {
	c.ticks++
	c.x++
	if c.blowAt > 0 && c.ticks >= c.blowAt {
		c.x = float32(math.NaN())
	}
}

func (c *counter) Valid() bool {
	return !math.IsNaN(float64(c.x)) && !math.IsInf(float64(c.x), 0)
}

func (c *counter) CopyFrom(src *counter) { *c = *src }

func (c *counter) Interpolate(prev, cur *counter, alpha float32) {
	c.x = dynamo.Lerp(prev.x, cur.x, alpha)
	c.ticks = cur.ticks
	c.blowAt = cur.blowAt
}

func (c *counter) Clone() *counter {
	cp := *c
	return &cp
}

type position struct{}

func (position) Name() string              { return "x" }
func (position) Sample(c *counter) float64 { return float64(c.x) }

type tickCount struct{ n int }

func (m *tickCount) Name() string                  { return "ticks" }
func (m *tickCount) Observe(c *counter, t float64) { m.n++ }
func (m *tickCount) Value() float64                { return float64(m.n) }
func (m *tickCount) Reset()                        { m.n = 0 }

type recorder struct{ ticks []int }

func (r *recorder) OnTick(c *counter, tick int, t float64) { r.ticks = append(r.ticks, tick) }
