package metrics

import (
	"math"

	"github.com/san-kum/clothsim/internal/physics"
)

// Stability is the fraction of ticks on which the world stayed finite and no
// free particle moved faster than threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(w *physics.Simulation, t float64) {
	s.samples++
	if !w.Valid() || w.MaxSpeed() > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Containment is the fraction of ticks on which every free particle was
// inside the collision box on x and y.
type Containment struct {
	name    string
	escapes int
	samples int
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(w *physics.Simulation, t float64) {
	c.samples++
	p := w.Particles
	for i := 0; i < p.Free(); i++ {
		if !w.Params.Bounds.Contains(p.Position[i]) {
			c.escapes++
			return
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.escapes)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.escapes = 0
	c.samples = 0
}

// MaxStrain is the largest relative spring extension seen over the run.
type MaxStrain struct {
	name string
	max  float64
}

func NewMaxStrain() *MaxStrain {
	return &MaxStrain{name: "max_strain"}
}

func (m *MaxStrain) Name() string { return m.name }

func (m *MaxStrain) Observe(w *physics.Simulation, t float64) {
	m.max = math.Max(m.max, Strain(w))
}

func (m *MaxStrain) Value() float64 { return m.max }

func (m *MaxStrain) Reset() { m.max = 0 }

// Strain returns max |len - rest| / rest over springs with a positive rest
// length.
func Strain(w *physics.Simulation) float64 {
	s, pos := w.Springs, w.Particles.Position
	var worst float64
	for i := 0; i < s.Len(); i++ {
		rest := float64(s.RestLength[i])
		if rest <= 0 {
			continue
		}
		d := float64(pos[s.M2[i]].Sub(pos[s.M1[i]]).Len())
		worst = math.Max(worst, math.Abs(d-rest)/rest)
	}
	return worst
}
