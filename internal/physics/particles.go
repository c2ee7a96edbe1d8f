package physics

import (
	"math"

	"github.com/san-kum/clothsim/internal/dynamo"
)

// Infinite is the mass of a frozen particle. F/m for it is always zero.
var Infinite = float32(math.Inf(1))

// Particles stores particle state as parallel arrays. Indices below
// FrozenStart are free; the rest are frozen anchors with infinite mass.
type Particles struct {
	FrozenStart int
	Position    []dynamo.Vec3
	Velocity    []dynamo.Vec3
	Force       []dynamo.Vec3
	Mass        []float32
}

func NewParticles(capacity int) *Particles {
	return &Particles{
		Position: make([]dynamo.Vec3, 0, capacity),
		Velocity: make([]dynamo.Vec3, 0, capacity),
		Force:    make([]dynamo.Vec3, 0, capacity),
		Mass:     make([]float32, 0, capacity),
	}
}

// FromArrays builds a store over copies of the given arrays. Every particle
// at or after frozenStart gets infinite mass regardless of mass[i].
func FromArrays(position, velocity []dynamo.Vec3, mass []float32, frozenStart int) (*Particles, error) {
	n := len(position)
	if len(velocity) != n {
		return nil, dynamo.Invalid("velocity", -1, "length %d, want %d", len(velocity), n)
	}
	if len(mass) != n {
		return nil, dynamo.Invalid("mass", -1, "length %d, want %d", len(mass), n)
	}
	if frozenStart < 0 || frozenStart > n {
		return nil, dynamo.Invalid("frozen_start", -1, "%d outside [0, %d]", frozenStart, n)
	}

	p := NewParticles(n)
	p.Position = append(p.Position, position...)
	p.Velocity = append(p.Velocity, velocity...)
	p.Force = p.Force[:n]
	p.Mass = append(p.Mass, mass...)
	p.FrozenStart = frozenStart
	for i := frozenStart; i < n; i++ {
		p.Mass[i] = Infinite
		p.Velocity[i] = dynamo.Vec3{}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Particles) Len() int { return len(p.Position) }

// Free returns the number of simulated particles.
func (p *Particles) Free() int { return p.FrozenStart }

// Frozen returns the number of anchor particles.
func (p *Particles) Frozen() int { return p.Len() - p.FrozenStart }

// IsFrozen reports whether particle i is an anchor.
func (p *Particles) IsFrozen(i int) bool { return i >= p.FrozenStart }

// AddFree appends a simulated particle and returns its index. Free particles
// must all be added before the first frozen one.
func (p *Particles) AddFree(pos, vel dynamo.Vec3, mass float32) (int, error) {
	if p.Frozen() > 0 {
		return -1, dynamo.Invalid("position", p.Len(), "free particle added after %d frozen particles", p.Frozen())
	}
	if !validMass(mass) {
		return -1, dynamo.Invalid("mass", p.Len(), "must be finite and positive, got %v", mass)
	}
	if !dynamo.IsFinite(pos) || !dynamo.IsFinite(vel) {
		return -1, dynamo.Invalid("position", p.Len(), "non-finite position or velocity")
	}

	idx := p.Len()
	p.Position = append(p.Position, pos)
	p.Velocity = append(p.Velocity, vel)
	p.Force = append(p.Force, dynamo.Vec3{})
	p.Mass = append(p.Mass, mass)
	p.FrozenStart = idx + 1
	return idx, nil
}

// AddFrozen appends an anchor and returns its index.
func (p *Particles) AddFrozen(pos dynamo.Vec3) int {
	idx := p.Len()
	p.Position = append(p.Position, pos)
	p.Velocity = append(p.Velocity, dynamo.Vec3{})
	p.Force = append(p.Force, dynamo.Vec3{})
	p.Mass = append(p.Mass, Infinite)
	return idx
}

// Validate reports the first broken invariant, or nil.
func (p *Particles) Validate() error {
	n := len(p.Position)
	switch {
	case len(p.Velocity) != n:
		return dynamo.Invalid("velocity", -1, "length %d, want %d", len(p.Velocity), n)
	case len(p.Force) != n:
		return dynamo.Invalid("force", -1, "length %d, want %d", len(p.Force), n)
	case len(p.Mass) != n:
		return dynamo.Invalid("mass", -1, "length %d, want %d", len(p.Mass), n)
	case p.FrozenStart < 0 || p.FrozenStart > n:
		return dynamo.Invalid("frozen_start", -1, "%d outside [0, %d]", p.FrozenStart, n)
	}

	for i := 0; i < n; i++ {
		if !dynamo.IsFinite(p.Position[i]) {
			return dynamo.Invalid("position", i, "non-finite")
		}
		if i < p.FrozenStart {
			if !validMass(p.Mass[i]) {
				return dynamo.Invalid("mass", i, "must be finite and positive, got %v", p.Mass[i])
			}
		} else if !math.IsInf(float64(p.Mass[i]), 1) {
			return dynamo.Invalid("mass", i, "frozen particle must have infinite mass, got %v", p.Mass[i])
		}
	}
	return nil
}

// CopyFrom overwrites p element by element with src. Slices are resized
// in place when the topology differs.
func (p *Particles) CopyFrom(src *Particles) {
	p.FrozenStart = src.FrozenStart
	p.Position = append(p.Position[:0], src.Position...)
	p.Velocity = append(p.Velocity[:0], src.Velocity...)
	p.Force = append(p.Force[:0], src.Force...)
	p.Mass = append(p.Mass[:0], src.Mass...)
}

// Interpolate writes lerp(prev, cur, alpha) into p for every field.
// prev and cur must share a topology.
func (p *Particles) Interpolate(prev, cur *Particles, alpha float32) {
	n := cur.Len()
	if prev.Len() != n {
		panic("physics: interpolating particle stores of different sizes")
	}
	p.resize(n)
	p.FrozenStart = cur.FrozenStart

	for i := 0; i < n; i++ {
		p.Position[i] = dynamo.LerpVec3(prev.Position[i], cur.Position[i], alpha)
		p.Velocity[i] = dynamo.LerpVec3(prev.Velocity[i], cur.Velocity[i], alpha)
		p.Force[i] = dynamo.LerpVec3(prev.Force[i], cur.Force[i], alpha)
		p.Mass[i] = dynamo.Lerp(prev.Mass[i], cur.Mass[i], alpha)
	}
}

func (p *Particles) resize(n int) {
	if p.Len() == n {
		return
	}
	p.Position = resizeVec(p.Position, n)
	p.Velocity = resizeVec(p.Velocity, n)
	p.Force = resizeVec(p.Force, n)
	if cap(p.Mass) >= n {
		p.Mass = p.Mass[:n]
	} else {
		p.Mass = append(p.Mass, make([]float32, n-len(p.Mass))...)
	}
}

func resizeVec(s []dynamo.Vec3, n int) []dynamo.Vec3 {
	if cap(s) >= n {
		return s[:n]
	}
	return append(s, make([]dynamo.Vec3, n-len(s))...)
}

func validMass(m float32) bool {
	f := float64(m)
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
