package physics

import "github.com/san-kum/clothsim/internal/dynamo"

// KineticEnergy sums 1/2 m v^2 over the free particles.
func (s *Simulation) KineticEnergy() float64 {
	p := s.Particles
	e := 0.0
	for i := 0; i < p.FrozenStart; i++ {
		v := p.Velocity[i]
		e += 0.5 * float64(p.Mass[i]) * float64(v.Dot(v))
	}
	return e
}

// SpringEnergy sums 1/2 k (d - rest)^2 over all springs.
func (s *Simulation) SpringEnergy() float64 {
	sp := s.Springs
	pos := s.Particles.Position
	e := 0.0
	for i := range sp.M1 {
		stretch := float64(pos[sp.M2[i]].Sub(pos[sp.M1[i]]).Len() - sp.RestLength[i])
		e += 0.5 * float64(sp.Stiffness[i]) * stretch * stretch
	}
	return e
}

// GravityEnergy is the potential of the constant gravity force acting on
// the free particles, measured from the origin.
func (s *Simulation) GravityEnergy() float64 {
	p := s.Particles
	e := 0.0
	for i := 0; i < p.FrozenStart; i++ {
		e -= float64(s.Params.Gravity.Dot(p.Position[i]))
	}
	return e
}

// Energy returns the total mechanical energy of the world.
func (s *Simulation) Energy() float64 {
	return s.KineticEnergy() + s.SpringEnergy() + s.GravityEnergy()
}

// MeanPosition averages the free particle positions. It returns the zero
// vector for a world without free particles.
func (s *Simulation) MeanPosition() dynamo.Vec3 {
	p := s.Particles
	if p.FrozenStart == 0 {
		return dynamo.Vec3{}
	}
	var sum dynamo.Vec3
	for i := 0; i < p.FrozenStart; i++ {
		sum = sum.Add(p.Position[i])
	}
	return sum.Mul(1 / float32(p.FrozenStart))
}

// MeanHeight is the mean y of the free particles.
func (s *Simulation) MeanHeight() float64 {
	return float64(s.MeanPosition()[1])
}

// MaxSpeed is the largest free particle speed.
func (s *Simulation) MaxSpeed() float64 {
	p := s.Particles
	best := float32(0)
	for i := 0; i < p.FrozenStart; i++ {
		if v := p.Velocity[i].Len(); v > best {
			best = v
		}
	}
	return float64(best)
}
