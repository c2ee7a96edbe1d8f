package physics

import "github.com/san-kum/clothsim/internal/dynamo"

// external is the non-spring force on a free particle moving at vel.
func (s *Simulation) external(vel dynamo.Vec3) dynamo.Vec3 {
	if s.Params.AirResistance == 0 {
		return s.Params.Gravity
	}
	return s.Params.Gravity.Sub(vel.Mul(s.Params.AirResistance))
}

// stepLeapfrog is the semi-implicit scheme: velocity first, then position
// with the new velocity.
func (s *Simulation) stepLeapfrog(dt float32) {
	p := s.Particles
	s.accumulateSprings(p.Position, p.Velocity, p.Force)

	for i := 0; i < p.FrozenStart; i++ {
		f := p.Force[i].Add(s.external(p.Velocity[i]))
		p.Velocity[i] = p.Velocity[i].Add(f.Mul(dt / p.Mass[i]))
		p.Position[i] = p.Position[i].Add(p.Velocity[i].Mul(dt))
	}
}

// stepExplicitEuler moves positions with the old velocity.
func (s *Simulation) stepExplicitEuler(dt float32) {
	p := s.Particles
	s.accumulateSprings(p.Position, p.Velocity, p.Force)

	for i := 0; i < p.FrozenStart; i++ {
		f := p.Force[i].Add(s.external(p.Velocity[i]))
		p.Position[i] = p.Position[i].Add(p.Velocity[i].Mul(dt))
		p.Velocity[i] = p.Velocity[i].Add(f.Mul(dt / p.Mass[i]))
	}
}

// stepImplicitEuler runs one fixed-point iteration of backward Euler: spring
// forces are evaluated at the positions predicted from the current velocity.
func (s *Simulation) stepImplicitEuler(dt float32) {
	p := s.Particles
	s.ensureScratch()
	for i := range p.Position {
		s.predicted[i] = p.Position[i].Add(p.Velocity[i].Mul(dt))
	}
	s.accumulateSprings(s.predicted, p.Velocity, p.Force)

	for i := 0; i < p.FrozenStart; i++ {
		f := p.Force[i].Add(s.external(p.Velocity[i]))
		p.Velocity[i] = p.Velocity[i].Add(f.Mul(dt / p.Mass[i]))
		p.Position[i] = p.Position[i].Add(p.Velocity[i].Mul(dt))
	}
}
