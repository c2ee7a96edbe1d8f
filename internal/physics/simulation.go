package physics

import (
	"fmt"

	"github.com/san-kum/clothsim/internal/dynamo"
)

// MinSpringLength keeps the spring force finite when two endpoints coincide.
const MinSpringLength = 0.001

const (
	DefaultGravity       = -0.98
	DefaultAirResistance = 0.0
	DefaultRebound       = 0.5
	DefaultFriction      = 0.9
)

// Params holds the world-wide tuning of a Simulation.
type Params struct {
	Gravity       dynamo.Vec3
	AirResistance float32
	Rebound       float32
	Friction      float32
	Bounds        Box
	Integrator    dynamo.Integrator
	FrictionMode  dynamo.FrictionMode
	// SpringDamping enables the damping term along each spring axis.
	SpringDamping bool
}

func DefaultParams() Params {
	return Params{
		Gravity:       dynamo.Vec3{0, DefaultGravity, 0},
		AirResistance: DefaultAirResistance,
		Rebound:       DefaultRebound,
		Friction:      DefaultFriction,
		Bounds:        NewBox(dynamo.Vec3{-1, -1, -1}, dynamo.Vec3{1, 1, 1}),
		Integrator:    dynamo.Leapfrog,
		FrictionMode:  dynamo.FrictionLegacy,
	}
}

func (p Params) validate() error {
	switch {
	case !dynamo.IsFinite(p.Gravity):
		return dynamo.Invalid("gravity", -1, "must be finite")
	case !nonNegative(p.AirResistance):
		return dynamo.Invalid("air_resistance", -1, "must be >= 0, got %v", p.AirResistance)
	case !(p.Rebound >= 0 && p.Rebound <= 1):
		return dynamo.Invalid("rebound", -1, "must be in [0, 1], got %v", p.Rebound)
	case !(p.Friction >= 0 && p.Friction <= 1):
		return dynamo.Invalid("friction", -1, "must be in [0, 1], got %v", p.Friction)
	}
	if !knownIntegrators[p.Integrator] {
		return dynamo.Invalid("integrator", -1, "unknown integrator %v", p.Integrator)
	}
	return p.Bounds.validate()
}

var knownIntegrators = map[dynamo.Integrator]bool{
	dynamo.Leapfrog:      true,
	dynamo.ExplicitEuler: true,
	dynamo.ImplicitEuler: true,
}

// Simulation is a mass-spring world advanced in place by Step.
type Simulation struct {
	Particles *Particles
	Springs   *Springs
	Params    Params

	predicted []dynamo.Vec3
}

// New validates the stores and parameters and builds a world over them.
// The stores are owned by the returned Simulation.
func New(particles *Particles, springs *Springs, params Params) (*Simulation, error) {
	if particles == nil {
		particles = NewParticles(0)
	}
	if springs == nil {
		springs = NewSprings(0)
	}
	if err := particles.Validate(); err != nil {
		return nil, err
	}
	if err := springs.Validate(particles.Len()); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	for i := range particles.Force {
		particles.Force[i] = dynamo.Vec3{}
	}

	s := &Simulation{Particles: particles, Springs: springs, Params: params}
	s.ensureScratch()
	return s, nil
}

// Step advances the world by dt seconds. dt must be positive.
func (s *Simulation) Step(dt float32) {
	if !(dt > 0) {
		panic(fmt.Sprintf("physics: Step called with non-positive dt %v", dt))
	}

	switch s.Params.Integrator {
	case dynamo.ExplicitEuler:
		s.stepExplicitEuler(dt)
	case dynamo.ImplicitEuler:
		s.stepImplicitEuler(dt)
	default:
		s.stepLeapfrog(dt)
	}

	s.collide()

	force := s.Particles.Force
	for i := range force {
		force[i] = dynamo.Vec3{}
	}
}

// ApplyForce adds f to the force accumulated on particle i for the next
// Step. Frozen particles ignore it.
func (s *Simulation) ApplyForce(i int, f dynamo.Vec3) {
	s.Particles.Force[i] = s.Particles.Force[i].Add(f)
}

// CopyFrom overwrites every field of s with src, element by element.
func (s *Simulation) CopyFrom(src *Simulation) {
	s.Particles.CopyFrom(src.Particles)
	s.Springs.CopyFrom(src.Springs)
	s.Params = src.Params
	s.ensureScratch()
}

// Interpolate writes the blend of prev and cur at alpha into s. Params are
// taken from cur.
func (s *Simulation) Interpolate(prev, cur *Simulation, alpha float32) {
	s.Particles.Interpolate(prev.Particles, cur.Particles, alpha)
	s.Springs.Interpolate(prev.Springs, cur.Springs, alpha)
	s.Params = cur.Params
}

// Clone returns a deep copy.
func (s *Simulation) Clone() *Simulation {
	c := &Simulation{
		Particles: NewParticles(s.Particles.Len()),
		Springs:   NewSprings(s.Springs.Len()),
	}
	c.CopyFrom(s)
	return c
}

// Valid reports whether every position and velocity is finite.
func (s *Simulation) Valid() bool {
	p := s.Particles
	for i := range p.Position {
		if !dynamo.IsFinite(p.Position[i]) || !dynamo.IsFinite(p.Velocity[i]) {
			return false
		}
	}
	return true
}

func (s *Simulation) ensureScratch() {
	if n := s.Particles.Len(); len(s.predicted) != n {
		s.predicted = make([]dynamo.Vec3, n)
	}
}

// accumulateSprings adds every spring's force, evaluated at pos, into force.
func (s *Simulation) accumulateSprings(pos, vel, force []dynamo.Vec3) {
	sp := s.Springs
	damped := s.Params.SpringDamping

	for i := range sp.M1 {
		a, b := sp.M1[i], sp.M2[i]
		delta := pos[b].Sub(pos[a])
		d := delta.Len()
		if d < MinSpringLength {
			d = MinSpringLength
		}

		f := delta.Mul(sp.Stiffness[i] * (1 - sp.RestLength[i]/d))
		if damped && sp.Damping[i] > 0 {
			dir := delta.Mul(1 / d)
			rel := vel[b].Sub(vel[a]).Dot(dir)
			f = f.Add(dir.Mul(sp.Damping[i] * rel))
		}

		force[a] = force[a].Add(f)
		force[b] = force[b].Sub(f)
	}
}

// collide resolves free particles against the x and y faces of the box. A
// particle past a face is always clamped onto it; only one still moving into
// the face rebounds.
func (s *Simulation) collide() {
	p := s.Particles
	b := s.Params.Bounds

	for i := 0; i < p.FrozenStart; i++ {
		pos, vel := &p.Position[i], &p.Velocity[i]
		for axis := 0; axis < 2; axis++ {
			var into bool
			switch {
			case pos[axis] <= b.Min[axis]:
				pos[axis] = b.Min[axis]
				into = vel[axis] < 0
			case pos[axis] >= b.Max[axis]:
				pos[axis] = b.Max[axis]
				into = vel[axis] > 0
			}
			if !into {
				continue
			}
			vel[axis] = -vel[axis] * s.Params.Rebound
			s.applyFriction(vel, axis)
		}
	}
}

func (s *Simulation) applyFriction(vel *dynamo.Vec3, axis int) {
	k := s.Params.Friction
	if s.Params.FrictionMode == dynamo.FrictionLegacy {
		vel[0] *= k
		return
	}
	for j := 0; j < 3; j++ {
		if j != axis {
			vel[j] *= k
		}
	}
}
