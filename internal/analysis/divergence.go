package analysis

import (
	"math"

	"github.com/san-kum/clothsim/internal/physics"
)

const renormalizeAbove = 1.0

// DivergenceRate estimates the largest growth exponent of a perturbation by
// trajectory separation: a copy of world has its first free particle moved
// by perturbation along x and both copies are stepped. Whenever the
// separation exceeds 1 it is renormalized to d0, and ln(|d|/d0) is summed at
// each renormalization and at the last step. The sum over the total time
// steps*dt is returned. world is not modified.
func DivergenceRate(world *physics.Simulation, perturbation, dt float32, steps int) float64 {
	if world.Particles.Free() == 0 || !(perturbation > 0) || !(dt > 0) || steps <= 0 {
		return 0
	}

	a := world.Clone()
	b := world.Clone()
	b.Particles.Position[0][0] += perturbation
	d0 := float64(perturbation)

	sumLog := 0.0
	for i := 0; i < steps; i++ {
		a.Step(dt)
		b.Step(dt)

		sep := separation(a, b)
		if math.IsNaN(sep) || math.IsInf(sep, 0) {
			return math.Inf(1)
		}
		last := i == steps-1
		if sep <= renormalizeAbove && !last {
			continue
		}
		if sep > 0 {
			sumLog += math.Log(sep / d0)
		}
		if last {
			break
		}

		scale := float32(d0 / sep)
		pa, pb := a.Particles, b.Particles
		for j := 0; j < pa.Free(); j++ {
			pb.Position[j] = pa.Position[j].Add(pb.Position[j].Sub(pa.Position[j]).Mul(scale))
			pb.Velocity[j] = pa.Velocity[j].Add(pb.Velocity[j].Sub(pa.Velocity[j]).Mul(scale))
		}
	}

	return sumLog / (float64(steps) * float64(dt))
}

// separation is the phase-space distance between two worlds with the same
// topology, over free particles.
func separation(a, b *physics.Simulation) float64 {
	sum := 0.0
	pa, pb := a.Particles, b.Particles
	for i := 0; i < pa.Free(); i++ {
		dp := pb.Position[i].Sub(pa.Position[i])
		dv := pb.Velocity[i].Sub(pa.Velocity[i])
		sum += float64(dp.Dot(dp)) + float64(dv.Dot(dv))
	}
	return math.Sqrt(sum)
}
