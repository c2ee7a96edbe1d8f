package physics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clothsim/internal/dynamo"
	"github.com/san-kum/clothsim/internal/physics"
)

var integrators = []dynamo.Integrator{dynamo.Leapfrog, dynamo.ExplicitEuler, dynamo.ImplicitEuler}

// openParams has no gravity and a box too large to matter.
func openParams() physics.Params {
	params := physics.DefaultParams()
	params.Gravity = dynamo.Vec3{}
	params.Bounds = physics.NewBox(dynamo.Vec3{-100, -100, -100}, dynamo.Vec3{100, 100, 100})
	return params
}

func single(pos, vel dynamo.Vec3, params physics.Params) *physics.Simulation {
	particles := physics.NewParticles(1)
	_, err := particles.AddFree(pos, vel, 1)
	Expect(err).NotTo(HaveOccurred())
	w, err := physics.New(particles, nil, params)
	Expect(err).NotTo(HaveOccurred())
	return w
}

// oscillator is one free particle on a spring to an anchor at the origin.
func oscillator(integ dynamo.Integrator) *physics.Simulation {
	particles := physics.NewParticles(2)
	_, err := particles.AddFree(dynamo.Vec3{1.2, 0, 0}, dynamo.Vec3{}, 1)
	Expect(err).NotTo(HaveOccurred())
	particles.AddFrozen(dynamo.Vec3{})
	springs := physics.NewSprings(1)
	_, err = springs.Add(2, physics.Spring{M1: 0, M2: 1, RestLength: 1, Stiffness: 10})
	Expect(err).NotTo(HaveOccurred())

	params := openParams()
	params.Integrator = integ
	w, err := physics.New(particles, springs, params)
	Expect(err).NotTo(HaveOccurred())
	return w
}

var _ = Describe("Simulation.Step", func() {
	const dt = float32(0.01)

	It("panics on a non-positive dt", func() {
		w := single(dynamo.Vec3{}, dynamo.Vec3{}, openParams())
		Expect(func() { w.Step(0) }).To(Panic())
		Expect(func() { w.Step(-0.01) }).To(Panic())
	})

	It("never moves frozen particles", func() {
		for _, integ := range integrators {
			params := physics.DefaultParams()
			params.Integrator = integ
			w, err := physics.NewCloth(physics.DefaultCloth(), params)
			Expect(err).NotTo(HaveOccurred())

			p := w.Particles
			pos := append([]dynamo.Vec3(nil), p.Position[p.FrozenStart:]...)
			vel := append([]dynamo.Vec3(nil), p.Velocity[p.FrozenStart:]...)
			for i := 0; i < 200; i++ {
				w.Step(dt)
			}
			Expect(p.Position[p.FrozenStart:]).To(Equal(pos), "integrator %v", integ)
			Expect(p.Velocity[p.FrozenStart:]).To(Equal(vel), "integrator %v", integ)
		}
	})

	It("matches the leapfrog free-fall recurrence", func() {
		params := openParams()
		params.Gravity = dynamo.Vec3{0, -0.98, 0}
		p0 := dynamo.Vec3{0, 5, 0}
		w := single(p0, dynamo.Vec3{}, params)

		const n = 100
		for i := 0; i < n; i++ {
			w.Step(dt)
		}

		g := float64(params.Gravity[1])
		h := float64(dt)
		v := w.Particles.Velocity[0]
		p := w.Particles.Position[0]
		Expect(float64(v[1])).To(BeNumerically("~", n*h*g, 1e-4))
		Expect(float64(p[1])).To(BeNumerically("~", float64(p0[1])+g*h*h*n*(n+1)/2, 1e-4))
		Expect(v[0]).To(BeZero())
		Expect(p[0]).To(BeZero())
	})

	It("lags explicit Euler one step behind leapfrog in position", func() {
		params := openParams()
		params.Gravity = dynamo.Vec3{0, -0.98, 0}
		params.Integrator = dynamo.ExplicitEuler
		w := single(dynamo.Vec3{}, dynamo.Vec3{}, params)

		const n = 50
		for i := 0; i < n; i++ {
			w.Step(dt)
		}
		g, h := -0.98, float64(dt)
		Expect(float64(w.Particles.Velocity[0][1])).To(BeNumerically("~", n*h*g, 1e-4))
		Expect(float64(w.Particles.Position[0][1])).To(BeNumerically("~", g*h*h*n*(n-1)/2, 1e-4))
	})

	It("applies air resistance against the velocity", func() {
		params := openParams()
		params.AirResistance = 0.5
		w := single(dynamo.Vec3{}, dynamo.Vec3{2, 0, 0}, params)
		w.Step(dt)
		Expect(w.Particles.Velocity[0][0]).To(BeNumerically("<", float32(2)))
		Expect(w.Particles.Velocity[0][0]).To(BeNumerically("~", 2-0.5*2*dt, 1e-6))
	})

	It("leaves two particles at rest length stationary", func() {
		for _, integ := range integrators {
			particles := physics.NewParticles(2)
			_, _ = particles.AddFree(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{}, 1)
			_, _ = particles.AddFree(dynamo.Vec3{1, 0, 0}, dynamo.Vec3{}, 1)
			springs := physics.NewSprings(1)
			_, _ = springs.Add(2, physics.Spring{M1: 0, M2: 1, RestLength: 1, Stiffness: 50})
			params := openParams()
			params.Integrator = integ
			w, err := physics.New(particles, springs, params)
			Expect(err).NotTo(HaveOccurred())

			w.Step(dt)
			Expect(w.Particles.Position[0]).To(Equal(dynamo.Vec3{0, 0, 0}))
			Expect(w.Particles.Position[1]).To(Equal(dynamo.Vec3{1, 0, 0}))
			Expect(w.Particles.Velocity[0]).To(Equal(dynamo.Vec3{}))
			Expect(w.Particles.Velocity[1]).To(Equal(dynamo.Vec3{}))
		}
	})

	DescribeTable("pulls stretched and pushes compressed springs",
		func(gap float32, towards bool) {
			particles := physics.NewParticles(2)
			_, _ = particles.AddFree(dynamo.Vec3{0, 0, 0}, dynamo.Vec3{}, 1)
			_, _ = particles.AddFree(dynamo.Vec3{gap, 0, 0}, dynamo.Vec3{}, 1)
			springs := physics.NewSprings(1)
			_, _ = springs.Add(2, physics.Spring{M1: 0, M2: 1, RestLength: 1, Stiffness: 50})
			w, err := physics.New(particles, springs, openParams())
			Expect(err).NotTo(HaveOccurred())

			w.Step(dt)
			v0, v1 := w.Particles.Velocity[0][0], w.Particles.Velocity[1][0]
			Expect(v0).To(BeNumerically("~", -v1, 1e-6))
			if towards {
				Expect(v0).To(BeNumerically(">", 0))
			} else {
				Expect(v0).To(BeNumerically("<", 0))
			}
		},
		Entry("stretched", float32(1.5), true),
		Entry("compressed", float32(0.5), false),
	)

	It("keeps coincident endpoints finite", func() {
		particles := physics.NewParticles(2)
		_, _ = particles.AddFree(dynamo.Vec3{0.3, 0.3, 0}, dynamo.Vec3{}, 1)
		_, _ = particles.AddFree(dynamo.Vec3{0.3, 0.3, 0}, dynamo.Vec3{}, 1)
		springs := physics.NewSprings(1)
		_, _ = springs.Add(2, physics.Spring{M1: 0, M2: 1, RestLength: 0.5, Stiffness: 50})
		w, err := physics.New(particles, springs, openParams())
		Expect(err).NotTo(HaveOccurred())

		w.Step(dt)
		Expect(w.Valid()).To(BeTrue())
	})

	DescribeTable("contains free particles inside the box",
		func(pos, vel, force dynamo.Vec3) {
			for _, integ := range integrators {
				params := physics.DefaultParams()
				params.Integrator = integ
				w := single(pos, vel, params)
				w.ApplyForce(0, force)
				for i := 0; i < 50; i++ {
					w.Step(dt)
					Expect(params.Bounds.Contains(w.Particles.Position[0])).To(BeTrue(),
						"integrator %v step %d position %v", integ, i, w.Particles.Position[0])
				}
			}
		},
		Entry("floor", dynamo.Vec3{0, -0.99, 0}, dynamo.Vec3{0, -5, 0}, dynamo.Vec3{}),
		Entry("ceiling", dynamo.Vec3{0, 0.99, 0}, dynamo.Vec3{0, 40, 0}, dynamo.Vec3{}),
		Entry("right wall", dynamo.Vec3{0.995, 0, 0}, dynamo.Vec3{3, 0, 0}, dynamo.Vec3{}),
		Entry("left wall", dynamo.Vec3{-0.5, 0, 0}, dynamo.Vec3{-300, 0, 0}, dynamo.Vec3{}),
		Entry("corner", dynamo.Vec3{-0.999, 0.999, 0}, dynamo.Vec3{-10, 10, 0}, dynamo.Vec3{}),
		Entry("on the face", dynamo.Vec3{0, -1, 0}, dynamo.Vec3{0, -1, 0}, dynamo.Vec3{}),
		Entry("velocity reversed past the right wall", dynamo.Vec3{0.995, 0, 0}, dynamo.Vec3{1, 0, 0}, dynamo.Vec3{-1000, 0, 0}),
		Entry("velocity reversed past the floor", dynamo.Vec3{0, -0.995, 0}, dynamo.Vec3{0, -1, 0}, dynamo.Vec3{0, 1000, 0}),
	)

	It("clamps without rebounding a particle already moving back inside", func() {
		params := physics.DefaultParams()
		params.Integrator = dynamo.ExplicitEuler
		params.Gravity = dynamo.Vec3{}
		w := single(dynamo.Vec3{0.995, 0, 0}, dynamo.Vec3{1, 0, 0}, params)
		w.ApplyForce(0, dynamo.Vec3{-1000, 0, 0})

		w.Step(0.01)
		p, v := w.Particles.Position[0], w.Particles.Velocity[0]
		Expect(p[0]).To(Equal(float32(1)))
		Expect(v[0]).To(BeNumerically("<", 0))
	})

	Context("on a boundary hit", func() {
		var params physics.Params

		BeforeEach(func() {
			params = openParams()
			params.Bounds = physics.NewBox(dynamo.Vec3{-1, -1, -1}, dynamo.Vec3{1, 1, 1})
			params.Rebound = 0.5
			params.Friction = 0.8
		})

		It("clamps, rebounds and damps x on a floor hit", func() {
			w := single(dynamo.Vec3{0, -0.99, 0}, dynamo.Vec3{0.5, -2, 0.5}, params)
			w.Step(dt)
			p, v := w.Particles.Position[0], w.Particles.Velocity[0]
			Expect(p[1]).To(Equal(float32(-1)))
			Expect(v[1]).To(BeNumerically("~", 1.0, 1e-6))
			Expect(v[0]).To(BeNumerically("~", 0.4, 1e-6))
			Expect(v[2]).To(BeNumerically("~", 0.5, 1e-6))
		})

		It("damps the already reflected x component on a wall hit", func() {
			w := single(dynamo.Vec3{0.99, 0, 0}, dynamo.Vec3{2, 0.5, 0}, params)
			w.Step(dt)
			p, v := w.Particles.Position[0], w.Particles.Velocity[0]
			Expect(p[0]).To(Equal(float32(1)))
			Expect(v[0]).To(BeNumerically("~", -0.8, 1e-6))
			Expect(v[1]).To(BeNumerically("~", 0.5, 1e-6))
		})

		It("damps tangential components in tangential mode", func() {
			params.FrictionMode = dynamo.FrictionTangential
			w := single(dynamo.Vec3{0.99, 0, 0}, dynamo.Vec3{2, 0.5, 0.25}, params)
			w.Step(dt)
			v := w.Particles.Velocity[0]
			Expect(v[0]).To(BeNumerically("~", -1.0, 1e-6))
			Expect(v[1]).To(BeNumerically("~", 0.4, 1e-6))
			Expect(v[2]).To(BeNumerically("~", 0.2, 1e-6))
		})

		It("ignores the z faces", func() {
			w := single(dynamo.Vec3{0, 0, 0.99}, dynamo.Vec3{0, 0, 5}, params)
			w.Step(dt)
			Expect(w.Particles.Position[0][2]).To(BeNumerically(">", float32(1)))
		})
	})

	It("clears accumulated force after each step", func() {
		w := single(dynamo.Vec3{}, dynamo.Vec3{}, openParams())
		w.ApplyForce(0, dynamo.Vec3{100, 0, 0})
		w.Step(dt)
		Expect(w.Particles.Force[0]).To(Equal(dynamo.Vec3{}))
		Expect(w.Particles.Velocity[0][0]).To(BeNumerically("~", 1.0, 1e-6))

		w.Step(dt)
		Expect(w.Particles.Velocity[0][0]).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("is deterministic", func() {
		a, err := physics.NewCloth(physics.DefaultCloth(), physics.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		b := a.Clone()
		for i := 0; i < 100; i++ {
			a.Step(dt)
			b.Step(dt)
		}
		Expect(a.Particles.Position).To(Equal(b.Particles.Position))
		Expect(a.Particles.Velocity).To(Equal(b.Particles.Velocity))
	})

	Describe("energy behaviour on a single spring", func() {
		run := func(integ dynamo.Integrator) (e0, e1 float64) {
			w := oscillator(integ)
			e0 = w.Energy()
			for i := 0; i < 1000; i++ {
				w.Step(dt)
			}
			return e0, w.Energy()
		}

		It("stays bounded under leapfrog", func() {
			e0, e1 := run(dynamo.Leapfrog)
			Expect(e1).To(BeNumerically("~", e0, 0.05*e0))
		})

		It("grows under explicit Euler", func() {
			e0, e1 := run(dynamo.ExplicitEuler)
			Expect(e1).To(BeNumerically(">", 1.5*e0))
		})

		It("decays under implicit Euler", func() {
			e0, e1 := run(dynamo.ImplicitEuler)
			Expect(e1).To(BeNumerically("<", e0))
		})
	})

	It("dissipates energy when spring damping is enabled", func() {
		params := physics.DefaultParams()
		params.SpringDamping = true
		w, err := physics.NewCloth(physics.DefaultCloth(), params)
		Expect(err).NotTo(HaveOccurred())

		e0 := w.Energy()
		for i := 0; i < 300; i++ {
			w.Step(dt)
		}
		Expect(w.Energy()).To(BeNumerically("<", e0))
	})
})
