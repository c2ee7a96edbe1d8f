package physics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clothsim/internal/dynamo"
	"github.com/san-kum/clothsim/internal/physics"
)

func between(v, a, b float32) bool {
	if a > b {
		a, b = b, a
	}
	return v >= a && v <= b
}

var _ = Describe("Render snapshots", func() {
	var prev, cur, render *physics.Simulation

	BeforeEach(func() {
		var err error
		cur, err = physics.NewCloth(physics.DefaultCloth(), physics.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 20; i++ {
			cur.Step(0.01)
		}
		prev = cur.Clone()
		cur.ApplyForce(3, dynamo.Vec3{5, 0, 0})
		cur.Step(0.01)
		render = prev.Clone()
	})

	It("reproduces previous exactly at alpha 0", func() {
		render.Interpolate(prev, cur, 0)
		Expect(render.Particles.Position).To(Equal(prev.Particles.Position))
		Expect(render.Particles.Velocity).To(Equal(prev.Particles.Velocity))
		Expect(render.Particles.Force).To(Equal(prev.Particles.Force))
		Expect(render.Particles.Mass).To(Equal(prev.Particles.Mass))
		Expect(render.Springs).To(Equal(prev.Springs))
	})

	It("reproduces current exactly at alpha 1", func() {
		render.Interpolate(prev, cur, 1)
		Expect(render.Particles).To(Equal(cur.Particles))
		Expect(render.Springs).To(Equal(cur.Springs))
		Expect(render.Params).To(Equal(cur.Params))
	})

	It("never overshoots for alpha inside [0, 1]", func() {
		for _, alpha := range []float32{0.1, 0.25, 0.5, 0.75, 0.9, 0.999} {
			render.Interpolate(prev, cur, alpha)
			for i := range render.Particles.Position {
				for c := 0; c < 3; c++ {
					a, b := prev.Particles.Position[i][c], cur.Particles.Position[i][c]
					Expect(between(render.Particles.Position[i][c], a, b)).To(BeTrue(),
						"alpha %v particle %d axis %d: %v not in [%v, %v]", alpha, i, c, render.Particles.Position[i][c], a, b)
					a, b = prev.Particles.Velocity[i][c], cur.Particles.Velocity[i][c]
					Expect(between(render.Particles.Velocity[i][c], a, b)).To(BeTrue())
				}
			}
		}
	})

	It("keeps the spring topology", func() {
		render.Interpolate(prev, cur, 0.37)
		Expect(render.Springs.M1).To(Equal(cur.Springs.M1))
		Expect(render.Springs.M2).To(Equal(cur.Springs.M2))
	})

	It("copies element by element without sharing arrays", func() {
		positions := prev.Particles.Position
		prev.CopyFrom(cur)
		Expect(prev.Particles.Position).To(Equal(cur.Particles.Position))
		Expect(&prev.Particles.Position[0]).To(BeIdenticalTo(&positions[0]))

		cur.Step(0.01)
		Expect(prev.Particles.Position).NotTo(Equal(cur.Particles.Position))
	})

	It("panics when topologies differ", func() {
		other, err := physics.New(nil, nil, physics.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		Expect(func() { render.Interpolate(other, cur, 0.5) }).To(Panic())
	})
})
