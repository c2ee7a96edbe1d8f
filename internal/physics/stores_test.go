package physics_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clothsim/internal/dynamo"
	"github.com/san-kum/clothsim/internal/physics"
)

var _ = Describe("Particles", func() {
	It("keeps the parallel arrays aligned while appending", func() {
		p := physics.NewParticles(4)
		i, err := p.AddFree(dynamo.Vec3{1, 2, 3}, dynamo.Vec3{0, 1, 0}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(0))
		Expect(p.AddFrozen(dynamo.Vec3{0, 5, 0})).To(Equal(1))

		Expect(p.Len()).To(Equal(2))
		Expect(p.Velocity).To(HaveLen(2))
		Expect(p.Force).To(HaveLen(2))
		Expect(p.Mass).To(HaveLen(2))
		Expect(p.FrozenStart).To(Equal(1))
		Expect(p.IsFrozen(1)).To(BeTrue())
		Expect(math.IsInf(float64(p.Mass[1]), 1)).To(BeTrue())
		Expect(p.Validate()).To(Succeed())
	})

	It("rejects a free particle once anchors exist", func() {
		p := physics.NewParticles(2)
		p.AddFrozen(dynamo.Vec3{})
		_, err := p.AddFree(dynamo.Vec3{}, dynamo.Vec3{}, 1)
		Expect(errors.Is(err, dynamo.ErrInvalidConfiguration)).To(BeTrue())
		Expect(p.Len()).To(Equal(1))
	})

	DescribeTable("rejects bad free masses",
		func(m float32) {
			p := physics.NewParticles(1)
			_, err := p.AddFree(dynamo.Vec3{}, dynamo.Vec3{}, m)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
			Expect(p.Len()).To(Equal(0))
		},
		Entry("zero", float32(0)),
		Entry("negative", float32(-1)),
		Entry("infinite", float32(math.Inf(1))),
		Entry("NaN", float32(math.NaN())),
	)

	It("rejects mismatched array lengths", func() {
		_, err := physics.FromArrays(
			[]dynamo.Vec3{{0, 0, 0}, {1, 0, 0}},
			[]dynamo.Vec3{{0, 0, 0}},
			[]float32{1, 1},
			1,
		)
		var ce *dynamo.ConfigError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(ce.Field).To(Equal("velocity"))
	})

	It("rejects a partition point past the end", func() {
		_, err := physics.FromArrays([]dynamo.Vec3{{}}, []dynamo.Vec3{{}}, []float32{1}, 2)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
	})

	It("forces anchors to infinite mass and zero velocity", func() {
		p, err := physics.FromArrays(
			[]dynamo.Vec3{{0, 0, 0}, {1, 0, 0}},
			[]dynamo.Vec3{{1, 0, 0}, {1, 0, 0}},
			[]float32{1, 3},
			1,
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsInf(float64(p.Mass[1]), 1)).To(BeTrue())
		Expect(p.Velocity[1]).To(Equal(dynamo.Vec3{}))
		Expect(p.Velocity[0]).To(Equal(dynamo.Vec3{1, 0, 0}))
	})

	It("reports a broken invariant after direct mutation", func() {
		p := physics.NewParticles(1)
		_, _ = p.AddFree(dynamo.Vec3{}, dynamo.Vec3{}, 1)
		p.Mass = append(p.Mass, 1)
		Expect(p.Validate()).To(MatchError(dynamo.ErrInvalidConfiguration))
	})
})

var _ = Describe("Springs", func() {
	DescribeTable("validates endpoints and scalars",
		func(sp physics.Spring, ok bool) {
			s := physics.NewSprings(1)
			_, err := s.Add(3, sp)
			if ok {
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Len()).To(Equal(1))
				Expect(s.At(0)).To(Equal(sp))
			} else {
				Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
				Expect(s.Len()).To(Equal(0))
			}
		},
		Entry("valid", physics.Spring{M1: 0, M2: 2, RestLength: 1, Stiffness: 10, Damping: 0.1}, true),
		Entry("zero rest length", physics.Spring{M1: 0, M2: 1}, true),
		Entry("self loop", physics.Spring{M1: 1, M2: 1, RestLength: 1}, false),
		Entry("missing endpoint", physics.Spring{M1: 0, M2: 3, RestLength: 1}, false),
		Entry("negative endpoint", physics.Spring{M1: -1, M2: 0, RestLength: 1}, false),
		Entry("negative stiffness", physics.Spring{M1: 0, M2: 1, Stiffness: -1}, false),
		Entry("negative damping", physics.Spring{M1: 0, M2: 1, Damping: -0.5}, false),
		Entry("negative rest length", physics.Spring{M1: 0, M2: 1, RestLength: -2}, false),
	)

	It("detects mismatched arrays", func() {
		s := physics.NewSprings(1)
		_, _ = s.Add(2, physics.Spring{M1: 0, M2: 1})
		s.Damping = s.Damping[:0]
		Expect(s.Validate(2)).To(MatchError(dynamo.ErrInvalidConfiguration))
	})
})

var _ = Describe("New", func() {
	DescribeTable("rejects out-of-range parameters",
		func(mutate func(*physics.Params)) {
			params := physics.DefaultParams()
			mutate(&params)
			_, err := physics.New(nil, nil, params)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		},
		Entry("rebound above one", func(p *physics.Params) { p.Rebound = 1.5 }),
		Entry("negative friction", func(p *physics.Params) { p.Friction = -0.1 }),
		Entry("negative air resistance", func(p *physics.Params) { p.AirResistance = -1 }),
		Entry("inverted box", func(p *physics.Params) { p.Bounds.Min[1] = 2 }),
		Entry("unknown integrator", func(p *physics.Params) { p.Integrator = dynamo.Integrator(42) }),
	)

	It("rejects springs that point past the particle store", func() {
		particles := physics.NewParticles(1)
		_, _ = particles.AddFree(dynamo.Vec3{}, dynamo.Vec3{}, 1)
		springs := physics.NewSprings(1)
		_, _ = springs.Add(5, physics.Spring{M1: 0, M2: 4})
		_, err := physics.New(particles, springs, physics.DefaultParams())
		Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
	})

	It("builds an empty world", func() {
		w, err := physics.New(nil, nil, physics.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		Expect(func() { w.Step(0.01) }).NotTo(Panic())
	})
})
