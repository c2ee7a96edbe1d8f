package physics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/clothsim/internal/dynamo"
	"github.com/san-kum/clothsim/internal/physics"
)

var _ = Describe("NewCloth", func() {
	It("builds 56 free particles under 8 anchors", func() {
		spec := physics.DefaultCloth()
		w, err := physics.NewCloth(spec, physics.DefaultParams())
		Expect(err).NotTo(HaveOccurred())

		Expect(w.Particles.Free()).To(Equal(56))
		Expect(w.Particles.Frozen()).To(Equal(8))
		Expect(w.Springs.Len()).To(Equal(spec.SpringCount()))

		for i := 0; i < w.Springs.Len(); i++ {
			sp := w.Springs.At(i)
			d := w.Particles.Position[sp.M2].Sub(w.Particles.Position[sp.M1]).Len()
			Expect(sp.RestLength).To(BeNumerically("~", d, 1e-6))
		}
	})

	It("adds shear springs on request", func() {
		spec := physics.DefaultCloth()
		spec.Shear = true
		w, err := physics.NewCloth(spec, physics.DefaultParams())
		Expect(err).NotTo(HaveOccurred())
		Expect(w.Springs.Len()).To(Equal(spec.SpringCount()))
		Expect(spec.SpringCount()).To(Equal(physics.DefaultCloth().SpringCount() + 2*6*7))
	})

	DescribeTable("rejects degenerate sheets",
		func(mutate func(*physics.ClothSpec)) {
			spec := physics.DefaultCloth()
			mutate(&spec)
			_, err := physics.NewCloth(spec, physics.DefaultParams())
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		},
		Entry("no columns", func(s *physics.ClothSpec) { s.Columns = 0 }),
		Entry("no rows", func(s *physics.ClothSpec) { s.Rows = 0 }),
		Entry("zero spacing", func(s *physics.ClothSpec) { s.Spacing = 0 }),
		Entry("zero mass", func(s *physics.ClothSpec) { s.Mass = 0 }),
		Entry("negative stiffness", func(s *physics.ClothSpec) { s.Stiffness = -1 }),
	)

	It("settles below its anchors", func() {
		spec := physics.DefaultCloth()
		params := physics.DefaultParams()
		params.Gravity = dynamo.Vec3{0, -0.98, 0}
		w, err := physics.NewCloth(spec, params)
		Expect(err).NotTo(HaveOccurred())

		anchorY := float64(spec.Origin[1])
		start := w.MeanHeight()
		heights := []float64{start}
		for i := 0; i < 100; i++ {
			w.Step(0.01)
			heights = append(heights, w.MeanHeight())
		}

		for i := 1; i <= 30; i++ {
			Expect(heights[i]).To(BeNumerically("<", heights[i-1]), "step %d", i)
		}

		end := heights[len(heights)-1]
		Expect(end).To(BeNumerically("<", start))
		Expect(start - end).To(BeNumerically("<", 0.5))
		Expect(w.Valid()).To(BeTrue())

		p := w.Particles
		for i := 0; i < p.FrozenStart; i++ {
			Expect(float64(p.Position[i][1])).To(BeNumerically("<", anchorY))
		}
	})
})
