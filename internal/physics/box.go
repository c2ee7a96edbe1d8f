package physics

import "github.com/san-kum/clothsim/internal/dynamo"

// Box is the axis-aligned volume containing the free particles. Only the x
// and y faces take part in collision.
type Box struct {
	Min dynamo.Vec3 `yaml:"min" json:"min"`
	Max dynamo.Vec3 `yaml:"max" json:"max"`
}

// NewBox returns the box spanned by two corners in any order.
func NewBox(a, b dynamo.Vec3) Box {
	var box Box
	for i := 0; i < 3; i++ {
		box.Min[i], box.Max[i] = a[i], b[i]
		if box.Min[i] > box.Max[i] {
			box.Min[i], box.Max[i] = box.Max[i], box.Min[i]
		}
	}
	return box
}

// Contains reports whether p lies inside the box on the collision axes.
func (b Box) Contains(p dynamo.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] && p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

func (b Box) Size() dynamo.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b Box) Center() dynamo.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Box) validate() error {
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			return dynamo.Invalid("bounds", i, "min %v greater than max %v", b.Min[i], b.Max[i])
		}
	}
	if !dynamo.IsFinite(b.Min) || !dynamo.IsFinite(b.Max) {
		return dynamo.Invalid("bounds", -1, "corners must be finite")
	}
	return nil
}
