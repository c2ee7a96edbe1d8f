package physics

import "github.com/san-kum/clothsim/internal/dynamo"

const (
	DefaultColumns   = 8
	DefaultRows      = 7
	DefaultSpacing   = 0.1
	DefaultMass      = 1.0
	DefaultStiffness = 100.0
	DefaultDamping   = 0.5
)

// ClothSpec describes a rectangular sheet of free particles hanging below a
// row of frozen anchors.
type ClothSpec struct {
	Columns   int
	Rows      int
	Spacing   float32
	Origin    dynamo.Vec3 // first anchor; the sheet extends along +x and -y
	Mass      float32
	Stiffness float32
	Damping   float32
	Shear     bool
}

func DefaultCloth() ClothSpec {
	return ClothSpec{
		Columns:   DefaultColumns,
		Rows:      DefaultRows,
		Spacing:   DefaultSpacing,
		Origin:    dynamo.Vec3{-0.35, 0.8, 0},
		Mass:      DefaultMass,
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

// FreeIndex returns the particle handle of the free particle at row r,
// column c.
func (c ClothSpec) FreeIndex(r, col int) int { return r*c.Columns + col }

// AnchorIndex returns the particle handle of anchor col.
func (c ClothSpec) AnchorIndex(col int) int { return c.Columns*c.Rows + col }

// NewCloth builds the sheet. Rest lengths come from the initial layout, so
// the sheet starts unstressed.
func NewCloth(spec ClothSpec, params Params) (*Simulation, error) {
	if spec.Columns < 1 || spec.Rows < 1 {
		return nil, dynamo.Invalid("cloth", -1, "need at least one row and column, got %dx%d", spec.Columns, spec.Rows)
	}
	if !(spec.Spacing > 0) {
		return nil, dynamo.Invalid("cloth.spacing", -1, "must be positive, got %v", spec.Spacing)
	}

	free := spec.Columns * spec.Rows
	particles := NewParticles(free + spec.Columns)
	for r := 0; r < spec.Rows; r++ {
		for col := 0; col < spec.Columns; col++ {
			pos := spec.Origin.Add(dynamo.Vec3{float32(col) * spec.Spacing, -float32(r+1) * spec.Spacing, 0})
			if _, err := particles.AddFree(pos, dynamo.Vec3{}, spec.Mass); err != nil {
				return nil, err
			}
		}
	}
	for col := 0; col < spec.Columns; col++ {
		particles.AddFrozen(spec.Origin.Add(dynamo.Vec3{float32(col) * spec.Spacing, 0, 0}))
	}

	springs := NewSprings(4 * free)
	link := func(a, b int) error {
		rest := particles.Position[b].Sub(particles.Position[a]).Len()
		_, err := springs.Add(particles.Len(), Spring{
			M1: a, M2: b, RestLength: rest, Stiffness: spec.Stiffness, Damping: spec.Damping,
		})
		return err
	}

	for r := 0; r < spec.Rows; r++ {
		for col := 0; col < spec.Columns; col++ {
			i := spec.FreeIndex(r, col)
			if col+1 < spec.Columns {
				if err := link(i, spec.FreeIndex(r, col+1)); err != nil {
					return nil, err
				}
			}
			if r+1 < spec.Rows {
				if err := link(i, spec.FreeIndex(r+1, col)); err != nil {
					return nil, err
				}
			}
			if spec.Shear && r+1 < spec.Rows && col+1 < spec.Columns {
				if err := link(i, spec.FreeIndex(r+1, col+1)); err != nil {
					return nil, err
				}
				if err := link(spec.FreeIndex(r, col+1), spec.FreeIndex(r+1, col)); err != nil {
					return nil, err
				}
			}
		}
	}
	for col := 0; col < spec.Columns; col++ {
		if err := link(spec.FreeIndex(0, col), spec.AnchorIndex(col)); err != nil {
			return nil, err
		}
	}

	return New(particles, springs, params)
}

// SpringCount returns how many springs NewCloth creates for spec.
func (c ClothSpec) SpringCount() int {
	n := c.Rows*(c.Columns-1) + (c.Rows-1)*c.Columns + c.Columns
	if c.Shear {
		n += 2 * (c.Rows - 1) * (c.Columns - 1)
	}
	return n
}
