package physics

import (
	"math"

	"github.com/san-kum/clothsim/internal/dynamo"
)

// Spring describes one pairwise constraint between particles M1 and M2.
type Spring struct {
	M1, M2     int
	RestLength float32
	Stiffness  float32
	Damping    float32
}

// Springs stores spring constraints as parallel arrays.
type Springs struct {
	M1         []int
	M2         []int
	RestLength []float32
	Stiffness  []float32
	Damping    []float32
}

func NewSprings(capacity int) *Springs {
	return &Springs{
		M1:         make([]int, 0, capacity),
		M2:         make([]int, 0, capacity),
		RestLength: make([]float32, 0, capacity),
		Stiffness:  make([]float32, 0, capacity),
		Damping:    make([]float32, 0, capacity),
	}
}

func (s *Springs) Len() int { return len(s.M1) }

// At returns spring i as a value.
func (s *Springs) At(i int) Spring {
	return Spring{
		M1:         s.M1[i],
		M2:         s.M2[i],
		RestLength: s.RestLength[i],
		Stiffness:  s.Stiffness[i],
		Damping:    s.Damping[i],
	}
}

// Add appends sp. Both endpoints must already exist among particleCount
// particles.
func (s *Springs) Add(particleCount int, sp Spring) (int, error) {
	idx := s.Len()
	if err := checkSpring(idx, sp, particleCount); err != nil {
		return -1, err
	}
	s.M1 = append(s.M1, sp.M1)
	s.M2 = append(s.M2, sp.M2)
	s.RestLength = append(s.RestLength, sp.RestLength)
	s.Stiffness = append(s.Stiffness, sp.Stiffness)
	s.Damping = append(s.Damping, sp.Damping)
	return idx, nil
}

// Validate reports the first broken invariant against particleCount, or nil.
func (s *Springs) Validate(particleCount int) error {
	n := len(s.M1)
	for _, f := range []struct {
		name string
		len  int
	}{
		{"m2", len(s.M2)},
		{"rest_length", len(s.RestLength)},
		{"stiffness", len(s.Stiffness)},
		{"damping", len(s.Damping)},
	} {
		if f.len != n {
			return dynamo.Invalid(f.name, -1, "length %d, want %d", f.len, n)
		}
	}
	for i := 0; i < n; i++ {
		if err := checkSpring(i, s.At(i), particleCount); err != nil {
			return err
		}
	}
	return nil
}

// CopyFrom overwrites s element by element with src.
func (s *Springs) CopyFrom(src *Springs) {
	s.M1 = append(s.M1[:0], src.M1...)
	s.M2 = append(s.M2[:0], src.M2...)
	s.RestLength = append(s.RestLength[:0], src.RestLength...)
	s.Stiffness = append(s.Stiffness[:0], src.Stiffness...)
	s.Damping = append(s.Damping[:0], src.Damping...)
}

// Interpolate writes lerp(prev, cur, alpha) into s. Endpoint indices go
// through the same blend and are rounded back to handles.
func (s *Springs) Interpolate(prev, cur *Springs, alpha float32) {
	n := cur.Len()
	if prev.Len() != n {
		panic("physics: interpolating spring stores of different sizes")
	}
	if s.Len() != n {
		s.CopyFrom(cur)
	}

	for i := 0; i < n; i++ {
		s.M1[i] = dynamo.LerpIndex(prev.M1[i], cur.M1[i], alpha)
		s.M2[i] = dynamo.LerpIndex(prev.M2[i], cur.M2[i], alpha)
		s.RestLength[i] = dynamo.Lerp(prev.RestLength[i], cur.RestLength[i], alpha)
		s.Stiffness[i] = dynamo.Lerp(prev.Stiffness[i], cur.Stiffness[i], alpha)
		s.Damping[i] = dynamo.Lerp(prev.Damping[i], cur.Damping[i], alpha)
	}
}

func checkSpring(i int, sp Spring, particleCount int) error {
	switch {
	case sp.M1 < 0 || sp.M1 >= particleCount:
		return dynamo.Invalid("m1", i, "particle %d out of range [0, %d)", sp.M1, particleCount)
	case sp.M2 < 0 || sp.M2 >= particleCount:
		return dynamo.Invalid("m2", i, "particle %d out of range [0, %d)", sp.M2, particleCount)
	case sp.M1 == sp.M2:
		return dynamo.Invalid("m2", i, "spring connects particle %d to itself", sp.M1)
	case !nonNegative(sp.RestLength):
		return dynamo.Invalid("rest_length", i, "must be >= 0, got %v", sp.RestLength)
	case !nonNegative(sp.Stiffness):
		return dynamo.Invalid("stiffness", i, "must be >= 0, got %v", sp.Stiffness)
	case !nonNegative(sp.Damping):
		return dynamo.Invalid("damping", i, "must be >= 0, got %v", sp.Damping)
	}
	return nil
}

func nonNegative(v float32) bool {
	f := float64(v)
	return f >= 0 && !math.IsInf(f, 0)
}
