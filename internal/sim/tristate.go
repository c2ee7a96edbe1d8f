package sim

// States is the previous/current/render triple. Current is authoritative,
// Previous is the copy taken right before Current last advanced, and Render
// is the blend shown on screen.
type States[T Snapshot[T]] struct {
	Previous T
	Current  T
	Render   T
}

// NewStates takes ownership of initial as Current and clones it into the
// other two slots.
func NewStates[T Snapshot[T]](initial T) *States[T] {
	return &States[T]{
		Previous: initial.Clone(),
		Current:  initial,
		Render:   initial.Clone(),
	}
}

// Commit copies Current into Previous. Call it once per tick, before
// Current is stepped.
func (s *States[T]) Commit() {
	s.Previous.CopyFrom(s.Current)
}

// Interpolate fills Render with the blend of Previous and Current. alpha is
// not clamped.
func (s *States[T]) Interpolate(alpha float32) {
	s.Render.Interpolate(s.Previous, s.Current, alpha)
}
