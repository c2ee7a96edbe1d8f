// Package render turns a render snapshot into drawable data: flat float32
// vertex lists for GPU-style consumers and a braille canvas for terminals.
package render

import "github.com/san-kum/clothsim/internal/physics"

// Points appends x, y, z of every particle to dst, free particles first.
func Points(dst []float32, w *physics.Simulation) []float32 {
	for _, p := range w.Particles.Position {
		dst = append(dst, p[0], p[1], p[2])
	}
	return dst
}

// Lines appends both endpoints of every spring to dst, six floats per
// spring.
func Lines(dst []float32, w *physics.Simulation) []float32 {
	pos := w.Particles.Position
	s := w.Springs
	for i := range s.M1 {
		a, b := pos[s.M1[i]], pos[s.M2[i]]
		dst = append(dst, a[0], a[1], a[2], b[0], b[1], b[2])
	}
	return dst
}

// Frame is one render snapshot flattened for transport. Points[:3*FrozenStart]
// are free particles.
type Frame struct {
	Tick        int        `json:"tick"`
	Time        float64    `json:"time"`
	Alpha       float32    `json:"alpha"`
	Enabled     bool       `json:"enabled"`
	FrozenStart int        `json:"frozen_start"`
	Points      []float32  `json:"points"`
	Lines       []float32  `json:"lines"`
	Bounds      [4]float32 `json:"bounds"` // min x, min y, max x, max y
}

// Fill overwrites f from w, reusing its slices.
func (f *Frame) Fill(w *physics.Simulation) {
	f.FrozenStart = w.Particles.FrozenStart
	f.Points = Points(f.Points[:0], w)
	f.Lines = Lines(f.Lines[:0], w)
	b := w.Params.Bounds
	f.Bounds = [4]float32{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}
