package sim

import "testing"

func TestStatesCommit(t *testing.T) {
	s := NewStates(&counter{x: 3})
	s.Current.Step(0.1)
	if s.Previous.x != 3 {
		t.Fatalf("previous changed before commit: %v", s.Previous.x)
	}

	s.Commit()
	if s.Previous.x != 4 {
		t.Errorf("previous = %v after commit, want 4", s.Previous.x)
	}
	if s.Previous == s.Current {
		t.Error("commit aliased previous to current")
	}
}

func TestStatesInterpolate(t *testing.T) {
	s := NewStates(&counter{x: 1})
	s.Commit()
	s.Current.Step(0.1)

	tests := []struct {
		alpha float32
		want  float32
	}{
		{0, 1},
		{0.5, 1.5},
		{1, 2},
	}
	for _, tt := range tests {
		s.Interpolate(tt.alpha)
		if s.Render.x != tt.want {
			t.Errorf("alpha %v: render = %v, want %v", tt.alpha, s.Render.x, tt.want)
		}
	}
}
