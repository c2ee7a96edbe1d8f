package sim

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/san-kum/clothsim/internal/dynamo"
)

// Subsystem runs a world at a fixed tick rate behind an enable gate and
// keeps its render slot interpolated for variable-rate frames.
type Subsystem[T World[T]] struct {
	states    *States[T]
	dt        float64
	maxFrame  float64
	acc       float64
	alpha     float32
	enabled   bool
	ticks     int
	time      float64
	metrics   []Metric[T]
	observers []Observer[T]
	logger    *log.Logger
}

func NewSubsystem[T World[T]](world T, dt float64) (*Subsystem[T], error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfiguration, dt)
	}
	return &Subsystem[T]{
		states:  NewStates(world),
		dt:      dt,
		enabled: true,
		logger:  log.New(io.Discard),
	}, nil
}

func (s *Subsystem[T]) AddMetric(m Metric[T])     { s.metrics = append(s.metrics, m) }
func (s *Subsystem[T]) AddObserver(o Observer[T]) { s.observers = append(s.observers, o) }

func (s *Subsystem[T]) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetMaxFrame caps the frame time Advance accepts. Zero disables the cap.
func (s *Subsystem[T]) SetMaxFrame(seconds float64) { s.maxFrame = seconds }

func (s *Subsystem[T]) Enabled() bool { return s.enabled }

func (s *Subsystem[T]) SetEnabled(on bool) {
	if s.enabled == on {
		return
	}
	s.enabled = on
	s.logger.Debug("physics gate", "enabled", on, "tick", s.ticks)
}

func (s *Subsystem[T]) Toggle() bool {
	s.SetEnabled(!s.enabled)
	return s.enabled
}

// Tick commits Current to Previous and steps Current once. It does nothing
// and returns false while the subsystem is disabled.
func (s *Subsystem[T]) Tick() bool {
	if !s.enabled {
		return false
	}
	s.states.Commit()
	s.states.Current.Step(float32(s.dt))
	s.ticks++
	s.time += s.dt

	cur := s.states.Current
	for _, m := range s.metrics {
		m.Observe(cur, s.time)
	}
	for _, o := range s.observers {
		o.OnTick(cur, s.ticks, s.time)
	}
	return true
}

// Advance feeds frame seconds of wall time into the accumulator, runs every
// tick that became due and refreshes Render. It returns the number of ticks
// run. While disabled the frame is dropped and nothing changes.
func (s *Subsystem[T]) Advance(frame float64) int {
	if !s.enabled {
		return 0
	}
	if frame < 0 {
		frame = 0
	}
	if s.maxFrame > 0 && frame > s.maxFrame {
		s.logger.Debug("frame clamped", "frame", frame, "max", s.maxFrame)
		frame = s.maxFrame
	}

	s.acc += frame
	n := 0
	for s.acc >= s.dt {
		s.Tick()
		s.acc -= s.dt
		n++
	}

	s.alpha = float32(s.acc / s.dt)
	s.states.Interpolate(s.alpha)
	return n
}

// Reset replaces the world and clears the clock, accumulator and metrics.
// The gate keeps its state.
func (s *Subsystem[T]) Reset(world T) {
	s.states = NewStates(world)
	s.acc, s.alpha, s.ticks, s.time = 0, 0, 0, 0
	for _, m := range s.metrics {
		m.Reset()
	}
	s.logger.Debug("physics reset")
}

// Render is the latest interpolated snapshot. It is only valid until the
// next Advance.
func (s *Subsystem[T]) Render() T   { return s.states.Render }
func (s *Subsystem[T]) Current() T  { return s.states.Current }
func (s *Subsystem[T]) Previous() T { return s.states.Previous }

func (s *Subsystem[T]) Dt() float64    { return s.dt }
func (s *Subsystem[T]) Ticks() int     { return s.ticks }
func (s *Subsystem[T]) Time() float64  { return s.time }
func (s *Subsystem[T]) Alpha() float32 { return s.alpha }
