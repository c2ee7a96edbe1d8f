package sim

import (
	"fmt"

	"github.com/san-kum/clothsim/internal/dynamo"
)

// Snapshot is a state that can fill one slot of a previous/current/render
// triple.
type Snapshot[T any] interface {
	CopyFrom(src T)
	Interpolate(prev, cur T, alpha float32)
	Clone() T
}

// World is a Snapshot that can also be advanced by a fixed step.
type World[T any] interface {
	Snapshot[T]
	Step(dt float32)
	Valid() bool
}

// Metric aggregates a value over the ticks of a run.
type Metric[T any] interface {
	Name() string
	Observe(w T, t float64)
	Value() float64
	Reset()
}

// Probe reads one scalar off a world; results record it every frame.
type Probe[T any] interface {
	Name() string
	Sample(w T) float64
}

// Observer is notified after every tick with the current state.
type Observer[T any] interface {
	OnTick(w T, tick int, t float64)
}

type Config struct {
	Dt        float64
	Duration  float64
	FrameRate int     // frames per second; 0 samples once per tick
	MaxFrame  float64 // longest frame the accumulator accepts, seconds
	// ValidateState stops a run at the first NaN/Inf state.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		FrameRate:     60,
		MaxFrame:      0.25,
		ValidateState: true,
	}
}

func (c Config) validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", dynamo.ErrInvalidConfiguration, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidConfiguration, c.Duration)
	}
	if c.FrameRate < 0 {
		return fmt.Errorf("%w: frame rate must not be negative, got %d", dynamo.ErrInvalidConfiguration, c.FrameRate)
	}
	return nil
}

// FrameDt is the virtual frame length used by Simulator.
func (c Config) FrameDt() float64 {
	if c.FrameRate <= 0 {
		return c.Dt
	}
	return 1 / float64(c.FrameRate)
}

type Result struct {
	Times      []float64
	Samples    [][]float64
	Probes     []string
	Metrics    map[string]float64
	StepsTaken int
	Frames     int
	Errors     []error
}

// Series returns the samples of the named probe, or nil.
func (r *Result) Series(probe string) []float64 {
	col := -1
	for i, name := range r.Probes {
		if name == probe {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}
	out := make([]float64, len(r.Samples))
	for i, row := range r.Samples {
		out[i] = row[col]
	}
	return out
}
