package sim

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/san-kum/clothsim/internal/dynamo"
)

// Simulator drives a Subsystem on a virtual frame clock, so headless runs
// see the same tick/interpolate interleaving as a live viewer.
type Simulator[T World[T]] struct {
	metrics   []Metric[T]
	probes    []Probe[T]
	observers []Observer[T]
	logger    *log.Logger
}

func New[T World[T]]() *Simulator[T] {
	return &Simulator[T]{
		metrics:   make([]Metric[T], 0),
		probes:    make([]Probe[T], 0),
		observers: make([]Observer[T], 0),
		logger:    log.New(io.Discard),
	}
}

func (s *Simulator[T]) AddMetric(m Metric[T])     { s.metrics = append(s.metrics, m) }
func (s *Simulator[T]) AddProbe(p Probe[T])       { s.probes = append(s.probes, p) }
func (s *Simulator[T]) AddObserver(o Observer[T]) { s.observers = append(s.observers, o) }

func (s *Simulator[T]) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *Simulator[T]) subsystem(world T, cfg Config) (*Subsystem[T], error) {
	sub, err := NewSubsystem(world, cfg.Dt)
	if err != nil {
		return nil, err
	}
	sub.SetMaxFrame(cfg.MaxFrame)
	sub.SetLogger(s.logger)
	for _, m := range s.metrics {
		m.Reset()
		sub.AddMetric(m)
	}
	for _, o := range s.observers {
		sub.AddObserver(o)
	}
	return sub, nil
}

// Run steps world for cfg.Duration seconds and records every probe on the
// render state once per frame. world becomes the subsystem's current state
// and is mutated.
func (s *Simulator[T]) Run(ctx context.Context, world T, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sub, err := s.subsystem(world, cfg)
	if err != nil {
		return nil, err
	}

	frameDt := cfg.FrameDt()
	frames := int(math.Round(cfg.Duration / frameDt))

	result := &Result{
		Times:   make([]float64, 0, frames+1),
		Samples: make([][]float64, 0, frames+1),
		Probes:  make([]string, len(s.probes)),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for i, p := range s.probes {
		result.Probes[i] = p.Name()
	}

	s.logger.Debug("run start", "dt", cfg.Dt, "frame", frameDt, "frames", frames)
	s.sample(result, sub.Render(), 0)

	for f := 1; f <= frames; f++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		result.StepsTaken += sub.Advance(frameDt)

		if cfg.ValidateState && !sub.Current().Valid() {
			err := dynamo.SimError{Step: sub.Ticks(), Time: sub.Time(), Wrapped: dynamo.ErrUnstable}
			result.Errors = append(result.Errors, err)
			s.logger.Warn("state diverged", "step", sub.Ticks(), "t", sub.Time())
			break
		}

		result.Frames++
		s.sample(result, sub.Render(), float64(f)*frameDt)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	s.logger.Debug("run done", "steps", result.StepsTaken, "frames", result.Frames)
	return result, nil
}

func (s *Simulator[T]) sample(result *Result, w T, t float64) {
	row := make([]float64, len(s.probes))
	for i, p := range s.probes {
		row[i] = p.Sample(w)
	}
	result.Times = append(result.Times, t)
	result.Samples = append(result.Samples, row)
}

// RunWithCallback advances world frame by frame and hands each render state
// to callback until the duration elapses or callback returns false.
func (s *Simulator[T]) RunWithCallback(ctx context.Context, world T, cfg Config, callback func(render T, t float64) bool) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	sub, err := s.subsystem(world, cfg)
	if err != nil {
		return err
	}

	frameDt := cfg.FrameDt()
	frames := int(math.Round(cfg.Duration / frameDt))

	if !callback(sub.Render(), 0) {
		return nil
	}
	for f := 1; f <= frames; f++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		sub.Advance(frameDt)
		if cfg.ValidateState && !sub.Current().Valid() {
			return dynamo.SimError{Step: sub.Ticks(), Time: sub.Time(), Wrapped: dynamo.ErrUnstable}
		}
		if !callback(sub.Render(), float64(f)*frameDt) {
			return nil
		}
	}
	return nil
}
