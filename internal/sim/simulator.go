// Package sim rolls a system forward in time with the semi-implicit Euler
// stepper and collects metrics along the way.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"github.com/san-kum/chainsim/internal/dynamics"
	"github.com/san-kum/chainsim/internal/dynamo"
)

type Simulator struct {
	sys       *dynamo.System
	metrics   []Metric
	observers []Observer
	log       logr.Logger
}

type Option func(*Simulator)

func WithLogger(l logr.Logger) Option {
	return func(s *Simulator) { s.log = l }
}

func New(sys *dynamo.System, opts ...Option) *Simulator {
	s := &Simulator{
		sys:       sys,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) System() *dynamo.System { return s.sys }

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Steps is the number of steps a rollout of cfg takes.
func (s *Simulator) Steps(cfg Config) int {
	return int(math.Round(cfg.Duration / s.sys.Dt))
}

// Run steps st0 for cfg.Duration. On a failing step the partial result is
// returned together with a *dynamo.SimulationError.
func (s *Simulator) Run(ctx context.Context, st0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validate(st0, cfg); err != nil {
		return nil, err
	}

	steps := s.Steps(cfg)
	result := &Result{
		States:  make([]dynamo.State, 0, steps+1),
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	st := st0.Clone()
	t := 0.0
	dt := s.sys.Dt

	result.States = append(result.States, st)
	result.Times = append(result.Times, t)

	initialEnergy := s.computeEnergy(st)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(s.sys, st, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(st, t)
		}

		next, err := dynamics.Step(s.sys, st)
		if err != nil {
			s.finish(result, st, initialEnergy)
			return result, &dynamo.SimulationError{Step: i, Time: t, State: st, Wrapped: err}
		}
		if cfg.ValidateState && !next.IsValid() {
			s.finish(result, st, initialEnergy)
			return result, &dynamo.SimulationError{Step: i, Time: t, State: next, Wrapped: dynamo.ErrUnstable}
		}

		st = next
		t = float64(i+1) * dt
		result.StepsTaken++

		result.States = append(result.States, st)
		result.Times = append(result.Times, t)
	}

	s.finish(result, st, initialEnergy)
	s.log.V(1).Info("rollout finished", "system", s.sys.Name, "steps", result.StepsTaken, "energy_drift", result.EnergyDrift)
	return result, nil
}

func (s *Simulator) finish(result *Result, last dynamo.State, initialEnergy float64) {
	finalEnergy := s.computeEnergy(last)
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validate(st dynamo.State, cfg Config) error {
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrParameterBounds, cfg.Duration)
	}
	if s.Steps(cfg) < 1 {
		return fmt.Errorf("%w: duration %f is shorter than dt %f", dynamo.ErrParameterBounds, cfg.Duration, s.sys.Dt)
	}
	return s.sys.Check(st)
}

func (s *Simulator) computeEnergy(st dynamo.State) float64 {
	ke, pe, err := dynamics.Energy(s.sys, st)
	if err != nil {
		return 0
	}
	return ke + pe
}

// RunWithCallback steps until the duration elapses or callback returns
// false. Nothing is recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, st0 dynamo.State, cfg Config, callback func(dynamo.State, float64) bool) error {
	if err := s.validate(st0, cfg); err != nil {
		return err
	}

	st := st0
	steps := s.Steps(cfg)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * s.sys.Dt
		if !callback(st, t) {
			return nil
		}

		next, err := dynamics.Step(s.sys, st)
		if err != nil {
			return &dynamo.SimulationError{Step: i, Time: t, State: st, Wrapped: err}
		}
		if cfg.ValidateState && !next.IsValid() {
			return &dynamo.SimulationError{Step: i, Time: t, State: next, Wrapped: dynamo.ErrUnstable}
		}
		st = next
	}
	return nil
}
