package sim

import (
	"context"
	"fmt"
)

// Simulator steps a plant under a sampled controller. The controller runs
// on control ticks and its command is held between them, the way a drive's
// current loop holds its reference across several mechanical substeps.
type Simulator struct {
	plant      Dynamics
	integrator Integrator
	controller Controller
	metrics    []Metric
	observers  []Observer
}

func New(plant Dynamics, integrator Integrator, controller Controller) *Simulator {
	return &Simulator{
		plant:      plant,
		integrator: integrator,
		controller: controller,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run advances the plant from x0. Metrics and observers see every control
// tick; Result keeps every RecordEvery-th integration step plus the last.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration / cfg.Dt)
	hold := max(cfg.ControlEvery, 1)
	record := max(cfg.RecordEvery, 1)

	result := &Result{
		States:   make([]State, 0, steps/record+2),
		Controls: make([]Control, 0, steps/record+1),
		Times:    make([]float64, 0, steps/record+2),
		Metrics:  make(map[string]float64, len(s.metrics)),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	var u Control
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if i%hold == 0 {
			u = s.controller.Compute(x, t)
			result.ControlTicks++
			for _, m := range s.metrics {
				m.Observe(x, u, t)
			}
			for _, obs := range s.observers {
				obs.OnStep(x, u, t)
			}
		}

		next := s.integrator.Step(s.plant, x, u, t, cfg.Dt)
		if cfg.ValidateState && !next.IsValid() {
			result.Errors = append(result.Errors, &StepError{Step: i, Time: t, Wrapped: ErrInvalidState})
			break
		}

		x = next
		t += cfg.Dt
		result.StepsTaken++

		if result.StepsTaken%record == 0 || i == steps-1 {
			result.States = append(result.States, x.Clone())
			result.Controls = append(result.Controls, u.Clone())
			result.Times = append(result.Times, t)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.ControlEvery < 0 || cfg.RecordEvery < 0 {
		return fmt.Errorf("control_every and record_every must not be negative")
	}
	if len(x0) != s.plant.StateDim() {
		return fmt.Errorf("initial state has %d entries, plant expects %d", len(x0), s.plant.StateDim())
	}
	return nil
}
