package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/pmsmsolve/internal/config"
	"github.com/san-kum/pmsmsolve/internal/drive"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

// maxConvergenceReports bounds per-tick warnings from one run.
const maxConvergenceReports = 10

// Experiment is one closed-loop drive run built from a Config.
type Experiment struct {
	cfg    *config.Config
	logger *zap.Logger

	plant       *drive.Mechanics
	controller  *drive.SpeedController
	convergence *drive.ConvergenceLogger
	simulator   *sim.Simulator
}

func New(cfg *config.Config, logger *zap.Logger) *Experiment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Experiment{cfg: cfg, logger: logger}
}

func (e *Experiment) Setup(r *Registry) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", e.cfg.Name, err)
	}

	integ, err := r.GetIntegrator(e.cfg.Drive.Integrator)
	if err != nil {
		return err
	}

	cond := e.cfg.Condition()
	d := e.cfg.Drive
	e.plant = drive.NewMechanics(cond.Motor, d.Inertia, d.Friction, d.LoadTorque)
	e.controller = drive.NewSpeedController(cond, drive.NewPI(d.Kp, d.Ki, d.TorqueLimit), d.SpeedTarget)
	e.convergence = drive.NewConvergenceLogger(e.logger, maxConvergenceReports)

	e.simulator = sim.New(e.plant, integ, e.controller)
	for _, m := range r.DefaultMetrics(e.cfg) {
		e.simulator.AddMetric(m)
	}
	e.simulator.AddObserver(e.convergence)
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.logger.Info("starting drive run",
		zap.String("preset", e.cfg.Name),
		zap.Float64("target", e.cfg.Drive.SpeedTarget),
		zap.Float64("duration", e.cfg.Drive.Duration),
	)

	x0 := make(sim.State, drive.StateDim)
	result, err := e.simulator.Run(ctx, x0, sim.Config{
		Dt:            e.cfg.Drive.Dt,
		Duration:      e.cfg.Drive.Duration,
		ControlEvery:  e.cfg.Drive.ControlEvery,
		RecordEvery:   e.cfg.Drive.RecordEvery,
		ValidateState: true,
	})
	if err != nil {
		return result, err
	}

	sol, status := e.controller.Last()
	e.logger.Info("drive run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("id_ref", sol.IdRef),
		zap.Float64("iq_ref", sol.IqRef),
		zap.Stringer("mode", sol.Mode),
		zap.Stringer("status", status),
	)

	if n := e.convergence.Count(); n > 0 {
		e.logger.Warn("solver hit iteration cap during run",
			zap.String("op", "experiment.Run"),
			zap.Int("ticks", n),
		)
	}
	return result, nil
}

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Controller() *drive.SpeedController { return e.controller }
func (e *Experiment) Config() *config.Config             { return e.cfg }
