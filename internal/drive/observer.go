package drive

import (
	"go.uber.org/zap"

	"github.com/san-kum/pmsmsolve/internal/sim"
)

// ConvergenceLogger reports solver ticks that hit an iteration cap. Only
// the first MaxReports are logged individually; the rest are counted.
type ConvergenceLogger struct {
	logger     *zap.Logger
	MaxReports int
	count      int
}

func NewConvergenceLogger(logger *zap.Logger, maxReports int) *ConvergenceLogger {
	return &ConvergenceLogger{logger: logger, MaxReports: maxReports}
}

func (l *ConvergenceLogger) OnStep(x sim.State, u sim.Control, t float64) {
	if len(u) <= UNotConverged || u[UNotConverged] == 0 {
		return
	}
	l.count++
	if l.count > l.MaxReports {
		return
	}
	l.logger.Warn("solver did not converge",
		zap.String("op", "drive.SpeedController.Compute"),
		zap.Float64("t", t),
		zap.Float64("torque_ref", u[UTorqueRef]),
		zap.Float64("omega_m", x[XSpeed]),
		zap.Bool("fw", u[UFluxWeakening] != 0),
	)
}

func (l *ConvergenceLogger) Count() int { return l.count }
