package drive

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/san-kum/pmsmsolve/internal/integrators"
	"github.com/san-kum/pmsmsolve/internal/pmsm"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

func ipmCondition() *pmsm.Condition {
	return pmsm.NewCondition(pmsm.NewMotorParameters(0.5, 0.001, 0.002, 0.05, 4), 24, 10)
}

func runDrive(t *testing.T, target, load float64) (*sim.Result, *ConvergenceLogger) {
	t.Helper()

	cond := ipmCondition()
	plant := NewMechanics(cond.Motor, 1e-4, 1e-5, load)
	ctrl := NewSpeedController(cond, NewPI(0.01, 0.5, 0.8), target)

	s := sim.New(plant, integrators.NewRK4(), ctrl)
	obs := NewConvergenceLogger(zap.NewNop(), 5)
	s.AddObserver(obs)

	result, err := s.Run(context.Background(), sim.State{0, 0}, sim.Config{Dt: 1e-4, Duration: 0.5, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("run reported errors: %v", result.Errors)
	}
	return result, obs
}

func TestMechanicsDerivative(t *testing.T) {
	motor := pmsm.NewMotorParameters(0.5, 0.001, 0.002, 0.05, 4)
	m := NewMechanics(motor, 1e-4, 0, 0)

	u := make(sim.Control, ControlDim)
	u[UIq] = 3
	dx := m.Derivative(sim.State{10, 0}, u, 0)

	if math.Abs(dx[XSpeed]-0.3/1e-4) > 1e-6 {
		t.Errorf("expected acceleration 3000, got %f", dx[XSpeed])
	}
	if dx[XAngle] != 10 {
		t.Errorf("expected angle rate 10, got %f", dx[XAngle])
	}
	if we := ElectricalSpeed(motor.Poles, sim.State{10, 0}); we != 20 {
		t.Errorf("expected electrical speed 20, got %f", we)
	}
}

func TestPISaturates(t *testing.T) {
	pi := NewPI(1, 10, 0.5)

	if u := pi.Update(100, 0); u != 0.5 {
		t.Errorf("expected saturation at 0.5, got %f", u)
	}
	for i := 1; i <= 100; i++ {
		pi.Update(100, float64(i)*0.01)
	}
	if pi.integral != 0 {
		t.Errorf("integrator should be frozen while saturated, got %f", pi.integral)
	}

	if u := pi.Update(-100, 1.01); u != -0.5 {
		t.Errorf("expected negative saturation, got %f", u)
	}
}

func TestPIIntegrates(t *testing.T) {
	pi := NewPI(0, 1, 10)
	pi.Update(1, 0)
	u := pi.Update(1, 0.5)

	if math.Abs(u-0.5) > 1e-12 {
		t.Errorf("expected integral 0.5, got %f", u)
	}

	pi.Reset()
	if pi.Update(1, 0) != 0 {
		t.Error("reset should clear the integral")
	}
}

func TestSpeedControllerCommand(t *testing.T) {
	cond := ipmCondition()
	ctrl := NewSpeedController(cond, NewPI(0.01, 0, 0.3), 1000)

	u := ctrl.Compute(sim.State{100, 0}, 0)
	if len(u) != ControlDim {
		t.Fatalf("expected %d controls, got %d", ControlDim, len(u))
	}
	if u[UTorqueRef] != 0.3 {
		t.Errorf("expected saturated torque 0.3, got %f", u[UTorqueRef])
	}

	sol, status := ctrl.Last()
	expected, expectedStatus := pmsm.Solve(cond, 0.3, 200)
	if sol != expected || status != expectedStatus {
		t.Error("controller should command exactly what the solver returns")
	}
	if u[UId] != sol.IdRef || u[UIq] != sol.IqRef || u[UVa] != sol.VaCalc {
		t.Error("control vector does not match solution")
	}
	if u[UMode] != float64(pmsm.ModeMTPA) {
		t.Errorf("expected mtpa mode, got %f", u[UMode])
	}
}

func TestDriveReachesTarget(t *testing.T) {
	result, obs := runDrive(t, 300, 0)

	final := result.States[len(result.States)-1]
	we := 2 * final[XSpeed]
	if math.Abs(we-300) > 3 {
		t.Errorf("expected electrical speed ~300, got %f", we)
	}
	if obs.Count() != 0 {
		t.Errorf("expected no convergence failures, got %d", obs.Count())
	}
	for i, u := range result.Controls {
		if u[UFluxWeakening] != 0 {
			t.Fatalf("unexpected flux weakening at step %d", i)
		}
	}
}

func TestDriveHoldsSpeedUnderLoad(t *testing.T) {
	result, _ := runDrive(t, 300, 0.1)

	final := result.States[len(result.States)-1]
	if math.Abs(2*final[XSpeed]-300) > 3 {
		t.Errorf("expected electrical speed ~300 under load, got %f", 2*final[XSpeed])
	}
	last := result.Controls[len(result.Controls)-1]
	if last[UTorqueRef] < 0.1 {
		t.Errorf("expected torque to carry the load, got %f", last[UTorqueRef])
	}
}

func TestDriveEntersFluxWeakening(t *testing.T) {
	result, _ := runDrive(t, 560, 0)

	fw := 0
	for _, u := range result.Controls {
		if u[UFluxWeakening] != 0 {
			fw++
			if amp := math.Hypot(u[UId], u[UIq]); amp > 10+1e-9 {
				t.Fatalf("current %.4f exceeds limit", amp)
			}
		}
	}
	if fw == 0 {
		t.Error("expected flux weakening above base speed")
	}
}

func TestConvergenceLoggerLimitsReports(t *testing.T) {
	l := NewConvergenceLogger(zap.NewNop(), 2)
	u := make(sim.Control, ControlDim)
	u[UNotConverged] = 1

	for i := 0; i < 5; i++ {
		l.OnStep(sim.State{0, 0}, u, float64(i))
	}
	l.OnStep(sim.State{0, 0}, make(sim.Control, ControlDim), 5)

	if l.Count() != 5 {
		t.Errorf("expected 5 failures counted, got %d", l.Count())
	}
}
