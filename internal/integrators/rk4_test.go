package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/pmsmsolve/internal/sim"
)

// spinDown is a rotor coasting against viscous friction, state [w, theta].
type spinDown struct {
	tau float64
}

func (s *spinDown) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	return sim.State{-x[0] / s.tau, x[0]}
}

func (s *spinDown) StateDim() int   { return 2 }
func (s *spinDown) ControlDim() int { return 0 }

func integrate(integ sim.Integrator, steps int, dt float64) sim.State {
	dyn := &spinDown{tau: 0.5}
	x := sim.State{100, 0}
	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}
	return x
}

func TestRK4Accuracy(t *testing.T) {
	dt := 0.01
	steps := 100
	x := integrate(NewRK4(), steps, dt)

	T := float64(steps) * dt
	expectedW := 100 * math.Exp(-T/0.5)
	expectedTheta := 100 * 0.5 * (1 - math.Exp(-T/0.5))

	if math.Abs(x[0]-expectedW) > 1e-4 {
		t.Errorf("speed error too large: got %.6f, expected %.6f", x[0], expectedW)
	}
	if math.Abs(x[1]-expectedTheta) > 1e-4 {
		t.Errorf("angle error too large: got %.6f, expected %.6f", x[1], expectedTheta)
	}
}

func TestEulerLessAccurateThanRK4(t *testing.T) {
	dt := 0.05
	steps := 20
	expected := 100 * math.Exp(-float64(steps)*dt/0.5)

	euler := integrate(NewEuler(), steps, dt)
	rk4 := integrate(NewRK4(), steps, dt)

	if math.Abs(rk4[0]-expected) >= math.Abs(euler[0]-expected) {
		t.Errorf("rk4 error %.6f should beat euler error %.6f", math.Abs(rk4[0]-expected), math.Abs(euler[0]-expected))
	}
}
