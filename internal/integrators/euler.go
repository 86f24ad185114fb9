package integrators

import "github.com/san-kum/pmsmsolve/internal/sim"

// Euler is explicit forward Euler. Cheap enough to mirror a fixed-rate
// controller's own discretisation.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn sim.Dynamics, x sim.State, u sim.Control, t float64, dt float64) sim.State {
	dx := dyn.Derivative(x, u, t)
	result := make(sim.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
