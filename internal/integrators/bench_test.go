package integrators

import (
	"testing"

	"github.com/san-kum/pmsmsolve/internal/sim"
)

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &spinDown{tau: 0.5}
	x := sim.State{100, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 1e-4)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &spinDown{tau: 0.5}
	x := sim.State{100, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, nil, 0, 1e-4)
	}
}
