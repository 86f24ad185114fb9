package drive

import (
	"github.com/san-kum/pmsmsolve/internal/pmsm"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

// Mechanics is a rigid rotor: J dw/dt = Te - B w - TL.
type Mechanics struct {
	Motor      *pmsm.MotorParameters
	Inertia    float64
	Friction   float64
	LoadTorque float64
}

func NewMechanics(motor *pmsm.MotorParameters, inertia, friction, load float64) *Mechanics {
	return &Mechanics{
		Motor:      motor,
		Inertia:    inertia,
		Friction:   friction,
		LoadTorque: load,
	}
}

func (m *Mechanics) StateDim() int   { return StateDim }
func (m *Mechanics) ControlDim() int { return ControlDim }

func (m *Mechanics) Derivative(x sim.State, u sim.Control, t float64) sim.State {
	w := x[XSpeed]

	te := 0.0
	if len(u) > UIq {
		te = m.Motor.Torque(u[UId], u[UIq])
	}
	alpha := (te - m.Friction*w - m.LoadTorque) / m.Inertia

	return sim.State{alpha, w}
}
