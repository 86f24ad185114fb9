package drive

import "github.com/san-kum/pmsmsolve/internal/sim"

// Indices into the control vector produced by SpeedController. Only UId
// and UIq drive the plant; the rest record the solver's view of the tick.
const (
	UId = iota
	UIq
	UTorqueRef
	UVa
	UFluxWeakening
	UNotConverged
	UMode
	ControlDim
)

var ControlNames = [ControlDim]string{
	"id_ref", "iq_ref", "torque_ref", "va_calc", "fw", "not_converged", "mode",
}

// Indices into the plant state.
const (
	XSpeed = iota
	XAngle
	StateDim
)

var StateNames = [StateDim]string{"omega_m", "theta_m"}

// ElectricalSpeed is the rotor speed in x converted to electrical rad/s.
func ElectricalSpeed(poles float64, x sim.State) float64 {
	return 0.5 * poles * x[XSpeed]
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
