package sim

import "math"

// State is the plant state vector, Control the command vector produced by
// the controller once per control tick.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Control []float64

func (u Control) Clone() Control {
	c := make(Control, len(u))
	copy(c, u)
	return c
}

type Dynamics interface {
	Derivative(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn Dynamics, x State, u Control, t float64, dt float64) State
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Config struct {
	Dt       float64
	Duration float64

	// ControlEvery is the number of integration steps per control tick.
	// Zero means every step.
	ControlEvery int
	// RecordEvery thins the stored trajectory. Zero keeps every step.
	RecordEvery int

	// ValidateState stops the run at the first NaN/Inf state.
	ValidateState bool
}

// Result holds the recorded trajectory. Controls[k] is the command held
// while the plant moved from States[k] towards States[k+1].
type Result struct {
	States       []State
	Controls     []Control
	Times        []float64
	Metrics      map[string]float64
	StepsTaken   int
	ControlTicks int
	Errors       []error
}
