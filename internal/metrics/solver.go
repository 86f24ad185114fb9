package metrics

import (
	"math"

	"github.com/san-kum/pmsmsolve/internal/drive"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

// FluxWeakeningRatio is the fraction of ticks spent in flux weakening.
type FluxWeakeningRatio struct {
	name    string
	active  int
	samples int
}

func NewFluxWeakeningRatio() *FluxWeakeningRatio {
	return &FluxWeakeningRatio{name: "fw_ratio"}
}

func (f *FluxWeakeningRatio) Name() string { return f.name }

func (f *FluxWeakeningRatio) Observe(x sim.State, u sim.Control, t float64) {
	if len(u) <= drive.UFluxWeakening {
		return
	}
	f.samples++
	if u[drive.UFluxWeakening] != 0 {
		f.active++
	}
}

func (f *FluxWeakeningRatio) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.active) / float64(f.samples)
}

func (f *FluxWeakeningRatio) Reset() {
	f.active = 0
	f.samples = 0
}

// NotConverged counts ticks where the solver hit an iteration cap.
type NotConverged struct {
	name  string
	count int
}

func NewNotConverged() *NotConverged {
	return &NotConverged{name: "not_converged"}
}

func (n *NotConverged) Name() string { return n.name }

func (n *NotConverged) Observe(x sim.State, u sim.Control, t float64) {
	if len(u) > drive.UNotConverged && u[drive.UNotConverged] != 0 {
		n.count++
	}
}

func (n *NotConverged) Value() float64 { return float64(n.count) }
func (n *NotConverged) Reset()         { n.count = 0 }

// VoltageHeadroom is the smallest margin between the supply limit and the
// voltage the solver asked for. Negative means the limit was exceeded.
type VoltageHeadroom struct {
	name    string
	vaLim   float64
	min     float64
	samples int
}

func NewVoltageHeadroom(vaLim float64) *VoltageHeadroom {
	return &VoltageHeadroom{name: "voltage_headroom", vaLim: vaLim}
}

func (v *VoltageHeadroom) Name() string { return v.name }

func (v *VoltageHeadroom) Observe(x sim.State, u sim.Control, t float64) {
	if len(u) <= drive.UVa {
		return
	}
	margin := v.vaLim - u[drive.UVa]
	if v.samples == 0 || margin < v.min {
		v.min = margin
	}
	v.samples++
}

func (v *VoltageHeadroom) Value() float64 {
	if v.samples == 0 {
		return v.vaLim
	}
	return v.min
}

func (v *VoltageHeadroom) Reset() {
	v.min = 0
	v.samples = 0
}

// SpeedError is the mean absolute electrical speed error.
type SpeedError struct {
	name    string
	target  float64
	poles   float64
	sum     float64
	samples int
}

func NewSpeedError(target, poles float64) *SpeedError {
	return &SpeedError{name: "speed_error", target: target, poles: poles}
}

func (s *SpeedError) Name() string { return s.name }

func (s *SpeedError) Observe(x sim.State, u sim.Control, t float64) {
	if len(x) <= drive.XSpeed {
		return
	}
	we := drive.ElectricalSpeed(s.poles, x)
	s.sum += math.Abs(s.target - we)
	s.samples++
}

func (s *SpeedError) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *SpeedError) Reset() {
	s.sum = 0
	s.samples = 0
}
