package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/pmsmsolve/internal/drive"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

func command(id, iq, va float64, fw, nc bool) sim.Control {
	u := make(sim.Control, drive.ControlDim)
	u[drive.UId] = id
	u[drive.UIq] = iq
	u[drive.UVa] = va
	if fw {
		u[drive.UFluxWeakening] = 1
	}
	if nc {
		u[drive.UNotConverged] = 1
	}
	return u
}

func TestCurrentAmplitude(t *testing.T) {
	m := NewCurrentAmplitude()
	x := sim.State{0, 0}

	m.Observe(x, command(-3, 4, 0, false, false), 0)
	m.Observe(x, command(0, 1, 0, false, false), 0)

	if math.Abs(m.Value()-3) > 1e-12 {
		t.Errorf("expected mean 3, got %f", m.Value())
	}
	if m.peak != 5 {
		t.Errorf("expected peak 5 tracked, got %f", m.peak)
	}

	m.Reset()
	if m.Value() != 0 || m.peak != 0 {
		t.Error("expected zero after reset")
	}
}

func TestPeakCurrent(t *testing.T) {
	m := NewPeakCurrent()
	m.Observe(sim.State{0, 0}, command(-6, 8, 0, false, false), 0)
	m.Observe(sim.State{0, 0}, command(0, 1, 0, false, false), 0)

	if m.Name() != "peak_current" || m.Value() != 10 {
		t.Errorf("expected peak_current 10, got %s %f", m.Name(), m.Value())
	}
}

func TestFluxWeakeningRatio(t *testing.T) {
	m := NewFluxWeakeningRatio()
	x := sim.State{0, 0}

	m.Observe(x, command(0, 0, 0, true, false), 0)
	m.Observe(x, command(0, 0, 0, false, false), 0)
	m.Observe(x, command(0, 0, 0, false, false), 0)
	m.Observe(x, command(0, 0, 0, true, false), 0)

	if m.Value() != 0.5 {
		t.Errorf("expected ratio 0.5, got %f", m.Value())
	}
}

func TestNotConverged(t *testing.T) {
	m := NewNotConverged()
	x := sim.State{0, 0}

	m.Observe(x, command(0, 0, 0, false, true), 0)
	m.Observe(x, command(0, 0, 0, false, false), 0)

	if m.Value() != 1 {
		t.Errorf("expected 1, got %f", m.Value())
	}
}

func TestVoltageHeadroom(t *testing.T) {
	m := NewVoltageHeadroom(24)
	if m.Value() != 24 {
		t.Errorf("expected full headroom before samples, got %f", m.Value())
	}

	x := sim.State{0, 0}
	m.Observe(x, command(0, 0, 10, false, false), 0)
	m.Observe(x, command(0, 0, 26, false, false), 0)
	m.Observe(x, command(0, 0, 20, false, false), 0)

	if m.Value() != -2 {
		t.Errorf("expected -2, got %f", m.Value())
	}
}

func TestSpeedError(t *testing.T) {
	m := NewSpeedError(300, 4)

	m.Observe(sim.State{100, 0}, nil, 0)
	m.Observe(sim.State{150, 0}, nil, 0)

	if m.Value() != 50 {
		t.Errorf("expected 50, got %f", m.Value())
	}
}
