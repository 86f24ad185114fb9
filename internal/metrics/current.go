package metrics

import (
	"math"

	"github.com/san-kum/pmsmsolve/internal/drive"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

// CurrentAmplitude is the mean commanded |(id, iq)|.
type CurrentAmplitude struct {
	name    string
	sum     float64
	peak    float64
	samples int
}

func NewCurrentAmplitude() *CurrentAmplitude {
	return &CurrentAmplitude{name: "current_amplitude"}
}

func (c *CurrentAmplitude) Name() string { return c.name }

func (c *CurrentAmplitude) Observe(x sim.State, u sim.Control, t float64) {
	if len(u) <= drive.UIq {
		return
	}
	amp := math.Hypot(u[drive.UId], u[drive.UIq])
	c.sum += amp
	c.peak = math.Max(c.peak, amp)
	c.samples++
}

func (c *CurrentAmplitude) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *CurrentAmplitude) Reset() {
	c.sum = 0
	c.peak = 0
	c.samples = 0
}

// PeakCurrent exposes the largest commanded amplitude as its own metric.
type PeakCurrent struct {
	CurrentAmplitude
}

func NewPeakCurrent() *PeakCurrent {
	return &PeakCurrent{CurrentAmplitude{name: "peak_current"}}
}

func (p *PeakCurrent) Value() float64 { return p.peak }
