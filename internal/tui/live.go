package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/pmsmsolve/internal/drive"
	"github.com/san-kum/pmsmsolve/internal/sim"
	"github.com/san-kum/pmsmsolve/internal/viz"
)

const (
	historyLen  = 60
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws a drive run in place while it is simulated. A
// frameRate of zero or less draws every step.
type LiveRenderer struct {
	out       io.Writer
	name      string
	poles     float64
	target    float64
	frameRate int
	lastFrame time.Time
	speed     []float64
	frames    int
}

func NewLiveRenderer(out io.Writer, name string, poles, target float64, frameRate int) *LiveRenderer {
	return &LiveRenderer{
		out:       out,
		name:      name,
		poles:     poles,
		target:    target,
		frameRate: frameRate,
		speed:     make([]float64, 0, historyLen),
	}
}

func (r *LiveRenderer) OnStep(x sim.State, u sim.Control, t float64) {
	we := drive.ElectricalSpeed(r.poles, x)
	r.speed = append(r.speed, we)
	if len(r.speed) > historyLen {
		r.speed = r.speed[1:]
	}

	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
		r.lastFrame = time.Now()
	}

	r.render(x, u, t)
}

func (r *LiveRenderer) render(x sim.State, u sim.Control, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(viz.Title.Render(fmt.Sprintf("  %s  t=%.4fs", r.name, t)))
	b.WriteString("\n\n")

	we := drive.ElectricalSpeed(r.poles, x)
	b.WriteString(fmt.Sprintf("  speed  %8.2f / %.2f rad/s  %s\n", we, r.target, viz.SparklineChart(r.speed, 40)))
	if len(u) == drive.ControlDim {
		b.WriteString(fmt.Sprintf("  torque %8.4f Nm\n", u[drive.UTorqueRef]))
		b.WriteString(fmt.Sprintf("  id/iq  %8.3f / %.3f A\n", u[drive.UId], u[drive.UIq]))
		b.WriteString(fmt.Sprintf("  va     %8.3f V", u[drive.UVa]))
		if u[drive.UFluxWeakening] != 0 {
			b.WriteString("  " + viz.StatusWarn.Render("fw"))
		}
		if u[drive.UNotConverged] != 0 {
			b.WriteString("  " + viz.StatusFail.Render("not converged"))
		}
		b.WriteString("\n")
	}

	fmt.Fprint(r.out, b.String())
	r.frames++
}

func (r *LiveRenderer) Frames() int { return r.frames }

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
