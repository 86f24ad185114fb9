// Package chart renders sweeps, envelopes and stored runs to image files
// with gonum/plot. The format follows the file extension (png, svg, pdf).
package chart

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/pmsmsolve/internal/sweep"
)

var (
	Width  = 8 * vg.Inch
	Height = 4 * vg.Inch
)

// SweepCurrents plots id, iq and |I| against speed for one torque row.
func SweepCurrents(g *sweep.Grid, torqueIndex int, path string) error {
	if torqueIndex < 0 || torqueIndex >= len(g.Points) {
		return fmt.Errorf("torque index %d out of range [0, %d)", torqueIndex, len(g.Points))
	}
	row := g.Row(torqueIndex)
	if len(row) == 0 {
		return fmt.Errorf("empty sweep row")
	}

	id := make(plotter.XYs, len(row))
	iq := make(plotter.XYs, len(row))
	ia := make(plotter.XYs, len(row))
	for i, p := range row {
		id[i].X, id[i].Y = p.Speed, p.Solution.IdRef
		iq[i].X, iq[i].Y = p.Speed, p.Solution.IqRef
		ia[i].X, ia[i].Y = p.Speed, p.Solution.CurrentAmplitude()
	}

	p := newPlot(fmt.Sprintf("Current references at %.3g Nm", g.Torques[torqueIndex]), "speed [rad/s]", "current [A]")
	if err := plotutil.AddLinePoints(p, "id", id, "iq", iq, "|I|", ia); err != nil {
		return err
	}
	return p.Save(Width, Height, path)
}

// Envelope plots the largest deliverable torque against speed.
func Envelope(env []sweep.EnvelopePoint, path string) error {
	if len(env) == 0 {
		return fmt.Errorf("empty envelope")
	}

	pts := make(plotter.XYs, 0, len(env))
	for _, e := range env {
		if !e.Feasible {
			continue
		}
		pts = append(pts, plotter.XY{X: e.Speed, Y: e.MaxTorque})
	}
	if len(pts) == 0 {
		return fmt.Errorf("no feasible envelope points")
	}

	p := newPlot("Torque-speed envelope", "speed [rad/s]", "torque [Nm]")
	if err := plotutil.AddLinePoints(p, "max torque", pts); err != nil {
		return err
	}
	return p.Save(Width, Height, path)
}

// TimeSeries plots named columns of a stored run against time. Series are
// drawn in name order.
func TimeSeries(title string, times []float64, series map[string][]float64, path string) error {
	if len(times) == 0 || len(series) == 0 {
		return fmt.Errorf("nothing to plot")
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]interface{}, 0, 2*len(names))
	for _, name := range names {
		values := series[name]
		n := len(values)
		if n > len(times) {
			n = len(times)
		}
		pts := make(plotter.XYs, n)
		for i := 0; i < n; i++ {
			pts[i].X, pts[i].Y = times[i], values[i]
		}
		args = append(args, name, pts)
	}

	p := newPlot(title, "time [s]", "")
	if err := plotutil.AddLines(p, args...); err != nil {
		return err
	}
	return p.Save(Width, Height, path)
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(plotter.NewGrid())
	return p
}
