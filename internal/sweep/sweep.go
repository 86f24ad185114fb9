package sweep

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

// Point is one solved operating point.
type Point struct {
	Torque   float64       `json:"torque"`
	Speed    float64       `json:"speed"`
	Solution pmsm.Solution `json:"solution"`
	Status   pmsm.Status   `json:"status"`
}

// Grid holds solutions indexed [torque][speed].
type Grid struct {
	Speeds  []float64 `json:"speeds"`
	Torques []float64 `json:"torques"`
	Points  [][]Point `json:"points"`
}

// Map solves every torque/speed combination. Torque rows are solved in
// parallel; cond must not be modified until Map returns.
func Map(ctx context.Context, cond *pmsm.Condition, speeds, torques []float64) (*Grid, error) {
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{
		Speeds:  speeds,
		Torques: torques,
		Points:  make([][]Point, len(torques)),
	}

	ParallelFor(len(torques), 1, func(start, end int) {
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				return
			}
			row := make([]Point, len(speeds))
			for j, w := range speeds {
				row[j].Torque = torques[i]
				row[j].Speed = w
				row[j].Status = pmsm.SolveInto(cond, &row[j].Solution, torques[i], w)
			}
			g.Points[i] = row
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// Row returns the points solved for torque index i.
func (g *Grid) Row(i int) []Point {
	return g.Points[i]
}

// Failures returns a SolveError for each point that hit an iteration cap.
func (g *Grid) Failures() []error {
	var errs []error
	for _, row := range g.Points {
		for _, p := range row {
			if p.Status != pmsm.StatusOK {
				errs = append(errs, &pmsm.SolveError{Torque: p.Torque, Speed: p.Speed, Status: p.Status})
			}
		}
	}
	return errs
}

// FluxWeakeningCount counts points where the voltage limit was hit.
func (g *Grid) FluxWeakeningCount() int {
	n := 0
	for _, row := range g.Points {
		for _, p := range row {
			if p.Solution.FW {
				n++
			}
		}
	}
	return n
}

// Linspace returns n evenly spaced values from min to max inclusive.
func Linspace(min, max float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{min}
	}
	return floats.Span(make([]float64, n), min, max)
}
