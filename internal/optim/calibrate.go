package optim

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

// ParamKc is the grid-search key for the MTPA correction factor.
const ParamKc = "kc_mtpa"

// NotConvergedPenalty is charged on top of the iterations spent by a point
// that hit a cap, so a candidate that fails never beats one that converges.
const NotConvergedPenalty = pmsm.MTPAMaxIterations + pmsm.FWMaxIterations

var ErrNoCandidate = errors.New("no usable kc candidate")

type OperatingPoint struct {
	Torque float64 `yaml:"torque" json:"torque"`
	Speed  float64 `yaml:"speed" json:"speed"`
}

type Calibration struct {
	Kc             float64
	MeanIterations float64
	NotConverged   int
}

// IterationCost is the mean number of solver iterations cond spends over
// points, with NotConvergedPenalty added per failed point.
func IterationCost(cond *pmsm.Condition, points []OperatingPoint) (float64, int) {
	costs := make([]float64, len(points))
	failed := 0

	var sol pmsm.Solution
	for i, p := range points {
		status := pmsm.SolveInto(cond, &sol, p.Torque, p.Speed)
		costs[i] = float64(sol.Iterations + sol.FWIterations)
		if status != pmsm.StatusOK {
			costs[i] += NotConvergedPenalty
			failed++
		}
	}
	return stat.Mean(costs, nil), failed
}

// CalibrateKc picks the candidate KcMTPA with the lowest IterationCost.
// cond is left unchanged; each candidate is tried on a copy.
func CalibrateKc(ctx context.Context, cond *pmsm.Condition, candidates []float64, points []OperatingPoint) (*Calibration, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("calibrate: no operating points")
	}

	failures := make(map[float64]int, len(candidates))
	search := NewGridSearch([]string{ParamKc}, [][]float64{candidates})

	best, score, err := search.Search(ctx, func(ctx context.Context, params map[string]float64) (float64, error) {
		trial := *cond
		trial.KcMTPA = params[ParamKc]
		if err := trial.Validate(); err != nil {
			return 0, err
		}
		cost, failed := IterationCost(&trial, points)
		failures[trial.KcMTPA] = failed
		return cost, nil
	})
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, ErrNoCandidate
	}

	kc := best[ParamKc]
	return &Calibration{
		Kc:             kc,
		MeanIterations: score,
		NotConverged:   failures[kc],
	}, nil
}
