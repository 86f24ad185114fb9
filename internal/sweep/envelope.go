package sweep

import (
	"context"
	"math"

	"github.com/san-kum/pmsmsolve/internal/pmsm"
)

const (
	envelopeMaxBisections = 50
	envelopeTolerance     = 1e-4
	feasibilityTolerance  = 1e-9
)

// EnvelopePoint is the largest torque that can be delivered at Speed
// without hitting a limit or an iteration cap.
type EnvelopePoint struct {
	Speed     float64       `json:"speed"`
	MaxTorque float64       `json:"max_torque"`
	Feasible  bool          `json:"feasible"`
	Solution  pmsm.Solution `json:"solution"`
}

// Envelope bisects on torque at each speed. A speed where not even zero
// torque is deliverable reports Feasible=false.
func Envelope(ctx context.Context, cond *pmsm.Condition, speeds []float64) ([]EnvelopePoint, error) {
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	out := make([]EnvelopePoint, len(speeds))
	ParallelFor(len(speeds), 1, func(start, end int) {
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				return
			}
			out[i] = maxTorque(cond, speeds[i])
		}
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TorqueBound is the torque at IaLim with id and iq both optimally placed,
// an upper bound for any feasible point.
func TorqueBound(cond *pmsm.Condition) float64 {
	m := cond.Motor
	return 0.5 * m.Poles * (m.PsiA + math.Abs(m.Saliency())*cond.IaLim) * cond.IaLim
}

func maxTorque(cond *pmsm.Condition, w float64) EnvelopePoint {
	p := EnvelopePoint{Speed: w}

	hi := TorqueBound(cond)
	if sol, ok := feasible(cond, hi, w); ok {
		p.MaxTorque, p.Feasible, p.Solution = hi, true, sol
		return p
	}

	sol, ok := feasible(cond, 0, w)
	if !ok {
		return p
	}
	p.Feasible, p.Solution = true, sol

	lo := 0.0
	tol := envelopeTolerance * math.Max(hi, 1)
	for i := 0; i < envelopeMaxBisections && hi-lo > tol; i++ {
		mid := 0.5 * (lo + hi)
		if sol, ok := feasible(cond, mid, w); ok {
			lo, p.Solution = mid, sol
		} else {
			hi = mid
		}
	}
	p.MaxTorque = lo
	return p
}

func feasible(cond *pmsm.Condition, torque, w float64) (pmsm.Solution, bool) {
	sol, status := pmsm.Solve(cond, torque, w)
	ok := status == pmsm.StatusOK &&
		!sol.CurrentLimited &&
		cond.Feasible(&sol, feasibilityTolerance)
	return sol, ok
}
