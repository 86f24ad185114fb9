package drive

import (
	"github.com/san-kum/pmsmsolve/internal/pmsm"
	"github.com/san-kum/pmsmsolve/internal/sim"
)

// SpeedController runs the speed PI and the current-reference solver once
// per tick. The solution of the latest tick is kept for inspection.
type SpeedController struct {
	cond   *pmsm.Condition
	pi     *PI
	target float64

	sol    pmsm.Solution
	status pmsm.Status
}

// NewSpeedController regulates to target, an electrical speed in rad/s.
func NewSpeedController(cond *pmsm.Condition, pi *PI, target float64) *SpeedController {
	return &SpeedController{
		cond:   cond,
		pi:     pi,
		target: target,
	}
}

func (c *SpeedController) Compute(x sim.State, t float64) sim.Control {
	we := ElectricalSpeed(c.cond.Motor.Poles, x)
	torqueRef := c.pi.Update(c.target-we, t)

	c.status = pmsm.SolveInto(c.cond, &c.sol, torqueRef, we)

	u := make(sim.Control, ControlDim)
	u[UId] = c.sol.IdRef
	u[UIq] = c.sol.IqRef
	u[UTorqueRef] = torqueRef
	u[UVa] = c.sol.VaCalc
	u[UFluxWeakening] = flag(c.sol.FW)
	u[UNotConverged] = flag(c.status != pmsm.StatusOK)
	u[UMode] = float64(c.sol.Mode)
	return u
}

// Last returns the solution and status of the most recent tick.
func (c *SpeedController) Last() (pmsm.Solution, pmsm.Status) {
	return c.sol, c.status
}

func (c *SpeedController) Reset() {
	c.pi.Reset()
	c.sol = pmsm.Solution{}
	c.status = pmsm.StatusOK
}
