// Package pmsm computes d/q current references for a permanent-magnet
// synchronous motor under field-oriented control.
//
// The solver maps a torque request at an electrical speed onto stator
// currents in two stages:
//
//   - [ModeMTPA]: maximum torque per ampere, solved iteratively when the
//     reluctance torque of a salient motor is significant
//   - [ModeID0]: id = 0, the closed form for non-salient motors or small
//     currents
//
// When the resulting voltage exceeds [Condition.VaLim] the solver enters
// flux weakening, driving id negative until the voltage fits and clamping
// to [Condition.IaLim].
//
// # Example
//
//	motor := pmsm.NewMotorParameters(0.5, 0.001, 0.002, 0.05, 4)
//	cond := pmsm.NewCondition(motor, 24, 10)
//	sol, status := pmsm.Solve(cond, 0.3, 200)
//
// # Real-time use
//
// [SolveInto] does not allocate and both loops are capped (10 MTPA and 20
// flux-weakening iterations), so the worst case is bounded. A status of
// [StatusNotConverged] still comes with a fully populated [Solution].
//
// # Thread Safety
//
// Solve only reads the [Condition]. Concurrent calls on one Condition are
// safe as long as nothing mutates it (KcMTPA included) meanwhile.
package pmsm
