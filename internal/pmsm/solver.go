package pmsm

import "math"

const (
	MTPAMaxIterations        = 10
	MTPAConvergenceThreshold = 1e-2

	// Below either threshold the reluctance term is negligible and the
	// id=0 approximation stands in for MTPA.
	ID0CurrentThreshold     = 1e-1
	ID0TorqueRatioThreshold = 1e-2

	FWMaxIterations        = 20
	FWConvergenceThreshold = 1e-2
)

// Solve returns the d/q current references for torqueRef (Nm) at electrical
// speed wRef (rad/s).
func Solve(c *Condition, torqueRef, wRef float64) (Solution, Status) {
	var s Solution
	status := SolveInto(c, &s, torqueRef, wRef)
	return s, status
}

// SolveInto is Solve writing into a caller-owned record. It does not
// allocate.
func SolveInto(c *Condition, s *Solution, torqueRef, wRef float64) Status {
	m := c.Motor
	*s = Solution{}
	s.IaRef = c.KcMTPA * torqueRef / (m.PsiA * m.Poles / 2)

	status := StatusOK
	if useMTPA(m, s.IaRef) {
		status = solveMTPA(m, s, torqueRef)
	} else {
		solveID0(m, s, torqueRef)
	}
	s.VdCalc, s.VqCalc, s.VaCalc = m.Voltage(s.IdRef, s.IqRef, wRef)

	s.FW = s.VaCalc > c.VaLim
	if s.FW {
		// the flux-weakening result replaces the MTPA currents, so its
		// status is the one reported
		status = solveFW(c, s, torqueRef, wRef)
	}
	return status
}

func useMTPA(m *MotorParameters, ia float64) bool {
	dL := m.Saliency()
	if dL == 0 {
		return false
	}
	return math.Abs(ia) > ID0CurrentThreshold &&
		0.5*math.Abs(dL)*math.Abs(ia)/m.PsiA > ID0TorqueRatioThreshold
}

func solveID0(m *MotorParameters, s *Solution, torqueRef float64) {
	s.Mode = ModeID0
	s.IqRef = torqueRef / (m.PsiA * m.Poles / 2)
	s.IaRef = s.IqRef
	s.IdRef = 0
	s.BetaRef = 0
}

// solveMTPA rescales IaRef by torqueRef/torque until the torque produced at
// the MTPA angle matches. Beta is measured so that id = -Ia sin(beta).
func solveMTPA(m *MotorParameters, s *Solution, torqueRef float64) Status {
	s.Mode = ModeMTPA
	dL := m.Saliency()
	psi := m.PsiA

	n, ok := iterate(MTPAMaxIterations, MTPAConvergenceThreshold, func() float64 {
		ia := s.IaRef
		s.BetaRef = math.Asin((-psi + math.Sqrt(psi*psi+8*dL*dL*ia*ia)) / (4 * dL * ia))
		torque := 0.5 * m.Poles * (psi*ia*math.Cos(s.BetaRef) + 0.5*dL*ia*ia*math.Sin(2*s.BetaRef))
		s.IaRef *= torqueRef / torque
		return math.Abs((torque - torqueRef) / torqueRef)
	})
	s.Iterations = n

	s.IdRef = -s.IaRef * math.Sin(s.BetaRef)
	s.IqRef = s.IaRef * math.Cos(s.BetaRef)
	if !ok {
		return StatusNotConverged
	}
	return StatusOK
}

// solveFW is a fixed point on id: place id on the voltage circle for the
// present iq, re-solve iq from the torque equation, clamp to the current
// limit. The voltage limit is not re-checked after a clamp.
func solveFW(c *Condition, s *Solution, torqueRef, w float64) Status {
	m := c.Motor
	s.IqRef = 2 * torqueRef / m.Poles

	n, ok := iterate(FWMaxIterations, FWConvergenceThreshold, func() float64 {
		prev := s.IdRef
		s.IdRef = fluxWeakeningID(m, c.VaLim, s.IqRef, w)
		s.IqRef = 2 * torqueRef / m.Poles / (m.PsiA + (m.Ld-m.Lq)*s.IdRef)
		s.CurrentLimited = limitCurrent(s, c.IaLim, torqueRef)
		return math.Abs((s.IdRef - prev) / s.IdRef)
	})
	s.FWIterations = n

	s.IaRef = math.Hypot(s.IdRef, s.IqRef)
	s.BetaRef = math.Atan2(s.IqRef, -s.IdRef)
	s.VdCalc, s.VqCalc, s.VaCalc = m.Voltage(s.IdRef, s.IqRef, w)
	if !ok {
		return StatusNotConverged
	}
	return StatusOK
}

// fluxWeakeningID solves |v(id, iq)| = vaLim for id, taking the larger
// root. When vaLim is below the circle's reach for this iq the root is
// complex and the vertex of the quadratic is used instead.
func fluxWeakeningID(m *MotorParameters, vaLim, iq, w float64) float64 {
	rs, ld, lq, psi := m.Rs, m.Ld, m.Lq, m.PsiA

	den := ld*ld*w*w + rs*rs
	vertex := -w * (ld*rs*iq + ld*psi*w - lq*rs*iq) / den
	reach := ld*lq*w*w*iq + rs*rs*iq + rs*psi*w

	if vaLim <= reach/math.Sqrt(den) {
		return vertex
	}
	disc := den*vaLim*vaLim - reach*reach
	return vertex + math.Sqrt(math.Max(disc, 0))/den
}

// limitCurrent pulls (id, iq) back onto the current circle, keeping id and
// giving iq the torque's sign. It reports whether the limit was active.
func limitCurrent(s *Solution, iaLim, torqueRef float64) bool {
	if math.Hypot(s.IdRef, s.IqRef) <= iaLim {
		return false
	}
	if math.Abs(s.IdRef) > iaLim {
		s.IdRef = math.Copysign(iaLim, s.IdRef)
	}
	rem := iaLim*iaLim - s.IdRef*s.IdRef
	if rem > 0 {
		s.IqRef = sign(torqueRef) * math.Sqrt(rem)
	} else {
		s.IqRef = 0
	}
	return true
}

func sign(x float64) float64 {
	if x >= 0 {
		return 1
	}
	return -1
}
