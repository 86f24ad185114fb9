package pmsm

import (
	"fmt"
	"math"
)

// MotorParameters holds the electrical constants of one motor. Values are
// in ohms, henries and webers; Poles is the pole count (not pole pairs).
type MotorParameters struct {
	Rs    float64
	Ld    float64
	Lq    float64
	PsiA  float64
	Poles float64
}

// NewMotorParameters assigns the constants as given. Nothing is validated;
// see Validate.
func NewMotorParameters(rs, ld, lq, psiA, poles float64) *MotorParameters {
	return &MotorParameters{
		Rs:    rs,
		Ld:    ld,
		Lq:    lq,
		PsiA:  psiA,
		Poles: poles,
	}
}

func (m *MotorParameters) Saliency() float64 {
	return m.Lq - m.Ld
}

// Torque is the steady-state electromagnetic torque for the given currents,
// magnet term plus reluctance term.
func (m *MotorParameters) Torque(id, iq float64) float64 {
	return 0.5 * m.Poles * (m.PsiA + (m.Ld-m.Lq)*id) * iq
}

// Voltage back-calculates the steady-state d/q voltages at electrical
// speed w.
func (m *MotorParameters) Voltage(id, iq, w float64) (vd, vq, va float64) {
	vd = m.Rs*id - w*m.Lq*iq
	vq = m.Rs*iq + w*m.Ld*id + w*m.PsiA
	va = math.Sqrt(vd*vd + vq*vq)
	return vd, vq, va
}

func (m *MotorParameters) Validate() error {
	if m.Ld <= 0 || m.Lq <= 0 {
		return fmt.Errorf("%w: inductances must be positive (ld=%g, lq=%g)", ErrParameterBounds, m.Ld, m.Lq)
	}
	if m.PsiA <= 0 {
		return fmt.Errorf("%w: psi_a must be positive, got %g", ErrParameterBounds, m.PsiA)
	}
	if m.Poles <= 0 {
		return fmt.Errorf("%w: poles must be positive, got %g", ErrParameterBounds, m.Poles)
	}
	if m.Rs < 0 {
		return fmt.Errorf("%w: rs must not be negative, got %g", ErrParameterBounds, m.Rs)
	}
	return nil
}

func (m *MotorParameters) GetParams() map[string]float64 {
	return map[string]float64{
		"rs":    m.Rs,
		"ld":    m.Ld,
		"lq":    m.Lq,
		"psi_a": m.PsiA,
		"poles": m.Poles,
	}
}

func (m *MotorParameters) SetParam(name string, value float64) error {
	switch name {
	case "rs":
		m.Rs = value
	case "ld":
		m.Ld = value
	case "lq":
		m.Lq = value
	case "psi_a":
		m.PsiA = value
	case "poles":
		m.Poles = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
