package pmsm

import (
	"fmt"
	"math"
)

// Condition binds a motor to the supply limits the solver must respect.
// The motor is referenced, not owned. KcMTPA may be adjusted between
// calls, never during one.
type Condition struct {
	Motor  *MotorParameters
	VaLim  float64
	IaLim  float64
	KcMTPA float64
}

// NewCondition stores the absolute values of both limits and resets the
// MTPA correction factor to 1.
func NewCondition(motor *MotorParameters, vaLim, iaLim float64) *Condition {
	return &Condition{
		Motor:  motor,
		VaLim:  math.Abs(vaLim),
		IaLim:  math.Abs(iaLim),
		KcMTPA: 1.0,
	}
}

func (c *Condition) Reset() {
	c.KcMTPA = 1.0
}

func (c *Condition) Validate() error {
	if c.Motor == nil {
		return fmt.Errorf("%w: condition has no motor", ErrParameterBounds)
	}
	if err := c.Motor.Validate(); err != nil {
		return err
	}
	if c.VaLim <= 0 || c.IaLim <= 0 {
		return fmt.Errorf("%w: limits must be positive (va=%g, ia=%g)", ErrParameterBounds, c.VaLim, c.IaLim)
	}
	if c.KcMTPA <= 0 {
		return fmt.Errorf("%w: kc_mtpa must be positive, got %g", ErrParameterBounds, c.KcMTPA)
	}
	return nil
}

// VoltageHeadroom is VaLim minus the voltage the solution requires.
// Negative means the solution exceeds the supply.
func (c *Condition) VoltageHeadroom(s *Solution) float64 {
	return c.VaLim - s.VaCalc
}

// Feasible reports whether s respects both limits within tol.
func (c *Condition) Feasible(s *Solution, tol float64) bool {
	return s.VaCalc <= c.VaLim+tol && s.CurrentAmplitude() <= c.IaLim+tol
}
