package pmsm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConverged indicates an iteration cap was hit. The solution is
	// still populated with the last iterate.
	ErrNotConverged = errors.New("pmsm: solver did not converge within iteration cap")

	// ErrParameterBounds indicates a motor constant or limit outside its
	// physical range.
	ErrParameterBounds = errors.New("pmsm: parameter out of valid bounds")
)

// SolveError ties a non-OK status to the operating point that produced it.
type SolveError struct {
	Torque float64
	Speed  float64
	Status Status
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("torque=%.4g Nm speed=%.4g rad/s: %v", e.Torque, e.Speed, e.Status.Err())
}

func (e *SolveError) Unwrap() error {
	return e.Status.Err()
}
