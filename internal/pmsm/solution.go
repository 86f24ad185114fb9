package pmsm

import "math"

// Mode is the initial branch the solver took before the voltage check.
type Mode int

const (
	ModeID0 Mode = iota
	ModeMTPA
)

func (m Mode) String() string {
	switch m {
	case ModeID0:
		return "id0"
	case ModeMTPA:
		return "mtpa"
	default:
		return "unknown"
	}
}

type Status int

const (
	StatusOK Status = iota
	StatusNotConverged
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotConverged:
		return "not_converged"
	default:
		return "unknown"
	}
}

// Err maps the status onto ErrNotConverged, or nil when OK.
func (s Status) Err() error {
	if s == StatusNotConverged {
		return ErrNotConverged
	}
	return nil
}

// Solution is the output of one solver call. Every field is overwritten
// on each call.
//
// IaRef keeps the torque sign on the MTPA and id=0 paths and is a plain
// magnitude once flux weakening has run.
type Solution struct {
	IdRef   float64 `json:"id_ref"`
	IqRef   float64 `json:"iq_ref"`
	IaRef   float64 `json:"ia_ref"`
	BetaRef float64 `json:"beta_ref"`
	VdCalc  float64 `json:"vd_calc"`
	VqCalc  float64 `json:"vq_calc"`
	VaCalc  float64 `json:"va_calc"`
	FW      bool    `json:"fw"`
	Mode    Mode    `json:"mode"`

	Iterations     int  `json:"iterations"`
	FWIterations   int  `json:"fw_iterations"`
	CurrentLimited bool `json:"current_limited"`
}

// CurrentAmplitude is |(id, iq)| regardless of the sign carried in IaRef.
func (s *Solution) CurrentAmplitude() float64 {
	return math.Hypot(s.IdRef, s.IqRef)
}
