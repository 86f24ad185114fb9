package drive

import "math"

// PI is a speed regulator with a symmetric output limit. The integrator
// is frozen while the output is saturated in the direction of the error.
type PI struct {
	Kp    float64
	Ki    float64
	Limit float64

	integral float64
	prevT    float64
	first    bool
}

func NewPI(kp, ki, limit float64) *PI {
	return &PI{
		Kp:    kp,
		Ki:    ki,
		Limit: math.Abs(limit),
		first: true,
	}
}

func (p *PI) Update(err, t float64) float64 {
	if p.first {
		p.prevT = t
		p.first = false
		return p.clamp(p.Kp * err)
	}

	dt := t - p.prevT
	p.prevT = t

	u := p.Kp*err + p.Ki*p.integral
	if dt > 0 {
		next := p.integral + err*dt
		raw := p.Kp*err + p.Ki*next
		if p.Limit == 0 || math.Abs(raw) <= p.Limit || math.Signbit(err) != math.Signbit(raw) {
			p.integral = next
			u = raw
		}
	}
	return p.clamp(u)
}

func (p *PI) clamp(u float64) float64 {
	if p.Limit == 0 {
		return u
	}
	return math.Max(-p.Limit, math.Min(p.Limit, u))
}

// Reset clears integral state
func (p *PI) Reset() {
	p.integral = 0
	p.prevT = 0
	p.first = true
}
