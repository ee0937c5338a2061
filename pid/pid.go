// Package pid implements the proportional-integral-derivative controller used by
// every control loop in the flight core.
package pid

import "math"

// PID holds the state for a single-input single-output PID controller.
//
// The zero value is a usable controller with all gains zero. Gains may be
// changed between calls to Get.
type PID struct {
	Kp, Ki, Kd float64

	// IntegralDisabled keeps the integral term at zero.
	IntegralDisabled bool
	// IntegralLimit bounds the accumulated integral to ±IntegralLimit. Zero means unbounded.
	IntegralLimit float64

	// Gain-scaled contributions of the most recent Get call.
	LastP, LastI, LastD float64

	prevError float64
	integral  float64
	primed    bool
}

// State is a read-only view of a controller's most recent update.
type State struct {
	P, I, D  float64
	Integral float64
	Output   float64
}

// New creates and initializes a new PID controller.
func New(kp, ki, kd float64) *PID {
	return &PID{
		Kp: kp,
		Ki: ki,
		Kd: kd,
	}
}

// NewPD creates a controller whose integral term is permanently disabled.
func NewPD(kp, kd float64) *PID {
	return &PID{
		Kp:               kp,
		Kd:               kd,
		IntegralDisabled: true,
	}
}

// Get calculates the new control output for err over an elapsed time of dt seconds.
//
// The derivative is zero on the first call after construction or Reset, and
// whenever dt is not positive.
func (p *PID) Get(err, dt float64) float64 {
	validDt := dt > 0 && !math.IsInf(dt, 0)

	// Integral term
	if !p.IntegralDisabled && validDt {
		p.integral += err * dt
		if p.IntegralLimit > 0 {
			p.integral = math.Max(-p.IntegralLimit, math.Min(p.IntegralLimit, p.integral))
		}
	}

	// Derivative term
	derivative := 0.0
	if p.primed && validDt {
		derivative = (err - p.prevError) / dt
	}
	p.prevError = err
	p.primed = true

	p.LastP = p.Kp * err
	p.LastI = 0
	if !p.IntegralDisabled {
		p.LastI = p.Ki * p.integral
	}
	p.LastD = p.Kd * derivative

	return p.LastP + p.LastI + p.LastD
}

// Reset clears the accumulated state. Gains are kept.
func (p *PID) Reset() {
	p.prevError = 0
	p.integral = 0
	p.primed = false
	p.LastP, p.LastI, p.LastD = 0, 0, 0
}

// Integral returns the accumulated error·dt.
func (p *PID) Integral() float64 {
	return p.integral
}

// Snapshot returns the contributions of the most recent update.
func (p *PID) Snapshot() State {
	return State{
		P:        p.LastP,
		I:        p.LastI,
		D:        p.LastD,
		Integral: p.integral,
		Output:   p.LastP + p.LastI + p.LastD,
	}
}
