// Package sim runs the flight controller against a rigid-body quadcopter model.
package sim

import (
	"math"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

// Body is a physics model driven by motor commands.
type Body interface {
	flight.ActuatorSink
	Step(dt float64)
	State() BodyState
	Reset()
}

// BodyState is the true vehicle state.
type BodyState struct {
	Height        float64
	VerticalSpeed float64
	Orientation   flight.Orientation
	// Body rates in rad/s.
	PitchRate, RollRate, YawRate float64
}

// QuadParams describes the simulated airframe.
type QuadParams struct {
	Mass float64
	// Box dimensions in meters, used for the moments of inertia.
	Width, Height, Depth float64
	// MaxMotorThrust is the force in newtons of one motor at command 1.
	MaxMotorThrust float64
	// YawTorque is the reaction torque per newton of motor thrust.
	YawTorque float64
	// AngularDamping removes rate proportionally, in 1/s.
	AngularDamping float64
	Gravity        float64
	// MaxSubstep bounds the integration step; longer steps are split.
	MaxSubstep float64
}

// DefaultQuadParams matches the small quad of the Unity scene.
func DefaultQuadParams() QuadParams {
	return QuadParams{
		Mass:           0.081,
		Width:          0.16,
		Height:         0.05,
		Depth:          0.16,
		MaxMotorThrust: 1.5,
		YawTorque:      0.01,
		AngularDamping: 2,
		Gravity:        9.81,
		MaxSubstep:     0.002,
	}
}

// RigidBody is a single-point altitude model with three decoupled rotation axes.
// Motor layout follows flight.Mixer: a positive pitch correction raises the
// rear pair and pitches the body positive.
type RigidBody struct {
	params  QuadParams
	initial flight.Orientation

	state  BodyState
	motors [4]float64

	ixx, iyy, izz float64
}

func NewRigidBody(p QuadParams, initial flight.Orientation) *RigidBody {
	b := &RigidBody{
		params:  p,
		initial: initial,
		ixx:     p.Mass * (p.Height*p.Height + p.Depth*p.Depth) / 12,
		iyy:     p.Mass * (p.Width*p.Width + p.Height*p.Height) / 12,
		izz:     p.Mass * (p.Width*p.Width + p.Depth*p.Depth) / 12,
	}
	b.Reset()
	return b
}

// Apply latches the motor commands, clamped to [0,1], for the following steps.
func (b *RigidBody) Apply(c flight.Commands) error {
	for i, m := range c.Clamp(0, 1).Motors() {
		b.motors[i] = mathx.Finite(m)
	}
	return nil
}

func (b *RigidBody) State() BodyState { return b.state }

func (b *RigidBody) Reset() {
	b.state = BodyState{Orientation: b.initial}
	b.motors = [4]float64{}
}

func (b *RigidBody) Step(dt float64) {
	if !(dt > 0) {
		return
	}
	n := 1
	if b.params.MaxSubstep > 0 {
		n = int(math.Ceil(dt / b.params.MaxSubstep))
	}
	h := dt / float64(n)
	for i := 0; i < n; i++ {
		b.integrate(h)
	}
}

func (b *RigidBody) integrate(h float64) {
	p := b.params
	var f [4]float64
	total := 0.0
	for i, m := range b.motors {
		f[i] = m * p.MaxMotorThrust
		total += f[i]
	}
	fl, fr, rl, rr := f[0], f[1], f[2], f[3]
	arm := p.Width / 2
	s := &b.state

	pitchAcc := arm*((rl+rr)-(fl+fr))/b.iyy - p.AngularDamping*s.PitchRate
	rollAcc := arm*((fr+rr)-(fl+rl))/b.ixx - p.AngularDamping*s.RollRate
	yawAcc := p.YawTorque*((fl+rr)-(fr+rl))/b.izz - p.AngularDamping*s.YawRate

	s.PitchRate = mathx.Finite(s.PitchRate + pitchAcc*h)
	s.RollRate = mathx.Finite(s.RollRate + rollAcc*h)
	s.YawRate = mathx.Finite(s.YawRate + yawAcc*h)

	lift := total * math.Cos(s.Orientation.Pitch) * math.Cos(s.Orientation.Roll)
	s.VerticalSpeed = mathx.Finite(s.VerticalSpeed + (lift/p.Mass-p.Gravity)*h)
	s.Height = mathx.Finite(s.Height + s.VerticalSpeed*h)

	if s.Height <= 0 {
		s.Height = 0
		if s.VerticalSpeed < 0 {
			s.VerticalSpeed = 0
		}
		// Resting on the ground the airframe cannot spin up unless it is lifting off.
		if lift < p.Mass*p.Gravity {
			s.PitchRate, s.RollRate, s.YawRate = 0, 0, 0
		}
	}

	s.Orientation.Pitch = mathx.Finite(s.Orientation.Pitch + s.PitchRate*h)
	s.Orientation.Roll = mathx.Finite(s.Orientation.Roll + s.RollRate*h)
	s.Orientation.Yaw = wrap(s.Orientation.Yaw + s.YawRate*h)
}

func wrap(a float64) float64 {
	a = mathx.Finite(a)
	return math.Remainder(a, 2*math.Pi)
}
