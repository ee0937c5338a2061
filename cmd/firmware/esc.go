//go:build tinygo

package main

import (
	"machine"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

// pwm is the subset of a machine PWM peripheral the ESC outputs need.
type pwm interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Set(channel uint8, value uint32)
	Top() uint32
}

type escChannel struct {
	pwm pwm
	ch  uint8
}

// setPulse converts a pulse width in microseconds to a duty relative to the PWM period.
func (e escChannel) setPulse(us uint32) {
	duty := uint32(uint64(us) * 1000 * uint64(e.pwm.Top()) / uint64(escPeriodNs))
	e.pwm.Set(e.ch, duty)
}

// escs drives four ESCs in FL, FR, RL, RR order and implements flight.ActuatorSink.
type escs struct {
	out [4]escChannel
}

func newESCs() (*escs, error) {
	cfg := machine.PWMConfig{Period: escPeriodNs}
	for _, p := range []pwm{escPWM0, escPWM1} {
		if err := p.Configure(cfg); err != nil {
			return nil, err
		}
	}
	e := &escs{}
	pins := [4]machine.Pin{frontLeftPin, frontRightPin, rearLeftPin, rearRightPin}
	groups := [4]pwm{escPWM0, escPWM0, escPWM1, escPWM1}
	for i, pin := range pins {
		ch, err := groups[i].Channel(pin)
		if err != nil {
			return nil, err
		}
		e.out[i] = escChannel{pwm: groups[i], ch: ch}
	}
	return e, nil
}

// Apply clamps every command to [0,1] and maps it onto the ESC pulse range.
func (e *escs) Apply(c flight.Commands) error {
	for i, v := range c.Clamp(0, 1).Motors() {
		us := mathx.MapRange(v, 0, 1, float64(minPulseUs), float64(maxPulseUs))
		e.out[i].setPulse(uint32(us))
	}
	return nil
}

// stop holds every ESC at minimum throttle.
func (e *escs) stop() {
	for _, o := range e.out {
		o.setPulse(minPulseUs)
	}
}
