//go:build tinygo

package main

import (
	"machine"
	"time"
)

type ledPattern int

const (
	ledOff ledPattern = iota
	ledOn
	ledSlowFlash
	ledFastFlash
	ledAlternate
)

func (p ledPattern) period() time.Duration {
	switch p {
	case ledSlowFlash:
		return 250 * time.Millisecond
	case ledFastFlash:
		return 50 * time.Millisecond
	case ledAlternate:
		return 500 * time.Millisecond
	}
	return 0
}

type led struct {
	pin        machine.Pin
	pattern    ledPattern
	lastToggle time.Time
	isOn       bool
}

func newLED(pin machine.Pin) *led {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &led{pin: pin, lastToggle: time.Now()}
}

func (l *led) set(p ledPattern) {
	if l.pattern == p {
		return
	}
	l.pattern = p
	l.lastToggle = time.Now()
}

func (l *led) update(now time.Time) {
	switch l.pattern {
	case ledOff:
		l.write(false)
	case ledOn:
		l.write(true)
	default:
		if now.Sub(l.lastToggle) >= l.pattern.period() {
			l.write(!l.isOn)
			l.lastToggle = now
		}
	}
}

func (l *led) write(on bool) {
	l.pin.Set(on)
	l.isOn = on
}

// status shows the board state on the red and green LEDs.
type status struct {
	red, green *led
}

func newStatus() status {
	return status{red: newLED(ledRedPin), green: newLED(ledGreenPin)}
}

func (s status) show(st boardState) {
	switch st {
	case stateInit:
		s.red.set(ledSlowFlash)
		s.green.set(ledOff)
	case stateWaiting:
		s.red.set(ledAlternate)
		s.green.set(ledAlternate)
	case stateCalibrating:
		s.red.set(ledOff)
		s.green.set(ledFastFlash)
	case stateFlight:
		s.red.set(ledOff)
		s.green.set(ledOn)
	case stateFailSafe:
		s.red.set(ledFastFlash)
		s.green.set(ledOff)
	}
}

func (s status) update(now time.Time) {
	s.red.update(now)
	s.green.update(now)
}
