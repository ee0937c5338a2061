//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/rc"
)

// QuadFC board configuration: hardware mapping and tuning.

// --- Loop and Link ---
const (
	loopInterval    = 10 * time.Millisecond
	failsafeTimeout = 500 * time.Millisecond
)

// --- ESC Output ---
const (
	escFrequency = 400 // Hz
	minPulseUs   = 1000
	maxPulseUs   = 2000
	escPeriodNs  = 1e9 / escFrequency
)

// --- Calibration ---
const (
	calibrationSamples = 1000
	calChannel         = 5 // Rx channel 6
	calThreshold       = 1800
)

// --- Hardware Mappings ---
var (
	escPWM0 = machine.PWM0
	escPWM1 = machine.PWM1

	frontLeftPin  = machine.D0
	frontRightPin = machine.D1
	rearLeftPin   = machine.D2
	rearRightPin  = machine.D3

	ledRedPin   = machine.LED_RED
	ledGreenPin = machine.LED_GREEN
)

// controllerConfig is the stabilize tuning of the board.
func controllerConfig() flight.Config {
	cfg := flight.DefaultConfig()
	cfg.Gains = map[flight.Axis]flight.Gains{
		flight.AxisPitch: {Kp: 0.121, Kd: 0.016},
		flight.AxisRoll:  {Kp: 0.121, Kd: 0.016},
		flight.AxisYaw:   {Kp: 0.121},
	}
	return cfg
}

// --- Receiver ---
type protocol int

const (
	protocolIBus protocol = iota
	protocolCRSF
	protocolELRS // CRSF framing
)

const receiverProtocol = protocolIBus

func (p protocol) baudRate() uint32 {
	if p == protocolIBus {
		return 115200
	}
	return 420000
}

func (p protocol) decoder() rc.Decoder {
	if p == protocolIBus {
		return rc.NewIBusDecoder()
	}
	return rc.NewCRSFDecoder()
}
