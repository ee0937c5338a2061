//go:build tinygo

// Command firmware is the on-board flight loop: it fuses the IMU, reads the
// RC receiver and drives four ESCs through the flight controller.
package main

import (
	"machine"
	"math"
	"time"

	"tinygo.org/x/drivers/lsm6ds3tr"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/fusion"
	"github.com/BryanSouza91/QuadFC/rc"
)

const Version = "0.2.0"

const (
	microGToMS2    = fusion.Gravity / 1e6
	microDPSToRadS = math.Pi / (180 * 1e6)
)

type boardState int

const (
	stateInit boardState = iota
	stateWaiting
	stateCalibrating
	stateFlight
	stateFailSafe
)

func (s boardState) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateWaiting:
		return "WAITING"
	case stateCalibrating:
		return "CALIBRATING"
	case stateFlight:
		return "FLIGHT"
	case stateFailSafe:
		return "FAILSAFE"
	}
	return "UNKNOWN"
}

type board struct {
	uart     *machine.UART
	imu      *lsm6ds3tr.Device
	esc      *escs
	filter   *fusion.Filter
	receiver *rc.Receiver
	ctrl     *flight.Controller
	leds     status

	state   boardState
	samples []fusion.Sample
	last    time.Time
	start   time.Time
}

func main() {
	println("QuadFC firmware", Version)
	b := &board{leds: newStatus()}
	b.leds.show(stateInit)
	for {
		if err := b.init(); err != nil {
			println("init failed:", err.Error())
			b.leds.update(time.Now())
			time.Sleep(time.Second)
			continue
		}
		break
	}
	b.run()
}

func (b *board) init() error {
	b.uart = machine.DefaultUART
	b.uart.Configure(machine.UARTConfig{
		BaudRate: receiverProtocol.baudRate(),
		TX:       machine.UART_TX_PIN,
		RX:       machine.UART_RX_PIN,
	})

	esc, err := newESCs()
	if err != nil {
		return err
	}
	b.esc = esc
	b.esc.stop()

	i2c := machine.I2C0
	i2c.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	b.imu = lsm6ds3tr.New(i2c)
	if err := b.imu.Configure(lsm6ds3tr.Configuration{
		AccelRange:      lsm6ds3tr.ACCEL_8G,
		AccelSampleRate: lsm6ds3tr.ACCEL_SR_104,
		GyroRange:       lsm6ds3tr.GYRO_1000DPS,
		GyroSampleRate:  lsm6ds3tr.GYRO_SR_104,
	}); err != nil {
		return err
	}
	if !b.imu.Connected() {
		return errIMUNotConnected
	}

	b.filter = fusion.NewFilter(fusion.DefaultAlpha)
	b.receiver = rc.NewReceiver(receiverProtocol.decoder(), rc.DefaultMapping())
	b.ctrl, err = flight.New(controllerConfig(), &flight.Stabilize{})
	if err != nil {
		return err
	}

	// ESCs arm on a steady minimum pulse.
	time.Sleep(2 * time.Second)

	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: uint32(failsafeTimeout / time.Millisecond)})
	machine.Watchdog.Start()
	println("initialization complete")
	b.enter(stateWaiting)
	return nil
}

type initError string

func (e initError) Error() string { return string(e) }

const errIMUNotConnected = initError("LSM6DS3TR not connected")

func (b *board) enter(s boardState) {
	println(b.state.String(), "->", s.String())
	b.state = s
	b.leds.show(s)
}

func (b *board) run() {
	b.start = time.Now()
	b.last = b.start
	for {
		now := time.Now()
		b.readReceiver(now)
		dt := now.Sub(b.last).Seconds()
		b.last = now

		sample, err := b.readIMU(dt)
		ok := err == nil
		if !ok {
			println("imu read failed:", err.Error())
		}

		switch b.state {
		case stateWaiting:
			b.esc.stop()
			b.fuse(sample, ok)
			switch {
			case b.receiver.LinkLost(now, failsafeTimeout):
			case b.receiver.Channels()[calChannel] > calThreshold:
				b.samples = b.samples[:0]
				b.enter(stateCalibrating)
			case b.receiver.Armed():
				b.ctrl.Reset()
				b.enter(stateFlight)
			}

		case stateCalibrating:
			b.esc.stop()
			if ok {
				b.samples = append(b.samples, sample)
			}
			if len(b.samples) >= calibrationSamples {
				b.filter.Bias = fusion.Calibrate(b.samples)
				b.filter.Reset()
				b.samples = nil
				b.enter(stateWaiting)
			}

		case stateFlight:
			o := b.fuse(sample, ok)
			if b.receiver.LinkLost(now, failsafeTimeout) {
				b.ctrl.Halt()
			}
			st := flight.StateFrom(o, 0, dt, now.Sub(b.start).Seconds())
			cmd := b.ctrl.Iterate(st, b.receiver.SetPoints())
			if b.ctrl.FailSafe() {
				b.esc.stop()
				b.enter(stateFailSafe)
				break
			}
			if !b.receiver.Armed() {
				b.esc.stop()
				b.enter(stateWaiting)
				break
			}
			b.esc.Apply(cmd)

		case stateFailSafe:
			b.esc.stop()
			b.fuse(sample, ok)
			if !b.receiver.LinkLost(now, failsafeTimeout) && !b.receiver.Armed() {
				b.ctrl.Reset()
				b.enter(stateWaiting)
			}
		}

		b.leds.update(now)
		machine.Watchdog.Update()
		if spent := time.Since(now); spent < loopInterval {
			time.Sleep(loopInterval - spent)
		}
	}
}

// fuse feeds a good sample to the filter and otherwise keeps the last estimate.
func (b *board) fuse(s fusion.Sample, ok bool) flight.Orientation {
	if !ok {
		return b.filter.Orientation()
	}
	return b.filter.Update(s)
}

func (b *board) readReceiver(now time.Time) {
	for b.uart.Buffered() > 0 {
		c, err := b.uart.ReadByte()
		if err != nil {
			return
		}
		b.receiver.Feed(c, now)
	}
}

func (b *board) readIMU(dt float64) (fusion.Sample, error) {
	ax, ay, az, err := b.imu.ReadAcceleration()
	if err != nil {
		return fusion.Sample{}, err
	}
	gx, gy, gz, err := b.imu.ReadRotation()
	if err != nil {
		return fusion.Sample{}, err
	}
	return fusion.Sample{
		AccelX:    float64(ax) * microGToMS2,
		AccelY:    float64(ay) * microGToMS2,
		AccelZ:    float64(az) * microGToMS2,
		GyroX:     float64(gx) * microDPSToRadS,
		GyroY:     float64(gy) * microDPSToRadS,
		GyroZ:     float64(gz) * microDPSToRadS,
		DeltaTime: dt,
	}, nil
}
