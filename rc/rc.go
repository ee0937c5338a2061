// Package rc decodes RC receiver frames and maps stick channels to flight set-points.
package rc

import (
	"errors"
	"time"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

// MaxChannels is the largest channel count of any supported protocol.
const MaxChannels = 16

var (
	ErrChecksum    = errors.New("rc: checksum mismatch")
	ErrFrameLength = errors.New("rc: bad frame length")
	ErrFrameType   = errors.New("rc: unsupported frame type")
)

// Channels holds pulse widths in microseconds, indexed from zero.
type Channels [MaxChannels]uint16

// Decoder turns a byte stream into channel frames.
type Decoder interface {
	// Feed consumes one byte and reports a completed, valid frame.
	Feed(b byte) (Channels, bool)
	// Dropped counts frames discarded for bad checksums or framing.
	Dropped() int
}

// Mapping assigns stick channels and scales them into set-points.
type Mapping struct {
	Roll, Pitch, Throttle, Yaw, Arm int

	MinPulse, MaxPulse, Neutral uint16
	Deadband                    uint16
	ArmThreshold                uint16

	MaxAngleDeg float64
	MaxYawDeg   float64
}

// DefaultMapping is AETR with the arm switch on channel 5.
func DefaultMapping() Mapping {
	return Mapping{
		Roll:         0,
		Pitch:        1,
		Throttle:     2,
		Yaw:          3,
		Arm:          4,
		MinPulse:     988,
		MaxPulse:     2012,
		Neutral:      1500,
		Deadband:     20,
		ArmThreshold: 1800,
		MaxAngleDeg:  30,
		MaxYawDeg:    45,
	}
}

// SetPoints converts sticks to a normalized throttle and angle targets.
func (m Mapping) SetPoints(ch Channels) flight.SetPoints {
	throttle := float64(mathx.Constrain(m.channel(ch, m.Throttle), m.MinPulse, m.MaxPulse))
	return flight.SetPoints{
		Thrust: mathx.MapRange(throttle, float64(m.MinPulse), float64(m.MaxPulse), 0, 1),
		Pitch:  m.angle(m.channel(ch, m.Pitch), m.MaxAngleDeg),
		Roll:   m.angle(m.channel(ch, m.Roll), m.MaxAngleDeg),
		Yaw:    m.angle(m.channel(ch, m.Yaw), m.MaxYawDeg),
	}
}

// Armed reports whether the arm switch is above its threshold.
func (m Mapping) Armed(ch Channels) bool {
	return m.channel(ch, m.Arm) > m.ArmThreshold
}

func (m Mapping) channel(ch Channels, i int) uint16 {
	if i < 0 || i >= MaxChannels {
		return m.Neutral
	}
	return ch[i]
}

// angle applies the deadband around neutral and scales to ±maxDeg in radians.
func (m Mapping) angle(raw uint16, maxDeg float64) float64 {
	if raw > m.Neutral-m.Deadband && raw < m.Neutral+m.Deadband {
		raw = m.Neutral
	}
	v := float64(mathx.Constrain(raw, m.MinPulse, m.MaxPulse))
	limit := mathx.Deg2Rad(maxDeg)
	if v >= float64(m.Neutral) {
		return mathx.MapRange(v, float64(m.Neutral), float64(m.MaxPulse), 0, limit)
	}
	return mathx.MapRange(v, float64(m.MinPulse), float64(m.Neutral), -limit, 0)
}

// Receiver keeps the latest decoded frame and implements flight.SetPointProvider.
// It is not safe for concurrent use.
type Receiver struct {
	decoder  Decoder
	mapping  Mapping
	channels Channels
	last     time.Time
	frames   int
}

func NewReceiver(d Decoder, m Mapping) *Receiver {
	return &Receiver{decoder: d, mapping: m}
}

// Feed passes one byte to the decoder and reports whether a new frame arrived.
func (r *Receiver) Feed(b byte, now time.Time) bool {
	ch, ok := r.decoder.Feed(b)
	if !ok {
		return false
	}
	r.channels = ch
	r.last = now
	r.frames++
	return true
}

// SetPoints returns zero set-points until the first frame arrives.
func (r *Receiver) SetPoints() flight.SetPoints {
	if r.frames == 0 {
		return flight.SetPoints{}
	}
	return r.mapping.SetPoints(r.channels)
}

func (r *Receiver) Armed() bool {
	return r.frames > 0 && r.mapping.Armed(r.channels)
}

// LinkLost reports whether no frame arrived within timeout of now.
func (r *Receiver) LinkLost(now time.Time, timeout time.Duration) bool {
	return r.frames == 0 || now.Sub(r.last) > timeout
}

func (r *Receiver) Channels() Channels { return r.channels }
func (r *Receiver) Frames() int        { return r.frames }
func (r *Receiver) Dropped() int       { return r.decoder.Dropped() }
