package flight

import (
	"fmt"
	"math"
	"strings"

	"github.com/BryanSouza91/QuadFC/pid"
)

// Axis identifies one independently controlled degree of freedom.
type Axis int

const (
	AxisHeight Axis = iota
	AxisPitch
	AxisRoll
	AxisYaw

	numAxes
)

// AllAxes lists every axis in evaluation order.
var AllAxes = [numAxes]Axis{AxisHeight, AxisPitch, AxisRoll, AxisYaw}

func (a Axis) String() string {
	switch a {
	case AxisHeight:
		return "height"
	case AxisPitch:
		return "pitch"
	case AxisRoll:
		return "roll"
	case AxisYaw:
		return "yaw"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Valid reports whether a names a known axis.
func (a Axis) Valid() bool {
	return a >= AxisHeight && a < numAxes
}

// ParseAxis returns the axis with the given name.
func ParseAxis(name string) (Axis, error) {
	for _, a := range AllAxes {
		if strings.EqualFold(name, a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q: %w", name, ErrInvalidConfig)
}

// AxisValues holds one value per axis, indexed by Axis.
type AxisValues [numAxes]float64

// Sensed extracts the measured value of every axis from a state.
func Sensed(s QuadState) AxisValues {
	var v AxisValues
	v[AxisHeight] = s.Height
	v[AxisPitch] = s.Pitch
	v[AxisRoll] = s.Roll
	v[AxisYaw] = s.Yaw
	return v
}

// Gains configures the PID of one axis.
type Gains struct {
	Kp, Ki, Kd       float64
	IntegralDisabled bool
	IntegralLimit    float64
}

func (g Gains) validate() error {
	for _, v := range []float64{g.Kp, g.Ki, g.Kd, g.IntegralLimit} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite gain: %w", ErrInvalidConfig)
		}
	}
	if g.IntegralLimit < 0 {
		return fmt.Errorf("negative integral limit: %w", ErrInvalidConfig)
	}
	return nil
}

// AxisBank owns one PID and one set-point per active axis.
// Axes are independent; inactive axes contribute zero.
type AxisBank struct {
	loops     [numAxes]*pid.PID
	setPoints AxisValues
}

// NewAxisBank builds a bank with one controller per entry of gains.
func NewAxisBank(gains map[Axis]Gains) (*AxisBank, error) {
	if len(gains) == 0 {
		return nil, fmt.Errorf("no controlled axes: %w", ErrInvalidConfig)
	}
	b := &AxisBank{}
	for axis, g := range gains {
		if !axis.Valid() {
			return nil, fmt.Errorf("%s: %w", axis, ErrInvalidConfig)
		}
		if err := g.validate(); err != nil {
			return nil, fmt.Errorf("%s gains: %w", axis, err)
		}
		loop := pid.New(g.Kp, g.Ki, g.Kd)
		loop.IntegralDisabled = g.IntegralDisabled
		loop.IntegralLimit = g.IntegralLimit
		b.loops[axis] = loop
	}
	return b, nil
}

// Has reports whether axis is controlled by this bank.
func (b *AxisBank) Has(axis Axis) bool {
	return axis.Valid() && b.loops[axis] != nil
}

// Axes returns the active axes in evaluation order.
func (b *AxisBank) Axes() []Axis {
	axes := make([]Axis, 0, numAxes)
	for _, a := range AllAxes {
		if b.loops[a] != nil {
			axes = append(axes, a)
		}
	}
	return axes
}

// PID returns the controller of axis, or nil when the axis is not active.
func (b *AxisBank) PID(axis Axis) *pid.PID {
	if !axis.Valid() {
		return nil
	}
	return b.loops[axis]
}

func (b *AxisBank) SetPoint(axis Axis) float64 {
	if !axis.Valid() {
		return 0
	}
	return b.setPoints[axis]
}

// SetSetPoint changes the target of axis. Targets of inactive axes are ignored.
func (b *AxisBank) SetSetPoint(axis Axis, v float64) {
	if b.Has(axis) {
		b.setPoints[axis] = v
	}
}

// Correct runs the PID of axis on setPoint - sensed.
func (b *AxisBank) Correct(axis Axis, sensed, dt float64) float64 {
	if !b.Has(axis) {
		return 0
	}
	return b.loops[axis].Get(b.setPoints[axis]-sensed, dt)
}

// Update computes the correction of every active axis.
func (b *AxisBank) Update(sensed AxisValues, dt float64) AxisValues {
	var out AxisValues
	for _, a := range AllAxes {
		out[a] = b.Correct(a, sensed[a], dt)
	}
	return out
}

// Reset clears every controller and set-point.
func (b *AxisBank) Reset() {
	for _, loop := range b.loops {
		if loop != nil {
			loop.Reset()
		}
	}
	b.setPoints = AxisValues{}
}
