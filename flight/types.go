// Package flight is the quadcopter flight-control core: per-axis PID loops, the
// mission state machine, the failsafe and the X-quad command mixer.
//
// Everything here is synchronous and free of I/O. The caller supplies sensed
// state, set-points and time on every tick and receives motor commands back.
package flight

import "github.com/BryanSouza91/QuadFC/internal/mathx"

// QuadState is the sensed vehicle state for one control tick.
// Angles are radians, height is meters and times are seconds.
type QuadState struct {
	Height    float64
	Pitch     float64
	Yaw       float64
	Roll      float64
	DeltaTime float64
	Time      float64
}

// SetPoints are the pilot or mission requests for one tick.
// Thrust is normalized to [0,1]; angles are radians.
type SetPoints struct {
	Thrust float64
	Yaw    float64
	Pitch  float64
	Roll   float64
}

// Orientation is an attitude estimate in radians.
type Orientation struct {
	Pitch float64
	Roll  float64
	Yaw   float64
}

// Commands are the per-motor thrust commands, nominally in [0,1].
// The mixer does not clamp them; actuator sinks do.
type Commands struct {
	FrontLeftThr  float64
	FrontRightThr float64
	RearLeftThr   float64
	RearRightThr  float64
}

// ThrottleFromPercent converts a [0,100] throttle into the normalized [0,1] domain.
func ThrottleFromPercent(percent float64) float64 {
	return percent / 100
}

// Motors returns the commands in FL, FR, RL, RR order.
func (c Commands) Motors() [4]float64 {
	return [4]float64{c.FrontLeftThr, c.FrontRightThr, c.RearLeftThr, c.RearRightThr}
}

// Clamp limits every motor command to [lo, hi].
func (c Commands) Clamp(lo, hi float64) Commands {
	return Commands{
		FrontLeftThr:  mathx.Constrain(c.FrontLeftThr, lo, hi),
		FrontRightThr: mathx.Constrain(c.FrontRightThr, lo, hi),
		RearLeftThr:   mathx.Constrain(c.RearLeftThr, lo, hi),
		RearRightThr:  mathx.Constrain(c.RearRightThr, lo, hi),
	}
}

// Percent scales the commands to the [0,100] domain.
func (c Commands) Percent() Commands {
	return Commands{
		FrontLeftThr:  c.FrontLeftThr * 100,
		FrontRightThr: c.FrontRightThr * 100,
		RearLeftThr:   c.RearLeftThr * 100,
		RearRightThr:  c.RearRightThr * 100,
	}
}

// IsZero reports whether every motor is commanded to zero.
func (c Commands) IsZero() bool {
	return c == Commands{}
}

// StateFrom builds a QuadState from an attitude estimate and a height reading.
func StateFrom(o Orientation, height, dt, now float64) QuadState {
	return QuadState{
		Height:    height,
		Pitch:     o.Pitch,
		Yaw:       o.Yaw,
		Roll:      o.Roll,
		DeltaTime: dt,
		Time:      now,
	}
}
