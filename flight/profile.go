package flight

import "fmt"

// Mode is the externally visible flight state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeInitial
	ModeAscend
	ModeDescend
	ModeTraverse
	ModeDone
	ModeFailSafe
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeInitial:
		return "initial"
	case ModeAscend:
		return "ascend"
	case ModeDescend:
		return "descend"
	case ModeTraverse:
		return "traverse"
	case ModeDone:
		return "done"
	case ModeFailSafe:
		return "failsafe"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Plan is a profile's decision for one tick.
type Plan struct {
	// Active runs the PID loops and the mixer. An inactive plan yields zero commands.
	Active bool
	// Thrust is the collective thrust before the height correction is added.
	Thrust float64
	// Targets holds the set-point of every axis.
	Targets AxisValues
}

// Profile is the mission policy plugged into a Controller. It owns its own
// states and timers; the failsafe, PID dispatch and mixing stay in the controller.
type Profile interface {
	Name() string
	Mode() Mode
	// RequiredAxes are the axes the profile cannot fly without.
	RequiredAxes() []Axis
	Reset()
	Plan(state QuadState, sp SetPoints) Plan
}

// Stabilize holds the attitude requested by the pilot on every tick. It is the
// free-flight profile of the board firmware and never leaves ModeIdle.
type Stabilize struct {
	// Height is the altitude target used when the height axis is active.
	Height float64
}

func (s *Stabilize) Name() string         { return "stabilize" }
func (s *Stabilize) Mode() Mode           { return ModeIdle }
func (s *Stabilize) RequiredAxes() []Axis { return nil }
func (s *Stabilize) Reset()               {}

func (s *Stabilize) Plan(_ QuadState, sp SetPoints) Plan {
	var targets AxisValues
	targets[AxisHeight] = s.Height
	targets[AxisPitch] = sp.Pitch
	targets[AxisRoll] = sp.Roll
	targets[AxisYaw] = sp.Yaw
	return Plan{Active: true, Thrust: sp.Thrust, Targets: targets}
}
