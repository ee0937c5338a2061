package flight

import "math"

// MissionParams configures the timed ascend, hold and descend mission.
type MissionParams struct {
	// TakeoffAfter is the mission time the vehicle waits on the ground.
	TakeoffAfter float64
	// TargetHeight is the climb altitude in meters.
	TargetHeight float64
	// Tolerance is how close to TargetHeight counts as reached.
	Tolerance float64
	// Hold is how long to stay at TargetHeight before descending.
	Hold float64
	// DescentRate is how fast the height target ramps down, in m/s.
	DescentRate float64
	// Floor is the sensed height below which the mission is done.
	Floor float64
	// BaseThrust is added to the height correction.
	BaseThrust float64

	Pitch, Roll, Yaw float64
}

// DefaultMissionParams returns the values flown by the simulator mission.
func DefaultMissionParams() MissionParams {
	return MissionParams{
		TakeoffAfter: 1.5,
		TargetHeight: 1.5,
		Tolerance:    0.35,
		Hold:         2.0,
		DescentRate:  0.20,
		Floor:        0.1,
	}
}

// Mission flies Initial, Ascend, Descend and Done in that order.
type Mission struct {
	params MissionParams

	mode         Mode
	reachedTop   bool
	holdLeft     float64
	heightTarget float64
}

func NewMission(p MissionParams) *Mission {
	m := &Mission{params: p}
	m.Reset()
	return m
}

func (m *Mission) Name() string          { return "mission" }
func (m *Mission) Mode() Mode            { return m.mode }
func (m *Mission) RequiredAxes() []Axis  { return []Axis{AxisHeight} }
func (m *Mission) Params() MissionParams { return m.params }

// ReachedTop reports whether the climb target has been reached and the hold started.
func (m *Mission) ReachedTop() bool { return m.reachedTop }

// HeightTarget is the altitude set-point of the current tick.
func (m *Mission) HeightTarget() float64 { return m.heightTarget }

func (m *Mission) Reset() {
	m.mode = ModeInitial
	m.reachedTop = false
	m.holdLeft = m.params.Hold
	m.heightTarget = m.params.TargetHeight
}

func (m *Mission) Plan(state QuadState, _ SetPoints) Plan {
	switch m.mode {
	case ModeInitial:
		if state.Time <= m.params.TakeoffAfter {
			return Plan{}
		}
		m.mode = ModeAscend
		return m.ascend(state)
	case ModeAscend:
		return m.ascend(state)
	case ModeDescend:
		return m.descend(state)
	default:
		return Plan{}
	}
}

func (m *Mission) ascend(state QuadState) Plan {
	if !m.reachedTop && math.Abs(state.Height-m.params.TargetHeight) <= m.params.Tolerance {
		m.reachedTop = true
		m.holdLeft = m.params.Hold
	}
	plan := m.plan()
	if m.reachedTop {
		m.holdLeft -= state.DeltaTime
		if m.holdLeft <= 0 {
			m.mode = ModeDescend
		}
	}
	return plan
}

func (m *Mission) descend(state QuadState) Plan {
	if state.Height < m.params.Floor {
		m.mode = ModeDone
		return Plan{}
	}
	m.heightTarget -= m.params.DescentRate * state.DeltaTime
	return m.plan()
}

func (m *Mission) plan() Plan {
	var targets AxisValues
	targets[AxisHeight] = m.heightTarget
	targets[AxisPitch] = m.params.Pitch
	targets[AxisRoll] = m.params.Roll
	targets[AxisYaw] = m.params.Yaw
	return Plan{Active: true, Thrust: m.params.BaseThrust, Targets: targets}
}
