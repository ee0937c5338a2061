package flight

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

func missionConfig() Config {
	cfg := DefaultConfig()
	cfg.Gains = map[Axis]Gains{
		AxisHeight: {Kp: 1.3, Kd: 0.4},
		AxisPitch:  {Kp: 0.15, Kd: 0.01},
		AxisRoll:   {Kp: 0.15, Kd: 0.01},
	}
	return cfg
}

func newMissionController(t *testing.T) *Controller {
	t.Helper()
	c, err := New(missionConfig(), NewMission(DefaultMissionParams()))
	require.NoError(t, err)
	return c
}

func TestHeightOnlyController(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gains = map[Axis]Gains{AxisHeight: {Kp: 1.3, Kd: 0.4}}
	c, err := New(cfg, &Stabilize{Height: 1.5})
	require.NoError(t, err)

	first := c.Iterate(QuadState{Height: 1.0, DeltaTime: 0.05, Time: 0.05}, SetPoints{})
	second := c.Iterate(QuadState{Height: 1.1, DeltaTime: 0.05, Time: 0.10}, SetPoints{})

	for _, m := range first.Motors() {
		assert.InDelta(t, 0.65, m, 1e-9)
	}
	for _, m := range second.Motors() {
		assert.InDelta(t, -0.28, m, 1e-9)
	}
}

func TestMissionWaitsThenRunsOnTakeoffTick(t *testing.T) {
	c := newMissionController(t)

	out := c.Iterate(QuadState{DeltaTime: 1.0, Time: 1.0}, SetPoints{})
	assert.True(t, out.IsZero())
	assert.Equal(t, ModeInitial, c.Mode())
	assert.Zero(t, c.Bank().PID(AxisHeight).LastP)

	out = c.Iterate(QuadState{DeltaTime: 1.0, Time: 2.0}, SetPoints{})
	assert.Equal(t, ModeAscend, c.Mode())
	assert.InDelta(t, 1.3*1.5, c.Bank().PID(AxisHeight).LastP, 1e-9)
	assert.InDelta(t, 1.95, out.FrontLeftThr, 1e-9)
}

func TestMissionRunsToDone(t *testing.T) {
	c := newMissionController(t)
	mission := c.Profile().(*Mission)
	const dt = 0.05

	height := 0.0
	seen := map[Mode]bool{}
	for i := 1; i <= 1000 && c.Mode() != ModeDone; i++ {
		now := float64(i) * dt
		// Track the height target perfectly once airborne.
		if c.Mode() == ModeAscend || c.Mode() == ModeDescend {
			height = mission.HeightTarget()
		}
		c.Iterate(QuadState{Height: height, DeltaTime: dt, Time: now}, SetPoints{})
		seen[c.Mode()] = true
	}

	assert.Equal(t, ModeDone, c.Mode())
	assert.True(t, seen[ModeAscend])
	assert.True(t, seen[ModeDescend])
	assert.True(t, mission.ReachedTop())

	out := c.Iterate(QuadState{Height: 0, DeltaTime: dt, Time: 100}, SetPoints{})
	assert.True(t, out.IsZero())
}

func TestMissionHoldLastsTwoSeconds(t *testing.T) {
	c := newMissionController(t)
	const dt = 0.1

	c.Iterate(QuadState{Height: 1.5, DeltaTime: dt, Time: 1.6}, SetPoints{})
	require.Equal(t, ModeAscend, c.Mode())

	ticks := 1
	for ; c.Mode() == ModeAscend && ticks < 100; ticks++ {
		c.Iterate(QuadState{Height: 1.5, DeltaTime: dt, Time: 1.6 + float64(ticks)*dt}, SetPoints{})
	}
	assert.Equal(t, ModeDescend, c.Mode())
	assert.InDelta(t, 20, ticks, 1)
}

func TestDescentRampsTarget(t *testing.T) {
	m := NewMission(DefaultMissionParams())
	m.mode = ModeDescend

	m.Plan(QuadState{Height: 1.0, DeltaTime: 0.5}, SetPoints{})
	plan := m.Plan(QuadState{Height: 1.0, DeltaTime: 0.5}, SetPoints{})

	assert.True(t, plan.Active)
	assert.InDelta(t, 1.5-0.2, plan.Targets[AxisHeight], 1e-12)

	plan = m.Plan(QuadState{Height: 0.05, DeltaTime: 0.5}, SetPoints{})
	assert.False(t, plan.Active)
	assert.Equal(t, ModeDone, m.Mode())
}

func TestFailSafeTripsAndLatches(t *testing.T) {
	cfg := missionConfig()
	cfg.Gains[AxisYaw] = Gains{Kp: 0.121}
	c, err := New(cfg, &Stabilize{})
	require.NoError(t, err)
	sp := SetPoints{Thrust: 0.5}

	out := c.Iterate(QuadState{Pitch: mathx.Deg2Rad(10), DeltaTime: 0.01, Time: 0.01}, sp)
	require.False(t, out.IsZero())

	out = c.Iterate(QuadState{Pitch: mathx.Deg2Rad(46), DeltaTime: 0.01, Time: 0.02}, sp)
	assert.True(t, out.IsZero())
	assert.Equal(t, ModeFailSafe, c.Mode())

	for i := 0; i < 10; i++ {
		out = c.Iterate(QuadState{DeltaTime: 0.01, Time: 0.03 + float64(i)*0.01}, sp)
		assert.True(t, out.IsZero())
	}

	c.Reset()
	assert.Equal(t, ModeIdle, c.Mode())
	out = c.Iterate(QuadState{DeltaTime: 0.01, Time: 1}, sp)
	assert.False(t, out.IsZero())
}

func TestFailSafeOnRollAndNaN(t *testing.T) {
	tests := []struct {
		name  string
		state QuadState
	}{
		{"roll", QuadState{Roll: -mathx.Deg2Rad(50)}},
		{"nan pitch", QuadState{Pitch: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMissionController(t)
			out := c.Iterate(tt.state, SetPoints{})
			assert.True(t, out.IsZero())
			assert.True(t, c.FailSafe())
		})
	}
}

func TestAttitudeAtLimitDoesNotTrip(t *testing.T) {
	c := newMissionController(t)
	c.Iterate(QuadState{Pitch: mathx.Deg2Rad(45) - 1e-9}, SetPoints{})
	assert.False(t, c.FailSafe())
}

func TestHaltMidMission(t *testing.T) {
	c := newMissionController(t)
	c.Iterate(QuadState{Height: 0.5, DeltaTime: 0.05, Time: 2}, SetPoints{})
	require.Equal(t, ModeAscend, c.Mode())

	c.Halt()
	c.Halt()

	assert.Equal(t, ModeFailSafe, c.Mode())
	out := c.Iterate(QuadState{Height: 0.6, DeltaTime: 0.05, Time: 2.05}, SetPoints{})
	assert.True(t, out.IsZero())

	c.Reset()
	assert.Equal(t, ModeInitial, c.Mode())
}

func TestThrustLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gains = map[Axis]Gains{AxisHeight: {Kp: 1}}
	cfg.ThrustLimits = &ThrustLimits{Min: 0, Max: 0.9}
	c, err := New(cfg, &Stabilize{Height: 3})
	require.NoError(t, err)

	out := c.Iterate(QuadState{Height: 0, DeltaTime: 0.02}, SetPoints{})
	assert.InDelta(t, 0.9, out.RearRightThr, 1e-12)

	out = c.Iterate(QuadState{Height: 5, DeltaTime: 0.02}, SetPoints{})
	assert.Zero(t, out.RearRightThr)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		profile Profile
	}{
		{"missing height for mission", func(c *Config) { delete(c.Gains, AxisHeight) }, NewMission(DefaultMissionParams())},
		{"zero attitude limit", func(c *Config) { c.AttitudeLimitDeg = 0 }, &Stabilize{}},
		{"negative clamp", func(c *Config) { c.Mixer.PitchRollLimit = -1 }, &Stabilize{}},
		{"inverted thrust limits", func(c *Config) { c.ThrustLimits = &ThrustLimits{Min: 1, Max: 0} }, &Stabilize{}},
		{"no profile", func(c *Config) {}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := missionConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, tt.profile)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestProbe(t *testing.T) {
	c := newMissionController(t)

	_, err := c.Probe(AxisHeight, AxisYaw)
	require.ErrorIs(t, err, ErrAxisNotControlled)

	probe, err := c.Probe(AxisHeight)
	require.NoError(t, err)

	c.Iterate(QuadState{Height: 1.0, DeltaTime: 0.05, Time: 2}, SetPoints{})
	got := probe.Read()

	require.Len(t, got, 1)
	assert.Equal(t, AxisHeight, got[0].Axis)
	assert.InDelta(t, 1.5, got[0].SetPoint, 1e-12)
	assert.InDelta(t, 0.65, got[0].P, 1e-9)
	assert.Zero(t, got[0].D)
}

func TestTelemetryCoversActiveAxes(t *testing.T) {
	c := newMissionController(t)

	got := c.Telemetry()

	require.Len(t, got, 3)
	assert.Equal(t, AxisHeight, got[0].Axis)
	assert.Equal(t, AxisPitch, got[1].Axis)
	assert.Equal(t, AxisRoll, got[2].Axis)
}
