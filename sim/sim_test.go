package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/internal/mathx"
	"github.com/BryanSouza91/QuadFC/telemetry"
)

func missionController(t *testing.T) *flight.Controller {
	t.Helper()
	cfg := flight.DefaultConfig()
	cfg.Gains = map[flight.Axis]flight.Gains{
		flight.AxisHeight: {Kp: 1.3, Kd: 0.4},
		flight.AxisPitch:  {Kp: 0.15, Kd: 0.01},
		flight.AxisRoll:   {Kp: 0.15, Kd: 0.01},
	}
	c, err := flight.New(cfg, flight.NewMission(flight.DefaultMissionParams()))
	require.NoError(t, err)
	return c
}

func TestMissionFlight(t *testing.T) {
	tests := []struct {
		name  string
		pitch float64
	}{
		{"level", 0},
		{"tilted", mathx.Deg2Rad(20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := NewRigidBody(DefaultQuadParams(), flight.Orientation{Pitch: tt.pitch})
			r, err := NewRunner(missionController(t), body, RunConfig{DeltaTime: 0.01, Duration: 20, StopWhenDone: true})
			require.NoError(t, err)

			res, err := r.Run(context.Background())
			require.NoError(t, err)

			last := res.Frames[len(res.Frames)-1]
			assert.Equal(t, flight.ModeDone.String(), last.Mode)
			assert.Less(t, res.Duration(), 20.0)
			assert.Greater(t, res.MaxHeight(), 1.15)
			assert.Less(t, res.MaxHeight(), 2.5)
			assert.InDelta(t, 0, last.Pitch, mathx.Deg2Rad(2))
			for _, f := range res.Frames {
				require.False(t, math.IsNaN(f.Height))
				require.NotEqual(t, flight.ModeFailSafe.String(), f.Mode)
			}

			// Nothing drives the motors before takeoff.
			early, ok := res.FrameAt(1.0, false)
			require.True(t, ok)
			assert.Equal(t, flight.ModeInitial.String(), early.Mode)
			assert.Equal(t, [4]float64{}, early.Motors)
			assert.InDelta(t, tt.pitch, early.Pitch, 1e-12)

			h, ok := early.Axis("height")
			require.True(t, ok)
			assert.InDelta(t, 0, h.P, 1e-12)
		})
	}
}

func TestTiltedStartTripsFailSafe(t *testing.T) {
	body := NewRigidBody(DefaultQuadParams(), flight.Orientation{Pitch: mathx.Deg2Rad(50)})
	r, err := NewRunner(missionController(t), body, RunConfig{DeltaTime: 0.05, Duration: 3})
	require.NoError(t, err)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Frames, 60)
	for _, f := range res.Frames {
		assert.Equal(t, flight.ModeFailSafe.String(), f.Mode)
		assert.Equal(t, [4]float64{}, f.Motors)
	}
	assert.Zero(t, body.State().Height)
}

func TestRunStopsOnObserverError(t *testing.T) {
	body := NewRigidBody(DefaultQuadParams(), flight.Orientation{})
	r, err := NewRunner(missionController(t), body, DefaultRunConfig())
	require.NoError(t, err)
	boom := errors.New("boom")

	calls := 0
	res, err := r.Run(context.Background(), func(telemetry.Sample) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, res.Frames, 3)
}

func TestRunHonoursContext(t *testing.T) {
	body := NewRigidBody(DefaultQuadParams(), flight.Orientation{})
	r, err := NewRunner(missionController(t), body, DefaultRunConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunnerRejects(t *testing.T) {
	body := NewRigidBody(DefaultQuadParams(), flight.Orientation{})
	_, err := NewRunner(missionController(t), body, RunConfig{DeltaTime: 0, Duration: 1})
	assert.ErrorIs(t, err, ErrInvalidRun)
	_, err = NewRunner(nil, body, DefaultRunConfig())
	assert.ErrorIs(t, err, ErrInvalidRun)
}

func TestFrameAt(t *testing.T) {
	res := &Result{DeltaTime: 0.5, Frames: []telemetry.Sample{
		{Time: 0.5, Mode: "initial", Height: 0},
		{Time: 1.0, Mode: "ascend", Height: 1, Motors: [4]float64{1, 1, 1, 1}},
	}}

	f, ok := res.FrameAt(0.75, false)
	require.True(t, ok)
	assert.Equal(t, 0.0, f.Height)

	f, _ = res.FrameAt(0.6, true)
	assert.InDelta(t, 0.2, f.Height, 1e-12)
	assert.Equal(t, "initial", f.Mode)
	assert.InDelta(t, 0.2, f.Motors[3], 1e-12)

	f, _ = res.FrameAt(0.9, true)
	assert.Equal(t, "ascend", f.Mode)

	f, _ = res.FrameAt(-1, true)
	assert.Equal(t, 0.5, f.Time)
	f, _ = res.FrameAt(99, true)
	assert.Equal(t, 1.0, f.Time)

	_, ok = (&Result{}).FrameAt(0, true)
	assert.False(t, ok)
}

func TestRigidBodyLiftsAndFalls(t *testing.T) {
	body := NewRigidBody(DefaultQuadParams(), flight.Orientation{})

	require.NoError(t, body.Apply(flight.Commands{FrontLeftThr: 2, FrontRightThr: 2, RearLeftThr: 2, RearRightThr: 2}))
	body.Step(0.1)
	up := body.State()
	assert.Greater(t, up.Height, 0.0)
	assert.Zero(t, up.Orientation.Pitch)

	require.NoError(t, body.Apply(flight.Commands{}))
	for i := 0; i < 100; i++ {
		body.Step(0.05)
	}
	assert.Zero(t, body.State().Height)
}

func TestRigidBodyPitchFollowsMixer(t *testing.T) {
	body := NewRigidBody(DefaultQuadParams(), flight.Orientation{})
	require.NoError(t, body.Apply(flight.DefaultMixer().Mix(0.5, 0.05, 0, 0)))

	body.Step(0.02)

	assert.Greater(t, body.State().Orientation.Pitch, 0.0)
	assert.InDelta(t, 0, body.State().Orientation.Roll, 1e-12)
}
