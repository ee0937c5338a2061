package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/telemetry"
)

var ErrInvalidRun = errors.New("sim: invalid run configuration")

// RunConfig sets the fixed control step and the simulated time span.
type RunConfig struct {
	DeltaTime float64
	Duration  float64
	// SetPoints supplies pilot input every tick. Nil means zero set-points.
	SetPoints flight.SetPointProvider
	// StopWhenDone ends the run once the controller reaches ModeDone.
	StopWhenDone bool
}

// DefaultRunConfig steps at 100 Hz for 15 seconds.
func DefaultRunConfig() RunConfig {
	return RunConfig{DeltaTime: 0.01, Duration: 15}
}

// Observer receives every sample as it is produced.
type Observer func(telemetry.Sample) error

// Runner steps a controller and a body in lockstep.
type Runner struct {
	ctrl *flight.Controller
	body Body
	cfg  RunConfig
}

func NewRunner(ctrl *flight.Controller, body Body, cfg RunConfig) (*Runner, error) {
	if ctrl == nil || body == nil {
		return nil, fmt.Errorf("missing controller or body: %w", ErrInvalidRun)
	}
	if !(cfg.DeltaTime > 0) || !(cfg.Duration >= cfg.DeltaTime) {
		return nil, fmt.Errorf("dt %v over %v s: %w", cfg.DeltaTime, cfg.Duration, ErrInvalidRun)
	}
	return &Runner{ctrl: ctrl, body: body, cfg: cfg}, nil
}

// Run resets the controller and the body and simulates the configured span.
// Observers are called in tick order; an observer error aborts the run.
func (r *Runner) Run(ctx context.Context, observers ...Observer) (*Result, error) {
	r.ctrl.Reset()
	r.body.Reset()

	steps := int(math.Round(r.cfg.Duration / r.cfg.DeltaTime))
	res := &Result{DeltaTime: r.cfg.DeltaTime, Frames: make([]telemetry.Sample, 0, steps)}
	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		now := float64(i) * r.cfg.DeltaTime
		bs := r.body.State()
		state := flight.StateFrom(bs.Orientation, bs.Height, r.cfg.DeltaTime, now)

		var sp flight.SetPoints
		if r.cfg.SetPoints != nil {
			sp = r.cfg.SetPoints.SetPoints()
		}
		cmd := r.ctrl.Iterate(state, sp)
		if err := r.body.Apply(cmd); err != nil {
			return res, fmt.Errorf("apply commands at %.3fs: %w", now, err)
		}
		r.body.Step(r.cfg.DeltaTime)

		frame := Frame(state, r.ctrl.Mode(), cmd, r.ctrl.Telemetry())
		res.Frames = append(res.Frames, frame)
		for _, obs := range observers {
			if err := obs(frame); err != nil {
				return res, fmt.Errorf("observer at %.3fs: %w", now, err)
			}
		}
		if r.cfg.StopWhenDone && r.ctrl.Mode() == flight.ModeDone {
			break
		}
	}
	return res, nil
}

// Frame translates one controller tick into a telemetry sample.
func Frame(state flight.QuadState, mode flight.Mode, cmd flight.Commands, axes []flight.AxisTelemetry) telemetry.Sample {
	s := telemetry.Sample{
		Time:   state.Time,
		Mode:   mode.String(),
		Height: state.Height,
		Pitch:  state.Pitch,
		Roll:   state.Roll,
		Yaw:    state.Yaw,
		Motors: cmd.Motors(),
		Axes:   make([]telemetry.AxisSample, len(axes)),
	}
	for i, a := range axes {
		s.Axes[i] = telemetry.AxisSample{
			Axis:     a.Axis.String(),
			SetPoint: a.SetPoint,
			P:        a.P,
			I:        a.I,
			D:        a.D,
		}
	}
	return s
}

// Result holds every frame of a run.
type Result struct {
	DeltaTime float64
	Frames    []telemetry.Sample
}

// Duration is the time of the last frame.
func (r *Result) Duration() float64 {
	if len(r.Frames) == 0 {
		return 0
	}
	return r.Frames[len(r.Frames)-1].Time
}

// FrameAt returns the frame at time t. Without interpolation the latest frame
// at or before t is returned; times outside the run clamp to its ends.
func (r *Result) FrameAt(t float64, interpolate bool) (telemetry.Sample, bool) {
	n := len(r.Frames)
	if n == 0 {
		return telemetry.Sample{}, false
	}
	j := sort.Search(n, func(i int) bool { return r.Frames[i].Time > t })
	switch {
	case j == 0:
		return r.Frames[0], true
	case j == n:
		return r.Frames[n-1], true
	}
	a, b := r.Frames[j-1], r.Frames[j]
	if !interpolate || b.Time == a.Time {
		return a, true
	}
	return telemetry.Lerp(a, b, (t-a.Time)/(b.Time-a.Time)), true
}

// MaxHeight returns the highest sensed height of the run.
func (r *Result) MaxHeight() float64 {
	h := 0.0
	for _, f := range r.Frames {
		h = math.Max(h, f.Height)
	}
	return h
}
