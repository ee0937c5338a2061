package flight

import (
	"fmt"
	"sort"
)

// Waypoint is a set of axis targets that takes effect at mission time At.
type Waypoint struct {
	At     float64
	Height float64
	Pitch  float64
	Roll   float64
	Yaw    float64
}

// WaypointParams configures a scheduled waypoint mission.
type WaypointParams struct {
	StartAfter float64
	// EndAfter switches to Traverse, which stops driving the motors. Zero means never.
	EndAfter   float64
	BaseThrust float64
	Waypoints  []Waypoint
}

// Waypoints flies a time-scheduled list of targets, as driven by the Unity scene.
type Waypoints struct {
	params WaypointParams
	mode   Mode
	active int
}

// NewWaypoints sorts the schedule by time. At least one waypoint is required.
func NewWaypoints(p WaypointParams) (*Waypoints, error) {
	if len(p.Waypoints) == 0 {
		return nil, fmt.Errorf("waypoint mission without waypoints: %w", ErrInvalidConfig)
	}
	if p.EndAfter != 0 && p.EndAfter <= p.StartAfter {
		return nil, fmt.Errorf("waypoint mission ends at %.2fs before it starts at %.2fs: %w",
			p.EndAfter, p.StartAfter, ErrInvalidConfig)
	}
	wps := make([]Waypoint, len(p.Waypoints))
	copy(wps, p.Waypoints)
	sort.SliceStable(wps, func(i, j int) bool { return wps[i].At < wps[j].At })
	p.Waypoints = wps

	w := &Waypoints{params: p}
	w.Reset()
	return w, nil
}

func (w *Waypoints) Name() string         { return "waypoints" }
func (w *Waypoints) Mode() Mode           { return w.mode }
func (w *Waypoints) RequiredAxes() []Axis { return []Axis{AxisHeight} }

// Active returns the waypoint currently being flown.
func (w *Waypoints) Active() Waypoint { return w.params.Waypoints[w.active] }

func (w *Waypoints) Reset() {
	w.mode = ModeInitial
	w.active = 0
}

func (w *Waypoints) Plan(state QuadState, _ SetPoints) Plan {
	switch w.mode {
	case ModeInitial:
		if state.Time <= w.params.StartAfter {
			return Plan{}
		}
		w.mode = ModeAscend
	case ModeAscend:
	default:
		return Plan{}
	}

	if w.params.EndAfter > 0 && state.Time > w.params.EndAfter {
		w.mode = ModeTraverse
		return Plan{}
	}
	for w.active+1 < len(w.params.Waypoints) && w.params.Waypoints[w.active+1].At <= state.Time {
		w.active++
	}

	wp := w.params.Waypoints[w.active]
	var targets AxisValues
	targets[AxisHeight] = wp.Height
	targets[AxisPitch] = wp.Pitch
	targets[AxisRoll] = wp.Roll
	targets[AxisYaw] = wp.Yaw
	return Plan{Active: true, Thrust: w.params.BaseThrust, Targets: targets}
}
