package flight

// OrientationProvider supplies the current attitude estimate.
type OrientationProvider interface {
	Orientation() Orientation
}

// SetPointProvider supplies the latest pilot or mission set-points.
type SetPointProvider interface {
	SetPoints() SetPoints
}

// ActuatorSink consumes motor commands. Implementations clamp to their
// physical range.
type ActuatorSink interface {
	Apply(Commands) error
}
