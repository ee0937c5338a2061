package flight

import (
	"fmt"

	"github.com/BryanSouza91/QuadFC/pid"
)

// AxisTelemetry is the gain-scaled PID breakdown of one axis.
type AxisTelemetry struct {
	Axis     Axis
	SetPoint float64
	pid.State
}

// Telemetry returns the breakdown of every active axis.
func (c *Controller) Telemetry() []AxisTelemetry {
	axes := c.bank.Axes()
	out := make([]AxisTelemetry, 0, len(axes))
	for _, a := range axes {
		out = append(out, c.axisTelemetry(a))
	}
	return out
}

func (c *Controller) axisTelemetry(a Axis) AxisTelemetry {
	return AxisTelemetry{
		Axis:     a,
		SetPoint: c.bank.SetPoint(a),
		State:    c.bank.PID(a).Snapshot(),
	}
}

// Probe reads the telemetry of a fixed set of axes.
type Probe struct {
	c    *Controller
	axes []Axis
}

// Probe validates axes against the active set once, so Read cannot fail.
func (c *Controller) Probe(axes ...Axis) (*Probe, error) {
	for _, a := range axes {
		if !c.bank.Has(a) {
			return nil, fmt.Errorf("%s: %w", a, ErrAxisNotControlled)
		}
	}
	return &Probe{c: c, axes: append([]Axis(nil), axes...)}, nil
}

func (p *Probe) Axes() []Axis { return p.axes }

func (p *Probe) Read() []AxisTelemetry {
	out := make([]AxisTelemetry, len(p.axes))
	for i, a := range p.axes {
		out[i] = p.c.axisTelemetry(a)
	}
	return out
}
