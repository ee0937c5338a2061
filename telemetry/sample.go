// Package telemetry records, exports and streams per-tick flight samples.
package telemetry

import "github.com/BryanSouza91/QuadFC/internal/mathx"

// Sample is one control tick as seen from outside the controller.
type Sample struct {
	Time   float64 `json:"time"`
	Mode   string  `json:"mode"`
	Height float64 `json:"height"`
	Pitch  float64 `json:"pitch"`
	Roll   float64 `json:"roll"`
	Yaw    float64 `json:"yaw"`
	// Motors are the commands in FL, FR, RL, RR order.
	Motors [4]float64   `json:"motors"`
	Axes   []AxisSample `json:"axes,omitempty"`
}

// AxisSample is the gain-scaled PID breakdown of one axis.
type AxisSample struct {
	Axis     string  `json:"axis"`
	SetPoint float64 `json:"setPoint"`
	P        float64 `json:"p"`
	I        float64 `json:"i"`
	D        float64 `json:"d"`
}

// Axis returns the breakdown of the named axis.
func (s Sample) Axis(name string) (AxisSample, bool) {
	for _, a := range s.Axes {
		if a.Axis == name {
			return a, true
		}
	}
	return AxisSample{}, false
}

// Lerp interpolates every continuous field between a and b. The mode is
// taken from whichever sample is nearer.
func Lerp(a, b Sample, alpha float64) Sample {
	out := Sample{
		Time:   mathx.Lerp(a.Time, b.Time, alpha),
		Mode:   a.Mode,
		Height: mathx.Lerp(a.Height, b.Height, alpha),
		Pitch:  mathx.Lerp(a.Pitch, b.Pitch, alpha),
		Roll:   mathx.Lerp(a.Roll, b.Roll, alpha),
		Yaw:    mathx.Lerp(a.Yaw, b.Yaw, alpha),
	}
	if alpha >= 0.5 {
		out.Mode = b.Mode
	}
	for i := range out.Motors {
		out.Motors[i] = mathx.Lerp(a.Motors[i], b.Motors[i], alpha)
	}
	if len(a.Axes) == len(b.Axes) {
		out.Axes = make([]AxisSample, len(a.Axes))
		for i := range a.Axes {
			out.Axes[i] = AxisSample{
				Axis:     a.Axes[i].Axis,
				SetPoint: mathx.Lerp(a.Axes[i].SetPoint, b.Axes[i].SetPoint, alpha),
				P:        mathx.Lerp(a.Axes[i].P, b.Axes[i].P, alpha),
				I:        mathx.Lerp(a.Axes[i].I, b.Axes[i].I, alpha),
				D:        mathx.Lerp(a.Axes[i].D, b.Axes[i].D, alpha),
			}
		}
	} else {
		out.Axes = a.Axes
	}
	return out
}
