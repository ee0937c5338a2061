package flight

import "github.com/BryanSouza91/QuadFC/internal/mathx"

// Mixer maps collective thrust and axis corrections onto the four motors of an
// X-configuration quad.
type Mixer struct {
	// PitchRollLimit bounds the pitch and roll corrections. Zero means unbounded.
	PitchRollLimit float64
	// YawLimit bounds the yaw correction. Zero means unbounded.
	YawLimit float64
	// YawSign selects the propeller spin direction: +1, -1, or 0 to ignore yaw.
	YawSign float64
}

// DefaultMixer returns the ±1 correction bound with standard prop rotation.
func DefaultMixer() Mixer {
	return Mixer{
		PitchRollLimit: 1.0,
		YawLimit:       1.0,
		YawSign:        1,
	}
}

// Mix computes the motor commands. Outputs are not clamped.
func (m Mixer) Mix(thrust, pitch, roll, yaw float64) Commands {
	pitch = mathx.Symmetric(pitch, m.PitchRollLimit)
	roll = mathx.Symmetric(roll, m.PitchRollLimit)
	yaw = mathx.Symmetric(yaw, m.YawLimit) * m.YawSign

	return Commands{
		FrontLeftThr:  thrust - roll - pitch + yaw,
		RearLeftThr:   thrust - roll + pitch - yaw,
		FrontRightThr: thrust + roll - pitch - yaw,
		RearRightThr:  thrust + roll + pitch + yaw,
	}
}
