// Package fusion estimates vehicle attitude from accelerometer and gyro samples.
//
// All filter state lives in a Filter value, so several estimators can run side
// by side and each one starts cleanly from its first sample.
package fusion

import (
	"math"

	"github.com/westphae/quaternion"

	"github.com/BryanSouza91/QuadFC/flight"
	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

// DefaultAlpha weights the gyro-integrated attitude against the accelerometer tilt.
const DefaultAlpha = 0.98

// Sample is one IMU reading in body axes. Acceleration is m/s², rates are rad/s.
type Sample struct {
	AccelX, AccelY, AccelZ float64
	GyroX, GyroY, GyroZ    float64
	DeltaTime              float64
}

// Bias is subtracted from every sample before fusion.
type Bias struct {
	AccelX, AccelY, AccelZ float64
	GyroX, GyroY, GyroZ    float64
}

// Filter is a quaternion complementary filter.
type Filter struct {
	Alpha float64
	Bias  Bias

	q      quaternion.Quaternion
	est    flight.Orientation
	primed bool
}

func NewFilter(alpha float64) *Filter {
	return &Filter{Alpha: alpha, q: quaternion.Quaternion{W: 1}}
}

// AccelAttitude calculates pitch and roll in radians from the gravity vector.
func AccelAttitude(ax, ay, az float64) (pitch, roll float64) {
	pitch = math.Atan2(-ax, math.Sqrt(ay*ay+az*az))
	roll = math.Atan2(ay, az)
	return pitch, roll
}

// Update fuses one sample and returns the new estimate.
//
// The first sample after construction or Reset seeds pitch and roll from the
// accelerometer alone. Samples with a non-positive DeltaTime are ignored.
func (f *Filter) Update(s Sample) flight.Orientation {
	s = f.unbias(s)
	accPitch, accRoll := AccelAttitude(s.AccelX, s.AccelY, s.AccelZ)

	if !f.primed {
		f.primed = true
		f.set(accRoll, accPitch, 0)
		return f.est
	}
	if !(s.DeltaTime > 0) || math.IsInf(s.DeltaTime, 0) {
		return f.est
	}

	half := s.DeltaTime / 2
	dq := quaternion.Quaternion{W: 1, X: s.GyroX * half, Y: s.GyroY * half, Z: s.GyroZ * half}
	roll, pitch, yaw := toEuler(normalize(quaternion.Prod(f.q, dq)))

	roll = f.Alpha*roll + (1-f.Alpha)*accRoll
	pitch = f.Alpha*pitch + (1-f.Alpha)*accPitch
	f.set(roll, pitch, yaw)
	return f.est
}

// Orientation returns the latest estimate.
func (f *Filter) Orientation() flight.Orientation {
	return f.est
}

// Quaternion returns the latest estimate as a unit quaternion.
func (f *Filter) Quaternion() quaternion.Quaternion {
	return f.q
}

func (f *Filter) Reset() {
	f.q = quaternion.Quaternion{W: 1}
	f.est = flight.Orientation{}
	f.primed = false
}

func (f *Filter) set(roll, pitch, yaw float64) {
	f.q = fromEuler(mathx.Finite(roll), mathx.Finite(pitch), mathx.Finite(yaw))
	f.est = flight.Orientation{Pitch: mathx.Finite(pitch), Roll: mathx.Finite(roll), Yaw: mathx.Finite(yaw)}
}

func (f *Filter) unbias(s Sample) Sample {
	s.AccelX -= f.Bias.AccelX
	s.AccelY -= f.Bias.AccelY
	s.AccelZ -= f.Bias.AccelZ
	s.GyroX -= f.Bias.GyroX
	s.GyroY -= f.Bias.GyroY
	s.GyroZ -= f.Bias.GyroZ
	return s
}

// Calibrate averages samples taken while the airframe is still and level.
// Gravity is kept on the Z axis.
func Calibrate(samples []Sample) Bias {
	if len(samples) == 0 {
		return Bias{}
	}
	var b Bias
	for _, s := range samples {
		b.AccelX += s.AccelX
		b.AccelY += s.AccelY
		b.AccelZ += s.AccelZ
		b.GyroX += s.GyroX
		b.GyroY += s.GyroY
		b.GyroZ += s.GyroZ
	}
	n := float64(len(samples))
	b.AccelX /= n
	b.AccelY /= n
	b.AccelZ = b.AccelZ/n - Gravity
	b.GyroX /= n
	b.GyroY /= n
	b.GyroZ /= n
	return b
}

// Gravity is standard gravity in m/s².
const Gravity = 9.80665

func normalize(q quaternion.Quaternion) quaternion.Quaternion {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 {
		return quaternion.Quaternion{W: 1}
	}
	return quaternion.Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// ZYX convention: yaw, then pitch, then roll.
func fromEuler(roll, pitch, yaw float64) quaternion.Quaternion {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)
	return quaternion.Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

func toEuler(q quaternion.Quaternion) (roll, pitch, yaw float64) {
	roll = math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))
	pitch = math.Asin(mathx.Constrain(2*(q.W*q.Y-q.Z*q.X), -1, 1))
	yaw = math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
	return roll, pitch, yaw
}
