// Package mathx holds the small numeric helpers shared by the flight core and its adapters.
package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Constrain limits value to the range [min, max].
func Constrain[T constraints.Integer | constraints.Float](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// MapRange maps a value from one range to another.
func MapRange[T constraints.Float](value, fromMin, fromMax, toMin, toMax T) T {
	return (value-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}

// Lerp interpolates linearly between a and b, alpha in [0,1].
func Lerp[T constraints.Float](a, b, alpha T) T {
	return a + (b-a)*alpha
}

// Symmetric clamps value to ±limit. A non-positive limit leaves value untouched.
func Symmetric[T constraints.Float](value, limit T) T {
	if limit <= 0 {
		return value
	}
	return Constrain(value, -limit, limit)
}

// Finite replaces NaN and ±Inf with zero.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func Deg2Rad(deg float64) float64 { return deg * math.Pi / 180 }

func Rad2Deg(rad float64) float64 { return rad * 180 / math.Pi }
