package mathx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstrain(t *testing.T) {
	assert.Equal(t, 1.0, Constrain(3.0, -1.0, 1.0))
	assert.Equal(t, -1.0, Constrain(-3.0, -1.0, 1.0))
	assert.Equal(t, 0.25, Constrain(0.25, -1.0, 1.0))
	assert.Equal(t, uint16(2012), Constrain(uint16(2100), 988, 2012))
}

func TestMapRange(t *testing.T) {
	assert.InDelta(t, 0.5, MapRange(1500.0, 1000, 2000, 0, 1), 1e-12)
	assert.InDelta(t, -1.0, MapRange(988.0, 988, 2012, -1, 1), 1e-12)
}

func TestSymmetric(t *testing.T) {
	assert.Equal(t, 1.0, Symmetric(4.0, 1.0))
	assert.Equal(t, 4.0, Symmetric(4.0, 0.0))
}

func TestFinite(t *testing.T) {
	assert.Zero(t, Finite(math.NaN()))
	assert.Zero(t, Finite(math.Inf(-1)))
	assert.Equal(t, 2.5, Finite(2.5))
}

func TestAngles(t *testing.T) {
	assert.InDelta(t, math.Pi/4, Deg2Rad(45), 1e-12)
	assert.InDelta(t, 45.0, Rad2Deg(math.Pi/4), 1e-12)
}
