package flight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxisBankInactiveAxesContributeZero(t *testing.T) {
	bank, err := NewAxisBank(map[Axis]Gains{AxisPitch: {Kp: 2}})
	require.NoError(t, err)

	bank.SetSetPoint(AxisRoll, 1)
	bank.SetSetPoint(AxisPitch, 0.5)
	out := bank.Update(AxisValues{AxisPitch: 0.25, AxisRoll: -3}, 0.01)

	assert.InDelta(t, 0.5, out[AxisPitch], 1e-12)
	assert.Zero(t, out[AxisRoll])
	assert.Zero(t, bank.SetPoint(AxisRoll))
	assert.Nil(t, bank.PID(AxisRoll))
	assert.Equal(t, []Axis{AxisPitch}, bank.Axes())
}

func TestAxisBankErrorIsSetPointMinusSensed(t *testing.T) {
	bank, err := NewAxisBank(map[Axis]Gains{AxisHeight: {Kp: 1}})
	require.NoError(t, err)

	bank.SetSetPoint(AxisHeight, 1.5)

	assert.InDelta(t, 0.5, bank.Correct(AxisHeight, 1.0, 0.05), 1e-12)
	assert.InDelta(t, -0.5, bank.Correct(AxisHeight, 2.0, 0.05), 1e-12)
}

func TestAxisBankReset(t *testing.T) {
	bank, err := NewAxisBank(map[Axis]Gains{AxisYaw: {Kp: 1, Ki: 1}})
	require.NoError(t, err)
	bank.SetSetPoint(AxisYaw, 1)
	bank.Correct(AxisYaw, 0, 0.1)

	bank.Reset()

	assert.Zero(t, bank.SetPoint(AxisYaw))
	assert.Zero(t, bank.PID(AxisYaw).Integral())
}

func TestNewAxisBankRejects(t *testing.T) {
	tests := []struct {
		name  string
		gains map[Axis]Gains
	}{
		{"empty", map[Axis]Gains{}},
		{"unknown axis", map[Axis]Gains{Axis(9): {Kp: 1}}},
		{"negative integral limit", map[Axis]Gains{AxisRoll: {IntegralLimit: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAxisBank(tt.gains)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseAxis(t *testing.T) {
	for _, a := range AllAxes {
		got, err := ParseAxis(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	got, err := ParseAxis("Pitch")
	require.NoError(t, err)
	assert.Equal(t, AxisPitch, got)

	_, err = ParseAxis("throttle")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
