package rc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

func sticks(roll, pitch, throttle, yaw, arm uint16) Channels {
	var ch Channels
	ch[0], ch[1], ch[2], ch[3], ch[4] = roll, pitch, throttle, yaw, arm
	return ch
}

func TestIBusRoundTripThroughDecoder(t *testing.T) {
	want := sticks(1500, 1600, 1200, 1400, 2000)
	frame := EncodeIBus(want)
	d := NewIBusDecoder()

	var got Channels
	var ok bool
	// Leading noise must be skipped.
	for _, b := range append([]byte{0x00, 0x55, 0x20, 0x11}, frame[:]...) {
		if ch, done := d.Feed(b); done {
			got, ok = ch, true
		}
	}

	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Zero(t, d.Dropped())
}

func TestIBusChecksumMismatch(t *testing.T) {
	frame := EncodeIBus(sticks(1500, 1500, 1000, 1500, 1000))
	frame[5] ^= 0xFF

	_, err := DecodeIBus(frame[:])
	assert.ErrorIs(t, err, ErrChecksum)

	d := NewIBusDecoder()
	for _, b := range frame {
		_, ok := d.Feed(b)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, d.Dropped())
}

func TestDecodeIBusRejectsShortFrame(t *testing.T) {
	_, err := DecodeIBus([]byte{IBusHeader1, IBusHeader2})
	assert.ErrorIs(t, err, ErrFrameLength)
}

func TestCRSFRoundTrip(t *testing.T) {
	var raw Channels
	for i := range raw {
		raw[i] = uint16(CRSFChannelMin + i*100)
	}
	frame := EncodeCRSF(raw)

	got, err := DecodeCRSF(frame[:])
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestCRSFDecoderConvertsToPulses(t *testing.T) {
	var raw Channels
	raw[0] = CRSFChannelMin
	raw[1] = CRSFChannelMax
	frame := EncodeCRSF(raw)
	d := NewCRSFDecoder()

	var got Channels
	var ok bool
	for _, b := range frame {
		if ch, done := d.Feed(b); done {
			got, ok = ch, true
		}
	}

	require.True(t, ok)
	assert.Equal(t, uint16(988), got[0])
	assert.Equal(t, uint16(2012), got[1])
}

func TestCRSFBadCRC(t *testing.T) {
	frame := EncodeCRSF(Channels{})
	frame[CRSFFrameSize-1] ^= 0x01

	_, err := DecodeCRSF(frame[:])
	assert.ErrorIs(t, err, ErrChecksum)

	d := NewCRSFDecoder()
	for _, b := range frame {
		_, ok := d.Feed(b)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, d.Dropped())
}

func TestCRC8KnownValue(t *testing.T) {
	// CRC8-DVB-S2 check value for "123456789".
	assert.Equal(t, byte(0xBC), CRC8([]byte("123456789")))
}

func TestMappingSetPoints(t *testing.T) {
	m := DefaultMapping()
	tests := []struct {
		name     string
		ch       Channels
		thrust   float64
		pitchDeg float64
		rollDeg  float64
	}{
		{"centered", sticks(1500, 1500, 988, 1500, 1000), 0, 0, 0},
		{"inside deadband", sticks(1515, 1490, 1500, 1500, 1000), 0.5, 0, 0},
		{"full deflection", sticks(2012, 988, 2012, 1500, 1000), 1, -30, 30},
		{"beyond range", sticks(2100, 900, 2100, 1500, 1000), 1, -30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := m.SetPoints(tt.ch)
			assert.InDelta(t, tt.thrust, sp.Thrust, 1e-9)
			assert.InDelta(t, mathx.Deg2Rad(tt.pitchDeg), sp.Pitch, 1e-9)
			assert.InDelta(t, mathx.Deg2Rad(tt.rollDeg), sp.Roll, 1e-9)
		})
	}
}

func TestReceiver(t *testing.T) {
	r := NewReceiver(NewIBusDecoder(), DefaultMapping())
	start := time.Unix(100, 0)

	assert.Equal(t, 0.0, r.SetPoints().Thrust)
	assert.False(t, r.Armed())
	assert.True(t, r.LinkLost(start, 500*time.Millisecond))

	frame := EncodeIBus(sticks(1500, 1500, 1500, 1500, 2000))
	arrived := false
	for _, b := range frame {
		arrived = r.Feed(b, start) || arrived
	}

	require.True(t, arrived)
	assert.True(t, r.Armed())
	assert.InDelta(t, 0.5, r.SetPoints().Thrust, 1e-9)
	assert.False(t, r.LinkLost(start.Add(100*time.Millisecond), 500*time.Millisecond))
	assert.True(t, r.LinkLost(start.Add(time.Second), 500*time.Millisecond))
	assert.Equal(t, 1, r.Frames())
}
