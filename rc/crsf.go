package rc

import (
	"fmt"
	"math"

	"github.com/BryanSouza91/QuadFC/internal/mathx"
)

// CRSF (Crossfire, also carried by ExpressLRS) framing.
const (
	CRSFFlightController    = 0xC8
	CRSFFrameTypeRCChannels = 0x16
	// sync + length + type + 22 payload bytes + CRC
	CRSFFrameSize  = 26
	crsfPayloadLen = 22
	crsfMaxLength  = 64

	CRSFChannelMin = 172
	CRSFChannelMax = 1811
)

type crsfState int

const (
	crsfDestination crsfState = iota
	crsfLength
	crsfType
	crsfPayload
	crsfChecksum
)

// CRSFDecoder is the byte-wise CRSF state machine. Only RC channel frames are
// reported; channel values are converted to microseconds.
type CRSFDecoder struct {
	state   crsfState
	frame   [crsfMaxLength + 2]byte
	index   int
	length  int
	dropped int
	// MinPulse and MaxPulse are the microsecond range CRSF values map onto.
	MinPulse, MaxPulse uint16
}

func NewCRSFDecoder() *CRSFDecoder {
	return &CRSFDecoder{MinPulse: 988, MaxPulse: 2012}
}

func (d *CRSFDecoder) reset() {
	d.state = crsfDestination
	d.index = 0
	d.length = 0
}

func (d *CRSFDecoder) Feed(b byte) (Channels, bool) {
	switch d.state {
	case crsfDestination:
		if b == CRSFFlightController {
			d.frame[0] = b
			d.index = 1
			d.state = crsfLength
		}
	case crsfLength:
		// The length covers type, payload and CRC.
		if b < 2 || b > crsfMaxLength {
			d.dropped++
			d.reset()
			break
		}
		d.length = int(b)
		d.frame[1] = b
		d.index = 2
		d.state = crsfType
	case crsfType:
		if b != CRSFFrameTypeRCChannels {
			d.reset()
			break
		}
		d.frame[d.index] = b
		d.index++
		d.state = crsfPayload
	case crsfPayload:
		d.frame[d.index] = b
		d.index++
		if d.index >= d.length+1 {
			d.state = crsfChecksum
		}
	case crsfChecksum:
		d.frame[d.index] = b
		d.index++
		raw, err := DecodeCRSF(d.frame[:d.index])
		d.reset()
		if err != nil {
			d.dropped++
			return Channels{}, false
		}
		return d.toPulses(raw), true
	}
	return Channels{}, false
}

func (d *CRSFDecoder) Dropped() int { return d.dropped }

func (d *CRSFDecoder) toPulses(raw Channels) Channels {
	var ch Channels
	for i, v := range raw {
		us := mathx.MapRange(float64(v), CRSFChannelMin, CRSFChannelMax, float64(d.MinPulse), float64(d.MaxPulse))
		ch[i] = uint16(math.Round(mathx.Constrain(us, 0, math.MaxUint16)))
	}
	return ch
}

// DecodeCRSF validates an RC channels frame and unpacks its sixteen 11-bit
// channels. Values are returned raw, in CRSF units.
func DecodeCRSF(frame []byte) (Channels, error) {
	var ch Channels
	if len(frame) != CRSFFrameSize || int(frame[1]) != CRSFFrameSize-2 {
		return ch, fmt.Errorf("crsf frame of %d bytes: %w", len(frame), ErrFrameLength)
	}
	if frame[2] != CRSFFrameTypeRCChannels {
		return ch, fmt.Errorf("crsf frame type %#x: %w", frame[2], ErrFrameType)
	}
	if got, want := CRC8(frame[2:CRSFFrameSize-1]), frame[CRSFFrameSize-1]; got != want {
		return ch, fmt.Errorf("crsf crc %#02x, frame says %#02x: %w", got, want, ErrChecksum)
	}

	bitstream := frame[3 : 3+crsfPayloadLen]
	var bitsMerged uint
	var value uint32
	var next int
	for n := 0; n < MaxChannels; n++ {
		for bitsMerged < 11 {
			value |= uint32(bitstream[next]) << bitsMerged
			next++
			bitsMerged += 8
		}
		ch[n] = uint16(value & 0x07FF)
		value >>= 11
		bitsMerged -= 11
	}
	return ch, nil
}

// EncodeCRSF packs sixteen raw 11-bit channel values into an RC channels frame.
func EncodeCRSF(raw Channels) [CRSFFrameSize]byte {
	var frame [CRSFFrameSize]byte
	frame[0] = CRSFFlightController
	frame[1] = CRSFFrameSize - 2
	frame[2] = CRSFFrameTypeRCChannels

	var bits uint
	var value uint32
	out := 3
	for _, v := range raw {
		value |= uint32(v&0x07FF) << bits
		bits += 11
		for bits >= 8 {
			frame[out] = byte(value)
			out++
			value >>= 8
			bits -= 8
		}
	}
	frame[CRSFFrameSize-1] = CRC8(frame[2 : CRSFFrameSize-1])
	return frame
}

// CRC8 is the CRC8-DVB-S2 used by CRSF, computed over type and payload.
func CRC8(data []byte) byte {
	crc := byte(0)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0xD5
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
