package rc

import (
	"encoding/binary"
	"fmt"
)

// FlySky iBus framing.
const (
	IBusHeader1   = 0x20
	IBusHeader2   = 0x40
	IBusChannels  = 14
	IBusFrameSize = 2 + IBusChannels*2 + 2
)

type ibusState int

const (
	waitingForHeader1 ibusState = iota
	waitingForHeader2
	readingPayload
	readingChecksumLow
	readingChecksumHigh
)

// IBusDecoder is the byte-wise iBus state machine.
type IBusDecoder struct {
	state   ibusState
	frame   [IBusFrameSize]byte
	index   int
	dropped int
}

func NewIBusDecoder() *IBusDecoder {
	return &IBusDecoder{}
}

func (d *IBusDecoder) Feed(b byte) (Channels, bool) {
	switch d.state {
	case waitingForHeader1:
		if b == IBusHeader1 {
			d.frame[0] = b
			d.state = waitingForHeader2
		}
	case waitingForHeader2:
		if b == IBusHeader2 {
			d.frame[1] = b
			d.index = 2
			d.state = readingPayload
		} else {
			d.state = waitingForHeader1
		}
	case readingPayload:
		d.frame[d.index] = b
		d.index++
		if d.index >= IBusFrameSize-2 {
			d.state = readingChecksumLow
		}
	case readingChecksumLow:
		d.frame[d.index] = b
		d.index++
		d.state = readingChecksumHigh
	case readingChecksumHigh:
		d.frame[d.index] = b
		d.state = waitingForHeader1
		d.index = 0
		ch, err := DecodeIBus(d.frame[:])
		if err != nil {
			d.dropped++
			return Channels{}, false
		}
		return ch, true
	}
	return Channels{}, false
}

func (d *IBusDecoder) Dropped() int { return d.dropped }

// DecodeIBus validates a complete frame and extracts its little-endian channels.
func DecodeIBus(frame []byte) (Channels, error) {
	var ch Channels
	if len(frame) != IBusFrameSize {
		return ch, fmt.Errorf("ibus frame of %d bytes: %w", len(frame), ErrFrameLength)
	}
	if frame[0] != IBusHeader1 || frame[1] != IBusHeader2 {
		return ch, fmt.Errorf("ibus header %#x %#x: %w", frame[0], frame[1], ErrFrameType)
	}
	want := binary.LittleEndian.Uint16(frame[IBusFrameSize-2:])
	if got := IBusChecksum(frame[:IBusFrameSize-2]); got != want {
		return ch, fmt.Errorf("ibus checksum %#04x, frame says %#04x: %w", got, want, ErrChecksum)
	}
	for i := 0; i < IBusChannels; i++ {
		ch[i] = binary.LittleEndian.Uint16(frame[2+2*i:])
	}
	return ch, nil
}

// IBusChecksum is 0xFFFF minus the sum of every byte before the checksum.
func IBusChecksum(data []byte) uint16 {
	sum := uint16(0xFFFF)
	for _, b := range data {
		sum -= uint16(b)
	}
	return sum
}

// EncodeIBus builds a frame from the first IBusChannels channels.
func EncodeIBus(ch Channels) [IBusFrameSize]byte {
	var frame [IBusFrameSize]byte
	frame[0] = IBusHeader1
	frame[1] = IBusHeader2
	for i := 0; i < IBusChannels; i++ {
		binary.LittleEndian.PutUint16(frame[2+2*i:], ch[i])
	}
	binary.LittleEndian.PutUint16(frame[IBusFrameSize-2:], IBusChecksum(frame[:IBusFrameSize-2]))
	return frame
}
