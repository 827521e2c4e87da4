package protocol

import (
	"errors"
	"fmt"
)

// preamble is the two-byte marker every frame starts with.
var preamble = [2]byte{0xFF, 0xFF}

// MaxPayloadLen is the largest value the single LEN byte can carry; Encode
// rejects any payload longer than MaxPayloadLen-2.
const MaxPayloadLen = 255

// ErrBadPreamble is returned when a frame does not begin with FF FF.
var ErrBadPreamble = errors.New("protocol: bad preamble")

// ErrBadChecksum is returned when a frame's trailing checksum byte does not
// match the computed checksum of its length, opcode and payload.
var ErrBadChecksum = errors.New("protocol: bad checksum")

// Frame is one decoded length-prefixed, checksummed message.
type Frame struct {
	Opcode  Opcode
	Payload []byte
}

func checksum(length, opcode byte, payload []byte) byte {
	sum := int(length) + int(opcode)
	for _, b := range payload {
		sum += int(b)
	}
	return byte(sum % 256)
}

// Encode renders opcode and payload as FF FF LEN OPCODE PAYLOAD CSUM, where
// LEN is len(payload)+2. Encode panics if payload is longer than the wire
// format's length byte can express; callers never construct payloads that
// large from this module's own opcode tables.
func Encode(opcode Opcode, payload []byte) []byte {
	if len(payload) > MaxPayloadLen-2 {
		panic(fmt.Sprintf("protocol: payload too long: %d bytes", len(payload)))
	}
	length := byte(len(payload) + 2)
	out := make([]byte, 0, 4+len(payload))
	out = append(out, preamble[0], preamble[1], length, byte(opcode))
	out = append(out, payload...)
	out = append(out, checksum(length, byte(opcode), payload))
	return out
}

// Decode parses exactly one frame from the front of data, returning the
// frame, the number of bytes consumed, and any error. It returns
// (Frame{}, 0, nil) when data does not yet contain a complete frame — the
// caller should buffer more bytes and retry.
func Decode(data []byte) (Frame, int, error) {
	if len(data) < 2 {
		return Frame{}, 0, nil
	}
	if data[0] != preamble[0] || data[1] != preamble[1] {
		return Frame{}, 0, ErrBadPreamble
	}
	if len(data) < 3 {
		return Frame{}, 0, nil
	}
	length := data[2]
	if length < 2 {
		return Frame{}, 0, fmt.Errorf("protocol: length byte %d below minimum 2", length)
	}
	total := 3 + int(length)
	if len(data) < total {
		return Frame{}, 0, nil
	}
	opcode := data[3]
	payload := data[4 : total-1]
	want := data[total-1]
	got := checksum(length, opcode, payload)
	if got != want {
		return Frame{}, 0, ErrBadChecksum
	}
	payloadCopy := make([]byte, len(payload))
	copy(payloadCopy, payload)
	return Frame{Opcode: Opcode(opcode), Payload: payloadCopy}, total, nil
}

// Decoder accumulates bytes arriving from a streaming transport (e.g. a
// sequence of BLE notifications) and yields complete frames as they become
// available, tolerating payloads split arbitrarily across writes.
type Decoder struct {
	buf []byte
}

// NewDecoder returns a Decoder with an empty backlog.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Push appends newly-received bytes and returns every frame that can be
// fully decoded from the accumulated backlog so far. A bad preamble or bad
// checksum drops the one malformed byte and resumes scanning from the next
// byte, so one corrupt frame never wedges the decoder against frames that
// follow it on the wire.
func (d *Decoder) Push(data []byte) ([]Frame, error) {
	d.buf = append(d.buf, data...)
	var frames []Frame
	var firstErr error
	for len(d.buf) > 0 {
		frame, n, err := Decode(d.buf)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			d.buf = d.buf[1:]
			continue
		}
		if n == 0 {
			break
		}
		frames = append(frames, frame)
		d.buf = d.buf[n:]
	}
	return frames, firstErr
}

// Reset discards any buffered partial frame.
func (d *Decoder) Reset() {
	d.buf = nil
}
