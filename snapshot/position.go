package snapshot

import (
	"fmt"

	"github.com/MeachamusPrime/Robosen-Transformers/joints"
)

// positionTrailer is the fixed trailing byte of an outbound SET_POSITION
// frame.
const positionTrailer = 0x28 // 40

// EncodePositionFrame renders the snapshot's current joint values as a
// 49-byte SET_POSITION payload: 48 slot bytes (27-47 reserved, written as
// zero) followed by the fixed trailer byte.
//
// Non-wheel joints encode as clamp(value) + bias, mod 256. Wheel joints are
// first reduced to their unsigned two's-complement byte before the bias is
// added, so a negative wheel speed and a positive bias still combine
// sensibly mod 256.
func EncodePositionFrame(s *Snapshot) []byte {
	out := make([]byte, joints.SlotCount+1)
	for _, d := range joints.Catalogue(s.Variant) {
		js := s.Joints[d.Label]
		clamped := int(d.Clamp(js.Value))
		if d.Wheel && clamped < 0 {
			clamped += 256
		}
		out[d.SlotIndex] = byte(mod256(clamped + int(js.Bias)))
	}
	out[joints.SlotCount] = positionTrailer
	return out
}

// EncodeLockFrame renders the snapshot's current lock flags as a 48-byte
// SET_LOCKS payload. Polarity is inverted from the natural reading: 0
// means locked, 1 means unlocked.
func EncodeLockFrame(s *Snapshot) []byte {
	out := make([]byte, joints.SlotCount)
	for _, d := range joints.Catalogue(s.Variant) {
		if !s.Joints[d.Label].Locked {
			out[d.SlotIndex] = 1
		}
	}
	return out
}

// DecodePositionFrame applies a 48-byte GET_POSITION (or ENTER_PROGRAMMING
// handshake) payload to the snapshot's joint values, inverting
// EncodePositionFrame's transform: subtract bias, sign-extend wheel slots
// from their 8-bit two's-complement representation, map a non-wheel result
// above the joint's maximum back to its negative value when that value is
// within range, then clamp to the joint's travel range.
func DecodePositionFrame(s *Snapshot, payload []byte) error {
	if len(payload) != joints.SlotCount {
		return fmt.Errorf("snapshot: position frame must be %d bytes, got %d", joints.SlotCount, len(payload))
	}
	for _, d := range joints.Catalogue(s.Variant) {
		js := s.Joints[d.Label]
		raw := mod256(int(payload[d.SlotIndex]) - int(js.Bias))
		if d.Wheel && raw > 127 {
			raw -= 256
		} else if !d.Wheel && float64(raw) > d.MaxDeg && float64(raw-256) >= d.MinDeg {
			// A negative joint value wrapped mod 256 on encode.
			raw -= 256
		}
		js.Value = d.Clamp(float64(raw))
	}
	return nil
}

// DecodeLockFrame applies a 48-byte SET_LOCKS/lock-state payload to the
// snapshot's lock flags, inverting EncodeLockFrame's polarity.
func DecodeLockFrame(s *Snapshot, payload []byte) error {
	if len(payload) != joints.SlotCount {
		return fmt.Errorf("snapshot: lock frame must be %d bytes, got %d", joints.SlotCount, len(payload))
	}
	for _, d := range joints.Catalogue(s.Variant) {
		s.Joints[d.Label].Locked = payload[d.SlotIndex] == 0
	}
	return nil
}

// LearnBias treats payload as a raw 48-byte position frame captured with
// every joint physically at its mechanical zero, and records the observed
// byte at each slot as that joint's bias for all future encode/decode
// calls — the first frame of the ENTER_PROGRAMMING handshake.
func LearnBias(s *Snapshot, payload []byte) error {
	if len(payload) != joints.SlotCount {
		return fmt.Errorf("snapshot: bias frame must be %d bytes, got %d", joints.SlotCount, len(payload))
	}
	for _, d := range joints.Catalogue(s.Variant) {
		s.Joints[d.Label].Bias = payload[d.SlotIndex]
	}
	s.BiasLearned = true
	return nil
}
