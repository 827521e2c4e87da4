// Package ingest applies decoded protocol frames arriving as BLE
// notifications to a robot snapshot, including the stateful three-phase
// ENTER_PROGRAMMING handshake.
package ingest

import (
	"fmt"

	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
	"github.com/MeachamusPrime/Robosen-Transformers/snapshot"
)

// HandshakePhase tracks how many ENTER_PROGRAMMING frames this session has
// seen. It lives on the Ingester, not on the snapshot, because it is
// session bookkeeping rather than robot state: unlike the original
// implementation's per-call local counter (which only works if all three
// handshake frames arrive inside one batch), this counter persists across
// every notification delivered to the session until an EXIT_PROGRAMMING
// notification resets it (see ResetHandshake).
type HandshakePhase int

const (
	HandshakeIdle HandshakePhase = iota
	HandshakeAwaitingVehicleSnapshot
	HandshakeAwaitingHumanoidSnapshot
	HandshakeComplete
)

// Ingester owns the session-persistent decode state (the handshake phase
// counter) and applies every incoming frame to a snapshot.
type Ingester struct {
	phase HandshakePhase
}

// New returns an Ingester with the handshake phase reset to idle.
func New() *Ingester {
	return &Ingester{phase: HandshakeIdle}
}

// Phase reports the current ENTER_PROGRAMMING handshake phase.
func (in *Ingester) Phase() HandshakePhase {
	return in.phase
}

// ResetHandshake returns the ingester to HandshakeIdle, called when
// ExitProgramming completes so a later ENTER_PROGRAMMING starts its own
// fresh three-phase sequence.
func (in *Ingester) ResetHandshake() {
	in.phase = HandshakeIdle
}

// Apply mutates s according to frame, returning a human-readable summary of
// what changed (for logging) or an error if the frame could not be
// interpreted in the snapshot's current state.
func (in *Ingester) Apply(s *snapshot.Snapshot, frame protocol.Frame) (string, error) {
	switch frame.Opcode {
	case protocol.OpEnterProgramming:
		return in.applyEnterProgramming(s, frame.Payload)

	case protocol.OpGetPosition:
		if err := snapshot.DecodePositionFrame(s, frame.Payload); err != nil {
			return "", err
		}
		return "position updated", nil

	case protocol.OpLocks, protocol.OpUnlockAll, protocol.OpLockAll:
		if err := snapshot.DecodeLockFrame(s, frame.Payload); err != nil {
			return "", err
		}
		return "locks updated", nil

	case protocol.OpExitProgramming:
		s.ProgrammingMode = false
		in.ResetHandshake()
		return "exited programming mode", nil

	case protocol.OpActionComplete:
		s.Acting = false
		return "action complete", nil

	case protocol.OpActionProgress, protocol.OpExecuteFile:
		return applyActionProgress(s, frame.Payload)

	case protocol.OpGetState:
		return applyGetState(s, frame.Payload)

	case protocol.OpReadDirectory:
		s.LastDirectory = splitASCIIEntries(frame.Payload)
		return "directory listing", nil

	default:
		return "", nil
	}
}

// applyEnterProgramming drives the three-phase handshake: the first
// ENTER_PROGRAMMING notification is a bias table applied to the snapshot's
// live joints and both saved poses, the second is the vehicle-form
// snapshot, the third is the humanoid-form snapshot. A fourth or later
// frame in the same session is ignored.
func (in *Ingester) applyEnterProgramming(s *snapshot.Snapshot, payload []byte) (string, error) {
	switch in.phase {
	case HandshakeIdle:
		if err := snapshot.LearnBias(s, payload); err != nil {
			return "", err
		}
		s.ProgrammingMode = true
		in.phase = HandshakeAwaitingVehicleSnapshot
		return "bias table learned", nil

	case HandshakeAwaitingVehicleSnapshot:
		pose, err := decodeRawPose(s, payload)
		if err != nil {
			return "", err
		}
		s.VehicleSnapshot = pose
		in.phase = HandshakeAwaitingHumanoidSnapshot
		return "vehicle snapshot learned", nil

	case HandshakeAwaitingHumanoidSnapshot:
		pose, err := decodeRawPose(s, payload)
		if err != nil {
			return "", err
		}
		s.HumanoidSnapshot = pose
		in.phase = HandshakeComplete
		return "humanoid snapshot learned", nil

	default:
		return "handshake already complete, frame ignored", nil
	}
}

// decodeRawPose decodes payload into a label->degrees map without mutating
// the snapshot's live joint values, used for the handshake's saved-pose
// frames which describe a form the robot is not currently in.
func decodeRawPose(s *snapshot.Snapshot, payload []byte) (map[string]float64, error) {
	scratch := snapshot.New(s.Variant)
	for label, js := range s.Joints {
		scratch.Joints[label].Bias = js.Bias
	}
	if err := snapshot.DecodePositionFrame(scratch, payload); err != nil {
		return nil, err
	}
	pose := make(map[string]float64, len(scratch.Joints))
	for label, js := range scratch.Joints {
		pose[label] = js.Value
	}
	return pose, nil
}

// applyActionProgress handles the shared echo shape of ACTION_PROGRESS and
// the inbound form of EXECUTE_FILE: a non-empty payload's first byte is the
// percent complete, and reaching 100 clears acting the same way
// ACTION_COMPLETE does.
func applyActionProgress(s *snapshot.Snapshot, payload []byte) (string, error) {
	if len(payload) == 0 {
		return "action progress (empty)", nil
	}
	s.ActingProgress = int(payload[0])
	if s.ActingProgress == 100 {
		s.Acting = false
	}
	return "action progress", nil
}

// applyGetState decodes a GET_STATE payload per spec.md §4.E: robot mode and
// battery percent need only the first two bytes; fast mode is only present
// on the longer six-byte form of the notification.
func applyGetState(s *snapshot.Snapshot, payload []byte) (string, error) {
	if len(payload) < 2 {
		return "", fmt.Errorf("ingest: GET_STATE payload too short: %d bytes", len(payload))
	}
	s.RobotMode = payload[0] == 0
	s.BatteryPercent = int(payload[1])
	if len(payload) >= 6 {
		s.FastMode = payload[5] == 1
	}
	return "state updated", nil
}

// splitASCIIEntries splits a READ_DIRECTORY payload of NUL-separated ASCII
// entries into a string slice, dropping any trailing empty entry.
func splitASCIIEntries(payload []byte) []string {
	var entries []string
	start := 0
	for i, b := range payload {
		if b == 0 {
			if i > start {
				entries = append(entries, string(payload[start:i]))
			}
			start = i + 1
		}
	}
	if start < len(payload) {
		entries = append(entries, string(payload[start:]))
	}
	return entries
}
