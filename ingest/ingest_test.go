package ingest

import (
	"testing"

	"github.com/MeachamusPrime/Robosen-Transformers/joints"
	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
	"github.com/MeachamusPrime/Robosen-Transformers/snapshot"
	"go.viam.com/test"
)

func flatFrame(opcode protocol.Opcode, fill byte) protocol.Frame {
	payload := make([]byte, joints.SlotCount)
	for i := range payload {
		payload[i] = fill
	}
	return protocol.Frame{Opcode: opcode, Payload: payload}
}

func TestEnterProgrammingThreePhaseHandshake(t *testing.T) {
	s := snapshot.New(joints.VariantAutobotHumanoid)
	in := New()

	msg, err := in.Apply(s, flatFrame(protocol.OpEnterProgramming, 0x10))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msg, test.ShouldEqual, "bias table learned")
	test.That(t, s.BiasLearned, test.ShouldBeTrue)
	test.That(t, s.ProgrammingMode, test.ShouldBeTrue)
	test.That(t, in.Phase(), test.ShouldEqual, HandshakeAwaitingVehicleSnapshot)

	msg, err = in.Apply(s, flatFrame(protocol.OpEnterProgramming, 0x20))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msg, test.ShouldEqual, "vehicle snapshot learned")
	test.That(t, s.VehicleSnapshot, test.ShouldNotBeNil)
	test.That(t, in.Phase(), test.ShouldEqual, HandshakeAwaitingHumanoidSnapshot)

	msg, err = in.Apply(s, flatFrame(protocol.OpEnterProgramming, 0x30))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msg, test.ShouldEqual, "humanoid snapshot learned")
	test.That(t, s.HumanoidSnapshot, test.ShouldNotBeNil)
	test.That(t, in.Phase(), test.ShouldEqual, HandshakeComplete)

	// A fourth frame in the same session is ignored: the phase and saved
	// snapshots don't change.
	before := s.HumanoidSnapshot
	msg, err = in.Apply(s, flatFrame(protocol.OpEnterProgramming, 0x99))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msg, test.ShouldEqual, "handshake already complete, frame ignored")
	test.That(t, s.HumanoidSnapshot, test.ShouldResemble, before)
	test.That(t, in.Phase(), test.ShouldEqual, HandshakeComplete)
}

func TestExitProgrammingResetsHandshake(t *testing.T) {
	s := snapshot.New(joints.VariantAutobotHumanoid)
	in := New()
	_, _ = in.Apply(s, flatFrame(protocol.OpEnterProgramming, 0))
	_, _ = in.Apply(s, flatFrame(protocol.OpEnterProgramming, 0))
	_, _ = in.Apply(s, flatFrame(protocol.OpEnterProgramming, 0))
	test.That(t, in.Phase(), test.ShouldEqual, HandshakeComplete)

	_, err := in.Apply(s, protocol.Frame{Opcode: protocol.OpExitProgramming})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.ProgrammingMode, test.ShouldBeFalse)
	test.That(t, in.Phase(), test.ShouldEqual, HandshakeIdle)
}

func TestApplyGetState(t *testing.T) {
	s := snapshot.New(joints.VariantDinobot)
	in := New()
	_, err := in.Apply(s, protocol.Frame{Opcode: protocol.OpGetState, Payload: []byte{0, 73, 0, 0, 0, 1}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.RobotMode, test.ShouldBeTrue)
	test.That(t, s.FastMode, test.ShouldBeTrue)
	test.That(t, s.BatteryPercent, test.ShouldEqual, 73)
}

func TestApplyGetStateTooShort(t *testing.T) {
	s := snapshot.New(joints.VariantDinobot)
	in := New()
	_, err := in.Apply(s, protocol.Frame{Opcode: protocol.OpGetState, Payload: []byte{1}})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestApplyActionCompleteClearsActing(t *testing.T) {
	s := snapshot.New(joints.VariantAutobotHumanoid)
	s.Moving = true
	s.Acting = true
	in := New()
	_, err := in.Apply(s, protocol.Frame{Opcode: protocol.OpActionComplete})
	test.That(t, err, test.ShouldBeNil)
	// ACTION_COMPLETE only clears acting; Moving is STOP's concern, not this
	// opcode's, per spec.md §4.E.
	test.That(t, s.Moving, test.ShouldBeTrue)
	test.That(t, s.Acting, test.ShouldBeFalse)
}

func TestApplyActionProgressClearsActingAt100(t *testing.T) {
	s := snapshot.New(joints.VariantAutobotHumanoid)
	s.Acting = true
	in := New()

	_, err := in.Apply(s, protocol.Frame{Opcode: protocol.OpActionProgress, Payload: []byte{40}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.ActingProgress, test.ShouldEqual, 40)
	test.That(t, s.Acting, test.ShouldBeTrue)

	_, err = in.Apply(s, protocol.Frame{Opcode: protocol.OpExecuteFile, Payload: []byte{100}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.ActingProgress, test.ShouldEqual, 100)
	test.That(t, s.Acting, test.ShouldBeFalse)
}

func TestApplyReadDirectorySplitsEntries(t *testing.T) {
	s := snapshot.New(joints.VariantAutobotHumanoid)
	in := New()
	payload := append(append([]byte("SysAction"), 0), []byte("RobotAction")...)
	_, err := in.Apply(s, protocol.Frame{Opcode: protocol.OpReadDirectory, Payload: payload})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.LastDirectory, test.ShouldResemble, []string{"SysAction", "RobotAction"})
}

// Mirrors spec.md §8 scenario 2: a truncated byte stream is decoded by the
// protocol layer first, then whatever complete frames resulted are applied
// in order; a partial trailing frame produces no ingest call at all.
func TestTruncatedStreamYieldsOnlyCompleteFrames(t *testing.T) {
	whole := protocol.Encode(protocol.OpGetState, []byte{0, 88})
	d := protocol.NewDecoder()
	frames, err := d.Push(whole[:len(whole)-1])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 0)

	frames, err = d.Push(whole[len(whole)-1:])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 1)

	s := snapshot.New(joints.VariantAutobotHumanoid)
	in := New()
	_, err = in.Apply(s, frames[0])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.BatteryPercent, test.ShouldEqual, 88)
}
