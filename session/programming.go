package session

import (
	"context"
	"fmt"
	"time"

	"github.com/MeachamusPrime/Robosen-Transformers/joints"
	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
	"github.com/MeachamusPrime/Robosen-Transformers/snapshot"
)

// EnterProgramming runs the three-phase ENTER_PROGRAMMING handshake: the
// robot replies with a bias-table frame, a vehicle-snapshot frame and a
// humanoid-snapshot frame (applied by the ingester as they arrive), then
// the session settles PostProgrammingSettle and issues a follow-up
// GET_POSITION. Dinobot and Decepticon firmware ignores this opcode
// entirely, so for those variants this is a documented no-op rather than
// an error — matching the original implementation, which only defines
// prog_init/prog_exit for the Optimus Prime platform.
func (s *Session) EnterProgramming(ctx context.Context) error {
	if s.variant != joints.VariantAutobotHumanoid {
		return nil
	}

	s.lock()
	err := s.machine.BeginProgramming()
	s.unlock()
	if err != nil {
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "ENTER_PROGRAMMING", Err: err}
	}

	// Register all three handshake waiters before writing: the firmware
	// can deliver all three notifications in a tight burst, faster than
	// this call can loop send-then-register, so every waiter needs to
	// already be in line. handleNotification matches frames to waiters in
	// registration order, so the three channels resolve in the same order
	// the handshake frames arrive in.
	chs := [3]chan protocol.Frame{}
	for i := range chs {
		chs[i] = s.registerWaiter(protocol.OpEnterProgramming)
	}
	if err := s.send(ctx, protocol.OpEnterProgramming, nil); err != nil {
		return err
	}
	for i, ch := range chs {
		select {
		case <-ch:
		case <-ctx.Done():
			return &Error{Kind: ErrKindTimeout, Op: "ENTER_PROGRAMMING", Err: ctx.Err()}
		case <-time.After(s.cfg.ReplyTimeout):
			return &Error{Kind: ErrKindTimeout, Op: "ENTER_PROGRAMMING", Err: fmt.Errorf("handshake frame %d of 3 never arrived", i+1)}
		}
	}

	if err := s.settle(ctx, s.cfg.PostProgrammingSettle); err != nil {
		return err
	}
	_, err = s.query(ctx, protocol.OpGetPosition, nil)
	return err
}

// ExitProgramming leaves programming mode. A no-op for variants that
// never entered it.
func (s *Session) ExitProgramming(ctx context.Context) error {
	if s.variant != joints.VariantAutobotHumanoid {
		return nil
	}
	if _, err := s.query(ctx, protocol.OpExitProgramming, nil); err != nil {
		return err
	}
	s.lock()
	err := s.machine.EndProgramming()
	s.unlock()
	if err != nil {
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "EXIT_PROGRAMMING", Err: err}
	}
	return nil
}

// SetPosition applies values (joint label -> target degrees) to the
// in-memory snapshot and writes the resulting 49-byte position frame.
// Requires a learned bias table (the first ENTER_PROGRAMMING handshake
// frame) and programming mode.
func (s *Session) SetPosition(ctx context.Context, values map[string]float64) error {
	s.lock()
	if err := s.machine.AdmitProgrammingCommand(); err != nil {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "SET_POSITION", Err: err}
	}
	if !s.snap.BiasLearned {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindBiasNotLearned, Op: "SET_POSITION"}
	}
	for label, v := range values {
		if js, ok := s.snap.Joints[label]; ok {
			js.Value = v
		}
	}
	payload := snapshot.EncodePositionFrame(s.snap)
	s.unlock()
	return s.send(ctx, protocol.OpSetPosition, payload)
}

// Positions re-queries GET_POSITION and returns every joint's current
// value by label.
func (s *Session) Positions(ctx context.Context) (map[string]float64, error) {
	if _, err := s.query(ctx, protocol.OpGetPosition, nil); err != nil {
		return nil, err
	}
	s.lock()
	defer s.unlock()
	out := make(map[string]float64, len(s.snap.Joints))
	for label, js := range s.snap.Joints {
		out[label] = js.Value
	}
	return out, nil
}

// SpinWheel sets a wheel pair's speed (right wheel forward, left wheel
// mirrored) and writes the resulting full SET_POSITION frame: the vendor
// protocol has no dedicated spin-wheel opcode, it reuses SET_POSITION with
// only the wheel slots changed. Unlocks both wheels first, matching the
// original implementation's spin_wheel, which always clears their locks
// before writing the new speed.
func (s *Session) SpinWheel(ctx context.Context, rightLabel, leftLabel string, speedDeg float64) error {
	s.lock()
	if err := s.machine.AdmitProgrammingCommand(); err != nil {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "SPIN_WHEEL", Err: err}
	}
	right, ok := joints.ByLabel(s.variant, rightLabel)
	if !ok || !right.Wheel {
		s.unlock()
		return fmt.Errorf("session: %q is not a wheel joint on %s", rightLabel, s.variant)
	}
	left, ok := joints.ByLabel(s.variant, leftLabel)
	if !ok || !left.Wheel {
		s.unlock()
		return fmt.Errorf("session: %q is not a wheel joint on %s", leftLabel, s.variant)
	}
	s.snap.Joints[rightLabel].Locked = false
	s.snap.Joints[leftLabel].Locked = false
	s.snap.Joints[rightLabel].Value = speedDeg
	s.snap.Joints[leftLabel].Value = -speedDeg
	payload := snapshot.EncodePositionFrame(s.snap)
	s.unlock()
	return s.send(ctx, protocol.OpSetPosition, payload)
}

// MoveServo sets one joint's value and writes the resulting full
// SET_POSITION frame. Programming-only.
func (s *Session) MoveServo(ctx context.Context, label string, valueDeg float64) error {
	s.lock()
	if err := s.machine.AdmitProgrammingCommand(); err != nil {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "MOVE_SERVO", Err: err}
	}
	if _, ok := joints.ByLabel(s.variant, label); !ok {
		s.unlock()
		return fmt.Errorf("session: unknown joint %q on %s", label, s.variant)
	}
	s.snap.Joints[label].Value = valueDeg
	payload := snapshot.EncodePositionFrame(s.snap)
	s.unlock()
	return s.send(ctx, protocol.OpSetPosition, payload)
}

// SetLocks applies per-joint lock overrides and writes the resulting
// 48-byte SET_LOCKS frame. Programming-only.
func (s *Session) SetLocks(ctx context.Context, locks map[string]bool) error {
	s.lock()
	if err := s.machine.AdmitProgrammingCommand(); err != nil {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "SET_LOCKS", Err: err}
	}
	for label, locked := range locks {
		if js, ok := s.snap.Joints[label]; ok {
			js.Locked = locked
		}
	}
	payload := snapshot.EncodeLockFrame(s.snap)
	s.unlock()
	return s.send(ctx, protocol.OpLocks, payload)
}

// UnlockAll and LockAll set every joint's lock flag and write the
// whole-robot convenience opcode. Programming-only.
func (s *Session) UnlockAll(ctx context.Context) error {
	s.lock()
	if err := s.machine.AdmitProgrammingCommand(); err != nil {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "UNLOCK_ALL", Err: err}
	}
	for _, js := range s.snap.Joints {
		js.Locked = false
	}
	s.unlock()
	return s.send(ctx, protocol.OpUnlockAll, nil)
}

func (s *Session) LockAll(ctx context.Context) error {
	s.lock()
	if err := s.machine.AdmitProgrammingCommand(); err != nil {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "LOCK_ALL", Err: err}
	}
	for _, js := range s.snap.Joints {
		js.Locked = true
	}
	s.unlock()
	return s.send(ctx, protocol.OpLockAll, nil)
}
