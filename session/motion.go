package session

import (
	"context"
	"time"

	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
)

func (s *Session) motion(ctx context.Context, op protocol.Opcode) error {
	s.lock()
	err := s.machine.BeginMotion()
	if err == nil {
		s.snap.Moving = true
	}
	s.unlock()
	if err != nil {
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: op.String(), Err: err}
	}
	return s.send(ctx, op, nil)
}

// Forward, TurnRight, StepRight, ReverseRight, Reverse, ReverseLeft,
// StepLeft and TurnLeft are the eight motion primitives, admissible from
// either form's Idle or Moving sub-state.
func (s *Session) Forward(ctx context.Context) error      { return s.motion(ctx, protocol.OpForward) }
func (s *Session) TurnRight(ctx context.Context) error    { return s.motion(ctx, protocol.OpTurnRight) }
func (s *Session) StepRight(ctx context.Context) error    { return s.motion(ctx, protocol.OpStepRight) }
func (s *Session) ReverseRight(ctx context.Context) error { return s.motion(ctx, protocol.OpReverseRight) }
func (s *Session) Reverse(ctx context.Context) error      { return s.motion(ctx, protocol.OpReverse) }
func (s *Session) ReverseLeft(ctx context.Context) error  { return s.motion(ctx, protocol.OpReverseLeft) }
func (s *Session) StepLeft(ctx context.Context) error     { return s.motion(ctx, protocol.OpStepLeft) }
func (s *Session) TurnLeft(ctx context.Context) error     { return s.motion(ctx, protocol.OpTurnLeft) }

// Stop issues the triple-STOP cancellation sequence: three STOP frames
// paced InterCommandPause apart. Admission is never gated (AdmitStop
// always succeeds), matching the original implementation's unconditional
// stop() — STOP is the escape hatch a caller can always reach for. Any of
// the three writes failing aborts the remaining ones and returns the
// first error; a caller recovering from a flaky link can simply call Stop
// again.
func (s *Session) Stop(ctx context.Context) error {
	for i := 0; i < 3; i++ {
		if err := s.send(ctx, protocol.OpStop, nil); err != nil {
			return err
		}
	}
	s.lock()
	s.machine.EndMotion()
	s.snap.Moving = false
	s.unlock()
	return nil
}

// Transform issues TRANSFORM, waits PostTransformSettle, then waits for
// the confirming GET_STATE that tells the session which form it landed
// in. If the confirmation never arrives within ReplyTimeout (or ctx is
// canceled first), the machine is left in StateTransforming rather than
// falling back to the pre-transform form: spec.md §7 requires leaving the
// state as mid-transform until a later GET_STATE resolves it, with no
// auto-recovery. AbortTransform is reserved for a failed TRANSFORM write or
// a failed post-write settle, before the confirmation wait begins.
func (s *Session) Transform(ctx context.Context) error {
	s.lock()
	err := s.machine.BeginTransform()
	s.unlock()
	if err != nil {
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "TRANSFORM", Err: err}
	}

	ch := s.registerWaiter(protocol.OpGetState)
	if err := s.send(ctx, protocol.OpTransform, nil); err != nil {
		s.lock()
		s.machine.AbortTransform()
		s.unlock()
		return err
	}
	if err := s.settle(ctx, s.cfg.PostTransformSettle); err != nil {
		s.lock()
		s.machine.AbortTransform()
		s.unlock()
		return err
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		// Per spec.md §7's Timeout row: leave the state as mid-transform
		// until the next GET_STATE arrives; do not auto-recover here.
		return &Error{Kind: ErrKindTimeout, Op: "TRANSFORM", Err: ctx.Err()}
	case <-time.After(s.cfg.ReplyTimeout):
		return &Error{Kind: ErrKindTimeout, Op: "TRANSFORM", Err: context.DeadlineExceeded}
	}
}
