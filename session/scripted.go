package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/MeachamusPrime/Robosen-Transformers/joints"
	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
	"github.com/MeachamusPrime/Robosen-Transformers/snapshot"
)

// meleeTable, shootTable and randomActionTable map a melee, shoot or
// random-action request to a variant- and form-specific EXECUTE_FILE path, per
// the original implementation's melee/shoot/random_action functions
// (keyed there by platform and by whether the robot is currently in
// humanoid or vehicle form — the two forms of the same variant use
// different built-in clips).
var (
	meleeTable = map[joints.Variant]map[bool]string{
		joints.VariantAutobotHumanoid:    {true: "SysAction/Sword", false: "RobotAction/Autobots"},
		joints.VariantDinobot:            {true: "SysAction/Hammer", false: "Action/Autobots"},
		joints.VariantDecepticonHumanoid: {true: "SysAction/Sword", false: "RobotAction/Autobots"},
	}
	shootTable = map[joints.Variant]map[bool]string{
		joints.VariantAutobotHumanoid:    {true: "SysAction/Shoot", false: "RobotAction/Autobots"},
		joints.VariantDecepticonHumanoid: {true: "SysAction/Shoot", false: "RobotAction/Autobots"},
	}
	randomActionTable = map[joints.Variant]map[bool]string{
		joints.VariantAutobotHumanoid:    {true: "SysAction/Cute", false: "SysAction/Flameout"},
		joints.VariantDinobot:            {true: "SysAction/Cute", false: "SysAction/Flameout"},
		joints.VariantDecepticonHumanoid: {true: "SysAction/Cute", false: "SysAction/Flameout"},
	}
)

// errorAnnouncePath is the well-known EXECUTE_FILE path the original
// implementation's RobotFunctions.announce_error dispatches on any illegal
// command, regardless of variant.
const errorAnnouncePath = "IJustWantHimToComplainHere"

// announceError dispatches the error-announce scripted action, per
// spec.md §4.F/§7: every command rejected as Inadmissible or
// BiasNotLearned fires this, leaving the snapshot otherwise untouched.
// It writes EXECUTE_FILE directly rather than going through ExecuteFile,
// since the latter is itself gated by BeginScriptedAction and this must
// fire even when a scripted action is already admissible-blocked —
// mirroring RobotFunctions.announce_error, which calls execute_file
// directly rather than through any IRobot admission check. Failures are
// logged, not propagated: they must never shadow the original rejection.
func (s *Session) announceError(ctx context.Context) {
	if err := s.send(ctx, protocol.OpExecuteFile, []byte(errorAnnouncePath)); err != nil {
		s.logger.Warnw("failed to dispatch error-announce scripted action", "err", err)
	}
}

// ExecuteFile requests the robot run a scripted action at path. Admissible
// from any non-moving, non-acting, non-transforming sub-state (Idle or
// Programming, either form) — path is passed through opaquely, per
// spec.md's filesystem-access non-goal.
func (s *Session) ExecuteFile(ctx context.Context, path string) error {
	s.lock()
	if err := s.machine.BeginScriptedAction(); err != nil {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "EXECUTE_FILE", Err: err}
	}
	s.snap.Acting = true
	s.unlock()
	return s.send(ctx, protocol.OpExecuteFile, []byte(path))
}

// BuiltInAction requests built-in action id, with an optional sub-index
// (e.g. change_speed's slow/fast selector).
func (s *Session) BuiltInAction(ctx context.Context, id byte, sub *byte) error {
	s.lock()
	if err := s.machine.BeginScriptedAction(); err != nil {
		s.unlock()
		s.announceError(ctx)
		return &Error{Kind: ErrKindInadmissible, Op: "BUILT_IN_ACTION", Err: err}
	}
	s.snap.Acting = true
	s.unlock()
	payload := []byte{id}
	if sub != nil {
		payload = append(payload, *sub)
	}
	return s.send(ctx, protocol.OpBuiltInAction, payload)
}

func (s *Session) dispatchScripted(ctx context.Context, name string, table map[joints.Variant]map[bool]string) error {
	s.lock()
	humanoid := s.snap.RobotMode
	s.unlock()
	forms, ok := table[s.variant]
	if !ok {
		return fmt.Errorf("session: %s not defined for %s", name, s.variant)
	}
	path, ok := forms[humanoid]
	if !ok {
		return fmt.Errorf("session: %s not defined for %s in this form", name, s.variant)
	}
	return s.ExecuteFile(ctx, path)
}

// Melee, Shoot and RandomAction dispatch the variant- and form-specific
// scripted clip.
func (s *Session) Melee(ctx context.Context) error       { return s.dispatchScripted(ctx, "melee", meleeTable) }
func (s *Session) Shoot(ctx context.Context) error        { return s.dispatchScripted(ctx, "shoot", shootTable) }
func (s *Session) RandomAction(ctx context.Context) error { return s.dispatchScripted(ctx, "random_action", randomActionTable) }

// ChangeSpeed toggles fast/slow drive mode. Gated to vehicle form and to
// variants other than the Autobot — the original implementation
// special-cases Optimus Prime out of this command.
func (s *Session) ChangeSpeed(ctx context.Context, fast bool) error {
	if s.variant == joints.VariantAutobotHumanoid {
		return fmt.Errorf("session: change_speed is not supported on %s", s.variant)
	}
	s.lock()
	humanoid := s.snap.RobotMode
	s.unlock()
	if humanoid {
		return fmt.Errorf("session: change_speed requires vehicle form")
	}
	sub := byte(0)
	if fast {
		sub = 1
	}
	return s.BuiltInAction(ctx, 3, &sub)
}

// Horn1 and Horn2 are the Autobot vehicle form's horn commands, debounced
// to one trigger per HornCooldown — the original tracks a horn_time
// timestamp and re-fires STEP_LEFT/STEP_RIGHT only once that window has
// elapsed, overriding its Vehicle class's usual step handling for the
// Optimus Prime platform specifically.
func (s *Session) Horn1(ctx context.Context) error { return s.horn(ctx, "horn1", protocol.OpStepLeft) }
func (s *Session) Horn2(ctx context.Context) error { return s.horn(ctx, "horn2", protocol.OpStepRight) }

func (s *Session) horn(ctx context.Context, key string, op protocol.Opcode) error {
	if s.variant != joints.VariantAutobotHumanoid {
		return fmt.Errorf("session: horn commands are Autobot-only")
	}
	s.lock()
	humanoid := s.snap.RobotMode
	last, seen := s.hornLast[key]
	s.unlock()
	if humanoid {
		return fmt.Errorf("session: horn commands require vehicle form")
	}
	if seen && time.Since(last) < s.cfg.HornCooldown {
		return nil
	}
	s.lock()
	s.hornLast[key] = time.Now()
	s.unlock()
	return s.send(ctx, op, nil)
}

// ReadDirectory requests a directory listing and returns the entries the
// ingester parsed from the response. path is passed through opaquely.
func (s *Session) ReadDirectory(ctx context.Context, path string) ([]string, error) {
	if _, err := s.query(ctx, protocol.OpReadDirectory, []byte(path)); err != nil {
		return nil, err
	}
	s.lock()
	defer s.unlock()
	out := make([]string, len(s.snap.LastDirectory))
	copy(out, s.snap.LastDirectory)
	return out, nil
}

// EnterUSBMode is a terminal session operation: it writes the opcode then
// tears down the transport, handing the robot off to a wired USB flashing
// flow that is entirely out of this module's scope.
func (s *Session) EnterUSBMode(ctx context.Context) error {
	if err := s.send(ctx, protocol.OpEnterUSBMode, nil); err != nil {
		return err
	}
	return s.transport.Close(ctx)
}

// Shutdown requests the robot power off.
func (s *Session) Shutdown(ctx context.Context) error {
	return s.send(ctx, protocol.OpShutdown, nil)
}

// Close issues the triple-STOP sequence and tears down the transport,
// combining any failures from either step.
func (s *Session) Close(ctx context.Context) error {
	s.lock()
	if s.closed {
		s.unlock()
		return nil
	}
	s.closed = true
	s.unlock()

	stopErr := s.Stop(ctx)
	closeErr := s.transport.Close(ctx)
	return multierr.Combine(stopErr, closeErr)
}

// StepTween advances tw by one tick and writes the resulting position
// frame, returning whether the tween has more ticks remaining. Callers
// drive the tween loop themselves — this module schedules no background
// goroutine for it, consistent with the no-autonomous-trajectory-planning
// non-goal.
func (s *Session) StepTween(ctx context.Context, tw *snapshot.Tween) (bool, error) {
	s.lock()
	more := tw.Step(s.snap)
	payload := snapshot.EncodePositionFrame(s.snap)
	s.unlock()
	if err := s.send(ctx, protocol.OpSetPosition, payload); err != nil {
		return more, err
	}
	return more, nil
}
