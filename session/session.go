// Package session ties the protocol, joints, snapshot, ingest, fsm and
// transport packages together into one robot connection: the startup
// probe, one method per user intent, and the pacing/cancellation rules
// spec.md's concurrency model requires.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	goutils "go.viam.com/utils"

	"github.com/MeachamusPrime/Robosen-Transformers/fsm"
	"github.com/MeachamusPrime/Robosen-Transformers/ingest"
	"github.com/MeachamusPrime/Robosen-Transformers/joints"
	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
	"github.com/MeachamusPrime/Robosen-Transformers/snapshot"
	"github.com/MeachamusPrime/Robosen-Transformers/transport"
)

type waiter struct {
	opcode protocol.Opcode
	ch     chan protocol.Frame
}

// Session is one live connection to one robot.
type Session struct {
	ID      uuid.UUID
	logger  golog.Logger
	cfg     Config
	variant joints.Variant

	transport transport.Transport
	decoder   *protocol.Decoder
	ingester  *ingest.Ingester
	machine   *fsm.Machine
	snap      *snapshot.Snapshot

	mu       chan struct{} // binary semaphore guarding the fields below
	lastSend time.Time
	waiters  []*waiter
	hornLast map[string]time.Time
	closed   bool
}

// lock/unlock implement a plain mutex over a buffered channel so short
// critical sections never block on anything but each other.
func (s *Session) lock()   { s.mu <- struct{}{} }
func (s *Session) unlock() { <-s.mu }

// Open connects to addr, identifies the robot variant from
// advertisedName, subscribes for notifications, and runs the startup
// probe (ACTION_COMPLETE wake, MODEL, VERSION, FIRMWARE_DATE,
// SERIAL_NUMBER, GET_STATE, each paced at least InterCommandPause apart).
func Open(ctx context.Context, logger golog.Logger, tr transport.Transport, addr, advertisedName string, cfg Config) (*Session, error) {
	variant, _, ok := joints.VariantFromAdvertisingName(advertisedName)
	if !ok {
		return nil, fmt.Errorf("session: unrecognized advertised name %q", advertisedName)
	}

	s := &Session{
		ID:        uuid.New(),
		logger:    logger.With("variant", variant.String()),
		cfg:       cfg,
		variant:   variant,
		transport: tr,
		decoder:   protocol.NewDecoder(),
		ingester:  ingest.New(),
		machine:   fsm.New(),
		snap:      snapshot.New(variant),
		mu:        make(chan struct{}, 1),
		hornLast:  map[string]time.Time{},
	}
	s.logger = s.logger.With("session_id", s.ID.String())

	if err := tr.Connect(ctx, addr); err != nil {
		return nil, &Error{Kind: ErrKindTransport, Op: "Connect", Err: err}
	}
	if err := tr.Subscribe(ctx, s.handleNotification); err != nil {
		return nil, &Error{Kind: ErrKindTransport, Op: "Subscribe", Err: err}
	}

	if err := s.runStartupProbe(ctx); err != nil {
		return nil, err
	}
	s.logger.Infow("session opened", "robot_mode_humanoid", s.snap.RobotMode)
	return s, nil
}

func (s *Session) runStartupProbe(ctx context.Context) error {
	// ACTION_COMPLETE doubles as a startup keepalive/wake per spec.md
	// §4.B's note on the opcode; it has no reply to wait for here, just
	// pacing against whatever the transport sends next.
	if err := s.send(ctx, protocol.OpActionComplete, nil); err != nil {
		return err
	}
	for _, op := range []protocol.Opcode{protocol.OpModel, protocol.OpVersion, protocol.OpFirmwareDate, protocol.OpSerialNumber} {
		if _, err := s.query(ctx, op, nil); err != nil {
			return err
		}
	}
	state, err := s.query(ctx, protocol.OpGetState, nil)
	if err != nil {
		return err
	}
	s.machine.CompleteStartup(state.Payload[0] == 0)
	return nil
}

// handleNotification decodes every frame in data, applies it to the
// snapshot, and wakes whichever waiter (if any) is registered for that
// opcode, plus the fsm's transform/scripted-action bookkeeping.
func (s *Session) handleNotification(data []byte) {
	s.lock()
	frames, err := s.decoder.Push(data)
	if err != nil {
		s.logger.Warnw("frame decode error", "err", err)
	}
	for _, f := range frames {
		detail, err := s.ingester.Apply(s.snap, f)
		if err != nil {
			s.logger.Warnw("ingest error", "opcode", f.Opcode.String(), "err", err)
			continue
		}
		s.logger.Debugw("notification applied", "opcode", f.Opcode.String(), "detail", detail)

		switch f.Opcode {
		case protocol.OpGetState:
			s.machine.CompleteTransform(s.snap.RobotMode)
		case protocol.OpActionComplete:
			s.machine.EndScriptedAction()
		case protocol.OpActionProgress, protocol.OpExecuteFile:
			if !s.snap.Acting {
				s.machine.EndScriptedAction()
			}
		}

		for i, w := range s.waiters {
			if w.opcode == f.Opcode {
				select {
				case w.ch <- f:
				default:
				}
				s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
				break
			}
		}
	}
	s.unlock()
}

func (s *Session) registerWaiter(opcode protocol.Opcode) chan protocol.Frame {
	ch := make(chan protocol.Frame, 1)
	s.lock()
	s.waiters = append(s.waiters, &waiter{opcode: opcode, ch: ch})
	s.unlock()
	return ch
}

// send paces and writes one encoded frame.
func (s *Session) send(ctx context.Context, opcode protocol.Opcode, payload []byte) error {
	s.lock()
	wait := s.cfg.InterCommandPause - time.Since(s.lastSend)
	s.unlock()
	if wait > 0 {
		if !goutils.SelectContextOrWait(ctx, wait) {
			return ctx.Err()
		}
	}

	frame := protocol.Encode(opcode, payload)
	if err := s.transport.Write(ctx, frame); err != nil {
		return &Error{Kind: ErrKindTransport, Op: opcode.String(), Err: err}
	}

	s.lock()
	s.lastSend = time.Now()
	s.unlock()
	return nil
}

// query sends opcode and waits up to cfg.ReplyTimeout for the matching
// notification.
func (s *Session) query(ctx context.Context, opcode protocol.Opcode, payload []byte) (protocol.Frame, error) {
	ch := s.registerWaiter(opcode)
	if err := s.send(ctx, opcode, payload); err != nil {
		return protocol.Frame{}, err
	}
	select {
	case f := <-ch:
		return f, nil
	case <-ctx.Done():
		return protocol.Frame{}, &Error{Kind: ErrKindTimeout, Op: opcode.String(), Err: ctx.Err()}
	case <-time.After(s.cfg.ReplyTimeout):
		return protocol.Frame{}, &Error{Kind: ErrKindTimeout, Op: opcode.String(), Err: fmt.Errorf("no response within %s", s.cfg.ReplyTimeout)}
	}
}

func (s *Session) settle(ctx context.Context, d time.Duration) error {
	if !goutils.SelectContextOrWait(ctx, d) {
		return ctx.Err()
	}
	return nil
}

// Variant reports the robot variant this session is bound to.
func (s *Session) Variant() joints.Variant { return s.variant }

// State reports the current fsm state.
func (s *Session) State() fsm.State {
	s.lock()
	defer s.unlock()
	return s.machine.State()
}

// IsMoving reports whether the robot is currently executing a motion
// primitive, mirroring the original implementation's IRobot.moving().
func (s *Session) IsMoving() bool {
	s.lock()
	defer s.unlock()
	return s.snap.Moving
}

// IsActing reports whether a scripted action is in flight, mirroring the
// original's IRobot.acting().
func (s *Session) IsActing() bool {
	s.lock()
	defer s.unlock()
	return s.machine.IsActing()
}

// BatteryPercent reports the last GET_STATE-reported battery level,
// mirroring the original's IRobot.battery().
func (s *Session) BatteryPercent() int {
	s.lock()
	defer s.unlock()
	return s.snap.BatteryPercent
}

// Model, Version, FirmwareDate and SerialNumber re-query the identity
// opcodes, returning the ASCII payload of the fresh reply.
func (s *Session) Model(ctx context.Context) (string, error) {
	f, err := s.query(ctx, protocol.OpModel, nil)
	return string(f.Payload), err
}

func (s *Session) Version(ctx context.Context) (string, error) {
	f, err := s.query(ctx, protocol.OpVersion, nil)
	return string(f.Payload), err
}

func (s *Session) FirmwareDate(ctx context.Context) (string, error) {
	f, err := s.query(ctx, protocol.OpFirmwareDate, nil)
	return string(f.Payload), err
}

func (s *Session) SerialNumber(ctx context.Context) (string, error) {
	f, err := s.query(ctx, protocol.OpSerialNumber, nil)
	return string(f.Payload), err
}

// Status re-queries GET_STATE and returns the refreshed robot_mode,
// fast_mode and battery_percent.
func (s *Session) Status(ctx context.Context) (humanoidForm, fastMode bool, batteryPercent int, err error) {
	_, err = s.query(ctx, protocol.OpGetState, nil)
	if err != nil {
		return false, false, 0, err
	}
	s.lock()
	defer s.unlock()
	return s.snap.RobotMode, s.snap.FastMode, s.snap.BatteryPercent, nil
}
