// Package fake provides an in-memory Transport/Scanner double that
// simulates enough vendor firmware behavior to exercise a full session
// without a real BLE adapter, mirroring the teacher pack's
// components/*/fake test-double pattern.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MeachamusPrime/Robosen-Transformers/joints"
	"github.com/MeachamusPrime/Robosen-Transformers/protocol"
	"github.com/MeachamusPrime/Robosen-Transformers/snapshot"
	"github.com/MeachamusPrime/Robosen-Transformers/transport"
)

var (
	_ transport.Transport = (*Robot)(nil)
	_ transport.Scanner   = (*Robot)(nil)
)

// Robot is a minimal simulated firmware: it answers the startup probe,
// flips form on TRANSFORM, runs the three-phase ENTER_PROGRAMMING
// handshake, and acknowledges motion/scripted-action commands with
// ACTION_COMPLETE after a short simulated delay.
type Robot struct {
	Name           string
	Variant        joints.Variant
	Model          string
	Version        string
	FirmwareDate   string
	SerialNumber   string
	BatteryPercent byte

	mu              sync.Mutex
	humanoidForm    bool
	fastMode        bool
	handshakePhase  int
	responseDelay   time.Duration
	handler         func(data []byte)
	connected       bool
	closed          bool
	writes          []protocol.Frame
}

// Writes returns every frame this robot has had written to it so far, in
// order. Tests use this to assert on outbound side effects — such as the
// error-announce EXECUTE_FILE a session dispatches alongside an inadmissible
// command's returned error — that leave no other observable trace.
func (r *Robot) Writes() []protocol.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.Frame, len(r.writes))
	copy(out, r.writes)
	return out
}

// WroteOpcode reports whether op has been written to this robot at least
// once.
func (r *Robot) WroteOpcode(op protocol.Opcode) bool {
	for _, f := range r.Writes() {
		if f.Opcode == op {
			return true
		}
	}
	return false
}

// NewRobot returns a simulated robot advertising name, starting in
// humanoid/primary form.
func NewRobot(name string, variant joints.Variant) *Robot {
	return &Robot{
		Name:           name,
		Variant:        variant,
		Model:          "TF-" + variant.String(),
		Version:        "1.0.0",
		FirmwareDate:   "2024-01-01",
		SerialNumber:   "SIM0001",
		BatteryPercent: 90,
		humanoidForm:   true,
		responseDelay:  time.Millisecond,
	}
}

// SetResponseDelay overrides the simulated latency before an asynchronous
// notification (TRANSFORM's confirming GET_STATE, ACTION_COMPLETE, the
// handshake frames) is delivered. Tests that want deterministic ordering
// without real sleeps can set this to 0.
func (r *Robot) SetResponseDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responseDelay = d
}

// Connect implements transport.Transport.
func (r *Robot) Connect(ctx context.Context, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("fake: transport closed")
	}
	r.connected = true
	return nil
}

// Subscribe implements transport.Transport.
func (r *Robot) Subscribe(ctx context.Context, handler func(data []byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = handler
	return nil
}

// Close implements transport.Transport.
func (r *Robot) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.connected = false
	return nil
}

// Scan implements transport.Scanner, returning this robot as its own only
// advertisement — enough for tests and the CLI's --discover loopback mode.
func (r *Robot) Scan(ctx context.Context, timeout time.Duration) ([]transport.Advertisement, error) {
	return []transport.Advertisement{{Address: "fake://" + r.Name, Name: r.Name}}, nil
}

func (r *Robot) notify(frame []byte) {
	r.mu.Lock()
	handler := r.handler
	r.mu.Unlock()
	if handler != nil {
		handler(frame)
	}
}

func (r *Robot) notifyAfter(delay time.Duration, frame []byte) {
	if delay <= 0 {
		r.notify(frame)
		return
	}
	go func() {
		time.Sleep(delay)
		r.notify(frame)
	}()
}

// Write implements transport.Transport: it decodes the single frame
// written and simulates the firmware's reaction.
func (r *Robot) Write(ctx context.Context, data []byte) error {
	frame, _, err := protocol.Decode(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	delay := r.responseDelay
	r.writes = append(r.writes, frame)
	r.mu.Unlock()

	switch frame.Opcode {
	case protocol.OpModel:
		r.notifyAfter(delay, protocol.Encode(protocol.OpModel, []byte(r.Model)))
	case protocol.OpVersion:
		r.notifyAfter(delay, protocol.Encode(protocol.OpVersion, []byte(r.Version)))
	case protocol.OpFirmwareDate:
		r.notifyAfter(delay, protocol.Encode(protocol.OpFirmwareDate, []byte(r.FirmwareDate)))
	case protocol.OpSerialNumber:
		r.notifyAfter(delay, protocol.Encode(protocol.OpSerialNumber, []byte(r.SerialNumber)))

	case protocol.OpGetState:
		r.notifyAfter(delay, r.stateFrame())

	case protocol.OpTransform:
		r.mu.Lock()
		r.humanoidForm = !r.humanoidForm
		r.mu.Unlock()
		r.notifyAfter(delay, r.stateFrame())

	case protocol.OpBuiltInAction:
		if len(frame.Payload) >= 2 && frame.Payload[0] == 3 {
			r.mu.Lock()
			r.fastMode = frame.Payload[1] != 0
			r.mu.Unlock()
		}
		r.notifyAfter(delay, protocol.Encode(protocol.OpActionComplete, nil))

	case protocol.OpEnterProgramming:
		// A single ENTER_PROGRAMMING write triggers all three handshake
		// notifications (bias table, vehicle snapshot, humanoid snapshot),
		// matching the real firmware's asynchronous three-frame reply to
		// one command.
		for i := 0; i < 3; i++ {
			r.notifyAfter(delay, r.handshakeFrame(i))
		}

	case protocol.OpExitProgramming:
		r.mu.Lock()
		r.handshakePhase = 0
		r.mu.Unlock()
		r.notifyAfter(delay, protocol.Encode(protocol.OpExitProgramming, nil))

	case protocol.OpGetPosition:
		r.notifyAfter(delay, protocol.Encode(protocol.OpGetPosition, make([]byte, joints.SlotCount)))

	case protocol.OpExecuteFile, protocol.OpForward, protocol.OpTurnRight, protocol.OpStepRight,
		protocol.OpReverseRight, protocol.OpReverse, protocol.OpReverseLeft, protocol.OpStepLeft,
		protocol.OpTurnLeft:
		r.notifyAfter(delay, protocol.Encode(protocol.OpActionComplete, nil))

	case protocol.OpReadDirectory:
		listing := append([]byte("SysAction\x00"), []byte("RobotAction")...)
		r.notifyAfter(delay, protocol.Encode(protocol.OpReadDirectory, listing))
	}
	return nil
}

// stateFrame builds a GET_STATE payload matching spec.md §4.E's layout:
// byte 0 is the mode flag (0 = humanoid, nonzero = vehicle), byte 1 is
// battery percent, and byte 5 (when present) is the fast-mode flag.
func (r *Robot) stateFrame() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	mode := byte(0)
	if !r.humanoidForm {
		mode = 1
	}
	fast := byte(0)
	if r.fastMode {
		fast = 1
	}
	return protocol.Encode(protocol.OpGetState, []byte{mode, r.BatteryPercent, 0, 0, 0, fast})
}

// handshakeFrame returns the Nth ENTER_PROGRAMMING response: a zeroed bias
// table, then two zeroed saved-pose snapshots. A real robot's bias table
// reflects its physically-at-rest pose; the simulator has no physical
// joints, so every slot responds as zero bias/zero pose.
func (r *Robot) handshakeFrame(phase int) []byte {
	_ = phase
	return protocol.Encode(protocol.OpEnterProgramming, make([]byte, joints.SlotCount))
}

// ApplyPositionFrame lets a test assert on what the session last sent,
// decoding a captured SET_POSITION payload into a scratch snapshot.
func ApplyPositionFrame(variant joints.Variant, payload []byte) (*snapshot.Snapshot, error) {
	if len(payload) == joints.SlotCount+1 {
		payload = payload[:joints.SlotCount] // drop the fixed trailer byte
	}
	s := snapshot.New(variant)
	if err := snapshot.DecodePositionFrame(s, payload); err != nil {
		return nil, err
	}
	return s, nil
}
