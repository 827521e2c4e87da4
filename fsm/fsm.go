// Package fsm implements the session-level robot state machine as a
// single tagged discriminator record, rather than the class hierarchy
// (IRobot/Robot/MovingRobot/ProgrammingRobot/Vehicle/...) the original
// control software used for the same purpose.
package fsm

import "errors"

// State is one of the robot's seven externally-visible behavioral modes,
// plus the internal Transforming pseudostate a session passes through
// while waiting for the firmware to confirm which form it landed in.
type State int

const (
	StateUnknown State = iota
	StateHumanoidIdle
	StateHumanoidMoving
	StateHumanoidProgramming
	StateVehicleIdle
	StateVehicleMoving
	StateVehicleProgramming
	StateTransforming
)

func (s State) String() string {
	switch s {
	case StateHumanoidIdle:
		return "HumanoidIdle"
	case StateHumanoidMoving:
		return "HumanoidMoving"
	case StateHumanoidProgramming:
		return "HumanoidProgramming"
	case StateVehicleIdle:
		return "VehicleIdle"
	case StateVehicleMoving:
		return "VehicleMoving"
	case StateVehicleProgramming:
		return "VehicleProgramming"
	case StateTransforming:
		return "Transforming"
	default:
		return "Unknown"
	}
}

// ErrInadmissible is returned when a command is not admissible in the
// machine's current state.
var ErrInadmissible = errors.New("fsm: command not admissible in current state")

// Machine is the per-session state machine. It holds no transport or
// timing logic; the session controller calls its methods around the
// actual command dispatch and applies the resulting state transition only
// once the write (and, where relevant, a confirming notification)
// succeeds.
type Machine struct {
	state State

	// acting is session-local bookkeeping for whether a scripted action is
	// in flight. It does not correspond to one of the seven externally
	// visible modes — the robot's displayed form stays Idle or
	// Programming throughout a scripted action — so it is tracked as a
	// transient flag rather than folded into State.
	acting bool

	// transformingFrom remembers which form's Idle state a TRANSFORM was
	// issued from, so AbortTransform (a failed TRANSFORM write or settle)
	// can fall back to a known state instead of leaving the session in limbo.
	transformingFrom State
}

// New returns a Machine in StateUnknown, matching a session that has not
// yet completed its startup probe.
func New() *Machine {
	return &Machine{state: StateUnknown}
}

// State reports the machine's current state.
func (m *Machine) State() State {
	return m.state
}

// IsActing reports whether a scripted action is currently in flight.
func (m *Machine) IsActing() bool {
	return m.acting
}

// IsHumanoidForm reports whether the current (or, during a transform, the
// pre-transform) state is one of the three Humanoid states.
func (m *Machine) IsHumanoidForm() bool {
	switch m.state {
	case StateHumanoidIdle, StateHumanoidMoving, StateHumanoidProgramming:
		return true
	case StateTransforming:
		return m.transformingFrom == StateHumanoidIdle
	default:
		return false
	}
}

// CompleteStartup transitions the machine out of StateUnknown once the
// startup probe's GET_STATE response identifies the robot's current form.
func (m *Machine) CompleteStartup(humanoidForm bool) {
	if humanoidForm {
		m.state = StateHumanoidIdle
	} else {
		m.state = StateVehicleIdle
	}
}

// BeginMotion admits an eight-primitive motion command: admissible from
// either form's Idle or Moving sub-state (a second motion command while
// already moving simply re-paces the existing motion), inadmissible
// everywhere else.
func (m *Machine) BeginMotion() error {
	switch m.state {
	case StateHumanoidIdle:
		m.state = StateHumanoidMoving
	case StateVehicleIdle:
		m.state = StateVehicleMoving
	case StateHumanoidMoving, StateVehicleMoving:
		// already moving; no transition needed
	default:
		return ErrInadmissible
	}
	return nil
}

// EndMotion applies the *Moving -> *Idle transition a confirmed STOP
// produces. Admission for STOP itself is deliberately ungated (see
// AdmitStop), matching the original implementation, which lets STOP fire
// as an escape hatch from any reachable state; EndMotion is a no-op
// outside the two Moving states.
func (m *Machine) EndMotion() {
	switch m.state {
	case StateHumanoidMoving:
		m.state = StateHumanoidIdle
	case StateVehicleMoving:
		m.state = StateVehicleIdle
	}
}

// AdmitStop always succeeds: STOP is the one command the original
// implementation lets fire unconditionally, so a caller can always recover
// from an unexpected or partially-observed state.
func (m *Machine) AdmitStop() error {
	return nil
}

// BeginTransform admits TRANSFORM from either form's Idle sub-state only:
// not while moving, acting, programming, or already transforming.
func (m *Machine) BeginTransform() error {
	if m.acting {
		return ErrInadmissible
	}
	switch m.state {
	case StateHumanoidIdle, StateVehicleIdle:
		m.transformingFrom = m.state
		m.state = StateTransforming
		return nil
	default:
		return ErrInadmissible
	}
}

// CompleteTransform applies the confirming GET_STATE's robot_mode to
// settle StateTransforming into the new form's Idle state.
func (m *Machine) CompleteTransform(humanoidNow bool) {
	if m.state != StateTransforming {
		return
	}
	if humanoidNow {
		m.state = StateHumanoidIdle
	} else {
		m.state = StateVehicleIdle
	}
}

// AbortTransform recovers from a TRANSFORM that failed before its
// confirming GET_STATE could even be waited for (the TRANSFORM write
// itself, or the post-write settle, failing), falling back to the form the
// transform was issued from. It is not used once the session starts
// waiting for the confirmation: per spec.md §7, a GET_STATE that never
// arrives within the reply timeout leaves the machine in StateTransforming
// rather than auto-recovering.
func (m *Machine) AbortTransform() {
	if m.state != StateTransforming {
		return
	}
	m.state = m.transformingFrom
}

// BeginProgramming admits ENTER_PROGRAMMING from either form's Idle
// sub-state. Callers are expected to gate this to the Autobot variant
// before calling it — Dinobot and Decepticon firmware silently ignores the
// opcode, so the session controller treats it as a no-op rather than
// routing it through the state machine at all for those variants.
func (m *Machine) BeginProgramming() error {
	switch m.state {
	case StateHumanoidIdle:
		m.state = StateHumanoidProgramming
	case StateVehicleIdle:
		m.state = StateVehicleProgramming
	default:
		return ErrInadmissible
	}
	return nil
}

// EndProgramming applies the *Programming -> *Idle transition a confirmed
// EXIT_PROGRAMMING produces.
func (m *Machine) EndProgramming() error {
	switch m.state {
	case StateHumanoidProgramming:
		m.state = StateHumanoidIdle
	case StateVehicleProgramming:
		m.state = StateVehicleIdle
	default:
		return ErrInadmissible
	}
	return nil
}

// AdmitProgrammingCommand gates SET_POSITION, SET_LOCKS, UNLOCK_ALL,
// LOCK_ALL, SPIN_WHEEL and MOVE_SERVO: admissible only while in one of the
// two Programming sub-states.
func (m *Machine) AdmitProgrammingCommand() error {
	switch m.state {
	case StateHumanoidProgramming, StateVehicleProgramming:
		return nil
	default:
		return ErrInadmissible
	}
}

// BeginScriptedAction admits EXECUTE_FILE/BUILT_IN_ACTION commands: from
// any non-moving, non-acting, non-transforming sub-state (Idle or
// Programming, in either form).
func (m *Machine) BeginScriptedAction() error {
	if m.acting {
		return ErrInadmissible
	}
	switch m.state {
	case StateHumanoidIdle, StateVehicleIdle, StateHumanoidProgramming, StateVehicleProgramming:
		m.acting = true
		return nil
	default:
		return ErrInadmissible
	}
}

// EndScriptedAction clears the acting flag once ACTION_COMPLETE arrives.
func (m *Machine) EndScriptedAction() {
	m.acting = false
}

// AdmitPassive always succeeds: read-only queries (MODEL, VERSION,
// FIRMWARE_DATE, SERIAL_NUMBER, GET_STATE, GET_POSITION, READ_DIRECTORY)
// never change behavior and are never gated by state.
func (m *Machine) AdmitPassive() error {
	return nil
}
