// Package protocol implements the wire codec shared by every Transformers
// BLE robot: a single length-prefixed, checksummed frame format carried over
// one GATT characteristic, plus the opcode dictionary the frames speak.
package protocol

// Opcode identifies the command or notification carried by a frame.
type Opcode byte

// Opcode values, transcribed from the vendor command dictionary. Filesystem
// opcodes present in the original implementation (CREATE_FILE, UNLINK,
// READ_FILE, FILE_EXISTS, WRITE_FILE, LOCK) are deliberately absent: they
// fall under the filesystem-access non-goal and have no entry in the wire
// table this module implements. There is no dedicated spin-wheel or
// single-servo opcode: both reuse SET_POSITION with one slot changed.
const (
	OpForward          Opcode = 1
	OpTurnRight        Opcode = 2
	OpStepRight        Opcode = 3
	OpReverseRight     Opcode = 4
	OpReverse          Opcode = 5
	OpReverseLeft      Opcode = 6
	OpStepLeft         Opcode = 7
	OpTurnLeft         Opcode = 8
	OpBuiltInAction    Opcode = 9
	OpTransform        Opcode = 10
	OpActionComplete   Opcode = 11
	OpStop             Opcode = 12
	OpGetState         Opcode = 15
	OpActionProgress   Opcode = 17
	OpReadDirectory    Opcode = 22
	OpExecuteFile      Opcode = 23
	OpEnterProgramming Opcode = 230
	OpExitProgramming  Opcode = 231
	OpSetPosition      Opcode = 232
	OpGetPosition      Opcode = 233
	OpUnlockAll        Opcode = 234
	OpLockAll          Opcode = 235
	OpLocks            Opcode = 237
	OpSerialNumber     Opcode = 241
	OpEnterUSBMode     Opcode = 245
	OpModel            Opcode = 246
	OpVersion          Opcode = 247
	OpFirmwareDate     Opcode = 248
	OpShutdown         Opcode = 250
)

var opcodeNames = map[Opcode]string{
	OpForward:          "FORWARD",
	OpTurnRight:        "TURN_RIGHT",
	OpStepRight:        "STEP_RIGHT",
	OpReverseRight:     "REVERSE_RIGHT",
	OpReverse:          "REVERSE",
	OpReverseLeft:      "REVERSE_LEFT",
	OpStepLeft:         "STEP_LEFT",
	OpTurnLeft:         "TURN_LEFT",
	OpBuiltInAction:    "BUILT_IN_ACTION",
	OpTransform:        "TRANSFORM",
	OpActionComplete:   "ACTION_COMPLETE",
	OpStop:             "STOP",
	OpGetState:         "GET_STATE",
	OpActionProgress:   "ACTION_PROGRESS",
	OpReadDirectory:    "READ_DIRECTORY",
	OpExecuteFile:      "EXECUTE_FILE",
	OpEnterProgramming: "ENTER_PROGRAMMING",
	OpExitProgramming:  "EXIT_PROGRAMMING",
	OpSetPosition:      "SET_POSITION",
	OpGetPosition:      "GET_POSITION",
	OpUnlockAll:        "UNLOCK_ALL",
	OpLockAll:          "LOCK_ALL",
	OpLocks:            "LOCKS",
	OpSerialNumber:     "SERIAL_NUMBER",
	OpEnterUSBMode:     "ENTER_USB_MODE",
	OpModel:            "MODEL",
	OpVersion:          "VERSION",
	OpFirmwareDate:     "FIRMWARE_DATE",
	OpShutdown:         "SHUTDOWN",
}

// String renders the opcode's mnemonic name, or "UNKNOWN_OPCODE" for
// anything outside the known dictionary.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "UNKNOWN_OPCODE"
}

// Motion primitives: the eight directional commands that put a robot into
// the Moving sub-state of its current form.
var MotionOpcodes = map[Opcode]bool{
	OpForward:      true,
	OpTurnRight:    true,
	OpStepRight:    true,
	OpReverseRight: true,
	OpReverse:      true,
	OpReverseLeft:  true,
	OpStepLeft:     true,
	OpTurnLeft:     true,
}
