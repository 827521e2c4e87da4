// Package snapshot models a robot's in-memory state: the current pose of
// every joint, the learned per-device bias table, and the handful of
// top-level flags (battery, fast-mode, programming, acting) that the
// notification ingester keeps current.
package snapshot

import "github.com/MeachamusPrime/Robosen-Transformers/joints"

// JointState is one joint's live value plus its session-learned bias and
// lock flag.
type JointState struct {
	Value  float64
	Bias   byte
	Locked bool
}

// Snapshot is the full state a session tracks for one connected robot.
type Snapshot struct {
	Variant Variant

	// Joints holds the robot's current pose, keyed by catalogue label.
	Joints map[string]*JointState

	// VehicleSnapshot and HumanoidSnapshot are the two saved poses learned
	// during the ENTER_PROGRAMMING handshake's second and third frames —
	// the last position the robot was in before transforming out of each
	// form. They are read-only reference poses; nothing in this module
	// applies them back to Joints.
	VehicleSnapshot  map[string]float64
	HumanoidSnapshot map[string]float64

	BiasLearned      bool
	BatteryPercent   int
	RobotMode        bool // true = humanoid form, false = vehicle form
	FastMode         bool
	ProgrammingMode  bool
	Moving           bool
	Acting           bool
	ActingProgress   int
	LastDirectory    []string
}

// Variant is a re-export of joints.Variant to keep snapshot's public API
// self-contained for callers that only need the state, not the catalogue.
type Variant = joints.Variant

// New returns a freshly-initialized snapshot for variant: every catalogue
// joint starts at value 0, zero bias, and locked, matching the robot's
// power-on state.
func New(variant joints.Variant) *Snapshot {
	s := &Snapshot{
		Variant:        variant,
		Joints:         map[string]*JointState{},
		BatteryPercent: 100,
	}
	for _, d := range joints.Catalogue(variant) {
		s.Joints[d.Label] = &JointState{Locked: d.InitialLock}
	}
	return s
}

// mod256 returns x mod 256 as a non-negative byte-range int, unlike Go's %
// operator which preserves the sign of a negative dividend.
func mod256(x int) int {
	x %= 256
	if x < 0 {
		x += 256
	}
	return x
}
