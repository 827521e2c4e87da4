package joints

// Descriptor is one joint's immutable hardware description: its position
// frame slot, its mechanical travel limits in degrees, and whether it is a
// wheel-speed slot (two's-complement encoded rather than plain-offset).
type Descriptor struct {
	Label       string
	SlotIndex   int
	MinDeg      float64
	MaxDeg      float64
	Wheel       bool
	InitialLock bool
}

// SlotCount is the number of byte slots carried by a position or lock
// frame's data array (indices 0-47; 27-47 are reserved and always zero).
const SlotCount = 48

// autobotHumanoid is the Optimus Prime servo table: 27 joints across legs,
// arms, torso and the two drive wheels.
var autobotHumanoid = []Descriptor{
	{"leftHip", 0, 0, 40, false, true},
	{"leftThigh", 1, -95, 95, false, true},
	{"leftKnee", 2, -30, 95, false, true},
	{"leftAnkle", 3, -80, 95, false, true},
	{"leftFoot", 4, -40, 20, false, true},
	{"rightHip", 5, 0, 40, false, true},
	{"rightThigh", 6, -95, 95, false, true},
	{"rightKnee", 7, -95, 30, false, true},
	{"rightAnkle", 8, -95, 80, false, true},
	{"rightFoot", 9, -20, 40, false, true},
	{"leftScapula", 10, 0, 95, false, true},
	{"leftShoulder", 11, 0, 90, false, true},
	{"leftArm", 12, -185, 30, false, true},
	{"leftUpperArm", 13, -95, 95, false, true},
	{"leftElbow", 14, -60, 95, false, true},
	{"leftWrist", 15, -30, 185, false, true},
	{"rightScapula", 16, -95, 0, false, true},
	{"rightShoulder", 17, -90, 0, false, true},
	{"rightArm", 18, -30, 185, false, true},
	{"rightUpperArm", 19, -95, 95, false, true},
	{"rightElbow", 20, -95, 60, false, true},
	{"rightWrist", 21, -40, 185, false, true},
	{"waist", 22, -185, 40, false, true},
	{"abdomen", 23, -15, 95, false, true},
	{"head", 24, 0, 105, false, true},
	{"leftWheelSpeed", 25, -100, 100, true, true},
	{"rightWheelSpeed", 26, -100, 100, true, true},
}

// dinobot is the Grimlock servo table: the Autobot table with scapulae,
// waist and abdomen removed (23 joints) — Grimlock's frame has no torso
// twist or shoulder-blade actuators.
var dinobot = []Descriptor{
	{"leftHip", 0, -5, 60, false, true},
	{"leftThigh", 1, -60, 90, false, true},
	{"leftKnee", 2, 0, 80, false, true},
	{"leftAnkle", 3, -30, 50, false, true},
	{"leftFoot", 4, -60, 10, false, true},
	{"rightHip", 5, -60, 5, false, true},
	{"rightThigh", 6, -90, 60, false, true},
	{"rightKnee", 7, -80, 0, false, true},
	{"rightAnkle", 8, -50, 30, false, true},
	{"rightFoot", 9, -10, 60, false, true},
	{"leftShoulder", 11, -180, 40, false, true},
	{"leftArm", 12, -60, 5, false, true},
	{"leftUpperArm", 13, -100, 100, false, true},
	{"leftElbow", 14, -60, 60, false, true},
	{"leftWrist", 15, 0, 160, false, true},
	{"rightShoulder", 17, -40, 180, false, true},
	{"rightArm", 18, -5, 60, false, true},
	{"rightUpperArm", 19, -100, 100, false, true},
	{"rightElbow", 20, -60, 60, false, true},
	{"rightWrist", 21, -160, 0, false, true},
	{"head", 24, 0, 105, false, true},
	{"leftWheelSpeed", 25, -100, 100, true, true},
	{"rightWheelSpeed", 26, -100, 100, true, true},
}

// decepticonHumanoid is the Megatron servo table: the Autobot layout with
// the forearm joints relabeled (the original firmware's Megatron dict keys
// rename the elbow/forearm chain rather than reusing the Optimus names).
var decepticonHumanoid = []Descriptor{
	{"leftHip", 0, -40, 10, false, true},
	{"leftThigh", 1, -95, 95, false, true},
	{"leftKnee", 2, -95, 30, false, true},
	{"leftAnkle", 3, -95, 50, false, true},
	{"leftFoot", 4, -20, 60, false, true},
	{"rightHip", 5, -10, 40, false, true},
	{"rightThigh", 6, -95, 95, false, true},
	{"rightKnee", 7, -30, 95, false, true},
	{"rightAnkle", 8, -50, 95, false, true},
	{"rightFoot", 9, -60, 20, false, true},
	{"leftScapula", 10, -95, 0, false, true},
	{"leftShoulder", 11, -95, 15, false, true},
	{"leftRearArm", 12, -30, 185, false, true},
	{"leftElbow", 13, -95, 95, false, true},
	{"leftForeArm", 14, -95, 60, false, true},
	{"leftWrist", 15, -30, 185, false, true},
	{"rightScapula", 16, 0, 95, false, true},
	{"rightShoulder", 17, -15, 95, false, true},
	{"rightUpperArm", 18, -185, 30, false, true},
	{"rightElbow", 19, -95, 95, false, true},
	{"rightForeArm", 20, -60, 95, false, true},
	{"rightWrist", 21, -185, 30, false, true},
	{"waist", 22, -185, 30, false, true},
	{"abdomen", 23, -15, 95, false, true},
	{"head", 24, 0, 105, false, true},
	{"leftWheelSpeed", 25, -100, 100, true, true},
	{"rightWheelSpeed", 26, -100, 100, true, true},
}

// Catalogue returns the joint descriptors for variant, or nil for
// VariantUnknown.
func Catalogue(v Variant) []Descriptor {
	switch v {
	case VariantAutobotHumanoid:
		return autobotHumanoid
	case VariantDinobot:
		return dinobot
	case VariantDecepticonHumanoid:
		return decepticonHumanoid
	default:
		return nil
	}
}

// ByLabel looks up a joint descriptor by its catalogue label.
func ByLabel(v Variant, label string) (Descriptor, bool) {
	for _, d := range Catalogue(v) {
		if d.Label == label {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Clamp restricts value to the descriptor's mechanical travel range.
func (d Descriptor) Clamp(value float64) float64 {
	if value < d.MinDeg {
		return d.MinDeg
	}
	if value > d.MaxDeg {
		return d.MaxDeg
	}
	return value
}
