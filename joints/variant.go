// Package joints holds the immutable joint catalogues for the three
// Transformers robot variants: slot index, degree range, and wheel/lock
// flags, transcribed from the vendor firmware's servo tables.
package joints

import "strings"

// Variant identifies which physical robot a session is bound to. Each
// variant has its own joint catalogue and its own subset of admissible
// session operations (e.g. ENTER_PROGRAMMING is Autobot-only).
type Variant int

const (
	VariantUnknown Variant = iota
	VariantAutobotHumanoid
	VariantDinobot
	VariantDecepticonHumanoid
)

// String names the variant for logging.
func (v Variant) String() string {
	switch v {
	case VariantAutobotHumanoid:
		return "AutobotHumanoid"
	case VariantDinobot:
		return "Dinobot"
	case VariantDecepticonHumanoid:
		return "DecepticonHumanoid"
	default:
		return "Unknown"
	}
}

// advertisingPrefixes maps a BLE advertised-name prefix to the variant it
// identifies, transcribed from the vendor REPL's platform-detection table.
var advertisingPrefixes = map[string]Variant{
	"OP-M-":  VariantAutobotHumanoid,
	"GSEG-":  VariantDinobot,
	"MEGAF-": VariantDecepticonHumanoid,
}

// VariantFromAdvertisingName matches a BLE advertised device name against
// the known platform prefixes, returning the variant and the remainder of
// the name (the device's serial suffix) on success.
func VariantFromAdvertisingName(name string) (variant Variant, deviceID string, ok bool) {
	for prefix, v := range advertisingPrefixes {
		if strings.HasPrefix(name, prefix) {
			return v, strings.TrimPrefix(name, prefix), true
		}
	}
	return VariantUnknown, "", false
}
