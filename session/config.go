package session

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Config holds every pacing and timing knob a session needs, decoded from
// a plain map[string]interface{} the way the teacher decodes
// ConvertedAttributes into a typed resource config.
type Config struct {
	// InterCommandPause is the minimum spacing enforced between any two
	// outbound writes.
	InterCommandPause time.Duration `mapstructure:"inter_command_pause"`

	// PostTransformSettle is how long a session waits after writing
	// TRANSFORM before it starts waiting for the confirming GET_STATE.
	PostTransformSettle time.Duration `mapstructure:"post_transform_settle"`

	// PostProgrammingSettle is how long a session waits after the third
	// ENTER_PROGRAMMING handshake frame before issuing the follow-up
	// GET_POSITION.
	PostProgrammingSettle time.Duration `mapstructure:"post_programming_settle"`

	// ActingPollInterval is the polling interval for a scripted action in
	// flight. No Session method reads it: nothing polls while acting, and
	// completion is applied only as ACTION_COMPLETE or progress
	// notifications arrive.
	ActingPollInterval time.Duration `mapstructure:"acting_poll_interval"`

	// ReplyTimeout bounds how long a request/response exchange (MODEL,
	// VERSION, GET_STATE, ...) waits for its matching notification.
	ReplyTimeout time.Duration `mapstructure:"reply_timeout"`

	// HornCooldown is the debounce window between successive Horn1/Horn2
	// triggers.
	HornCooldown time.Duration `mapstructure:"horn_cooldown"`

	// ScanTimeout is a discovery-scan timeout. No Session method reads it;
	// Scan and ScanSerialized take their timeout as an argument.
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
}

// DefaultConfig returns the pacing values spec.md's concurrency model
// names: 100ms inter-send, 2s post-transform, 10s post-programming, 1s
// acting-poll.
func DefaultConfig() Config {
	return Config{
		InterCommandPause:     100 * time.Millisecond,
		PostTransformSettle:   2 * time.Second,
		PostProgrammingSettle: 10 * time.Second,
		ActingPollInterval:    time.Second,
		ReplyTimeout:          5 * time.Second,
		HornCooldown:          5 * time.Second,
		ScanTimeout:           10 * time.Second,
	}
}

// ConfigFromMap decodes a map[string]interface{} (as arrives from a JSON
// config file or a caller-constructed map) into a Config, starting from
// DefaultConfig and overriding only the keys present in m.
func ConfigFromMap(m map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(m); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
