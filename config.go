package wsendpoint

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

// Configuration holds the options recognized by an Endpoint. It may be
// applied at any time via Configure; in-flight connections pick up the
// new values on the next operation.
type Configuration struct {
	// MaxFrameSize bounds frameBuffer, including bytes not yet forming a
	// complete frame. Zero means unlimited.
	MaxFrameSize int `validate:"gte=0"`

	// ReadRateLimit, if set, throttles how fast inbound frames may be
	// processed. It is additive resource protection, not a protocol
	// feature: each decoded frame takes one token via a non-blocking
	// Allow, and the first frame the limiter refuses is not processed;
	// the endpoint instead fails the connection with a synthesized
	// policy-violation (1008) close. Nil disables the limiter.
	ReadRateLimit *rate.Limiter

	// Diagnostics receives protocol-level log lines. Defaults to a no-op
	// sink if left nil; see NewStdDiagnostics for a ready-made logger.
	Diagnostics Diagnostics
}

var configValidator = validator.New()

// Validate reports whether c's fields are within range. It does not
// mutate c.
func (c Configuration) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("wsendpoint: invalid configuration: %w", err)
	}
	return nil
}

func (c Configuration) diagnostics() Diagnostics {
	if c.Diagnostics != nil {
		return c.Diagnostics
	}
	return noopDiagnostics{}
}
