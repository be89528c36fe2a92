package converter

import (
	"context"

	"media-converter/internal/capability"
)

// Quality is the fixed quality parameter applied wherever a target
// format supports one, on a 0-1 scale.
const Quality = 0.92

// File is an opaque named byte buffer. Inputs are treated as read-only;
// outputs are always newly allocated.
type File struct {
	Name string
	Data []byte
}

// Handler is a self-describing conversion unit. A handler must be
// probed exactly once before any conversion; Capabilities and Convert
// are valid only once Ready reports true.
type Handler interface {
	// Name returns the unit's identity.
	Name() string

	// Ready reports whether probing has completed successfully.
	Ready() bool

	// Probe queries the host runtime and finalizes the capability
	// set. Calling Probe again after it has succeeded is a no-op.
	Probe(ctx context.Context) error

	// Capabilities returns the frozen capability set. It returns nil
	// until Ready is true.
	Capabilities() []capability.Descriptor

	// CanConvert reports whether the unit can execute the given
	// format pair.
	CanConvert(in, out capability.Descriptor) bool

	// Convert executes one batch. All files share the input format.
	// The batch is all-or-nothing: the first failure aborts the
	// remaining files and no partial result is returned.
	Convert(ctx context.Context, files []File, in, out capability.Descriptor) ([]File, error)
}
