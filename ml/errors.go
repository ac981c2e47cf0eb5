package ml

import "errors"

// Error kinds raised by the engine. Callers discriminate with errors.Is;
// messages carry per-call context via %w wrapping.
var (
	ErrInvalidDimension  = errors.New("ml: invalid matrix dimension")
	ErrShapeMismatch     = errors.New("ml: shape mismatch")
	ErrInvalidArgument   = errors.New("ml: invalid argument")
	ErrEmptyInput        = errors.New("ml: empty input")
	ErrStructureMismatch = errors.New("ml: network structure mismatch")
	ErrInvalidFormat     = errors.New("ml: invalid serialized format")
)
