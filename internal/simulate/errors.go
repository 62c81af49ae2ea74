package simulate

import "errors"

// Error constants.
var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrMismatch         = errors.New("standings mismatch")
	ErrInvalidConfig    = errors.New("invalid simulation config")
)
