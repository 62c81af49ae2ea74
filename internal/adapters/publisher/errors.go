package publisher

import "errors"

// Sentinel kinds for publisher errors.
var (
	ErrPublish = errors.New("publish failed")
)
