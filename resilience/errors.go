package resilience

import "errors"

// ErrMaxRetriesExceeded is returned, wrapping the last failure, when every
// attempt of a Retry failed.
var ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")
