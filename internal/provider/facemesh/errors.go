package facemesh

import (
	"errors"
	"fmt"
)

var (
	ErrServiceUnavailable = errors.New("facemesh service unavailable")
	ErrInvalidResponse    = errors.New("invalid response from facemesh")
	ErrIncompleteMesh     = errors.New("facemesh returned too few landmarks")
)

// StatusError is returned when the sidecar answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("facemesh returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500
}
