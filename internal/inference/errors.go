package inference

import (
	"errors"
	"fmt"
)

// ErrTimeout reports that the inference service did not answer within the
// configured deadline.
var ErrTimeout = errors.New("inference service timeout")

// StatusError reports a non-2xx response from the inference service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference service error: %d", e.Code)
}

// UnreachableError reports a transport-level failure (DNS, refused
// connection, protocol error) talking to the inference service.
type UnreachableError struct {
	Cause error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("error calling inference service: %v", e.Cause)
}

func (e *UnreachableError) Unwrap() error {
	return e.Cause
}
