package eneo

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no bearer token is stored for the user, so the
	// caller should send them through OAuth again.
	ErrUnauthenticated = errors.New("not authenticated with Eneo, please configure OAuth2 in settings")

	ErrRemoteCallFailed = errors.New("remote call failed")
	ErrInvalidResponse  = errors.New("invalid JSON response from Eneo")
)

// RemoteError is a failed outbound call. It matches ErrRemoteCallFailed and
// whatever caused it.
type RemoteError struct {
	Op         string
	StatusCode int // zero when the request never got a response
	Err        error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemoteCallFailed, e.Err}
}
