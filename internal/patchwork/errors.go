package patchwork

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a patch id the server does not know.
	ErrNotFound = errors.New("patch not found")

	// ErrBadRecord marks a raw payload that fails schema decoding.
	// The aggregator downgrades it to a skip-with-warning.
	ErrBadRecord = errors.New("malformed record")

	// ErrUnknownState marks a state value outside the vocabulary.
	ErrUnknownState = errors.New("unknown state")
)

// RemoteError wraps a transport, auth, or protocol failure talking to
// the remote service. The aggregator treats it as fatal on the first
// page call and as a truncation on later ones.
type RemoteError struct {
	Op  string // remote operation, e.g. "list patches"
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
