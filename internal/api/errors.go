package api

import (
	"errors"
	"fmt"
)

// ErrTransport marks failures where no usable answer came back from the
// backend: unreachable host, timeout, or a body that is not the JSON envelope.
var ErrTransport = errors.New("backend transport failure")

// StatusError reports a response that could not be decoded as an envelope.
type StatusError struct {
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("unexpected response status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected response status %d: %s", e.StatusCode, e.Snippet)
}

// Unwrap lets callers treat undecodable responses as transport failures.
func (e *StatusError) Unwrap() error {
	return ErrTransport
}

// IsTransport reports whether err is a transport-class failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
