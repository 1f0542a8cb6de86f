package crawlbase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrTransport            = errors.New("transport error")
	ErrProjectionFailure    = errors.New("failed to project response")
)

// TransportError is returned when the http client could not complete the
// exchange. Non-2xx responses are not transport errors.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Err.Error())
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}
