package telequery

import (
	"errors"
	"fmt"

	interrors "github.com/jrsteele09/go-telequery/internal/errors"
)

var (
	ErrInvalidConfig     = errors.New("invalid telequery configuration")
	ErrTransport         = errors.New("telequery transport failure")
	ErrMalformedResponse = errors.New("telequery response is not valid JSON")
	ErrServerRejected    = errors.New("telequery server rejected request")
)

const maxBodyInError = 512

// TransportError is returned when no response body could be read: connection, DNS, TLS,
// timeout or cancellation failures. It matches both ErrTransport and the underlying cause.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telequery: request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// ResponseError is returned when a response body was read but could not be accepted.
// Kind is ErrMalformedResponse or ErrServerRejected.
type ResponseError struct {
	Kind       error
	Endpoint   string
	StatusCode int
	Status     string // "status" field of the reply, empty if it could not be parsed
	Message    string // "message" field of the reply, or a decoding error
	Body       []byte // raw response body for diagnostics
}

func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("telequery: %v (endpoint %s, http %d", e.Kind, e.Endpoint, e.StatusCode)
	if e.Status != "" {
		msg += ", status " + e.Status
	}
	msg += ")"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if len(e.Body) > 0 {
		msg += ": body " + interrors.Snippet(e.Body, maxBodyInError)
	}
	return msg
}

func (e *ResponseError) Unwrap() error {
	return e.Kind
}
