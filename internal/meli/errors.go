package meli

import (
	"errors"
	"fmt"
)

// ErrNoToken is returned by StaticToken when no credential was configured.
var ErrNoToken = errors.New("no access token configured")

// ErrorKind classifies a ClientError.
type ErrorKind int

// Error kinds.
const (
	// KindGeneric covers transport, read and decode failures.
	KindGeneric ErrorKind = iota
	// KindHTTP is an error response with a known status code.
	KindHTTP
	// KindUnknownHTTP is an error response with an unrecognized status code.
	KindUnknownHTTP
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindUnknownHTTP:
		return "unknown_http"
	default:
		return "generic"
	}
}

// Operation descriptions used in generic error messages.
const (
	opSearch = "error searching items"
	opItem   = "error fetching item details"
)

// ClientError is the single error type surfaced by APIClient operations.
type ClientError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *ClientError) Error() string {
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// newStatusError translates an error response status into a ClientError.
func newStatusError(code int, body []byte) *ClientError {
	kind := KindUnknownHTTP
	if IsKnownStatus(code) {
		kind = KindHTTP
	}
	return &ClientError{
		Kind:       kind,
		StatusCode: code,
		Message:    StatusMessage(code),
		Err:        fmt.Errorf("marketplace API error (status %d): %s", code, truncateBody(body)),
	}
}

// newGenericError wraps any non-HTTP failure for the given operation.
func newGenericError(op string, err error) *ClientError {
	return &ClientError{
		Kind:    KindGeneric,
		Message: fmt.Sprintf("%s: %v", op, err),
		Err:     err,
	}
}

// StatusCode extracts the HTTP status from err, or 0 if err carries none.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

func truncateBody(body []byte) string {
	const maxBody = 256
	if len(body) <= maxBody {
		return string(body)
	}
	return string(body[:maxBody]) + "..."
}
