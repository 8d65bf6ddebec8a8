package upload

import (
	"errors"
	"fmt"
)

// ErrNotObject is wrapped by DecodeError when a 2xx body is valid JSON but not an object.
var ErrNotObject = errors.New("response is not a JSON object")

// StatusError is returned when the processing endpoint answers with a non-2xx status.
// Body holds a bounded prefix of the response for diagnostics only.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! Status: %d", e.StatusCode)
}

// DecodeError is returned when a 2xx response body is not a JSON object.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode upload response (content type %q): %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
