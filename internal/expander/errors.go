package expander

import "fmt"

// CompletionError is returned by completion providers when the remote API refuses a request or
// answers with something that carries no text.
type CompletionError struct {
	Provider   string
	StatusCode int // 0 when the failure happened before an HTTP answer
	Message    string
	Err        error
}

func (e *CompletionError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion failed with status %d: %s", e.Provider, e.StatusCode, msg)
	}

	return fmt.Sprintf("%s completion failed: %s", e.Provider, msg)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
