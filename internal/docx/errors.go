package docx

import (
	"errors"
	"fmt"
)

// ErrParagraphOutOfRange is returned by SetText for an unknown paragraph index.
var ErrParagraphOutOfRange = errors.New("paragraph index out of range")

// FormatError reports a package that is not a readable WordprocessingML document.
type FormatError struct {
	Part   string // package part that failed, e.g. "word/document.xml"
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid document part %s: %s: %v", e.Part, e.Reason, e.Err)
	}

	return fmt.Sprintf("invalid document part %s: %s", e.Part, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
