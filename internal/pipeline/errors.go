package pipeline

import (
	"errors"
	"fmt"
)

// UserMessage is shown when a run fails even after the last-resort attempt.
const UserMessage = "failed to generate proposal, please check your API keys and try again"

// ErrEmptyJobBrief is returned before any work when the brief is blank.
var ErrEmptyJobBrief = errors.New("job brief is required")

// Error is a run that failed after the last-resort attempt. Cause joins the
// original pipeline error and the last-resort error.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}
