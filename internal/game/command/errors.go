package command

import (
	"errors"
	"fmt"
)

// ErrBadResponse is returned when a Response is constructed with an
// inconsistent pairing of messages and recipients.
var ErrBadResponse = errors.New("bad response")

// UnknownVerbError is returned when the first word of a line names no registered verb.
type UnknownVerbError struct {
	Verb string
}

func (e *UnknownVerbError) Error() string {
	return fmt.Sprintf("unknown verb %q", e.Verb)
}

// BadArgumentsError is returned when a phrase does not fit its verb.
// Message is shown to the player verbatim.
type BadArgumentsError struct {
	Message string
}

func (e *BadArgumentsError) Error() string {
	return e.Message
}

func badArguments(msg string) error {
	return &BadArgumentsError{Message: msg}
}
