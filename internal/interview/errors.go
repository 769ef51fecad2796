package interview

import (
	"errors"
	"fmt"
)

var (
	// ErrNoLiveQuestion is returned when answering or skipping with nothing asked
	ErrNoLiveQuestion = errors.New("no live question")
	// ErrQuestionOrder is returned when a question reference breaks the 1..n ordering
	ErrQuestionOrder = errors.New("question order out of sequence")
	// ErrSessionNotFound is returned by the registry for unknown ids
	ErrSessionNotFound = errors.New("session not found")
)

// TransitionError describes a rejected state machine operation.
// The session is unchanged when it is returned.
type TransitionError struct {
	Op    string
	State State
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s from state %s: %v", e.Op, e.State, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
