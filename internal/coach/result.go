package coach

import (
	"github.com/kfreiman/interviewcoach/internal/interview"
)

// Status of an orchestrated operation
type Status string

const (
	StatusOK       Status = "ok"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// GenericFailureMessage is shown when a collaborator call aborted the turn
const GenericFailureMessage = "Something went wrong while preparing the interview. Please try again."

// Result is the outcome of a coach operation. Only StatusOK means the
// session changed.
type Result struct {
	Status     Status              `json:"status"`
	Message    string              `json:"message,omitempty"`
	Retryable  bool                `json:"retryable"`
	FocusSkill string              `json:"focus_skill,omitempty"`
	Session    *interview.Snapshot `json:"session,omitempty"`
	Err        error               `json:"-"`
}

// OK reports whether the operation succeeded
func (r Result) OK() bool {
	return r.Status == StatusOK
}

func rejected(msg string, err error) Result {
	return Result{Status: StatusRejected, Message: msg, Err: err}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Message: GenericFailureMessage, Retryable: true, Err: err}
}

func succeeded(s *interview.Session, focus string) Result {
	snap := s.Snapshot()
	return Result{Status: StatusOK, FocusSkill: focus, Session: &snap}
}
