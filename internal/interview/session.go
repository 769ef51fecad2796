// Package interview holds the per-candidate interview state machine.
//
// A Session moves between three states:
//
//	Empty ──Start──▶ AwaitingAnswer ──SubmitAnswer/SkipQuestion(next)──▶ AwaitingAnswer
//	                        │
//	                        └──SubmitAnswer/SkipQuestion(nil)──▶ Ended
//
// Reset returns to Empty from anywhere and keeps only the Durable fields.
package interview

import (
	"fmt"
	"slices"

	"github.com/kfreiman/interviewcoach/internal/schema"
)

// State of a session
type State int

const (
	StateEmpty State = iota
	StateAwaitingAnswer
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// QuestionRef is the durable identity of a persisted question
type QuestionRef struct {
	ID    int64 `json:"question_id"`
	Order int   `json:"question_order"`
}

// Turn is one answered or skipped exchange
type Turn struct {
	Question      schema.InterviewQuestion `json:"question"`
	Answer        string                   `json:"answer"`
	ScoreCard     *schema.ScoreCard        `json:"scorecard,omitempty"`
	FallacyHint   *schema.FallacyHint      `json:"fallacy_hint,omitempty"`
	QuestionID    *int64                   `json:"question_id,omitempty"`
	QuestionOrder int                      `json:"question_order"`
	IsSkipped     bool                     `json:"is_skipped"`
}

// QuestionTags makes Turn usable for coverage counting
func (t Turn) QuestionTags() []string {
	return t.Question.Tags
}

func (t Turn) clone() Turn {
	t.Question = t.Question.Clone()
	if t.ScoreCard != nil {
		sc := t.ScoreCard.Clone()
		t.ScoreCard = &sc
	}
	if t.FallacyHint != nil {
		h := t.FallacyHint.Clone()
		t.FallacyHint = &h
	}
	if t.QuestionID != nil {
		id := *t.QuestionID
		t.QuestionID = &id
	}
	return t
}

// Durable is what survives Reset: everything about the candidate and the
// role, nothing about the conversation.
type Durable struct {
	JobDescription string                   `json:"job_description,omitempty"`
	PromptMode     string                   `json:"prompt_mode,omitempty"`
	CVText         string                   `json:"cv_text,omitempty"`
	CVFileHash     string                   `json:"cv_file_hash,omitempty"`
	Profile        *schema.CandidateProfile `json:"profile,omitempty"`
	TopSkills      []string                 `json:"top_skills,omitempty"`
	JDText         string                   `json:"jd_text,omitempty"`
	JDFileHash     string                   `json:"jd_file_hash,omitempty"`
	PositionTitle  string                   `json:"position_title,omitempty"`
	UserID         *int64                   `json:"user_id,omitempty"`
	VacancyID      *int64                   `json:"vacancy_id,omitempty"`
	UserVacancyID  *int64                   `json:"user_vacancy_id,omitempty"`
}

func (d Durable) clone() Durable {
	if d.Profile != nil {
		p := *d.Profile
		d.Profile = &p
	}
	d.TopSkills = slices.Clone(d.TopSkills)
	return d
}

// Session is the mutable interview aggregate. It is not safe for concurrent
// use; the Registry serializes access per session.
type Session struct {
	durable Durable

	started    bool
	ended      bool
	current    *schema.InterviewQuestion
	currentRef *QuestionRef

	lastScoreCard   *schema.ScoreCard
	lastFallacyHint *schema.FallacyHint

	transcript []Turn

	// sanitized job description, valid until the description changes or Reset
	safeJD *string
}

// NewSession creates an empty session carrying d
func NewSession(d Durable) *Session {
	return &Session{durable: d.clone(), transcript: []Turn{}}
}

// State derives the current state from the fields
func (s *Session) State() State {
	switch {
	case s.current != nil:
		return StateAwaitingAnswer
	case s.ended:
		return StateEnded
	default:
		return StateEmpty
	}
}

// Start makes q the live question. Starting over while a question is live
// simply replaces it. ref may be nil when the question is not persisted.
func (s *Session) Start(q schema.InterviewQuestion, ref *QuestionRef) error {
	if err := q.Validate(); err != nil {
		return &TransitionError{Op: "start", State: s.State(), Err: err}
	}
	if err := s.checkRef(ref); err != nil {
		return &TransitionError{Op: "start", State: s.State(), Err: err}
	}

	live := q.Clone()
	s.current = &live
	s.currentRef = copyRef(ref)
	s.lastScoreCard = nil
	s.lastFallacyHint = nil
	if s.transcript == nil {
		s.transcript = []Turn{}
	}
	s.started = true
	s.ended = false
	return nil
}

// SubmitAnswer records an answered turn for the live question and moves on
// to next, or ends the interview when next is nil.
func (s *Session) SubmitAnswer(answer string, sc schema.ScoreCard, next *schema.InterviewQuestion, hint *schema.FallacyHint) error {
	if err := s.checkAdvance("submit_answer", next); err != nil {
		return err
	}

	score := sc.Clone()
	turn := s.liveTurn()
	turn.Answer = answer
	turn.ScoreCard = &score
	if hint != nil {
		h := hint.Clone()
		turn.FallacyHint = &h
	}
	s.transcript = append(s.transcript, turn)

	lastScore := score.Clone()
	s.lastScoreCard = &lastScore
	s.lastFallacyHint = nil
	if turn.FallacyHint != nil {
		h := turn.FallacyHint.Clone()
		s.lastFallacyHint = &h
	}

	s.advance(next)
	return nil
}

// SkipQuestion records a skipped turn and moves on like SubmitAnswer.
// Skipping produces no feedback, so the last-turn caches are cleared.
func (s *Session) SkipQuestion(next *schema.InterviewQuestion) error {
	if err := s.checkAdvance("skip_question", next); err != nil {
		return err
	}

	turn := s.liveTurn()
	turn.IsSkipped = true
	s.transcript = append(s.transcript, turn)

	s.lastScoreCard = nil
	s.lastFallacyHint = nil
	s.advance(next)
	return nil
}

// SetQuestionRef attaches the durable id of the live question once it has
// been persisted.
func (s *Session) SetQuestionRef(ref QuestionRef) error {
	if s.current == nil {
		return &TransitionError{Op: "set_question_ref", State: s.State(), Err: ErrNoLiveQuestion}
	}
	if err := s.checkRef(&ref); err != nil {
		return &TransitionError{Op: "set_question_ref", State: s.State(), Err: err}
	}
	s.currentRef = copyRef(&ref)
	return nil
}

// Reset wipes the conversation and keeps the Durable fields
func (s *Session) Reset() {
	*s = Session{durable: s.durable, transcript: []Turn{}}
}

func (s *Session) checkAdvance(op string, next *schema.InterviewQuestion) error {
	if s.current == nil {
		return &TransitionError{Op: op, State: s.State(), Err: ErrNoLiveQuestion}
	}
	if next != nil {
		if err := next.Validate(); err != nil {
			return &TransitionError{Op: op, State: s.State(), Err: err}
		}
	}
	return nil
}

func (s *Session) checkRef(ref *QuestionRef) error {
	if ref == nil {
		return nil
	}
	if want := s.NextOrder(); ref.Order != want {
		return fmt.Errorf("%w: got %d, want %d", ErrQuestionOrder, ref.Order, want)
	}
	return nil
}

// liveTurn snapshots the live question into a new turn
func (s *Session) liveTurn() Turn {
	turn := Turn{
		Question:      s.current.Clone(),
		QuestionOrder: s.NextOrder(),
	}
	if s.currentRef != nil {
		id := s.currentRef.ID
		turn.QuestionID = &id
	}
	return turn
}

func (s *Session) advance(next *schema.InterviewQuestion) {
	s.currentRef = nil
	if next == nil {
		s.current = nil
		s.ended = true
		return
	}
	q := next.Clone()
	s.current = &q
}

// NextOrder is the 1-based order the live question takes in the transcript
func (s *Session) NextOrder() int {
	return len(s.transcript) + 1
}

// Started reports whether Start was ever called since creation or Reset
func (s *Session) Started() bool {
	return s.started
}

// CurrentQuestion returns a copy of the live question
func (s *Session) CurrentQuestion() (schema.InterviewQuestion, bool) {
	if s.current == nil {
		return schema.InterviewQuestion{}, false
	}
	return s.current.Clone(), true
}

// CurrentRef returns the durable reference of the live question, if persisted
func (s *Session) CurrentRef() (QuestionRef, bool) {
	if s.currentRef == nil {
		return QuestionRef{}, false
	}
	return *s.currentRef, true
}

// Transcript returns a deep copy of the turns in interview order
func (s *Session) Transcript() []Turn {
	out := make([]Turn, len(s.transcript))
	for i, t := range s.transcript {
		out[i] = t.clone()
	}
	return out
}

// LastScoreCard is the scorecard of the most recent answered turn
func (s *Session) LastScoreCard() *schema.ScoreCard {
	if s.lastScoreCard == nil {
		return nil
	}
	sc := s.lastScoreCard.Clone()
	return &sc
}

// LastFallacyHint is the hint of the most recent answered turn
func (s *Session) LastFallacyHint() *schema.FallacyHint {
	if s.lastFallacyHint == nil {
		return nil
	}
	h := s.lastFallacyHint.Clone()
	return &h
}

// Durable returns a copy of the fields that survive Reset
func (s *Session) Durable() Durable {
	return s.durable.clone()
}

// UpdateDurable applies fn to the durable fields. Changing the job
// description drops the cached sanitized copy.
func (s *Session) UpdateDurable(fn func(d *Durable)) {
	d := s.durable.clone()
	fn(&d)
	if d.JobDescription != s.durable.JobDescription {
		s.safeJD = nil
	}
	s.durable = d
}

// SafeJobDescription returns the sanitized job description if it was
// already checked in this session
func (s *Session) SafeJobDescription() (string, bool) {
	if s.safeJD == nil {
		return "", false
	}
	return *s.safeJD, true
}

// SetSafeJobDescription caches the sanitized job description
func (s *Session) SetSafeJobDescription(text string) {
	s.safeJD = &text
}

// Snapshot is a read-only JSON view of a session
type Snapshot struct {
	State           string                    `json:"state"`
	Started         bool                      `json:"started"`
	CurrentQuestion *schema.InterviewQuestion `json:"current_question,omitempty"`
	CurrentRef      *QuestionRef              `json:"current_ref,omitempty"`
	LastScoreCard   *schema.ScoreCard         `json:"last_scorecard,omitempty"`
	LastFallacyHint *schema.FallacyHint       `json:"last_fallacy_hint,omitempty"`
	Transcript      []Turn                    `json:"transcript"`
	Durable         Durable                   `json:"durable"`
}

// Snapshot copies the session into a Snapshot
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		State:           s.State().String(),
		Started:         s.started,
		CurrentRef:      copyRef(s.currentRef),
		LastScoreCard:   s.LastScoreCard(),
		LastFallacyHint: s.LastFallacyHint(),
		Transcript:      s.Transcript(),
		Durable:         s.Durable(),
	}
	if q, ok := s.CurrentQuestion(); ok {
		snap.CurrentQuestion = &q
	}
	return snap
}

func copyRef(ref *QuestionRef) *QuestionRef {
	if ref == nil {
		return nil
	}
	r := *ref
	return &r
}
