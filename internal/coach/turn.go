package coach

import (
	"context"
	"errors"
	"strings"

	"github.com/kfreiman/interviewcoach/internal/agents"
	"github.com/kfreiman/interviewcoach/internal/coverage"
	"github.com/kfreiman/interviewcoach/internal/events"
	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/prompts"
	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/kfreiman/interviewcoach/internal/schema"
	"github.com/kfreiman/interviewcoach/internal/store"
)

// ErrNotConfigured is returned when a required collaborator is missing
var ErrNotConfigured = errors.New("collaborator not configured")

// plan is what every step of a turn reads from the session before any
// external call
type plan struct {
	mode      prompts.Mode
	durable   interview.Durable
	profile   *schema.CandidateProfile
	topSkills []string
	// sanitized job description, empty when the session has none
	jd      string
	jdFresh bool
	// topSkills were derived in this call and are stored on success
	skillsFresh bool
}

func (c *Coach) prepare(ctx context.Context, s *interview.Session) (plan, *Result) {
	d := s.Durable()
	mode, err := prompts.ParseMode(d.PromptMode)
	if err != nil {
		res := rejected("Unknown prompt mode. Pick one of the listed modes.", err)
		return plan{}, &res
	}

	p := plan{mode: mode, durable: d, profile: d.Profile, topSkills: d.TopSkills}
	if p.profile == nil {
		placeholder := schema.PlaceholderProfile(d.PositionTitle)
		p.profile = &placeholder
	}

	if safe, ok := s.SafeJobDescription(); ok {
		p.jd = safe
	} else if raw := jobDescription(d); raw != "" {
		decision := c.safety.Check(ctx, raw, "a job description")
		if !decision.Allowed {
			res := rejected(decision.UserMessage, nil)
			return plan{}, &res
		}
		p.jd, p.jdFresh = decision.SafeText, true
	}

	if len(p.topSkills) == 0 && c.ranker != nil {
		skills, err := c.ranker.TopSkills(ctx, d.Profile, p.jd)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to derive top skills", "error", err)
		} else if len(skills) > 0 {
			p.topSkills, p.skillsFresh = skills, true
		}
	}
	return p, nil
}

func jobDescription(d interview.Durable) string {
	if jd := strings.TrimSpace(d.JobDescription); jd != "" {
		return jd
	}
	return strings.TrimSpace(d.JDText)
}

// commit stores what prepare derived once the transition went through
func (c *Coach) commit(s *interview.Session, p plan) {
	if p.skillsFresh {
		s.UpdateDurable(func(d *interview.Durable) { d.TopSkills = p.topSkills })
	}
	if p.jdFresh {
		s.SetSafeJobDescription(p.jd)
	}
}

// nextQuestion picks the least covered skill over transcript and asks for
// a question that carries it as a tag
func (c *Coach) nextQuestion(ctx context.Context, p plan, transcript []interview.Turn) (schema.InterviewQuestion, string, error) {
	if c.questions == nil {
		return schema.InterviewQuestion{}, "", ErrNotConfigured
	}
	cov := coverage.Compute(p.topSkills, transcript)
	focus, _ := coverage.PickFocus(p.topSkills, cov)

	q, err := c.questions.Generate(ctx, agents.QuestionRequest{
		Mode:           p.mode,
		Profile:        p.profile,
		JobDescription: p.jd,
		Transcript:     transcript,
		TopSkills:      p.topSkills,
		Coverage:       cov,
		FocusSkill:     focus,
	})
	if err != nil {
		return schema.InterviewQuestion{}, "", err
	}
	if focus != "" && !q.HasTag(focus) {
		q = q.WithTag(focus)
	}
	if err := q.Validate(); err != nil {
		return schema.InterviewQuestion{}, "", err
	}
	return q, focus, nil
}

// saveQuestion persists q at order. It returns nil without a store or for
// anonymous sessions.
func (c *Coach) saveQuestion(ctx context.Context, d interview.Durable, q schema.InterviewQuestion, order int) (*interview.QuestionRef, error) {
	if c.questionStore == nil || d.UserVacancyID == nil {
		return nil, nil
	}
	var id int64
	err := retry.Do(ctx, c.retry, func(int) error {
		var err error
		id, err = c.questionStore.CreateQuestion(ctx, store.QuestionRecord{
			UserVacancyID: *d.UserVacancyID,
			Text:          q.QuestionText,
			Category:      q.Category,
			Difficulty:    q.Difficulty,
			Tags:          q.Tags,
			Order:         order,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &interview.QuestionRef{ID: id, Order: order}, nil
}

// saveTurn persists the finished question, its answer and suggestion and
// the next question. Every write is idempotent, so a failed turn can be
// retried from the start.
func (c *Coach) saveTurn(ctx context.Context, d interview.Durable, turn interview.Turn, next schema.InterviewQuestion) (current, upcoming *interview.QuestionRef, err error) {
	if c.questionStore == nil || d.UserVacancyID == nil {
		return nil, nil, nil
	}

	if turn.QuestionID != nil {
		current = &interview.QuestionRef{ID: *turn.QuestionID, Order: turn.QuestionOrder}
	} else if current, err = c.saveQuestion(ctx, d, turn.Question, turn.QuestionOrder); err != nil {
		return nil, nil, err
	}

	if c.answerStore != nil {
		err = retry.Do(ctx, c.retry, func(int) error {
			_, err := c.answerStore.RecordAnswer(ctx, current.ID, turn.Answer, turn.IsSkipped)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		if turn.ScoreCard != nil {
			sg := store.SuggestionFromTurn(current.ID, *turn.ScoreCard, turn.FallacyHint)
			err = retry.Do(ctx, c.retry, func(int) error {
				_, err := c.answerStore.RecordSuggestion(ctx, sg)
				return err
			})
			if err != nil {
				return nil, nil, err
			}
		}
	}

	upcoming, err = c.saveQuestion(ctx, d, next, turn.QuestionOrder+1)
	if err != nil {
		return nil, nil, err
	}
	return current, upcoming, nil
}

// Start asks the first question, or replaces the live one
func (c *Coach) Start(ctx context.Context, sessionID string) Result {
	return c.withSession(sessionID, func(s *interview.Session) Result {
		p, res := c.prepare(ctx, s)
		if res != nil {
			return *res
		}

		q, focus, err := c.nextQuestion(ctx, p, s.Transcript())
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to generate question", "session_id", sessionID, "error", err)
			return failed(err)
		}
		order := s.NextOrder()
		ref, err := c.saveQuestion(ctx, p.durable, q, order)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to persist question", "session_id", sessionID, "error", err)
			return failed(err)
		}

		if err := s.Start(q, ref); err != nil {
			return Result{Status: StatusFailed, Message: GenericFailureMessage, Err: err}
		}
		c.commit(s, p)

		c.logger.InfoContext(ctx, "interview started", "session_id", sessionID, "question_order", order, "focus_skill", focus)
		c.publish(ctx, events.Event{
			Type:          events.TypeInterviewStarted,
			SessionID:     sessionID,
			UserID:        p.durable.UserID,
			UserVacancyID: p.durable.UserVacancyID,
			QuestionOrder: order,
			FocusSkill:    focus,
		})
		return succeeded(s, focus)
	})
}

// Submit scores the answer to the live question and asks the next one
func (c *Coach) Submit(ctx context.Context, sessionID, answer string) Result {
	return c.withSession(sessionID, func(s *interview.Session) Result {
		current, ok := s.CurrentQuestion()
		if !ok {
			return noLiveQuestion("submit_answer", s)
		}
		p, res := c.prepare(ctx, s)
		if res != nil {
			return *res
		}

		decision := c.safety.Check(ctx, answer, "an answer")
		if !decision.Allowed {
			return rejected(decision.UserMessage, nil)
		}

		if c.evaluator == nil {
			return failed(ErrNotConfigured)
		}
		sc, err := c.evaluator.Evaluate(ctx, agents.EvaluationRequest{
			Mode:           p.mode,
			Profile:        p.profile,
			JobDescription: p.jd,
			Question:       current,
			Answer:         decision.SafeText,
			Transcript:     s.Transcript(),
		})
		if err == nil {
			err = sc.Validate()
		}
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to evaluate answer", "session_id", sessionID, "error", err)
			return failed(err)
		}
		hint := c.judgeAnswer(ctx, p.mode, current.QuestionText, decision.SafeText)

		turn := c.pendingTurn(s, current)
		turn.Answer = decision.SafeText
		turn.ScoreCard = &sc
		turn.FallacyHint = &hint

		next, focus, err := c.nextQuestion(ctx, p, append(s.Transcript(), turn))
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to generate question", "session_id", sessionID, "error", err)
			return failed(err)
		}
		currentRef, nextRef, err := c.saveTurn(ctx, p.durable, turn, next)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to persist turn", "session_id", sessionID, "error", err)
			return failed(err)
		}

		if err := c.advance(s, currentRef, nextRef, func() error {
			return s.SubmitAnswer(decision.SafeText, sc, &next, &hint)
		}); err != nil {
			return Result{Status: StatusFailed, Message: GenericFailureMessage, Err: err}
		}
		c.commit(s, p)

		c.logger.InfoContext(ctx, "answer submitted",
			"session_id", sessionID,
			"question_order", turn.QuestionOrder,
			"correctness", sc.Correctness,
			"fallacy_detected", hint.Detected(),
		)
		c.publish(ctx, events.Event{
			Type:            events.TypeQuestionAnswered,
			SessionID:       sessionID,
			UserID:          p.durable.UserID,
			UserVacancyID:   p.durable.UserVacancyID,
			QuestionOrder:   turn.QuestionOrder,
			FocusSkill:      focus,
			Correctness:     &sc.Correctness,
			RoleRelevance:   &sc.RoleRelevance,
			FallacyDetected: hint.Detected(),
		})
		return succeeded(s, focus)
	})
}

// Skip records the live question as skipped and asks the next one. The
// skipped question still counts towards coverage.
func (c *Coach) Skip(ctx context.Context, sessionID string) Result {
	return c.withSession(sessionID, func(s *interview.Session) Result {
		current, ok := s.CurrentQuestion()
		if !ok {
			return noLiveQuestion("skip_question", s)
		}
		p, res := c.prepare(ctx, s)
		if res != nil {
			return *res
		}

		turn := c.pendingTurn(s, current)
		turn.IsSkipped = true

		next, focus, err := c.nextQuestion(ctx, p, append(s.Transcript(), turn))
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to generate question", "session_id", sessionID, "error", err)
			return failed(err)
		}
		currentRef, nextRef, err := c.saveTurn(ctx, p.durable, turn, next)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to persist turn", "session_id", sessionID, "error", err)
			return failed(err)
		}

		if err := c.advance(s, currentRef, nextRef, func() error {
			return s.SkipQuestion(&next)
		}); err != nil {
			return Result{Status: StatusFailed, Message: GenericFailureMessage, Err: err}
		}
		c.commit(s, p)

		c.logger.InfoContext(ctx, "question skipped", "session_id", sessionID, "question_order", turn.QuestionOrder)
		c.publish(ctx, events.Event{
			Type:          events.TypeQuestionSkipped,
			SessionID:     sessionID,
			UserID:        p.durable.UserID,
			UserVacancyID: p.durable.UserVacancyID,
			QuestionOrder: turn.QuestionOrder,
			FocusSkill:    focus,
		})
		return succeeded(s, focus)
	})
}

// Reset wipes the conversation and keeps the candidate and role
func (c *Coach) Reset(ctx context.Context, sessionID string) Result {
	return c.withSession(sessionID, func(s *interview.Session) Result {
		s.Reset()
		d := s.Durable()
		c.logger.InfoContext(ctx, "interview reset", "session_id", sessionID)
		c.publish(ctx, events.Event{
			Type:          events.TypeInterviewReset,
			SessionID:     sessionID,
			UserID:        d.UserID,
			UserVacancyID: d.UserVacancyID,
		})
		return succeeded(s, "")
	})
}

// pendingTurn snapshots the live question the way the session will record it
func (c *Coach) pendingTurn(s *interview.Session, q schema.InterviewQuestion) interview.Turn {
	turn := interview.Turn{Question: q, QuestionOrder: s.NextOrder()}
	if ref, ok := s.CurrentRef(); ok {
		id := ref.ID
		turn.QuestionID = &id
	}
	return turn
}

// advance attaches the persisted id of the finished question, runs the
// transition and attaches the id of the next question
func (c *Coach) advance(s *interview.Session, current, next *interview.QuestionRef, transition func() error) error {
	if _, ok := s.CurrentRef(); !ok && current != nil {
		if err := s.SetQuestionRef(*current); err != nil {
			return err
		}
	}
	if err := transition(); err != nil {
		return err
	}
	if next != nil {
		return s.SetQuestionRef(*next)
	}
	return nil
}

// judgeAnswer never fails: a broken judge yields the default hint
func (c *Coach) judgeAnswer(ctx context.Context, mode prompts.Mode, questionText, answer string) schema.FallacyHint {
	if c.judge == nil {
		return schema.DefaultFallacyHint()
	}
	hint, err := c.judge.Judge(ctx, mode, questionText, answer)
	if err == nil {
		err = hint.Validate()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "fallacy judge failed, using default hint", "error", err)
		return schema.DefaultFallacyHint()
	}
	return hint
}

func noLiveQuestion(op string, s *interview.Session) Result {
	err := &interview.TransitionError{Op: op, State: s.State(), Err: interview.ErrNoLiveQuestion}
	return rejected("There is no question waiting for an answer. Start the interview first.", err)
}
