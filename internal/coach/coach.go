// Package coach drives an interview turn by turn: it chooses the focus
// skill, asks the collaborators for questions, scores and fallacy hints,
// persists the turn and only then advances the session.
//
// Every operation returns a Result. A failed or rejected operation leaves
// the session exactly as it was.
package coach

import (
	"context"
	"log/slog"
	"time"

	"github.com/kfreiman/interviewcoach/internal/agents"
	"github.com/kfreiman/interviewcoach/internal/events"
	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/prompts"
	"github.com/kfreiman/interviewcoach/internal/retry"
	"github.com/kfreiman/interviewcoach/internal/safety"
	"github.com/kfreiman/interviewcoach/internal/schema"
	"github.com/kfreiman/interviewcoach/internal/store"
)

// QuestionGenerator produces the next question
type QuestionGenerator interface {
	Generate(ctx context.Context, req agents.QuestionRequest) (schema.InterviewQuestion, error)
}

// AnswerEvaluator scores an answer
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, req agents.EvaluationRequest) (schema.ScoreCard, error)
}

// FallacyJudge flags reasoning problems. Its failures never block a turn.
type FallacyJudge interface {
	Judge(ctx context.Context, mode prompts.Mode, questionText, answer string) (schema.FallacyHint, error)
}

// SafetyChecker validates free text before it reaches the model
type SafetyChecker interface {
	Check(ctx context.Context, text, label string) safety.Decision
}

// Profiler turns CV text into a candidate profile
type Profiler interface {
	Profile(ctx context.Context, cvText string) (schema.CandidateProfile, error)
}

// SkillRanker picks the skills tracked for coverage
type SkillRanker interface {
	TopSkills(ctx context.Context, profile *schema.CandidateProfile, jdText string) ([]string, error)
}

// QuestionStore persists questions, idempotent per interview and order
type QuestionStore interface {
	CreateQuestion(ctx context.Context, q store.QuestionRecord) (int64, error)
}

// AnswerStore persists answers and suggestions, idempotent per question
type AnswerStore interface {
	RecordAnswer(ctx context.Context, questionID int64, text string, skipped bool) (int64, error)
	RecordSuggestion(ctx context.Context, sg store.Suggestion) (int64, error)
}

// ProfileStore persists the profile and the tracked skills of a user
type ProfileStore interface {
	UpdateUserProfile(ctx context.Context, userID int64, profile schema.CandidateProfile, topSkills []string) error
}

// EventPublisher announces finished transitions
type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Config wires the collaborators. Questions, Evaluator and Judge are
// required for interviews, Profiler for BuildProfile. Nil stores turn
// persistence off.
type Config struct {
	Registry  *interview.Registry
	Questions QuestionGenerator
	Evaluator AnswerEvaluator
	Judge     FallacyJudge
	Safety    SafetyChecker
	Profiler  Profiler
	Ranker    SkillRanker

	QuestionStore QuestionStore
	AnswerStore   AnswerStore
	ProfileStore  ProfileStore

	Events EventPublisher
	Retry  retry.Config
	Logger *slog.Logger
}

// Coach is the session orchestrator
type Coach struct {
	registry  *interview.Registry
	questions QuestionGenerator
	evaluator AnswerEvaluator
	judge     FallacyJudge
	safety    SafetyChecker
	profiler  Profiler
	ranker    SkillRanker

	questionStore QuestionStore
	answerStore   AnswerStore
	profileStore  ProfileStore

	events EventPublisher
	retry  retry.Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a coach, filling defaults for the optional collaborators
func New(cfg Config) *Coach {
	if cfg.Registry == nil {
		cfg.Registry = interview.NewRegistry()
	}
	if cfg.Safety == nil {
		cfg.Safety = safety.NewChecker(0, nil)
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Events == nil {
		cfg.Events = events.Noop{}
	}

	return &Coach{
		registry:      cfg.Registry,
		questions:     cfg.Questions,
		evaluator:     cfg.Evaluator,
		judge:         cfg.Judge,
		safety:        cfg.Safety,
		profiler:      cfg.Profiler,
		ranker:        cfg.Ranker,
		questionStore: cfg.QuestionStore,
		answerStore:   cfg.AnswerStore,
		profileStore:  cfg.ProfileStore,
		events:        cfg.Events,
		retry:         cfg.Retry,
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

// Registry returns the sessions the coach operates on
func (c *Coach) Registry() *interview.Registry {
	return c.registry
}

// publish is fire and forget: the turn already happened
func (c *Coach) publish(ctx context.Context, ev events.Event) {
	ev.OccurredAt = c.now().UTC()
	if err := c.events.Publish(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "failed to publish event", "type", ev.Type, "session_id", ev.SessionID, "error", err)
	}
}

// withSession runs op under the session lock and maps an unknown id to a
// rejected result
func (c *Coach) withSession(sessionID string, op func(s *interview.Session) Result) Result {
	var res Result
	err := c.registry.With(sessionID, func(s *interview.Session) error {
		res = op(s)
		return nil
	})
	if err != nil {
		return rejected("Session not found. Create a new session first.", err)
	}
	return res
}
