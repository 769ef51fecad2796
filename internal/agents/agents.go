// Package agents wraps the structured generation helper with the prompts
// for each coaching task.
package agents

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kfreiman/interviewcoach/internal/llm"
	"github.com/kfreiman/interviewcoach/internal/prompts"
	"github.com/kfreiman/interviewcoach/internal/schema"
)

// DefaultTemperature is used when Config.Temperature is zero
const DefaultTemperature = 0.2

// Config is shared by every agent
type Config struct {
	Generator   llm.Generator
	Catalog     *prompts.Catalog
	Temperature float32
	Logger      *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Catalog == nil {
		c.Catalog = prompts.NewCatalog()
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// QuestionRequest is everything the question generator may use. Profile
// and JobDescription may be empty.
type QuestionRequest struct {
	Mode           prompts.Mode
	Profile        *schema.CandidateProfile
	JobDescription string
	Transcript     any
	TopSkills      []string
	Coverage       map[string]int
	FocusSkill     string
}

// QuestionAgent generates the next interview question
type QuestionAgent struct {
	cfg Config
}

// NewQuestionAgent creates a question agent
func NewQuestionAgent(cfg Config) *QuestionAgent {
	return &QuestionAgent{cfg: cfg.withDefaults()}
}

// Generate asks the model for a question. When a focus skill is given and
// the model left it out of the tags, it is appended.
func (a *QuestionAgent) Generate(ctx context.Context, req QuestionRequest) (schema.InterviewQuestion, error) {
	system, err := a.cfg.Catalog.QuestionSystem(req.Mode)
	if err != nil {
		return schema.InterviewQuestion{}, err
	}
	focus := strings.TrimSpace(req.FocusSkill)
	user, err := a.cfg.Catalog.QuestionUser(prompts.QuestionInput{
		Profile:        req.Profile,
		JobDescription: req.JobDescription,
		Transcript:     req.Transcript,
		TopSkills:      req.TopSkills,
		Coverage:       req.Coverage,
		FocusSkill:     focus,
	})
	if err != nil {
		return schema.InterviewQuestion{}, err
	}

	q, err := llm.Structured[schema.InterviewQuestion](ctx, a.cfg.Generator, llm.Request{
		System:      system,
		User:        user,
		Temperature: a.cfg.Temperature,
	}, "question_generation", a.cfg.Logger)
	if err != nil {
		return schema.InterviewQuestion{}, err
	}

	if focus != "" && !q.HasTag(focus) {
		a.cfg.Logger.InfoContext(ctx, "focus skill missing from generated tags", "focus_skill", focus)
		q = q.WithTag(focus)
	}
	return q, nil
}

// EvaluationRequest is the input for scoring one answer
type EvaluationRequest struct {
	Mode           prompts.Mode
	Profile        *schema.CandidateProfile
	JobDescription string
	Question       schema.InterviewQuestion
	Answer         string
	Transcript     any
}

// EvaluatorAgent scores answers
type EvaluatorAgent struct {
	cfg Config
}

// NewEvaluatorAgent creates an evaluator agent
func NewEvaluatorAgent(cfg Config) *EvaluatorAgent {
	return &EvaluatorAgent{cfg: cfg.withDefaults()}
}

// Evaluate returns the rubric scorecard for an answer
func (a *EvaluatorAgent) Evaluate(ctx context.Context, req EvaluationRequest) (schema.ScoreCard, error) {
	system, err := a.cfg.Catalog.ScorecardSystem(req.Mode)
	if err != nil {
		return schema.ScoreCard{}, err
	}
	user, err := a.cfg.Catalog.EvaluationUser(prompts.EvaluationInput{
		Profile:        req.Profile,
		JobDescription: req.JobDescription,
		Question:       req.Question,
		Answer:         req.Answer,
		Transcript:     req.Transcript,
	})
	if err != nil {
		return schema.ScoreCard{}, err
	}

	return llm.Structured[schema.ScoreCard](ctx, a.cfg.Generator, llm.Request{
		System:      system,
		User:        user,
		Temperature: a.cfg.Temperature,
	}, "answer_evaluation", a.cfg.Logger)
}

// FallacyAgent flags possible reasoning fallacies in answers
type FallacyAgent struct {
	cfg Config
}

// NewFallacyAgent creates a fallacy judge
func NewFallacyAgent(cfg Config) *FallacyAgent {
	return &FallacyAgent{cfg: cfg.withDefaults()}
}

// Judge returns a hint that always carries the uncertainty disclaimer
func (a *FallacyAgent) Judge(ctx context.Context, mode prompts.Mode, questionText, answer string) (schema.FallacyHint, error) {
	system, err := a.cfg.Catalog.FallacySystem(mode)
	if err != nil {
		return schema.FallacyHint{}, err
	}
	user, err := a.cfg.Catalog.FallacyUser(questionText, answer)
	if err != nil {
		return schema.FallacyHint{}, err
	}

	h, err := llm.Structured[schema.FallacyHint](ctx, a.cfg.Generator, llm.Request{
		System:      system,
		User:        user,
		Temperature: a.cfg.Temperature,
	}, "fallacy_judge", a.cfg.Logger)
	if err != nil {
		return schema.FallacyHint{}, err
	}
	return schema.NewFallacyHint(h.HintLevel, h.CoachHintText, h.PossibleFallacies, h.MoreInfoText, h.SuggestedRewrite)
}

// ProfilerAgent turns CV text into a candidate profile
type ProfilerAgent struct {
	cfg Config
}

// NewProfilerAgent creates a profiler agent
func NewProfilerAgent(cfg Config) *ProfilerAgent {
	return &ProfilerAgent{cfg: cfg.withDefaults()}
}

// Profile extracts a profile from cvText
func (a *ProfilerAgent) Profile(ctx context.Context, cvText string) (schema.CandidateProfile, error) {
	user, err := a.cfg.Catalog.ProfileUser(cvText)
	if err != nil {
		return schema.CandidateProfile{}, err
	}
	return llm.Structured[schema.CandidateProfile](ctx, a.cfg.Generator, llm.Request{
		System:      a.cfg.Catalog.ProfileSystem(),
		User:        user,
		Temperature: a.cfg.Temperature,
	}, "profiling", a.cfg.Logger)
}
