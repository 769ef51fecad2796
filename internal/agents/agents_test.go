package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/kfreiman/interviewcoach/internal/llm"
	"github.com/kfreiman/interviewcoach/internal/prompts"
	"github.com/kfreiman/interviewcoach/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedGenerator struct {
	out      string
	err      error
	requests []llm.Request
}

func (c *cannedGenerator) Name() string { return "canned" }

func (c *cannedGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	c.requests = append(c.requests, req)
	return c.out, c.err
}

func TestQuestionAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("appends missing focus skill", func(t *testing.T) {
		gen := &cannedGenerator{out: `{"question_text":"Describe a project.","category":"behavioral","difficulty":"easy","good_answer_traits":[],"tags":["Python"]}`}
		q, err := NewQuestionAgent(Config{Generator: gen}).Generate(ctx, QuestionRequest{
			Mode:       prompts.ModeDefault,
			TopSkills:  []string{"Python", "SQL"},
			FocusSkill: " SQL ",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Python", "SQL"}, q.Tags)

		require.Len(t, gen.requests, 1)
		assert.Contains(t, gen.requests[0].User, "Prioritize assessing this skill next: SQL")
		assert.InDelta(t, DefaultTemperature, gen.requests[0].Temperature, 1e-6)
	})

	t.Run("keeps tags when focus present in other case", func(t *testing.T) {
		gen := &cannedGenerator{out: `{"question_text":"Q","category":"technical","difficulty":"hard","good_answer_traits":[],"tags":["sql"]}`}
		q, err := NewQuestionAgent(Config{Generator: gen}).Generate(ctx, QuestionRequest{Mode: prompts.ModeStrict, FocusSkill: "SQL"})
		require.NoError(t, err)
		assert.Equal(t, []string{"sql"}, q.Tags)
	})

	t.Run("keeps tags when focus differs only in whitespace", func(t *testing.T) {
		gen := &cannedGenerator{out: `{"question_text":"Q","category":"technical","difficulty":"medium","good_answer_traits":[],"tags":["machine learning"]}`}
		q, err := NewQuestionAgent(Config{Generator: gen}).Generate(ctx, QuestionRequest{Mode: prompts.ModeDefault, FocusSkill: "Machine  Learning"})
		require.NoError(t, err)
		assert.Equal(t, []string{"machine learning"}, q.Tags)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewQuestionAgent(Config{Generator: &cannedGenerator{}}).Generate(ctx, QuestionRequest{Mode: "loud"})
		assert.ErrorIs(t, err, prompts.ErrUnknownMode)
	})
}

func TestEvaluatorAgent(t *testing.T) {
	gen := &cannedGenerator{out: `{"correctness":4,"depth":3,"structure":4,"communication":5,"role_relevance":4,"strengths":["clear"],"improvements":[],"red_flags":[]}`}
	sc, err := NewEvaluatorAgent(Config{Generator: gen, Temperature: 0.5}).Evaluate(context.Background(), EvaluationRequest{
		Mode:     prompts.ModeConcise,
		Question: schema.InterviewQuestion{QuestionText: "Q", Category: schema.CategoryTechnical, Difficulty: schema.DifficultyEasy},
		Answer:   "A",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, sc.Correctness)
	assert.InDelta(t, 0.5, gen.requests[0].Temperature, 1e-6)
}

func TestFallacyAgent(t *testing.T) {
	t.Run("adds disclaimer", func(t *testing.T) {
		gen := &cannedGenerator{out: `{"hint_level":"light","coach_hint_text":"Check causality","possible_fallacies":[{"type":"false_cause","confidence":0.6,"excerpt":"x","short_explanation":"y"}],"more_info_text":"Think about confounders."}`}
		h, err := NewFallacyAgent(Config{Generator: gen}).Judge(context.Background(), prompts.ModeFriendly, "Q", "A")
		require.NoError(t, err)
		assert.Equal(t, schema.HintLight, h.HintLevel)
		assert.Contains(t, h.MoreInfoText, schema.UncertaintyDisclaimer)
		assert.Contains(t, gen.requests[0].System, schema.UncertaintyDisclaimer)
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		gen := &cannedGenerator{err: errors.New("down")}
		_, err := NewFallacyAgent(Config{Generator: gen}).Judge(context.Background(), prompts.ModeDefault, "Q", "A")
		assert.Error(t, err)
	})
}

func TestProfilerAgent(t *testing.T) {
	gen := &cannedGenerator{out: `{"full_name":"Ada","seniority":"Senior","skills":["Go"],"tools":["Docker"]}`}
	p, err := NewProfilerAgent(Config{Generator: gen}).Profile(context.Background(), "Ada, senior Go developer")
	require.NoError(t, err)
	assert.Equal(t, schema.SenioritySenior, p.Seniority)
	assert.Equal(t, []string{"Go"}, p.Skills)
	assert.Contains(t, gen.requests[0].User, "Ada, senior Go developer")
}
