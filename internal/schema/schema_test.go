package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestion() InterviewQuestion {
	return InterviewQuestion{
		QuestionText:     "Tell me about a time you optimised a slow SQL query.",
		Category:         CategoryTechnical,
		Difficulty:       DifficultyMedium,
		GoodAnswerTraits: []string{"measures before and after"},
		Tags:             []string{"SQL"},
	}
}

func TestInterviewQuestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *InterviewQuestion)
		wantErr string
	}{
		{"valid", func(q *InterviewQuestion) {}, ""},
		{"blank text", func(q *InterviewQuestion) { q.QuestionText = "  " }, "question_text"},
		{"bad category", func(q *InterviewQuestion) { q.Category = "trivia" }, "category"},
		{"bad difficulty", func(q *InterviewQuestion) { q.Difficulty = "extreme" }, "difficulty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)
			err := q.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Field)
		})
	}
}

func TestInterviewQuestion_WithTag(t *testing.T) {
	t.Run("appends missing tag once", func(t *testing.T) {
		q := validQuestion()
		got := q.WithTag(" Python ")
		assert.Equal(t, []string{"SQL", "Python"}, got.Tags)
		assert.Equal(t, []string{"SQL"}, q.Tags, "original must not change")
	})

	t.Run("case-insensitive match leaves tags alone", func(t *testing.T) {
		got := validQuestion().WithTag("sql")
		assert.Equal(t, []string{"SQL"}, got.Tags)
	})

	t.Run("inner whitespace is ignored when matching", func(t *testing.T) {
		q := validQuestion()
		q.Tags = []string{"machine learning"}
		assert.True(t, q.HasTag("Machine  Learning"))
		assert.True(t, q.HasTag(" machine\tlearning "))
		assert.Equal(t, []string{"machine learning"}, q.WithTag("Machine  Learning").Tags)
	})

	t.Run("blank tag is ignored", func(t *testing.T) {
		got := validQuestion().WithTag("   ")
		assert.Equal(t, []string{"SQL"}, got.Tags)
	})
}

func TestScoreCard_Validate(t *testing.T) {
	sc := ScoreCard{Correctness: 5, Depth: 0, Structure: 3, Communication: 4, RoleRelevance: 2}
	require.NoError(t, sc.Validate())

	sc.Depth = 6
	var verr *ValidationError
	require.ErrorAs(t, sc.Validate(), &verr)
	assert.Equal(t, "depth", verr.Field)

	sc.Depth = 1
	sc.RoleRelevance = -1
	require.ErrorAs(t, sc.Validate(), &verr)
	assert.Equal(t, "role_relevance", verr.Field)
}

func TestScoreCard_CloneIsDeep(t *testing.T) {
	rewrite := "better"
	sc := ScoreCard{Strengths: []string{"clear"}, SuggestedRewrite: &rewrite}
	cp := sc.Clone()
	cp.Strengths[0] = "changed"
	*cp.SuggestedRewrite = "changed"
	assert.Equal(t, "clear", sc.Strengths[0])
	assert.Equal(t, "better", *sc.SuggestedRewrite)
}

func TestNewFallacyHint(t *testing.T) {
	t.Run("adds disclaimer when missing", func(t *testing.T) {
		h, err := NewFallacyHint(HintLight, "Check causality", []PossibleFallacy{
			{Type: FallacyFalseCause, Confidence: 0.6, Excerpt: "sales rose after I joined"},
		}, "Consider alternatives.", nil)
		require.NoError(t, err)
		assert.Contains(t, h.MoreInfoText, UncertaintyDisclaimer)
		assert.True(t, strings.HasPrefix(h.MoreInfoText, "Consider alternatives."))
	})

	t.Run("keeps existing disclaimer", func(t *testing.T) {
		h, err := NewFallacyHint(HintNone, "", nil, UncertaintyDisclaimer, nil)
		require.NoError(t, err)
		assert.Equal(t, UncertaintyDisclaimer, h.MoreInfoText)
	})

	t.Run("rejects unknown fallacy type", func(t *testing.T) {
		_, err := NewFallacyHint(HintStrong, "", []PossibleFallacy{{Type: "strawman", Confidence: 0.5}}, "", nil)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "strawman", verr.Value)
	})

	t.Run("rejects confidence out of range", func(t *testing.T) {
		_, err := NewFallacyHint(HintStrong, "", []PossibleFallacy{{Type: FallacyAccent, Confidence: 1.5}}, "", nil)
		assert.Error(t, err)
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := NewFallacyHint("medium", "", nil, "", nil)
		assert.Error(t, err)
	})
}

func TestFallacyHint_ValidateRequiresDisclaimer(t *testing.T) {
	h := FallacyHint{HintLevel: HintNone, MoreInfoText: "no disclaimer here"}
	assert.Error(t, h.Validate())

	h.Normalize()
	assert.NoError(t, h.Validate())
}

func TestDefaultFallacyHint(t *testing.T) {
	h := DefaultFallacyHint()
	require.NoError(t, h.Validate())
	assert.Equal(t, HintNone, h.HintLevel)
	assert.False(t, h.Detected())
}

func TestFallacyTaxonomy(t *testing.T) {
	assert.Len(t, FallacyTypes, 13)
	for _, ft := range FallacyTypes {
		assert.True(t, ft.IsValid(), ft)
		assert.NotEmpty(t, ft.Explanation(), ft)
		assert.NotEqual(t, defaultRedFlag, RedFlagRationale(ft), ft)
	}
	assert.Equal(t, "False Cause", FallacyFalseCause.DisplayName())
	assert.Equal(t, "Form Of Expression", FallacyFormOfExpression.DisplayName())
	assert.Equal(t, defaultRedFlag, RedFlagRationale("strawman"))
	assert.Len(t, FallacyExplanations(), 13)
}

func TestFallacyHint_ReadMoreText(t *testing.T) {
	t.Run("no fallacies yields only disclaimer", func(t *testing.T) {
		assert.Equal(t, UncertaintyDisclaimer, DefaultFallacyHint().ReadMoreText())
	})

	t.Run("primary fallacy sections", func(t *testing.T) {
		h, err := NewFallacyHint(HintLight, "hint", []PossibleFallacy{
			{Type: FallacyFalseCause, Confidence: 0.7, Excerpt: "revenue grew so my change worked", ShortExplanation: "Timing alone is not causation."},
			{Type: FallacyAccent, Confidence: 0.2},
		}, "Try citing a controlled comparison.", nil)
		require.NoError(t, err)

		text := h.ReadMoreText()
		assert.Contains(t, text, "Definition: Causation is asserted without sufficient basis.")
		assert.Contains(t, text, "- Timing alone is not causation.")
		assert.Contains(t, text, `- Excerpt: "revenue grew so my change worked"`)
		assert.Contains(t, text, "Why it can be a red flag in interviews: In interviews, jumping from correlation")
		assert.Contains(t, text, "Try citing a controlled comparison.")
		assert.True(t, strings.HasSuffix(text, UncertaintyDisclaimer))
		assert.Equal(t, 1, strings.Count(text, UncertaintyDisclaimer))
	})
}

func TestCandidateProfile(t *testing.T) {
	p := PlaceholderProfile("  Backend Engineer ")
	assert.Equal(t, "Backend Engineer", p.TargetRole)
	assert.Equal(t, SeniorityUnknown, p.Seniority)
	assert.Empty(t, p.Skills)

	q := CandidateProfile{Seniority: " Senior "}
	q.Normalize()
	assert.NoError(t, q.Validate())
	assert.Equal(t, SenioritySenior, q.Seniority)

	empty := CandidateProfile{}
	empty.Normalize()
	assert.Equal(t, SeniorityUnknown, empty.Seniority)

	bad := CandidateProfile{Seniority: "wizard"}
	assert.Error(t, bad.Validate())
}
