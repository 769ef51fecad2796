package schema

import (
	"fmt"
	"slices"
)

const (
	MinScore = 0
	MaxScore = 5
)

// ScoreCard is the rubric evaluation of one answer
type ScoreCard struct {
	Correctness      int      `json:"correctness" jsonschema:"integer 0-5"`
	Depth            int      `json:"depth" jsonschema:"integer 0-5"`
	Structure        int      `json:"structure" jsonschema:"integer 0-5"`
	Communication    int      `json:"communication" jsonschema:"integer 0-5"`
	RoleRelevance    int      `json:"role_relevance" jsonschema:"integer 0-5"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	RedFlags         []string `json:"red_flags"`
	SuggestedRewrite *string  `json:"suggested_rewrite,omitempty"`
	FollowupQuestion *string  `json:"followup_question,omitempty"`
}

// Validate checks that every sub-score is within range
func (s ScoreCard) Validate() error {
	scores := []struct {
		field string
		value int
	}{
		{"correctness", s.Correctness},
		{"depth", s.Depth},
		{"structure", s.Structure},
		{"communication", s.Communication},
		{"role_relevance", s.RoleRelevance},
	}
	for _, sc := range scores {
		if sc.value < MinScore || sc.value > MaxScore {
			return &ValidationError{
				Field:  sc.field,
				Value:  fmt.Sprint(sc.value),
				Reason: fmt.Sprintf("must be between %d and %d", MinScore, MaxScore),
			}
		}
	}
	return nil
}

// Clone returns a deep copy
func (s ScoreCard) Clone() ScoreCard {
	s.Strengths = slices.Clone(s.Strengths)
	s.Improvements = slices.Clone(s.Improvements)
	s.RedFlags = slices.Clone(s.RedFlags)
	if s.SuggestedRewrite != nil {
		v := *s.SuggestedRewrite
		s.SuggestedRewrite = &v
	}
	if s.FollowupQuestion != nil {
		v := *s.FollowupQuestion
		s.FollowupQuestion = &v
	}
	return s
}
