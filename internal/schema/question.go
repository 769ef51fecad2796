package schema

import (
	"slices"
	"strings"
)

// Category classifies what kind of interview question was asked
type Category string

const (
	CategoryBehavioral  Category = "behavioral"
	CategoryTechnical   Category = "technical"
	CategoryCase        Category = "case"
	CategorySituational Category = "situational"
	CategoryMixed       Category = "mixed"
)

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	switch c {
	case CategoryBehavioral, CategoryTechnical, CategoryCase, CategorySituational, CategoryMixed:
		return true
	default:
		return false
	}
}

// Difficulty of a question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is a known difficulty
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// InterviewQuestion is a generated question. Treat it as immutable:
// methods that change tags return a copy.
type InterviewQuestion struct {
	QuestionText     string     `json:"question_text" jsonschema:"the question to ask the candidate"`
	Category         Category   `json:"category" jsonschema:"one of behavioral, technical, case, situational, mixed"`
	Difficulty       Difficulty `json:"difficulty" jsonschema:"one of easy, medium, hard"`
	GoodAnswerTraits []string   `json:"good_answer_traits" jsonschema:"traits a strong answer would show"`
	Tags             []string   `json:"tags" jsonschema:"skills or topics the question probes"`
}

// Validate checks text, category and difficulty
func (q InterviewQuestion) Validate() error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return &ValidationError{Field: "question_text", Reason: "must not be empty"}
	}
	if !q.Category.IsValid() {
		return &ValidationError{Field: "category", Value: string(q.Category), Reason: "unknown category"}
	}
	if !q.Difficulty.IsValid() {
		return &ValidationError{Field: "difficulty", Value: string(q.Difficulty), Reason: "unknown difficulty"}
	}
	return nil
}

// HasTag reports whether tag is present, ignoring case and differences in
// whitespace
func (q InterviewQuestion) HasTag(tag string) bool {
	want := tagKey(tag)
	for _, t := range q.Tags {
		if tagKey(t) == want {
			return true
		}
	}
	return false
}

// tagKey matches the canonical skill form used for coverage counting
func tagKey(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), " ")
}

// WithTag returns a copy of q that carries tag. Blank tags and tags that
// are already present leave the copy unchanged.
func (q InterviewQuestion) WithTag(tag string) InterviewQuestion {
	out := q.Clone()
	tag = strings.TrimSpace(tag)
	if tag == "" || q.HasTag(tag) {
		return out
	}
	out.Tags = append(out.Tags, tag)
	return out
}

// Clone returns a deep copy
func (q InterviewQuestion) Clone() InterviewQuestion {
	q.GoodAnswerTraits = slices.Clone(q.GoodAnswerTraits)
	q.Tags = slices.Clone(q.Tags)
	return q
}
