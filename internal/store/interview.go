package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kfreiman/interviewcoach/internal/schema"
)

// QuestionRecord is a question as persisted for one user/vacancy interview
type QuestionRecord struct {
	UserVacancyID int64
	Text          string
	Category      schema.Category
	Difficulty    schema.Difficulty
	Tags          []string
	Order         int
}

// CreateQuestion stores a question and returns its id. A second call for
// the same interview and order updates the row and returns the same id.
func (s *Store) CreateQuestion(ctx context.Context, q QuestionRecord) (int64, error) {
	if strings.TrimSpace(q.Text) == "" {
		return 0, &schema.ValidationError{Field: "question_text", Reason: "must be non-empty"}
	}
	if q.Order < 1 {
		return 0, &schema.ValidationError{Field: "question_order", Reason: "must start at 1"}
	}

	var tags any
	if len(q.Tags) > 0 {
		b, err := json.Marshal(q.Tags)
		if err != nil {
			return 0, err
		}
		tags = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (user_vacancy_id, question_text, category, difficulty, skill_tags_json, question_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) `+s.dialect.upsert(
		[]string{"user_vacancy_id", "question_order"},
		[]string{"question_text", "category", "difficulty", "skill_tags_json"},
	), q.UserVacancyID, q.Text, string(q.Category), string(q.Difficulty), tags, q.Order, s.timestamp())
	if err != nil {
		return 0, &QueryError{Op: "create question", Err: err}
	}
	return s.selectID(ctx, "create question",
		`SELECT question_id FROM questions WHERE user_vacancy_id = ? AND question_order = ?`,
		q.UserVacancyID, q.Order)
}

// RecordAnswer stores the answer to a question and returns its id. The
// first write wins: later calls return the existing id unchanged and a
// differing answer is logged and dropped. Skipped answers are stored
// without text.
func (s *Store) RecordAnswer(ctx context.Context, questionID int64, text string, skipped bool) (int64, error) {
	var answer any
	if !skipped {
		if strings.TrimSpace(text) == "" {
			return 0, &schema.ValidationError{Field: "answer_text", Reason: "must be non-empty when the question is not skipped"}
		}
		answer = text
	}

	insert, conflict := s.dialect.insertIgnore("answers", "question_id")
	_, err := s.db.ExecContext(ctx, insert+` (question_id, answer_text, is_skipped, created_at)
		VALUES (?, ?, ?, ?) `+conflict,
		questionID, answer, boolInt(skipped), s.timestamp())
	if err != nil {
		return 0, &QueryError{Op: "record answer", Err: err}
	}

	var (
		id         int64
		storedText sql.NullString
		wasSkipped int
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT answer_id, answer_text, is_skipped FROM answers WHERE question_id = ?`, questionID,
	).Scan(&id, &storedText, &wasSkipped)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &QueryError{Op: "record answer", Err: ErrNotFound}
	}
	if err != nil {
		return 0, &QueryError{Op: "record answer", Err: err}
	}
	if wasSkipped != boolInt(skipped) || (!skipped && storedText.String != text) {
		s.logger.WarnContext(ctx, "answer already recorded, keeping the first one",
			"question_id", questionID,
			"answer_id", id,
			"stored_skipped", wasSkipped == 1,
			"dropped_skipped", skipped,
		)
	}
	return id, nil
}

// Suggestion is the feedback summary persisted for one answered question
type Suggestion struct {
	QuestionID         int64
	Correctness        int
	RoleRelevance      int
	RedFlagsCount      int
	RedFlagsText       string
	ImprovementsText   string
	SuggestedRewrite   *string
	FollowupQuestion   *string
	FallacyDetected    bool
	FallacyName        *string
	FallacyExplanation *string
	CoachHint          *string
}

// SuggestionFromTurn flattens a scorecard and an optional fallacy hint into
// suggestion columns
func SuggestionFromTurn(questionID int64, sc schema.ScoreCard, hint *schema.FallacyHint) Suggestion {
	s := Suggestion{
		QuestionID:       questionID,
		Correctness:      sc.Correctness,
		RoleRelevance:    sc.RoleRelevance,
		RedFlagsCount:    len(sc.RedFlags),
		RedFlagsText:     strings.Join(sc.RedFlags, "\n"),
		ImprovementsText: strings.Join(sc.Improvements, "\n"),
		SuggestedRewrite: sc.SuggestedRewrite,
		FollowupQuestion: sc.FollowupQuestion,
	}
	if hint == nil {
		return s
	}

	s.FallacyDetected = hint.Detected()
	if s.FallacyDetected {
		if pf, ok := hint.PrimaryFallacy(); ok {
			name := pf.Type.DisplayName()
			s.FallacyName = &name
			if expl := strings.TrimSpace(pf.ShortExplanation); expl != "" {
				s.FallacyExplanation = &expl
			}
		}
	}
	if text := strings.TrimSpace(hint.CoachHintText); text != "" {
		s.CoachHint = &text
	}
	return s
}

// RecordSuggestion stores a suggestion and returns its id. The first write
// wins.
func (s *Store) RecordSuggestion(ctx context.Context, sg Suggestion) (int64, error) {
	insert, conflict := s.dialect.insertIgnore("suggestions", "question_id")
	_, err := s.db.ExecContext(ctx, insert+` (
			question_id, correctness, role_relevance, red_flags_count, red_flags_text, improvements_text,
			suggested_rewrite, followup_question, fallacy_detected, fallacy_name, fallacy_explanation, coach_hint,
			created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) `+conflict,
		sg.QuestionID, sg.Correctness, sg.RoleRelevance, sg.RedFlagsCount, sg.RedFlagsText, sg.ImprovementsText,
		sg.SuggestedRewrite, sg.FollowupQuestion, boolInt(sg.FallacyDetected), sg.FallacyName, sg.FallacyExplanation, sg.CoachHint,
		s.timestamp())
	if err != nil {
		return 0, &QueryError{Op: "record suggestion", Err: err}
	}
	return s.selectID(ctx, "record suggestion", `SELECT suggestion_id FROM suggestions WHERE question_id = ?`, sg.QuestionID)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
