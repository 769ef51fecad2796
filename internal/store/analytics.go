package store

import (
	"context"
	"database/sql"
	"math"
	"sort"
)

// Summary aggregates one user/vacancy interview
type Summary struct {
	TotalQuestions       int      `json:"total_questions"`
	AnsweredQuestions    int      `json:"answered_questions"`
	SkippedQuestions     int      `json:"skipped_questions"`
	AvgCorrectness       *float64 `json:"avg_correctness"`
	AvgRoleRelevance     *float64 `json:"avg_role_relevance"`
	AvgRedFlags          *float64 `json:"avg_red_flags"`
	FallacyDetectedCount int      `json:"fallacy_detected_count"`
}

// TimelinePoint is one question of the interview in order
type TimelinePoint struct {
	QuestionOrder   int     `json:"question_order"`
	IsSkipped       bool    `json:"is_skipped"`
	Correctness     *int    `json:"correctness"`
	RoleRelevance   *int    `json:"role_relevance"`
	RedFlagsCount   *int    `json:"red_flags_count"`
	FallacyDetected bool    `json:"fallacy_detected"`
	CreatedAt       *string `json:"created_at"`
}

// Analytics is the per-interview read model
type Analytics struct {
	Summary  Summary         `json:"summary"`
	Timeline []TimelinePoint `json:"timeline"`
}

// SessionAnalytics summarizes the questions, answers and suggestions of one
// user/vacancy interview. Averages cover answered questions only and are
// nil when there are none.
func (s *Store) SessionAnalytics(ctx context.Context, userVacancyID int64) (Analytics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			q.question_order,
			COALESCE(a.is_skipped, 0),
			s.correctness,
			s.role_relevance,
			s.red_flags_count,
			s.fallacy_detected,
			s.created_at
		FROM questions q
		LEFT JOIN answers a ON a.question_id = q.question_id
		LEFT JOIN suggestions s ON s.question_id = q.question_id
		WHERE q.user_vacancy_id = ?
		ORDER BY q.question_order ASC`, userVacancyID)
	if err != nil {
		return Analytics{}, &QueryError{Op: "session analytics", Err: err}
	}
	defer rows.Close()

	out := Analytics{Timeline: []TimelinePoint{}}
	var correctness, relevance, redFlags []int
	for rows.Next() {
		var (
			p                      TimelinePoint
			skipped                int
			corr, rel, flags, fall sql.NullInt64
			created                sql.NullString
		)
		if err := rows.Scan(&p.QuestionOrder, &skipped, &corr, &rel, &flags, &fall, &created); err != nil {
			return Analytics{}, &QueryError{Op: "session analytics", Err: err}
		}
		p.IsSkipped = skipped == 1
		p.Correctness = intPtr(corr)
		p.RoleRelevance = intPtr(rel)
		p.RedFlagsCount = intPtr(flags)
		p.FallacyDetected = fall.Valid && fall.Int64 == 1
		if created.Valid {
			p.CreatedAt = &created.String
		}

		out.Summary.TotalQuestions++
		if p.IsSkipped {
			out.Summary.SkippedQuestions++
		}
		if p.Correctness != nil {
			out.Summary.AnsweredQuestions++
			correctness = append(correctness, *p.Correctness)
			if p.RoleRelevance != nil {
				relevance = append(relevance, *p.RoleRelevance)
			}
			if p.RedFlagsCount != nil {
				redFlags = append(redFlags, *p.RedFlagsCount)
			}
			if p.FallacyDetected {
				out.Summary.FallacyDetectedCount++
			}
		}
		out.Timeline = append(out.Timeline, p)
	}
	if err := rows.Err(); err != nil {
		return Analytics{}, &QueryError{Op: "session analytics", Err: err}
	}

	out.Summary.AvgCorrectness = average(correctness)
	out.Summary.AvgRoleRelevance = average(relevance)
	out.Summary.AvgRedFlags = average(redFlags)
	return out, nil
}

// Population compares one user's correctness with every user's
type Population struct {
	UserAvgCorrectness       *float64  `json:"user_avg_correctness"`
	UserAvgRoleRelevance     *float64  `json:"user_avg_role_relevance"`
	PopulationAvgCorrectness []float64 `json:"population_avg_correctness"`
	Percentile               *int      `json:"percentile"`
}

// PopulationCorrectness computes the user's average correctness and the
// share of users whose average is at or below it, as a rounded percentage
func (s *Store) PopulationCorrectness(ctx context.Context, userID int64) (Population, error) {
	var userCorr, userRel sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(s.correctness), AVG(s.role_relevance)
		FROM suggestions s
		JOIN questions q ON q.question_id = s.question_id
		JOIN user_vacancies uv ON uv.user_vacancy_id = q.user_vacancy_id
		WHERE uv.user_id = ?`, userID).Scan(&userCorr, &userRel)
	if err != nil {
		return Population{}, &QueryError{Op: "population correctness", Err: err}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT uv.user_id, AVG(s.correctness)
		FROM suggestions s
		JOIN questions q ON q.question_id = s.question_id
		JOIN user_vacancies uv ON uv.user_vacancy_id = q.user_vacancy_id
		GROUP BY uv.user_id
		HAVING COUNT(*) > 0`)
	if err != nil {
		return Population{}, &QueryError{Op: "population correctness", Err: err}
	}
	defer rows.Close()

	values := []float64{}
	for rows.Next() {
		var (
			id  int64
			avg sql.NullFloat64
		)
		if err := rows.Scan(&id, &avg); err != nil {
			return Population{}, &QueryError{Op: "population correctness", Err: err}
		}
		if avg.Valid {
			values = append(values, avg.Float64)
		}
	}
	if err := rows.Err(); err != nil {
		return Population{}, &QueryError{Op: "population correctness", Err: err}
	}
	sort.Float64s(values)

	out := Population{PopulationAvgCorrectness: values}
	if userCorr.Valid {
		out.UserAvgCorrectness = &userCorr.Float64
	}
	if userRel.Valid {
		out.UserAvgRoleRelevance = &userRel.Float64
	}
	if out.UserAvgCorrectness != nil && len(values) > 0 {
		p := percentile(values, *out.UserAvgCorrectness)
		out.Percentile = &p
	}
	return out, nil
}

// percentile is round(100 * |{v <= x}| / n) with ties rounded to even
func percentile(sorted []float64, x float64) int {
	n := sort.Search(len(sorted), func(i int) bool { return sorted[i] > x })
	return int(math.RoundToEven(float64(n) / float64(len(sorted)) * 100))
}

func average(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	avg := float64(sum) / float64(len(values))
	return &avg
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
