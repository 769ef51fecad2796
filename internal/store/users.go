package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kfreiman/interviewcoach/internal/schema"
)

// UpsertUser inserts a user or refreshes the name and last login of an
// existing one, returning the user id
func (s *Store) UpsertUser(ctx context.Context, email, firstName, lastName string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, &schema.ValidationError{Field: "email", Reason: "must be non-empty"}
	}
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, first_name, last_name, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?) `+s.dialect.upsert([]string{"email"}, []string{"first_name", "last_name", "last_login_at"}),
		email, firstName, lastName, now, now)
	if err != nil {
		return 0, &QueryError{Op: "upsert user", Err: err}
	}
	return s.selectID(ctx, "upsert user", `SELECT user_id FROM users WHERE email = ?`, email)
}

// UpdateUserCV stores the uploaded CV hash and extracted text
func (s *Store) UpdateUserCV(ctx context.Context, userID int64, cvHash, cvText string) error {
	return s.updateUser(ctx, "update user cv",
		`UPDATE users SET cv_file_hash = ?, cv_text = ? WHERE user_id = ?`,
		cvHash, cvText, userID)
}

// UpdateUserProfile stores the parsed profile and the tracked top skills
func (s *Store) UpdateUserProfile(ctx context.Context, userID int64, profile schema.CandidateProfile, topSkills []string) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if topSkills == nil {
		topSkills = []string{}
	}
	skillsJSON, err := json.Marshal(topSkills)
	if err != nil {
		return err
	}
	return s.updateUser(ctx, "update user profile",
		`UPDATE users SET profile_json = ?, top_skills_json = ? WHERE user_id = ?`,
		string(profileJSON), string(skillsJSON), userID)
}

func (s *Store) updateUser(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &QueryError{Op: op, Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &QueryError{Op: op, Err: ErrNotFound}
	}
	return nil
}

// UserTopSkills returns the stored top skills. Missing or malformed values
// yield an empty list.
func (s *Store) UserTopSkills(ctx context.Context, userID int64) ([]string, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT top_skills_json FROM users WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, &QueryError{Op: "user top skills", Err: err}
	}
	if !raw.Valid || raw.String == "" {
		return []string{}, nil
	}

	var parsed []any
	if err := json.Unmarshal([]byte(raw.String), &parsed); err != nil {
		s.logger.WarnContext(ctx, "malformed top skills json", "user_id", userID, "error", err)
		return []string{}, nil
	}
	skills := make([]string, 0, len(parsed))
	for _, v := range parsed {
		str, ok := v.(string)
		if !ok {
			continue
		}
		if str = strings.TrimSpace(str); str != "" {
			skills = append(skills, str)
		}
	}
	return skills, nil
}

// UserProfile loads the stored candidate profile
func (s *Store) UserProfile(ctx context.Context, userID int64) (*schema.CandidateProfile, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT profile_json FROM users WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &QueryError{Op: "user profile", Err: ErrNotFound}
	}
	if err != nil {
		return nil, &QueryError{Op: "user profile", Err: err}
	}
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var p schema.CandidateProfile
	if err := json.Unmarshal([]byte(raw.String), &p); err != nil {
		return nil, &QueryError{Op: "user profile", Err: err}
	}
	return &p, nil
}

// UpsertVacancy returns the id of the vacancy with this title and JD hash,
// creating it or refreshing its text
func (s *Store) UpsertVacancy(ctx context.Context, positionTitle, jdHash, jdText string) (int64, error) {
	if strings.TrimSpace(positionTitle) == "" {
		return 0, &schema.ValidationError{Field: "position_title", Reason: "must be non-empty"}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vacancies (position_title, jd_file_hash, jd_text, created_at)
		VALUES (?, ?, ?, ?) `+s.dialect.upsert([]string{"position_title", "jd_file_hash"}, []string{"jd_text"}),
		positionTitle, jdHash, jdText, s.timestamp())
	if err != nil {
		return 0, &QueryError{Op: "upsert vacancy", Err: err}
	}
	return s.selectID(ctx, "upsert vacancy",
		`SELECT vacancy_id FROM vacancies WHERE position_title = ? AND jd_file_hash = ?`,
		positionTitle, jdHash)
}

// LinkUserVacancy returns the id of the user/vacancy pair, the parent key of
// an interview's questions
func (s *Store) LinkUserVacancy(ctx context.Context, userID, vacancyID int64) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_vacancies (user_id, vacancy_id, created_at)
		VALUES (?, ?, ?) `+s.dialect.upsert([]string{"user_id", "vacancy_id"}, []string{"user_id"}),
		userID, vacancyID, s.timestamp())
	if err != nil {
		return 0, &QueryError{Op: "link user vacancy", Err: err}
	}
	return s.selectID(ctx, "link user vacancy",
		`SELECT user_vacancy_id FROM user_vacancies WHERE user_id = ? AND vacancy_id = ?`,
		userID, vacancyID)
}
