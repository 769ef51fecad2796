package store

import (
	"fmt"
	"strings"
	"time"
)

// dialect holds the statements that differ between SQLite and MySQL
type dialect struct {
	name      string
	schema    []string
	timestamp func(time.Time) any
	// upsert renders the conflict clause updating cols on a conflict over key
	upsert func(key []string, cols []string) string
	// insertIgnore is an INSERT that keeps the existing row on conflict
	insertIgnore func(table string, key string) (prefix, suffix string)
}

func dialectFor(driver string) dialect {
	if driver == DriverMySQL {
		return mysqlDialect
	}
	return sqliteDialect
}

var sqliteDialect = dialect{
	name:   DriverSQLite,
	schema: sqliteSchema,
	timestamp: func(t time.Time) any {
		return t.UTC().Format(time.RFC3339)
	},
	upsert: func(key []string, cols []string) string {
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s=excluded.%s", c, c)
		}
		return fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET %s", strings.Join(key, ", "), strings.Join(sets, ", "))
	},
	insertIgnore: func(table, key string) (string, string) {
		return "INSERT INTO " + table, "ON CONFLICT(" + key + ") DO NOTHING"
	},
}

var mysqlDialect = dialect{
	name:   DriverMySQL,
	schema: mysqlSchema,
	timestamp: func(t time.Time) any {
		return t.UTC().Truncate(time.Second)
	},
	upsert: func(_ []string, cols []string) string {
		sets := make([]string, len(cols))
		for i, c := range cols {
			sets[i] = fmt.Sprintf("%s=VALUES(%s)", c, c)
		}
		return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	},
	insertIgnore: func(table, _ string) (string, string) {
		return "INSERT IGNORE INTO " + table, ""
	},
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		last_login_at TEXT NOT NULL,
		profile_json TEXT,
		top_skills_json TEXT,
		cv_file_hash TEXT,
		cv_text TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS vacancies (
		vacancy_id INTEGER PRIMARY KEY AUTOINCREMENT,
		position_title TEXT NOT NULL,
		jd_file_hash TEXT NOT NULL,
		jd_text TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(position_title, jd_file_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS user_vacancies (
		user_vacancy_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(user_id),
		vacancy_id INTEGER NOT NULL REFERENCES vacancies(vacancy_id),
		created_at TEXT NOT NULL,
		UNIQUE(user_id, vacancy_id)
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		question_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_vacancy_id INTEGER NOT NULL REFERENCES user_vacancies(user_vacancy_id),
		question_text TEXT NOT NULL,
		category TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		skill_tags_json TEXT,
		question_order INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(user_vacancy_id, question_order)
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		answer_id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL UNIQUE REFERENCES questions(question_id),
		answer_text TEXT,
		is_skipped INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS suggestions (
		suggestion_id INTEGER PRIMARY KEY AUTOINCREMENT,
		question_id INTEGER NOT NULL UNIQUE REFERENCES questions(question_id),
		correctness INTEGER NOT NULL,
		role_relevance INTEGER NOT NULL,
		red_flags_count INTEGER NOT NULL,
		red_flags_text TEXT NOT NULL,
		improvements_text TEXT NOT NULL,
		suggested_rewrite TEXT,
		followup_question TEXT,
		fallacy_detected INTEGER NOT NULL,
		fallacy_name TEXT,
		fallacy_explanation TEXT,
		coach_hint TEXT,
		created_at TEXT NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(320) NOT NULL UNIQUE,
		first_name VARCHAR(128) NOT NULL,
		last_name VARCHAR(128) NOT NULL,
		created_at DATETIME NOT NULL,
		last_login_at DATETIME NOT NULL,
		profile_json JSON NULL,
		top_skills_json JSON NULL,
		cv_file_hash VARCHAR(128) NULL,
		cv_text MEDIUMTEXT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vacancies (
		vacancy_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		position_title VARCHAR(255) NOT NULL,
		jd_file_hash VARCHAR(128) NOT NULL,
		jd_text MEDIUMTEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_vacancies_title_hash (position_title, jd_file_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS user_vacancies (
		user_vacancy_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		vacancy_id BIGINT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_user_vacancy (user_id, vacancy_id),
		FOREIGN KEY (user_id) REFERENCES users(user_id),
		FOREIGN KEY (vacancy_id) REFERENCES vacancies(vacancy_id)
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		question_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_vacancy_id BIGINT NOT NULL,
		question_text MEDIUMTEXT NOT NULL,
		category VARCHAR(32) NOT NULL,
		difficulty VARCHAR(32) NOT NULL,
		skill_tags_json JSON NULL,
		question_order INT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_questions_uv_order (user_vacancy_id, question_order),
		FOREIGN KEY (user_vacancy_id) REFERENCES user_vacancies(user_vacancy_id)
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		answer_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		question_id BIGINT NOT NULL,
		answer_text MEDIUMTEXT NULL,
		is_skipped TINYINT(1) NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_answers_question (question_id),
		FOREIGN KEY (question_id) REFERENCES questions(question_id)
	)`,
	`CREATE TABLE IF NOT EXISTS suggestions (
		suggestion_id BIGINT AUTO_INCREMENT PRIMARY KEY,
		question_id BIGINT NOT NULL,
		correctness INT NOT NULL,
		role_relevance INT NOT NULL,
		red_flags_count INT NOT NULL,
		red_flags_text MEDIUMTEXT NOT NULL,
		improvements_text MEDIUMTEXT NOT NULL,
		suggested_rewrite MEDIUMTEXT NULL,
		followup_question MEDIUMTEXT NULL,
		fallacy_detected TINYINT(1) NOT NULL,
		fallacy_name VARCHAR(64) NULL,
		fallacy_explanation MEDIUMTEXT NULL,
		coach_hint MEDIUMTEXT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_suggestions_question (question_id),
		FOREIGN KEY (question_id) REFERENCES questions(question_id)
	)`,
}
