package postgres

import (
	"context"
	"fmt"
)

// schemaStatements bootstrap the four core relations. Answers are append-only;
// sessions reference topics and users; (title, level) is unique per topic.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGINT PRIMARY KEY,
		subscribed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS topics (
		id     BIGSERIAL PRIMARY KEY,
		title  TEXT NOT NULL,
		level  TEXT NOT NULL DEFAULT 'basic' CHECK (level IN ('basic','advanced')),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (title, level)
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id            BIGSERIAL PRIMARY KEY,
		topic_id      BIGINT NOT NULL REFERENCES topics(id),
		qtype         TEXT NOT NULL CHECK (qtype IN ('mcq','open')),
		text          TEXT NOT NULL,
		options       JSONB,
		correct_index INT,
		ideal_answer  TEXT,
		difficulty    TEXT NOT NULL DEFAULT 'basic' CHECK (difficulty IN ('basic','advanced'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic_id)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL,
		topic_id        BIGINT NOT NULL REFERENCES topics(id),
		mode            TEXT NOT NULL CHECK (mode IN ('test','open','mixed')),
		total_questions INT NOT NULL,
		idx             INT NOT NULL DEFAULT 0,
		correct_count   INT NOT NULL DEFAULT 0,
		started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		finished_at     TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS answers (
		id           BIGSERIAL PRIMARY KEY,
		session_id   BIGINT NOT NULL REFERENCES sessions(id),
		question_id  BIGINT NOT NULL REFERENCES questions(id),
		user_text    TEXT,
		chosen_index INT,
		is_correct   BOOLEAN,
		ai_score     INT,
		ai_comment   TEXT,
		answered_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_answers_session ON answers(session_id)`,
}

// InitSchema creates the core tables if they do not exist yet.
func InitSchema(ctx context.Context, db DBTX) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
