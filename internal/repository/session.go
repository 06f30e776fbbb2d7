package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/infra/postgres"
)

var ErrSessionNotFound = errors.New("session not found")

// TopicMissStat is one row of the remediation aggregation: a topic and how
// many of the session's answers on it need review.
type TopicMissStat struct {
	Title     string
	Level     entities.Level
	MissCount int
}

// SessionRepository provides access to session and answer data in the database.
type SessionRepository struct {
	db postgres.DBTX
}

// NewSessionRepository creates a new SessionRepository with the provided database pool.
func NewSessionRepository(db postgres.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession inserts a session row and fills in its id.
func (r *SessionRepository) CreateSession(ctx context.Context, s *entities.Session) error {
	query := `
		INSERT INTO sessions (user_id, topic_id, mode, total_questions, idx, correct_count, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(
		ctx,
		query,
		s.UserID,
		s.TopicID,
		s.Mode,
		s.TotalQuestions,
		s.Idx,
		s.CorrectCount,
		s.StartedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by id.
func (r *SessionRepository) GetSession(ctx context.Context, id int64) (*entities.Session, error) {
	query := `
		SELECT id, user_id, topic_id, mode, total_questions, idx, correct_count, started_at, finished_at
		FROM sessions
		WHERE id = $1
	`

	var s entities.Session
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.TopicID,
		&s.Mode,
		&s.TotalQuestions,
		&s.Idx,
		&s.CorrectCount,
		&s.StartedAt,
		&s.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

// UpdateProgress persists the cursor and running correct count after an
// accepted turn. Both values only ever grow within a session.
func (r *SessionRepository) UpdateProgress(ctx context.Context, sessionID int64, idx, correctCount int) error {
	result, err := r.db.Exec(
		ctx,
		"UPDATE sessions SET idx = $1, correct_count = $2 WHERE id = $3",
		idx, correctCount, sessionID,
	)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// FinishSession stamps finished_at. Called by the state machine when the
// cursor exhausts the batch; the store does not enforce completion itself.
func (r *SessionRepository) FinishSession(ctx context.Context, sessionID int64) error {
	result, err := r.db.Exec(
		ctx,
		"UPDATE sessions SET finished_at = $1 WHERE id = $2",
		time.Now(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// LogAnswer appends an answer row. Answers are never updated or deleted.
func (r *SessionRepository) LogAnswer(ctx context.Context, a *entities.Answer) error {
	query := `
		INSERT INTO answers (session_id, question_id, user_text, chosen_index, is_correct, ai_score, ai_comment, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRow(
		ctx,
		query,
		a.SessionID,
		a.QuestionID,
		a.UserText,
		a.ChosenIndex,
		a.IsCorrect,
		a.AIScore,
		a.AIComment,
		a.AnsweredAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("log answer: %w", err)
	}

	return nil
}

// AnswersByTopicStats groups a session's answers by owning topic and counts
// those needing review: confirmed wrong, or open answers with no score or a
// score below 3. Ordered by miss count descending.
func (r *SessionRepository) AnswersByTopicStats(ctx context.Context, sessionID int64) ([]TopicMissStat, error) {
	query := `
		SELECT t.title, t.level, COUNT(*)
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		JOIN topics t ON t.id = q.topic_id
		WHERE a.session_id = $1
		  AND (
			a.is_correct = FALSE
			OR (a.is_correct IS NULL AND (a.ai_score IS NULL OR a.ai_score < 3))
		  )
		GROUP BY t.id
		ORDER BY COUNT(*) DESC
	`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("answers by topic stats: %w", err)
	}
	defer rows.Close()

	var stats []TopicMissStat
	for rows.Next() {
		var s TopicMissStat
		if err := rows.Scan(&s.Title, &s.Level, &s.MissCount); err != nil {
			return nil, fmt.Errorf("scan topic stat: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
