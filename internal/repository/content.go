package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/infra/postgres"
)

// ContentRepository provides read access to topics and questions and the
// write path used by the admin commands. Quiz flow only ever reads.
type ContentRepository struct {
	db postgres.DBTX
}

// NewContentRepository creates a new ContentRepository with the provided database pool.
func NewContentRepository(db postgres.DBTX) *ContentRepository {
	return &ContentRepository{db: db}
}

// ListLevels returns distinct levels of active topics, basic before advanced,
// then lexicographic.
func (r *ContentRepository) ListLevels(ctx context.Context) ([]entities.Level, error) {
	query := `
		SELECT DISTINCT level
		FROM topics
		WHERE active = TRUE
		ORDER BY CASE WHEN level = 'basic' THEN 0 ELSE 1 END, level
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	defer rows.Close()

	var levels []entities.Level
	for rows.Next() {
		var lvl entities.Level
		if err := rows.Scan(&lvl); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		levels = append(levels, lvl)
	}

	return levels, rows.Err()
}

// ListTopics returns active topics with their question counts, ordered by title.
// An empty level returns topics for all levels. Topics with zero questions are
// included; callers filter them out before offering them for selection.
func (r *ContentRepository) ListTopics(ctx context.Context, level entities.Level) ([]*entities.Topic, error) {
	query := `
		SELECT t.id, t.title, t.level, t.active, COUNT(q.id)
		FROM topics t
		LEFT JOIN questions q ON q.topic_id = t.id
		WHERE t.active = TRUE
	`
	args := []any{}
	if level != "" {
		query += " AND t.level = $1"
		args = append(args, level)
	}
	query += " GROUP BY t.id ORDER BY t.title"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []*entities.Topic
	for rows.Next() {
		var t entities.Topic
		if err := rows.Scan(&t.ID, &t.Title, &t.Level, &t.Active, &t.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, &t)
	}

	return topics, rows.Err()
}

// CountQuestions returns the number of questions belonging to a topic.
// An unknown topic id yields zero, not an error.
func (r *ContentRepository) CountQuestions(ctx context.Context, topicID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM questions WHERE topic_id = $1", topicID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

// PickQuestions returns up to limit questions for a topic: ordered by id when
// randomize is false, uniformly shuffled when true. Shortage is not an error;
// the result is simply shorter.
func (r *ContentRepository) PickQuestions(ctx context.Context, topicID int64, limit int, randomize bool) ([]*entities.Question, error) {
	order := "ORDER BY id"
	if randomize {
		order = "ORDER BY RANDOM()"
	}
	query := fmt.Sprintf(`
		SELECT id, topic_id, qtype, text, options, correct_index, ideal_answer, difficulty
		FROM questions
		WHERE topic_id = $1
		%s
		LIMIT $2
	`, order)

	rows, err := r.db.Query(ctx, query, topicID, limit)
	if err != nil {
		return nil, fmt.Errorf("pick questions: %w", err)
	}
	defer rows.Close()

	var questions []*entities.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func scanQuestion(rows pgx.Rows) (*entities.Question, error) {
	var (
		q            entities.Question
		optionsJSON  []byte
		correctIndex *int
		idealAnswer  *string
	)
	if err := rows.Scan(&q.ID, &q.TopicID, &q.Type, &q.Text, &optionsJSON, &correctIndex, &idealAnswer, &q.Difficulty); err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}

	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
			return nil, fmt.Errorf("decode question options: %w", err)
		}
	}
	if correctIndex != nil {
		q.CorrectIndex = *correctIndex
	}
	if idealAnswer != nil {
		q.IdealAnswer = *idealAnswer
	}

	return &q, nil
}

// EnsureTopic inserts a topic or reactivates an existing (title, level) pair,
// returning its id.
func (r *ContentRepository) EnsureTopic(ctx context.Context, title string, level entities.Level, active bool) (int64, error) {
	query := `
		INSERT INTO topics (title, level, active)
		VALUES ($1, $2, $3)
		ON CONFLICT (title, level) DO UPDATE SET active = EXCLUDED.active
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRow(ctx, query, title, level, active).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure topic: %w", err)
	}

	return id, nil
}

// AddQuestion validates and inserts a question, returning its id.
func (r *ContentRepository) AddQuestion(ctx context.Context, q *entities.Question) (int64, error) {
	q.Text = entities.NormalizeText(q.Text)
	q.IdealAnswer = entities.NormalizeText(q.IdealAnswer)
	for i, opt := range q.Options {
		q.Options[i] = entities.NormalizeText(opt)
	}
	if err := q.Validate(); err != nil {
		return 0, err
	}

	var (
		optionsJSON  any
		correctIndex *int
		idealAnswer  *string
	)
	switch q.Type {
	case entities.QuestionMCQ:
		raw, err := json.Marshal(q.Options)
		if err != nil {
			return 0, fmt.Errorf("encode question options: %w", err)
		}
		optionsJSON = raw
		correctIndex = &q.CorrectIndex
	case entities.QuestionOpen:
		idealAnswer = &q.IdealAnswer
	}

	query := `
		INSERT INTO questions (topic_id, qtype, text, options, correct_index, ideal_answer, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, q.TopicID, q.Type, q.Text, optionsJSON, correctIndex, idealAnswer, q.Difficulty).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add question: %w", err)
	}

	return id, nil
}

// DeleteQuestions removes every question of a topic. Used by replace-mode imports.
func (r *ContentRepository) DeleteQuestions(ctx context.Context, topicID int64) error {
	if _, err := r.db.Exec(ctx, "DELETE FROM questions WHERE topic_id = $1", topicID); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	return nil
}
