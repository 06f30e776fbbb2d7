package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/infra/postgres"
)

// TopicQuestionCount is one row of the largest-topics listing.
type TopicQuestionCount struct {
	Title     string
	Questions int
}

// BotStats is a point-in-time snapshot of the content and usage counters.
// AnswersAccepted counts answers that scored: confirmed correct mcq turns and
// open turns graded at or above the pass threshold.
type BotStats struct {
	Users            int
	UsersSubscribed  int
	Topics           int
	TopicsActive     int
	Questions        int
	Sessions         int
	SessionsFinished int
	Answers          int
	AnswersAccepted  int
	LastSession      *time.Time
	LastAnswer       *time.Time
	TopTopics        []TopicQuestionCount
}

// Accuracy returns the accepted-answers share in percent, 0 with no answers.
func (s BotStats) Accuracy() float64 {
	if s.Answers == 0 {
		return 0
	}
	return float64(s.AnswersAccepted) / float64(s.Answers) * 100
}

// StatsRepository aggregates the usage counters shown to administrators.
type StatsRepository struct {
	db postgres.DBTX
}

// NewStatsRepository creates a new StatsRepository with the provided database pool.
func NewStatsRepository(db postgres.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// Snapshot collects the counters in one round trip plus the top-topics listing.
func (r *StatsRepository) Snapshot(ctx context.Context) (BotStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE subscribed),
			(SELECT COUNT(*) FROM topics),
			(SELECT COUNT(*) FROM topics WHERE active),
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM sessions WHERE finished_at IS NOT NULL),
			(SELECT COUNT(*) FROM answers),
			(SELECT COUNT(*) FROM answers
			 WHERE is_correct = TRUE
			    OR (is_correct IS NULL AND ai_score >= 4)),
			(SELECT MAX(started_at) FROM sessions),
			(SELECT MAX(answered_at) FROM answers)
	`

	var s BotStats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.Users,
		&s.UsersSubscribed,
		&s.Topics,
		&s.TopicsActive,
		&s.Questions,
		&s.Sessions,
		&s.SessionsFinished,
		&s.Answers,
		&s.AnswersAccepted,
		&s.LastSession,
		&s.LastAnswer,
	)
	if err != nil {
		return BotStats{}, fmt.Errorf("stats snapshot: %w", err)
	}

	topQuery := `
		SELECT t.title, COUNT(*)
		FROM questions q
		JOIN topics t ON t.id = q.topic_id
		GROUP BY t.id
		ORDER BY COUNT(*) DESC, t.title
		LIMIT 5
	`

	rows, err := r.db.Query(ctx, topQuery)
	if err != nil {
		return BotStats{}, fmt.Errorf("top topics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc TopicQuestionCount
		if err := rows.Scan(&tc.Title, &tc.Questions); err != nil {
			return BotStats{}, fmt.Errorf("scan top topic: %w", err)
		}
		s.TopTopics = append(s.TopTopics, tc)
	}

	return s, rows.Err()
}
