package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/infra/postgres"
	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/repository"
)

// QuestionImport is one question of an admin import payload.
type QuestionImport struct {
	Type         string   `json:"qtype"`
	Text         string   `json:"text"`
	Options      []string `json:"options,omitempty"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
	IdealAnswer  string   `json:"ideal_answer,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// TopicImport is one topic of an admin import payload.
type TopicImport struct {
	Title     string           `json:"title"`
	Level     string           `json:"level"`
	Active    *bool            `json:"active,omitempty"`
	Replace   *bool            `json:"replace,omitempty"`
	Questions []QuestionImport `json:"questions"`
}

// ImportStats summarizes an applied import.
type ImportStats struct {
	Topics    int
	Questions int
}

// AdminService owns administrative content management: topic creation and
// bulk question import. Each import runs inside one transaction so a partial
// multi-row write never corrupts a concurrently-read topic inventory.
type AdminService struct {
	transactor *postgres.Transactor
}

// NewAdminService creates a new AdminService.
func NewAdminService(transactor *postgres.Transactor) *AdminService {
	return &AdminService{transactor: transactor}
}

// AddTopic creates or reactivates a topic.
func (s *AdminService) AddTopic(ctx context.Context, title string, level entities.Level) (int64, error) {
	title = entities.NormalizeText(title)
	if title == "" {
		return 0, fmt.Errorf("add topic: %w", entities.ErrEmptyQuestionText)
	}
	if !level.Valid() {
		return 0, entities.ErrUnknownLevel
	}

	var id int64
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		id, err = repository.NewContentRepository(tx).EnsureTopic(ctx, title, level, true)
		return err
	})
	return id, err
}

// ImportTopics applies a bulk payload of topics and questions. Topics in
// replace mode have their question pool rebuilt from the payload. Any invalid
// question aborts the whole import and rolls back.
func (s *AdminService) ImportTopics(ctx context.Context, topics []TopicImport, replaceDefault bool) (ImportStats, error) {
	var stats ImportStats

	err := s.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		content := repository.NewContentRepository(tx)

		for _, t := range topics {
			title := entities.NormalizeText(t.Title)
			if title == "" {
				continue
			}
			level := entities.Level(t.Level)
			if t.Level == "" {
				level = entities.LevelBasic
			}
			if !level.Valid() {
				return fmt.Errorf("topic %q: %w", title, entities.ErrUnknownLevel)
			}

			active := true
			if t.Active != nil {
				active = *t.Active
			}
			topicID, err := content.EnsureTopic(ctx, title, level, active)
			if err != nil {
				return err
			}
			stats.Topics++

			replace := replaceDefault
			if t.Replace != nil {
				replace = *t.Replace
			}
			if replace {
				if err := content.DeleteQuestions(ctx, topicID); err != nil {
					return err
				}
			}

			for _, qi := range t.Questions {
				q, err := buildQuestion(topicID, qi, level)
				if err != nil {
					return fmt.Errorf("topic %q: %w", title, err)
				}
				if _, err := content.AddQuestion(ctx, q); err != nil {
					return fmt.Errorf("topic %q: %w", title, err)
				}
				stats.Questions++
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}

	return stats, nil
}

// buildQuestion maps an import entry onto the question variant, defaulting
// difficulty to the owning topic's level.
func buildQuestion(topicID int64, qi QuestionImport, topicLevel entities.Level) (*entities.Question, error) {
	difficulty := entities.Level(qi.Difficulty)
	if qi.Difficulty == "" {
		difficulty = topicLevel
	}

	q := &entities.Question{
		TopicID:    topicID,
		Type:       entities.QuestionType(qi.Type),
		Text:       qi.Text,
		Difficulty: difficulty,
	}

	switch q.Type {
	case entities.QuestionMCQ:
		if qi.CorrectIndex == nil {
			return nil, entities.ErrBadCorrectIndex
		}
		q.Options = append([]string(nil), qi.Options...)
		q.CorrectIndex = *qi.CorrectIndex
	case entities.QuestionOpen:
		q.IdealAnswer = qi.IdealAnswer
	default:
		return nil, entities.ErrUnknownQuestion
	}

	return q, nil
}
