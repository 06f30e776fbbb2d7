package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/domain/entities"
)

// Session size bounds. Large pools get a randomized length so repeated
// sessions on the same topic do not replay a fixed sequence.
const (
	MinSessionQuestions = 7
	MaxSessionQuestions = 10
)

var ErrNoQuestionsAvailable = errors.New("no questions available")

// Selector decides how many questions a session should contain and fetches them.
type Selector struct {
	content ContentRepository
}

// NewSelector creates a new Selector.
func NewSelector(content ContentRepository) *Selector {
	return &Selector{content: content}
}

// Select returns a randomized question batch for the topic. When the pool is
// smaller than MinSessionQuestions the whole pool is used; otherwise the size
// is drawn uniformly from [MinSessionQuestions, min(MaxSessionQuestions, pool)].
// A topic with no questions yields ErrNoQuestionsAvailable, never an empty batch.
func (s *Selector) Select(ctx context.Context, topicID int64) ([]*entities.Question, error) {
	available, err := s.content.CountQuestions(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	if available == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	size := available
	if available >= MinSessionQuestions {
		upper := MaxSessionQuestions
		if available < upper {
			upper = available
		}
		size = MinSessionQuestions + rand.Intn(upper-MinSessionQuestions+1)
	}

	questions, err := s.content.PickQuestions(ctx, topicID, size, true)
	if err != nil {
		return nil, fmt.Errorf("pick questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestionsAvailable
	}

	return questions, nil
}
