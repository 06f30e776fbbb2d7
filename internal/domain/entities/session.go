package entities

import "time"

// SessionMode describes which question types a session may contain.
type SessionMode string

const (
	ModeTest  SessionMode = "test"  // mcq only
	ModeOpen  SessionMode = "open"  // open only
	ModeMixed SessionMode = "mixed" // both
)

// Session represents one user's run through a batch of questions from one topic.
// TotalQuestions is fixed at creation; Idx and CorrectCount advance turn by turn
// and are monotonically non-decreasing within a session.
type Session struct {
	ID             int64
	UserID         int64
	TopicID        int64
	Mode           SessionMode
	TotalQuestions int
	Idx            int // 0-based progress cursor, 0 <= Idx <= TotalQuestions
	CorrectCount   int
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// NewSession creates an unstarted session record for a user and topic.
func NewSession(userID, topicID int64, total int, mode SessionMode) *Session {
	return &Session{
		UserID:         userID,
		TopicID:        topicID,
		Mode:           mode,
		TotalQuestions: total,
		StartedAt:      time.Now(),
	}
}

// Finished reports whether the cursor has exhausted the batch.
func (s *Session) Finished() bool {
	return s.Idx >= s.TotalQuestions
}
