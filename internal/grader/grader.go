package grader

import (
	"context"
	"fmt"
)

// Grader scores an open-form answer against a reference answer.
// Implementations are remote and unreliable; callers bound every call with a
// timeout and treat any error as "ungraded, continue".
type Grader interface {
	Score(ctx context.Context, req GradeRequest) (GradeResult, error)
}

// GradeRequest carries everything the grader needs about one open turn.
type GradeRequest struct {
	Topic           string
	Question        string
	ReferenceAnswer string
	UserAnswer      string
}

// GradeResult is a validated grading verdict.
type GradeResult struct {
	Score   int    `json:"score"` // 0..5; >= 4 counts as a correct turn
	Comment string `json:"comment"`
}

// ErrInvalidReply indicates the grader returned JSON that does not conform to
// the expected shape. Treated by callers exactly like any other grading failure.
type ErrInvalidReply struct {
	Raw []byte
	Err error
}

func (e *ErrInvalidReply) Error() string {
	return fmt.Sprintf("invalid grader reply: %v", e.Err)
}

func (e *ErrInvalidReply) Unwrap() error { return e.Err }
