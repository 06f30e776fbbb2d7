package grader

import (
	"context"
	"errors"
	"sync"
)

// MockReply is a canned reply for the MockGrader.
type MockReply struct {
	Result GradeResult
	Err    error
}

// MockGrader is a deterministic Grader for testing. It returns canned replies
// in FIFO order and records every request it sees.
type MockGrader struct {
	mu      sync.Mutex
	replies []MockReply
	Calls   []GradeRequest
}

// NewMockGrader creates a MockGrader with the given canned replies.
func NewMockGrader(replies ...MockReply) *MockGrader {
	return &MockGrader{replies: replies}
}

// Score returns the next canned reply or an error when the queue is empty.
func (m *MockGrader) Score(_ context.Context, req GradeRequest) (GradeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.replies) == 0 {
		return GradeResult{}, errors.New("grader unavailable")
	}

	reply := m.replies[0]
	m.replies = m.replies[1:]

	if reply.Err != nil {
		return GradeResult{}, reply.Err
	}
	return reply.Result, nil
}

// CallCount returns the number of Score calls made.
func (m *MockGrader) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
