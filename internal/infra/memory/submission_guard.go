package memory

import (
	"context"
	"sync"
)

// SubmissionGuard suppresses duplicate result submissions within one
// process. The Redis guard covers the multi-process case.
type SubmissionGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewSubmissionGuard() *SubmissionGuard {
	return &SubmissionGuard{seen: make(map[string]struct{})}
}

func (g *SubmissionGuard) FirstSubmission(_ context.Context, quizID, studentID, sessionID string) (bool, error) {
	key := quizID + ":" + studentID + ":" + sessionID
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[key]; ok {
		return false, nil
	}
	g.seen[key] = struct{}{}
	return true, nil
}
