package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionGuard marks result submissions in Redis so a duplicate
// submission for the same session (double-click, concurrent replays,
// multiple instances) writes only one result row:
//
//	SETNX result:{quizID}:{studentID}:{sessionID} 1 EX ttl
type SubmissionGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmissionGuard(client *redis.Client, ttl time.Duration) *SubmissionGuard {
	return &SubmissionGuard{client: client, ttl: ttl}
}

func (g *SubmissionGuard) FirstSubmission(ctx context.Context, quizID, studentID, sessionID string) (bool, error) {
	key := fmt.Sprintf("result:%s:%s:%s", quizID, studentID, sessionID)
	first, err := g.client.SetNX(ctx, key, "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("submission guard: %w", err)
	}
	return first, nil
}
