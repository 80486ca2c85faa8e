package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"learning-quiz-service/internal/domain"
)

// SubmissionStore keeps submissions as JSON for as long as a result view may
// ask for them: SET quiz:submission:{id} {json} EX ttl
type SubmissionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSubmissionStore(client *redis.Client, ttl time.Duration) *SubmissionStore {
	return &SubmissionStore{client: client, ttl: ttl}
}

func (s *SubmissionStore) Save(ctx context.Context, sub domain.Submission) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sub.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) Get(ctx context.Context, submissionID string) (domain.Submission, error) {
	raw, err := s.client.Get(ctx, s.key(submissionID)).Bytes()
	if isMiss(err) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionStore) key(submissionID string) string {
	return "quiz:submission:" + submissionID
}
