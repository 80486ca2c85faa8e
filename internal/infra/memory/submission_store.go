package memory

import (
	"context"
	"sync"

	"learning-quiz-service/internal/domain"
)

// SubmissionStore keeps submissions for the lifetime of the process.
type SubmissionStore struct {
	mu   sync.RWMutex
	subs map[string]domain.Submission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{subs: make(map[string]domain.Submission)}
}

func (s *SubmissionStore) Save(_ context.Context, sub domain.Submission) error {
	sub.Answers = sub.Answers.Clone()
	s.mu.Lock()
	s.subs[sub.ID] = sub
	s.mu.Unlock()
	return nil
}

func (s *SubmissionStore) Get(_ context.Context, submissionID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[submissionID]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	sub.Answers = sub.Answers.Clone()
	return sub, nil
}
