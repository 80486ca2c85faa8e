package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"learning-quiz-service/internal/domain"
)

type submissionRow struct {
	bun.BaseModel `bun:"table:submissions"`

	ID            string           `bun:"id,pk"`
	SessionID     string           `bun:"session_id"`
	UserID        string           `bun:"user_id"`
	QuizID        string           `bun:"quiz_id"`
	Answers       domain.AnswerMap `bun:"answers,type:jsonb"`
	Score         int              `bun:"score"`
	MaxScore      int              `bun:"max_score"`
	IsPassed      bool             `bun:"is_passed"`
	SubmittedAt   time.Time        `bun:"submitted_at"`
	TimeSpent     int              `bun:"time_spent"`
	AttemptNumber int              `bun:"attempt_number"`
	Trigger       string           `bun:"trigger"`
}

// SubmissionStore writes finished attempts to the submissions table.
type SubmissionStore struct {
	db *bun.DB
}

func NewSubmissionStore(db *bun.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

func (s *SubmissionStore) Save(ctx context.Context, sub domain.Submission) error {
	answers := sub.Answers
	if answers == nil {
		answers = domain.AnswerMap{}
	}
	row := &submissionRow{
		ID:            sub.ID,
		SessionID:     sub.SessionID,
		UserID:        sub.UserID,
		QuizID:        sub.QuizID,
		Answers:       answers,
		Score:         sub.Score,
		MaxScore:      sub.MaxScore,
		IsPassed:      sub.IsPassed,
		SubmittedAt:   sub.SubmittedAt,
		TimeSpent:     sub.TimeSpent,
		AttemptNumber: sub.AttemptNumber,
		Trigger:       string(sub.Trigger),
	}
	if _, err := s.db.NewInsert().Model(row).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *SubmissionStore) Get(ctx context.Context, submissionID string) (domain.Submission, error) {
	row := new(submissionRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", submissionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("select submission: %w", err)
	}
	return row.toDomain(), nil
}

func (r *submissionRow) toDomain() domain.Submission {
	answers := r.Answers
	if answers == nil {
		answers = domain.AnswerMap{}
	}
	return domain.Submission{
		ID:            r.ID,
		SessionID:     r.SessionID,
		UserID:        r.UserID,
		QuizID:        r.QuizID,
		Answers:       answers,
		Score:         r.Score,
		MaxScore:      r.MaxScore,
		IsPassed:      r.IsPassed,
		SubmittedAt:   r.SubmittedAt,
		TimeSpent:     r.TimeSpent,
		AttemptNumber: r.AttemptNumber,
		Trigger:       domain.SubmitTrigger(r.Trigger),
	}
}
