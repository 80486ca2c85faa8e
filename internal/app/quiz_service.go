package app

import (
	"context"
	"errors"
	"fmt"

	"learning-quiz-service/internal/domain"
	"learning-quiz-service/internal/logger"
)

// SessionRepository abstracts where live quiz sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *QuizSession)
	Get(sessionID string) (*QuizSession, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SubmissionRepository receives finished attempts for the result view.
type SubmissionRepository interface {
	Save(ctx context.Context, sub domain.Submission) error
	Get(ctx context.Context, submissionID string) (domain.Submission, error)
}

// Navigator sends the user somewhere once they leave the result view.
type Navigator interface {
	Navigate(ctx context.Context, route domain.Route) error
}

// QuizService hosts quiz sessions. Each session is isolated; the service
// only routes calls by session ID.
type QuizService struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	submissions SubmissionRepository
	clock       Clock
	scoring     ScoringOptions
	log         *logger.Logger
}

// Option configures a QuizService.
type Option func(*QuizService)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(s *QuizService) { s.clock = c }
}

// WithScoring sets the scoring options applied to every new session.
func WithScoring(opts ScoringOptions) Option {
	return func(s *QuizService) { s.scoring = opts }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *QuizService) { s.log = l }
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, submissions SubmissionRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:    store,
		quizzes:     quizzes,
		submissions: submissions,
		clock:       SystemClock(),
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start looks the quiz up and opens a session. An unknown quiz returns
// ErrQuizNotFound and leaves no session or timer behind.
func (s *QuizService) Start(ctx context.Context, quizID, userID string) (*QuizSession, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	session := newSession(quiz, userID, sessionConfig{
		clock:    s.clock,
		scoring:  s.scoring,
		onSubmit: s.recordSubmission,
	})
	if err := session.Start(); err != nil {
		return nil, err
	}
	s.sessions.Add(session)
	s.log.Info("quiz session started", "session_id", session.ID(), "quiz_id", quizID, "user_id", userID)
	return session, nil
}

func (s *QuizService) recordSubmission(sub domain.Submission) {
	s.log.Info("quiz submitted",
		"session_id", sub.SessionID,
		"quiz_id", sub.QuizID,
		"trigger", sub.Trigger,
		"score", sub.Score,
		"max_score", sub.MaxScore,
		"passed", sub.IsPassed,
	)
	if s.submissions == nil {
		return
	}
	if err := s.submissions.Save(context.Background(), sub); err != nil {
		s.log.Error("save submission failed", "submission_id", sub.ID, "error", err)
	}
}

func (s *QuizService) session(sessionID string) (*QuizSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Snapshot returns the current view of a session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// SelectAnswer records an answer; an empty questionID means the current question.
func (s *QuizService) SelectAnswer(_ context.Context, sessionID, questionID string, answer domain.Answer) (domain.SessionSnapshot, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.SelectAnswer(questionID, answer)
}

// Next moves forward one question.
func (s *QuizService) Next(_ context.Context, sessionID string) (domain.SessionSnapshot, bool, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, false, err
	}
	return session.Next()
}

// Previous moves back one question.
func (s *QuizService) Previous(_ context.Context, sessionID string) (domain.SessionSnapshot, bool, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.SessionSnapshot{}, false, err
	}
	return session.Previous()
}

// Submit ends the session on user confirmation.
func (s *QuizService) Submit(_ context.Context, sessionID string) (domain.Submission, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.Submission{}, err
	}
	return session.Submit()
}

// Subscribe returns a channel of session snapshots, one per state change and tick.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Review rebuilds the answer review for a submitted session.
func (s *QuizService) Review(_ context.Context, sessionID string) (domain.Review, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return domain.Review{}, err
	}
	return session.Review()
}

// Result fetches a stored submission by ID.
func (s *QuizService) Result(ctx context.Context, submissionID string) (domain.Submission, error) {
	if s.submissions == nil {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return s.submissions.Get(ctx, submissionID)
}

// Dismiss closes the result view: the session is forgotten and the user is
// sent to the quiz's course, or to the catalog when the quiz has none.
func (s *QuizService) Dismiss(ctx context.Context, sessionID string, nav Navigator) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	if _, err := session.Submission(); err != nil {
		return err
	}
	route := routeAfter(session.Quiz())
	session.Close()
	s.sessions.Delete(sessionID)
	if nav == nil {
		return nil
	}
	if err := nav.Navigate(ctx, route); err != nil {
		return fmt.Errorf("navigate to %s: %w", route.Kind, err)
	}
	return nil
}

// Abandon tears a session down when its owner goes away. The countdown
// stops; an unsubmitted attempt is dropped without scoring.
func (s *QuizService) Abandon(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	_, err := session.Submission()
	session.Close()
	s.sessions.Delete(sessionID)
	if errors.Is(err, domain.ErrNotSubmitted) {
		s.log.Info("quiz session abandoned", "session_id", sessionID, "quiz_id", session.Quiz().ID)
	}
}

// NotFoundRoute is the single recovery action offered for an unknown quiz.
func NotFoundRoute() domain.Route {
	return domain.Route{Kind: domain.RouteCatalog}
}

func routeAfter(quiz domain.Quiz) domain.Route {
	if quiz.CourseID != "" {
		return domain.Route{Kind: domain.RouteCourse, ID: quiz.CourseID}
	}
	return NotFoundRoute()
}
