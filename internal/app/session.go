package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"learning-quiz-service/internal/domain"
)

// QuizSession is one user's attempt at a quiz. All transitions run under mu;
// the submission pointer doubles as the single-shot guard for the
// InProgress -> Submitted transition, whichever of the timer or the user
// gets there first.
type QuizSession struct {
	id      string
	userID  string
	quiz    domain.Quiz
	clock   Clock
	scoring ScoringOptions

	mu          sync.Mutex
	state       domain.SessionState
	closed      bool
	current     int
	answers     domain.AnswerMap
	timeLeft    int
	submission  *domain.Submission
	subscribers map[chan domain.SessionSnapshot]struct{}

	stopOnce  sync.Once
	stop      chan struct{}
	submitted chan struct{}
	onSubmit  func(domain.Submission)
}

type sessionConfig struct {
	clock    Clock
	scoring  ScoringOptions
	onSubmit func(domain.Submission)
}

// NewSession builds a session in the Loading state. Start moves it to InProgress.
func NewSession(quiz domain.Quiz, userID string, clock Clock, scoring ScoringOptions) *QuizSession {
	return newSession(quiz, userID, sessionConfig{clock: clock, scoring: scoring})
}

func newSession(quiz domain.Quiz, userID string, cfg sessionConfig) *QuizSession {
	if cfg.clock == nil {
		cfg.clock = SystemClock()
	}
	return &QuizSession{
		id:          uuid.NewString(),
		userID:      userID,
		quiz:        quiz,
		clock:       cfg.clock,
		scoring:     cfg.scoring,
		state:       domain.StateLoading,
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
		stop:        make(chan struct{}),
		submitted:   make(chan struct{}),
		onSubmit:    cfg.onSubmit,
	}
}

// ID returns the session identifier.
func (s *QuizSession) ID() string { return s.id }

// Quiz returns the quiz backing the session.
func (s *QuizSession) Quiz() domain.Quiz { return s.quiz }

// Done is closed once the session reaches Submitted.
func (s *QuizSession) Done() <-chan struct{} { return s.submitted }

// Start performs Loading -> InProgress and starts the countdown.
func (s *QuizSession) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.state != domain.StateLoading {
		s.mu.Unlock()
		return domain.ErrSessionNotInProgress
	}
	s.state = domain.StateInProgress
	s.current = 0
	s.answers = make(domain.AnswerMap)
	s.timeLeft = s.quiz.TimeLimit * 60
	ticker := s.clock.NewTicker(time.Second)
	s.broadcastLocked()
	s.mu.Unlock()

	go s.run(ticker)
	return nil
}

func (s *QuizSession) run(ticker Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			if s.Tick() {
				return
			}
		case <-s.stop:
			return
		}
	}
}

// Tick applies one second of countdown. It reports true once the session no
// longer needs ticks (submitted, closed, or never started). Reaching zero
// submits with the timeout trigger.
func (s *QuizSession) Tick() bool {
	s.mu.Lock()
	if s.closed || s.state != domain.StateInProgress {
		s.mu.Unlock()
		return true
	}
	if s.timeLeft > 0 {
		s.timeLeft--
	}
	if s.timeLeft > 0 {
		s.broadcastLocked()
		s.mu.Unlock()
		return false
	}
	sub, fired := s.submitLocked(domain.TriggerTimeout)
	s.mu.Unlock()
	if fired {
		s.afterSubmit(sub)
	}
	return true
}

// SelectAnswer stores an answer. An empty questionID targets the current
// question. A zero answer (null or malformed on the wire) clears the question.
func (s *QuizSession) SelectAnswer(questionID string, answer domain.Answer) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return domain.SessionSnapshot{}, err
	}
	if questionID == "" {
		if len(s.quiz.Questions) == 0 {
			return domain.SessionSnapshot{}, domain.ErrQuestionNotFound
		}
		questionID = s.quiz.Questions[s.current].ID
	}
	if _, ok := s.quiz.Question(questionID); !ok {
		return domain.SessionSnapshot{}, domain.ErrQuestionNotFound
	}
	if answer.IsZero() {
		delete(s.answers, questionID)
	} else {
		s.answers[questionID] = answer
	}
	return s.broadcastLocked(), nil
}

// Next moves to the following question. moved is false at the last question.
func (s *QuizSession) Next() (domain.SessionSnapshot, bool, error) {
	return s.move(1)
}

// Previous moves to the preceding question. moved is false at the first question.
func (s *QuizSession) Previous() (domain.SessionSnapshot, bool, error) {
	return s.move(-1)
}

func (s *QuizSession) move(delta int) (domain.SessionSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgressLocked(); err != nil {
		return domain.SessionSnapshot{}, false, err
	}
	target := s.current + delta
	if target < 0 || target >= len(s.quiz.Questions) {
		return s.snapshotLocked(), false, nil
	}
	s.current = target
	return s.broadcastLocked(), true, nil
}

// Submit ends the session on user confirmation. If the timer already
// submitted, the existing submission is returned with ErrAlreadySubmitted.
func (s *QuizSession) Submit() (domain.Submission, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Submission{}, domain.ErrSessionClosed
	}
	if s.submission != nil {
		sub := s.copySubmissionLocked()
		s.mu.Unlock()
		return sub, domain.ErrAlreadySubmitted
	}
	if s.state != domain.StateInProgress {
		s.mu.Unlock()
		return domain.Submission{}, domain.ErrSessionNotInProgress
	}
	sub, fired := s.submitLocked(domain.TriggerManual)
	s.mu.Unlock()
	if fired {
		s.afterSubmit(sub)
	}
	return sub, nil
}

// submitLocked is the only path into Submitted.
func (s *QuizSession) submitLocked(trigger domain.SubmitTrigger) (domain.Submission, bool) {
	if s.submission != nil {
		return s.copySubmissionLocked(), false
	}
	frozen := s.answers.Clone()
	result := Score(s.quiz, frozen, s.scoring)
	sub := domain.Submission{
		ID:            uuid.NewString(),
		SessionID:     s.id,
		UserID:        s.userID,
		QuizID:        s.quiz.ID,
		Answers:       frozen,
		Score:         result.Score,
		MaxScore:      result.MaxScore,
		IsPassed:      result.IsPassed,
		SubmittedAt:   s.clock.Now(),
		TimeSpent:     s.quiz.TimeLimit - s.timeLeft/60,
		AttemptNumber: 1,
		Trigger:       trigger,
	}
	s.submission = &sub
	s.answers = frozen.Clone()
	s.state = domain.StateSubmitted
	s.stopTicking()
	close(s.submitted)
	s.broadcastLocked()
	return s.copySubmissionLocked(), true
}

func (s *QuizSession) afterSubmit(sub domain.Submission) {
	if s.onSubmit != nil {
		s.onSubmit(sub)
	}
}

func (s *QuizSession) stopTicking() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Close tears the session down without submitting: the countdown stops and
// subscribers are released. Safe to call more than once.
func (s *QuizSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTicking()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Submission returns the result once submitted.
func (s *QuizSession) Submission() (domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submission == nil {
		return domain.Submission{}, domain.ErrNotSubmitted
	}
	return s.copySubmissionLocked(), nil
}

// Review builds the read-only re-display of a submitted attempt.
func (s *QuizSession) Review() (domain.Review, error) {
	sub, err := s.Submission()
	if err != nil {
		return domain.Review{}, err
	}
	return domain.NewReview(s.quiz, sub), nil
}

// Snapshot returns the current client-facing view.
func (s *QuizSession) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TimeLeft returns the remaining seconds.
func (s *QuizSession) TimeLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLeft
}

func (s *QuizSession) requireInProgressLocked() error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.state != domain.StateInProgress {
		return domain.ErrSessionNotInProgress
	}
	return nil
}

func (s *QuizSession) subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	// ch is empty, so the send cannot block while mu is held
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *QuizSession) broadcastLocked() domain.SessionSnapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the oldest pending snapshot so a slow reader never blocks the countdown
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *QuizSession) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		SessionID:     s.id,
		QuizID:        s.quiz.ID,
		Title:         s.quiz.Title,
		State:         s.state,
		CurrentIndex:  s.current,
		QuestionCount: len(s.quiz.Questions),
		Answered:      len(s.answers),
		TimeLeft:      s.timeLeft,
		Countdown:     domain.FormatCountdown(s.timeLeft),
		Urgency:       domain.UrgencyFor(s.timeLeft),
		PassingScore:  s.quiz.PassingScore,
	}
	if n := len(s.quiz.Questions); n > 0 {
		q := s.quiz.Questions[s.current]
		view := domain.ViewOf(q)
		snap.Question = &view
		snap.Answer = s.answers[q.ID]
		snap.Progress = ((s.current+1)*200 + n) / (2 * n)
	}
	if s.submission != nil {
		sub := s.copySubmissionLocked()
		snap.Submission = &sub
	}
	return snap
}

func (s *QuizSession) copySubmissionLocked() domain.Submission {
	sub := *s.submission
	sub.Answers = sub.Answers.Clone()
	return sub
}
