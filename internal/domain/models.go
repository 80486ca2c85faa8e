package domain

import (
	"fmt"
	"time"
)

// QuestionType enumerates the question kinds a quiz may carry.
type QuestionType string

const (
	SingleChoice   QuestionType = "single-choice"
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	FillBlank      QuestionType = "fill-blank"
	Essay          QuestionType = "essay"
)

// Graded reports whether the scoring rule awards points for this type.
func (t QuestionType) Graded() bool {
	switch t {
	case SingleChoice, MultipleChoice, TrueFalse:
		return true
	}
	return false
}

// Question is one item of a quiz. CorrectAnswer is a scalar for single-choice
// and true-false questions and a set for multiple-choice.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer Answer       `json:"correctAnswer"`
	Explanation   string       `json:"explanation,omitempty"`
	Points        int          `json:"points"`
	Order         int          `json:"order"`
}

// Quiz is an immutable, ordered set of graded questions.
// MaxAttempts and IsRandomized are carried as metadata and not acted on.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	CourseID     string     `json:"courseId,omitempty"`
	Questions    []Question `json:"questions"`
	TimeLimit    int        `json:"timeLimit"` // minutes
	PassingScore int        `json:"passingScore"`
	MaxAttempts  int        `json:"maxAttempts"`
	IsRandomized bool       `json:"isRandomized"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Validate checks the invariants a session relies on.
func (q Quiz) Validate() error {
	if q.TimeLimit <= 0 {
		return fmt.Errorf("%w: quiz %s: time limit must be positive", ErrInvalidQuiz, q.ID)
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return fmt.Errorf("%w: quiz %s: passing score %d out of range", ErrInvalidQuiz, q.ID, q.PassingScore)
	}
	if q.MaxAttempts < 0 {
		return fmt.Errorf("%w: quiz %s: negative max attempts", ErrInvalidQuiz, q.ID)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: quiz %s: duplicate question %s", ErrInvalidQuiz, q.ID, question.ID)
		}
		seen[question.ID] = struct{}{}
		if question.Points < 0 {
			return fmt.Errorf("%w: quiz %s: question %s has negative points", ErrInvalidQuiz, q.ID, question.ID)
		}
		if err := question.validateCorrectAnswer(); err != nil {
			return fmt.Errorf("%w: quiz %s: question %s: %v", ErrInvalidQuiz, q.ID, question.ID, err)
		}
	}
	return nil
}

// validateCorrectAnswer requires a graded question to carry a correct answer
// the scorer can use: a string for single-choice and true-false, a string or
// a list for multiple-choice.
func (q Question) validateCorrectAnswer() error {
	if !q.Type.Graded() {
		return nil
	}
	if q.CorrectAnswer.IsZero() {
		return fmt.Errorf("missing correct answer")
	}
	if q.Type != MultipleChoice && q.CorrectAnswer.IsMulti() {
		return fmt.Errorf("%s needs a single correct answer", q.Type)
	}
	return nil
}

// Question looks up a question by ID.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// SubmitTrigger records what ended a session.
type SubmitTrigger string

const (
	TriggerManual  SubmitTrigger = "manual"
	TriggerTimeout SubmitTrigger = "timeout"
)

// Submission is the scored record produced once per session.
type Submission struct {
	ID            string        `json:"id"`
	SessionID     string        `json:"sessionId"`
	UserID        string        `json:"userId"`
	QuizID        string        `json:"quizId"`
	Answers       AnswerMap     `json:"answers"`
	Score         int           `json:"score"`
	MaxScore      int           `json:"maxScore"`
	IsPassed      bool          `json:"isPassed"`
	SubmittedAt   time.Time     `json:"submittedAt"`
	TimeSpent     int           `json:"timeSpent"` // minutes
	AttemptNumber int           `json:"attemptNumber"`
	Trigger       SubmitTrigger `json:"trigger"`
}

// Percent is the rounded share of maxScore achieved.
func (s Submission) Percent() int {
	if s.MaxScore <= 0 {
		return 0
	}
	return (s.Score*200 + s.MaxScore) / (2 * s.MaxScore)
}

// SessionState is the QuizSession lifecycle state.
type SessionState string

const (
	StateLoading    SessionState = "loading"
	StateInProgress SessionState = "in-progress"
	StateSubmitted  SessionState = "submitted"
)

// Urgency buckets the remaining time the way the quiz header colors it.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// UrgencyFor maps remaining seconds to an urgency level.
func UrgencyFor(secondsLeft int) Urgency {
	switch {
	case secondsLeft <= 300:
		return UrgencyCritical
	case secondsLeft <= 600:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// FormatCountdown renders seconds as MM:SS.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// QuestionView is a question without its correct answer or explanation.
type QuestionView struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`
	Points  int          `json:"points"`
}

// ViewOf strips grading data from a question.
func ViewOf(q Question) QuestionView {
	return QuestionView{
		ID:      q.ID,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Options: q.Options,
		Points:  q.Points,
	}
}

// SessionSnapshot is the client-facing view of a session at one instant.
type SessionSnapshot struct {
	SessionID     string        `json:"sessionId"`
	QuizID        string        `json:"quizId"`
	Title         string        `json:"title"`
	State         SessionState  `json:"state"`
	CurrentIndex  int           `json:"currentIndex"`
	QuestionCount int           `json:"questionCount"`
	Question      *QuestionView `json:"question,omitempty"`
	Answer        Answer        `json:"answer"`
	Answered      int           `json:"answered"`
	Progress      int           `json:"progress"`
	TimeLeft      int           `json:"timeLeft"`
	Countdown     string        `json:"countdown"`
	Urgency       Urgency       `json:"urgency"`
	PassingScore  int           `json:"passingScore"`
	Submission    *Submission   `json:"submission,omitempty"`
}

// ReviewItem re-displays one question next to the respondent's answer.
type ReviewItem struct {
	Question      QuestionView `json:"question"`
	Answer        Answer       `json:"answer"`
	CorrectAnswer Answer       `json:"correctAnswer"`
	Explanation   string       `json:"explanation,omitempty"`
}

// Review is a read-only view of a finished attempt. Building it does no scoring.
type Review struct {
	Submission   Submission   `json:"submission"`
	Items        []ReviewItem `json:"items"`
	CorrectCount int          `json:"correctCount"`
	Percent      int          `json:"percent"`
	PassingScore int          `json:"passingScore"`
	MaxAttempts  int          `json:"maxAttempts"`
}

// NewReview pairs a quiz with its submission. CorrectCount counts exact
// matches on single-choice and true-false questions only.
func NewReview(quiz Quiz, sub Submission) Review {
	items := make([]ReviewItem, 0, len(quiz.Questions))
	correct := 0
	for _, q := range quiz.Questions {
		given := sub.Answers[q.ID]
		if q.Type == SingleChoice || q.Type == TrueFalse {
			want, okWant := q.CorrectAnswer.Value()
			got, okGot := given.Value()
			if okWant && okGot && want == got {
				correct++
			}
		}
		items = append(items, ReviewItem{
			Question:      ViewOf(q),
			Answer:        given,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}
	return Review{
		Submission:   sub,
		Items:        items,
		CorrectCount: correct,
		Percent:      sub.Percent(),
		PassingScore: quiz.PassingScore,
		MaxAttempts:  quiz.MaxAttempts,
	}
}

// RouteKind names a navigation destination family.
type RouteKind string

const (
	RouteCourse  RouteKind = "course"
	RouteCatalog RouteKind = "catalog"
)

// Route is a navigation target requested after a session ends.
type Route struct {
	Kind RouteKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}
