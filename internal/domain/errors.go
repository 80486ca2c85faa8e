package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz is returned when catalog content cannot back a session.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrSessionNotFound is returned when a quiz session has not been started or was already dismissed.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSessionNotInProgress is returned for answer or navigation actions outside InProgress.
	ErrSessionNotInProgress = errors.New("quiz session is not in progress")
	// ErrAlreadySubmitted is returned when a second submit loses to the first one.
	ErrAlreadySubmitted = errors.New("quiz session already submitted")
	// ErrNotSubmitted is returned when a result is requested before submission.
	ErrNotSubmitted = errors.New("quiz session not submitted yet")
	// ErrSessionClosed is returned after the session was torn down.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrSubmissionNotFound indicates an unknown submission ID.
	ErrSubmissionNotFound = errors.New("submission not found")
)
