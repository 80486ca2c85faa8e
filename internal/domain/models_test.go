package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizValidate(t *testing.T) {
	valid := Quiz{
		ID:           "quiz-1",
		Questions:    []Question{{ID: "q1", Points: 1}, {ID: "q2", Points: 0}},
		TimeLimit:    10,
		PassingScore: 70,
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(q *Quiz){
		"zero time limit":    func(q *Quiz) { q.TimeLimit = 0 },
		"passing above 100":  func(q *Quiz) { q.PassingScore = 101 },
		"negative passing":   func(q *Quiz) { q.PassingScore = -1 },
		"negative attempts":  func(q *Quiz) { q.MaxAttempts = -1 },
		"duplicate question": func(q *Quiz) { q.Questions = append(q.Questions, Question{ID: "q1"}) },
		"negative points":    func(q *Quiz) { q.Questions = []Question{{ID: "q1", Points: -5}} },
		"graded without answer": func(q *Quiz) {
			q.Questions = []Question{{ID: "q1", Type: TrueFalse, Points: 1}}
		},
		"single-choice with a list answer": func(q *Quiz) {
			q.Questions = []Question{{ID: "q1", Type: SingleChoice, CorrectAnswer: Multi("a"), Points: 1}}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			q := valid
			q.Questions = append([]Question(nil), valid.Questions...)
			mutate(&q)
			assert.ErrorIs(t, q.Validate(), ErrInvalidQuiz)
		})
	}
}

func TestQuizDecodesCorrectAnswerShapes(t *testing.T) {
	raw := `{
		"id": "quiz-1",
		"title": "React",
		"timeLimit": 30,
		"passingScore": 70,
		"questions": [
			{"id": "q1", "type": "single-choice", "correctAnswer": "b", "points": 10},
			{"id": "q2", "type": "multiple-choice", "correctAnswer": ["w", "x"], "points": 15}
		]
	}`
	var quiz Quiz
	require.NoError(t, json.Unmarshal([]byte(raw), &quiz))
	require.NoError(t, quiz.Validate())

	q1, ok := quiz.Question("q1")
	require.True(t, ok)
	assert.True(t, Single("b").Equal(q1.CorrectAnswer))
	q2, ok := quiz.Question("q2")
	require.True(t, ok)
	assert.True(t, Multi("x", "w").Equal(q2.CorrectAnswer))

	_, ok = quiz.Question("q9")
	assert.False(t, ok)
}

func TestSubmissionPercent(t *testing.T) {
	cases := []struct {
		score, max, want int
	}{
		{21, 30, 70},
		{2, 3, 67},
		{1, 3, 33},
		{1, 8, 13},
		{0, 10, 0},
		{10, 10, 100},
		{5, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Submission{Score: tc.score, MaxScore: tc.max}.Percent(), "%d/%d", tc.score, tc.max)
	}
}

func TestUrgencyFor(t *testing.T) {
	assert.Equal(t, UrgencyNormal, UrgencyFor(1800))
	assert.Equal(t, UrgencyNormal, UrgencyFor(601))
	assert.Equal(t, UrgencyWarning, UrgencyFor(600))
	assert.Equal(t, UrgencyWarning, UrgencyFor(301))
	assert.Equal(t, UrgencyCritical, UrgencyFor(300))
	assert.Equal(t, UrgencyCritical, UrgencyFor(0))
}

func TestFormatCountdown(t *testing.T) {
	assert.Equal(t, "30:00", FormatCountdown(1800))
	assert.Equal(t, "09:05", FormatCountdown(545))
	assert.Equal(t, "00:00", FormatCountdown(0))
	assert.Equal(t, "00:00", FormatCountdown(-3))
	assert.Equal(t, "120:00", FormatCountdown(7200))
}

func TestViewOfHidesGrading(t *testing.T) {
	q := Question{ID: "q1", Type: SingleChoice, Prompt: "?", Options: []string{"a"}, CorrectAnswer: Single("a"), Explanation: "because", Points: 3}
	out, err := json.Marshal(ViewOf(q))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "correctAnswer")
	assert.NotContains(t, string(out), "because")
}

func TestNewReview(t *testing.T) {
	quiz := Quiz{
		ID: "quiz-1",
		Questions: []Question{
			{ID: "q1", Type: SingleChoice, CorrectAnswer: Single("b"), Explanation: "b is right", Points: 10},
			{ID: "q2", Type: MultipleChoice, CorrectAnswer: Multi("w", "x"), Points: 15},
			{ID: "q3", Type: TrueFalse, CorrectAnswer: Single("true"), Points: 5},
			{ID: "q4", Type: Essay, Points: 5},
		},
		PassingScore: 70,
		MaxAttempts:  3,
	}
	sub := Submission{
		ID: "sub-1",
		Answers: AnswerMap{
			"q1": Single("b"),
			"q2": Multi("w", "x"),
			"q3": Single("false"),
		},
		Score:    25,
		MaxScore: 35,
	}

	review := NewReview(quiz, sub)
	assert.Equal(t, 1, review.CorrectCount, "multiple-choice matches are not counted")
	assert.Equal(t, 71, review.Percent)
	assert.Equal(t, 70, review.PassingScore)
	assert.Equal(t, 3, review.MaxAttempts)
	require.Len(t, review.Items, 4)
	assert.Equal(t, "b is right", review.Items[0].Explanation)
	assert.True(t, review.Items[3].Answer.IsZero())
	assert.Equal(t, 25, review.Submission.Score)
}

func TestQuestionTypeGraded(t *testing.T) {
	assert.True(t, SingleChoice.Graded())
	assert.True(t, MultipleChoice.Graded())
	assert.True(t, TrueFalse.Graded())
	assert.False(t, FillBlank.Graded())
	assert.False(t, Essay.Graded())
	assert.False(t, QuestionType("matching").Graded())
}

func TestQuizValidateCorrectAnswerShapes(t *testing.T) {
	quiz := Quiz{
		ID: "quiz-1",
		Questions: []Question{
			{ID: "q1", Type: MultipleChoice, CorrectAnswer: Single("a"), Points: 1},
			{ID: "q2", Type: MultipleChoice, CorrectAnswer: Multi(), Points: 1},
			{ID: "q3", Type: Essay, Points: 1},
			{ID: "q4", Type: FillBlank, Points: 1},
		},
		TimeLimit: 5,
	}
	require.NoError(t, quiz.Validate())

	var decoded Quiz
	require.NoError(t, json.Unmarshal([]byte(`{"id":"q","timeLimit":5,"questions":[{"id":"q1","type":"true-false","correctAnswer":true,"points":1}]}`), &decoded))
	assert.ErrorIs(t, decoded.Validate(), ErrInvalidQuiz)
}
