package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"learning-quiz-service/internal/domain"
)

// scoringQuiz is 10 (single) + 15 (multi, 4 correct of 5) + 5 (true-false), passing at 70%.
func scoringQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "q1", Type: domain.SingleChoice, Options: []string{"a", "b", "c"}, CorrectAnswer: domain.Single("b"), Points: 10},
			{ID: "q2", Type: domain.MultipleChoice, Options: []string{"w", "x", "y", "z", "bad"}, CorrectAnswer: domain.Multi("w", "x", "y", "z"), Points: 15},
			{ID: "q3", Type: domain.TrueFalse, CorrectAnswer: domain.Single("true"), Points: 5},
		},
		TimeLimit:    30,
		PassingScore: 70,
		MaxAttempts:  3,
	}
}

func TestScorePartialCreditRoundsTotalOnce(t *testing.T) {
	res := Score(scoringQuiz(), domain.AnswerMap{
		"q1": domain.Single("b"),
		"q2": domain.Multi("w", "x", "y"),
		"q3": domain.Single("false"),
	}, ScoringOptions{})

	assert.InDelta(t, 21.25, res.Raw, 1e-9)
	assert.InDelta(t, 11.25, res.Awarded["q2"], 1e-9)
	assert.Equal(t, 21, res.Score)
	assert.Equal(t, 30, res.MaxScore)
	assert.True(t, res.IsPassed, "21/30 is exactly 70%")
}

func TestScoreIncorrectSelectionZeroesQuestion(t *testing.T) {
	res := Score(scoringQuiz(), domain.AnswerMap{
		"q1": domain.Single("b"),
		"q2": domain.Multi("w", "bad"),
		"q3": domain.Single("false"),
	}, ScoringOptions{})

	assert.Equal(t, 0.0, res.Awarded["q2"])
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, 30, res.MaxScore)
	assert.False(t, res.IsPassed)
}

func TestScoreMultipleChoice(t *testing.T) {
	cases := []struct {
		name  string
		given domain.Answer
		want  float64
	}{
		{"exact set", domain.Multi("z", "y", "x", "w"), 15},
		{"one of four", domain.Multi("x"), 3.75},
		{"two of four", domain.Multi("w", "z"), 7.5},
		{"duplicates collapse", domain.Multi("w", "w", "w"), 3.75},
		{"all correct plus one wrong", domain.Multi("w", "x", "y", "z", "bad"), 0},
		{"only wrong", domain.Multi("bad"), 0},
		{"empty selection", domain.Multi(), 0},
		{"unanswered", domain.Answer{}, 0},
		{"scalar where a set is expected", domain.Single("w"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(scoringQuiz(), domain.AnswerMap{"q2": tc.given}, ScoringOptions{})
			assert.InDelta(t, tc.want, res.Awarded["q2"], 1e-9)
		})
	}
}

func TestScoreSingleAnswerTypes(t *testing.T) {
	cases := []struct {
		name  string
		q1    domain.Answer
		q3    domain.Answer
		score int
	}{
		{"both correct", domain.Single("b"), domain.Single("true"), 15},
		{"wrong option", domain.Single("a"), domain.Single("true"), 5},
		{"empty string", domain.Single(""), domain.Single("false"), 0},
		{"case matters", domain.Single("B"), domain.Single("True"), 0},
		{"set where a scalar is expected", domain.Multi("b"), domain.Multi("true"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(scoringQuiz(), domain.AnswerMap{"q1": tc.q1, "q3": tc.q3}, ScoringOptions{})
			assert.Equal(t, tc.score, res.Score)
		})
	}
}

func TestScoreMaxScoreIgnoresAnswers(t *testing.T) {
	quiz := scoringQuiz()
	for _, answers := range []domain.AnswerMap{
		nil,
		{},
		{"q1": domain.Single("b")},
		{"ghost": domain.Single("x"), "q2": domain.Multi("bad")},
	} {
		res := Score(quiz, answers, ScoringOptions{})
		assert.Equal(t, 30, res.MaxScore)
		assert.GreaterOrEqual(t, res.Score, 0)
		assert.LessOrEqual(t, res.Score, res.MaxScore)
	}
}

func TestScoreUngradedTypes(t *testing.T) {
	quiz := domain.Quiz{
		Questions: []domain.Question{
			{ID: "q1", Type: domain.SingleChoice, CorrectAnswer: domain.Single("a"), Points: 10},
			{ID: "q2", Type: domain.Essay, Points: 10},
			{ID: "q3", Type: domain.FillBlank, CorrectAnswer: domain.Single("go"), Points: 5},
		},
		TimeLimit:    10,
		PassingScore: 60,
	}
	answers := domain.AnswerMap{
		"q1": domain.Single("a"),
		"q2": domain.Single("a long essay"),
		"q3": domain.Single("go"),
	}

	res := Score(quiz, answers, ScoringOptions{})
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, 25, res.MaxScore, "ungraded points still count by default")
	assert.False(t, res.IsPassed)

	res = Score(quiz, answers, ScoringOptions{ExcludeUngraded: true})
	assert.Equal(t, 10, res.Score)
	assert.Equal(t, 10, res.MaxScore)
	assert.True(t, res.IsPassed)
}

func TestScoreZeroMaxScoreNeverPasses(t *testing.T) {
	quiz := domain.Quiz{
		Questions: []domain.Question{
			{ID: "q1", Type: domain.SingleChoice, CorrectAnswer: domain.Single("a"), Points: 0},
		},
		PassingScore: 0,
	}
	res := Score(quiz, domain.AnswerMap{"q1": domain.Single("a")}, ScoringOptions{})
	require.Equal(t, 0, res.MaxScore)
	assert.False(t, res.IsPassed)

	res = Score(domain.Quiz{}, nil, ScoringOptions{})
	assert.Equal(t, 0, res.MaxScore)
	assert.False(t, res.IsPassed)
}

func TestScorePassBoundaryInclusive(t *testing.T) {
	quiz := domain.Quiz{
		Questions: []domain.Question{
			{ID: "q1", Type: domain.SingleChoice, CorrectAnswer: domain.Single("a"), Points: 7},
			{ID: "q2", Type: domain.SingleChoice, CorrectAnswer: domain.Single("a"), Points: 3},
		},
		PassingScore: 70,
	}
	assert.True(t, Score(quiz, domain.AnswerMap{"q1": domain.Single("a")}, ScoringOptions{}).IsPassed)
	assert.False(t, Score(quiz, domain.AnswerMap{"q2": domain.Single("a")}, ScoringOptions{}).IsPassed)
}

func TestScoreRoundsHalfUp(t *testing.T) {
	quiz := domain.Quiz{
		Questions: []domain.Question{
			{ID: "q1", Type: domain.MultipleChoice, CorrectAnswer: domain.Multi("a", "b"), Points: 1},
		},
		PassingScore: 50,
	}
	res := Score(quiz, domain.AnswerMap{"q1": domain.Multi("a")}, ScoringOptions{})
	assert.InDelta(t, 0.5, res.Raw, 1e-9)
	assert.Equal(t, 1, res.Score)
}

func TestScoreScalarCorrectAnswerOnMultipleChoice(t *testing.T) {
	quiz := domain.Quiz{
		Questions: []domain.Question{
			{ID: "q1", Type: domain.MultipleChoice, CorrectAnswer: domain.Single("a"), Points: 4},
		},
	}
	assert.Equal(t, 4, Score(quiz, domain.AnswerMap{"q1": domain.Multi("a")}, ScoringOptions{}).Score)
	assert.Equal(t, 0, Score(quiz, domain.AnswerMap{"q1": domain.Single("a")}, ScoringOptions{}).Score)
}
