package app

import (
	"math"

	"learning-quiz-service/internal/domain"
)

// ScoringOptions tunes how maxScore is computed.
type ScoringOptions struct {
	// ExcludeUngraded drops fill-blank and essay points from maxScore.
	// Off by default: ungraded questions still cap the achievable score.
	ExcludeUngraded bool
}

// ScoreResult is the outcome of scoring one AnswerMap against a quiz.
type ScoreResult struct {
	Raw      float64            // sum of awards before rounding
	Score    int                // Raw rounded once
	MaxScore int                // sum of question points
	IsPassed bool               // maxScore > 0 and score/maxScore*100 >= passingScore
	Awarded  map[string]float64 // per question, unrounded
}

// Score is total: it never fails, ignores answers for unknown questions and
// treats answers of the wrong shape as unanswered.
func Score(quiz domain.Quiz, answers domain.AnswerMap, opts ScoringOptions) ScoreResult {
	res := ScoreResult{Awarded: make(map[string]float64, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		if opts.ExcludeUngraded && !q.Type.Graded() {
			continue
		}
		res.MaxScore += q.Points
		awarded := awardFor(q, answers[q.ID])
		res.Awarded[q.ID] = awarded
		res.Raw += awarded
	}

	res.Score = int(math.Round(res.Raw))
	if res.Score > res.MaxScore {
		res.Score = res.MaxScore
	}
	// integer form of score/maxScore*100 >= passingScore
	res.IsPassed = res.MaxScore > 0 && res.Score*100 >= quiz.PassingScore*res.MaxScore
	return res
}

func awardFor(q domain.Question, given domain.Answer) float64 {
	switch q.Type {
	case domain.SingleChoice, domain.TrueFalse:
		want, ok := q.CorrectAnswer.Value()
		if !ok {
			return 0
		}
		got, ok := given.Value()
		if !ok || got != want {
			return 0
		}
		return float64(q.Points)
	case domain.MultipleChoice:
		return multipleChoiceAward(q, given)
	default:
		return 0
	}
}

func multipleChoiceAward(q domain.Question, given domain.Answer) float64 {
	correct, ok := q.CorrectAnswer.Values()
	if !ok {
		// a scalar correct answer is read as a one-element set
		v, isScalar := q.CorrectAnswer.Value()
		if !isScalar {
			return 0
		}
		correct = []string{v}
	}
	correctSet := make(map[string]struct{}, len(correct))
	for _, c := range correct {
		correctSet[c] = struct{}{}
	}

	selected, _ := given.Values()
	correctCount, incorrectCount := 0, 0
	for _, s := range selected {
		if _, hit := correctSet[s]; hit {
			correctCount++
		} else {
			incorrectCount++
		}
	}

	switch {
	case incorrectCount > 0:
		return 0
	case correctCount == len(correctSet):
		return float64(q.Points)
	case correctCount > 0:
		return float64(q.Points) * float64(correctCount) / float64(len(correctSet))
	default:
		return 0
	}
}
