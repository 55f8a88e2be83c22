package quiz

import (
	"math"

	"github.com/abhisek/prepwise/internal/question"
)

// TypeResult aggregates the answered questions of one type.
type TypeResult struct {
	Total        int `json:"total"`
	Correct      int `json:"correct"`
	TotalScore   int `json:"totalScore"`
	AverageScore int `json:"avgScore"`
	Percentage   int `json:"percentage"`
}

// Results summarizes a completed quiz.
type Results struct {
	// AverageScore is the mean score over all questions; skipped ones score 0.
	AverageScore   int `json:"averageScore"`
	TotalQuestions int `json:"totalQuestions"`
	Correct        int `json:"correctCount"`
	Incorrect      int `json:"incorrectCount"`
	Skipped        int `json:"skippedCount"`

	// Percentage is the share of all questions answered correctly.
	Percentage int `json:"percentage"`

	ByType map[question.Type]*TypeResult `json:"byType"`
}

// CalculateResults aggregates answers over questions. A question with no
// answer, a skipped answer or no evaluation counts as skipped. Per-type
// figures cover answered questions only. Averages and percentages are
// rounded half away from zero.
func CalculateResults(questions []question.Question, answers map[string]Answer) *Results {
	res := &Results{
		TotalQuestions: len(questions),
		ByType:         make(map[question.Type]*TypeResult, len(question.Types)),
	}
	for _, t := range question.Types {
		res.ByType[t] = &TypeResult{}
	}

	totalScore := 0
	for _, q := range questions {
		a, ok := answers[q.ID]
		if !ok || a.Skipped || a.Evaluation == nil {
			res.Skipped++
			continue
		}

		score := a.Evaluation.Score
		totalScore += score
		if a.Evaluation.IsCorrect {
			res.Correct++
		} else {
			res.Incorrect++
		}

		tr, ok := res.ByType[q.Type]
		if !ok {
			tr = &TypeResult{}
			res.ByType[q.Type] = tr
		}
		tr.Total++
		tr.TotalScore += score
		if a.Evaluation.IsCorrect {
			tr.Correct++
		}
	}

	res.AverageScore = ratio(totalScore, res.TotalQuestions, 1)
	res.Percentage = ratio(res.Correct, res.TotalQuestions, 100)
	for _, tr := range res.ByType {
		tr.AverageScore = ratio(tr.TotalScore, tr.Total, 1)
		tr.Percentage = ratio(tr.Correct, tr.Total, 100)
	}
	return res
}

func ratio(num, den, scale int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num*scale) / float64(den)))
}
