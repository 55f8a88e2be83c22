// Package quiz tracks one attempt at a set of questions: the answer sheet,
// its lifecycle and the aggregated results.
package quiz

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/prepwise/internal/evaluation"
	"github.com/abhisek/prepwise/internal/question"
)

// Status is the lifecycle state of a quiz.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var (
	ErrCompleted       = errors.New("quiz is already completed")
	ErrUnknownQuestion = errors.New("question is not part of this quiz")
)

// Answer is the learner's response to one question.
type Answer struct {
	UserAnswer string             `json:"userAnswer"`
	Skipped    bool               `json:"skipped"`
	Evaluation *evaluation.Result `json:"evaluation,omitempty"`
}

// Quiz is one attempt at a list of questions drawn from a material.
type Quiz struct {
	ID          string
	MaterialID  string
	Questions   []question.Question
	Answers     map[string]Answer // keyed by question ID
	Status      Status
	CreatedAt   time.Time
	CompletedAt time.Time
	Results     *Results
}

// New starts a quiz over questions.
func New(materialID string, questions []question.Question, now time.Time) *Quiz {
	return &Quiz{
		ID:         "quiz_" + uuid.NewString(),
		MaterialID: materialID,
		Questions:  questions,
		Answers:    make(map[string]Answer, len(questions)),
		Status:     StatusInProgress,
		CreatedAt:  now,
	}
}

// Record stores the graded answer to question id, replacing any earlier one.
func (q *Quiz) Record(id, userAnswer string, result *evaluation.Result) error {
	if err := q.checkOpen(id); err != nil {
		return err
	}
	q.Answers[id] = Answer{UserAnswer: userAnswer, Evaluation: result}
	return nil
}

// Skip marks question id as skipped.
func (q *Quiz) Skip(id string) error {
	if err := q.checkOpen(id); err != nil {
		return err
	}
	q.Answers[id] = Answer{Skipped: true}
	return nil
}

// Complete closes the quiz and computes its results. Unanswered questions
// count as skipped.
func (q *Quiz) Complete(now time.Time) (*Results, error) {
	if q.Status == StatusCompleted {
		return nil, ErrCompleted
	}
	q.Status = StatusCompleted
	q.CompletedAt = now
	q.Results = CalculateResults(q.Questions, q.Answers)
	return q.Results, nil
}

// Pending returns the questions that have no answer yet, in quiz order.
func (q *Quiz) Pending() []question.Question {
	var out []question.Question
	for _, qu := range q.Questions {
		if _, ok := q.Answers[qu.ID]; !ok {
			out = append(out, qu)
		}
	}
	return out
}

func (q *Quiz) checkOpen(id string) error {
	if q.Status == StatusCompleted {
		return ErrCompleted
	}
	for _, qu := range q.Questions {
		if qu.ID == id {
			if q.Answers == nil {
				q.Answers = make(map[string]Answer)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
}
