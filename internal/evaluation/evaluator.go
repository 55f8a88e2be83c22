// Package evaluation grades learner answers. Multiple-choice answers are
// compared locally; single-word and short answers are graded by the model.
package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/prepwise/internal/llm"
	"github.com/abhisek/prepwise/internal/llmjson"
	"github.com/abhisek/prepwise/internal/prompt"
	"github.com/abhisek/prepwise/internal/question"
)

// ErrUnknownType is returned for questions of an unrecognized type.
var ErrUnknownType = errors.New("unknown question type")

// Caller sends one prompt to the model and returns its text. *llm.Gateway
// satisfies it.
type Caller interface {
	Call(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error)
}

// Config holds the response budgets of the grading calls.
type Config struct {
	SingleWordMaxTokens  int
	ShortAnswerMaxTokens int
}

// DefaultConfig returns the standard grading budgets.
func DefaultConfig() Config {
	return Config{
		SingleWordMaxTokens:  500,
		ShortAnswerMaxTokens: 1000,
	}
}

// Grader identifies who produced a Result.
type Grader string

const (
	GradedLocal Grader = "local"
	GradedModel Grader = "model"
)

// Result is the normalized grade of one answer.
type Result struct {
	IsCorrect bool     `json:"isCorrect"`
	Score     int      `json:"score"`
	Feedback  string   `json:"feedback"`
	Strengths []string `json:"strengths,omitempty"`
	Missing   []string `json:"missing,omitempty"`
	Errors    []string `json:"errors,omitempty"`

	// Display extras copied from the question.
	CorrectAnswer     string   `json:"correctAnswer,omitempty"`
	AcceptableAnswers []string `json:"acceptableAnswers,omitempty"`
	ModelAnswer       string   `json:"modelAnswer,omitempty"`
	KeyPoints         []string `json:"keyPoints,omitempty"`

	UserAnswer string `json:"userAnswer"`
	GradedBy   Grader `json:"gradedBy"`
}

// Evaluator grades answers. It holds no per-answer state.
type Evaluator struct {
	caller Caller
	cfg    Config
}

// New creates an Evaluator. Zero budgets take their defaults.
func New(caller Caller, cfg Config) *Evaluator {
	def := DefaultConfig()
	if cfg.SingleWordMaxTokens <= 0 {
		cfg.SingleWordMaxTokens = def.SingleWordMaxTokens
	}
	if cfg.ShortAnswerMaxTokens <= 0 {
		cfg.ShortAnswerMaxTokens = def.ShortAnswerMaxTokens
	}
	return &Evaluator{caller: caller, cfg: cfg}
}

// Evaluate grades userAnswer against q. Model and parse failures are
// returned to the caller; there is no fallback grade.
func (e *Evaluator) Evaluate(ctx context.Context, q question.Question, userAnswer string) (*Result, error) {
	switch q.Type {
	case question.TypeMCQ:
		return EvaluateMCQ(q, userAnswer), nil
	case question.TypeSingleWord:
		return e.evaluateSingleWord(ctx, q, userAnswer)
	case question.TypeShortAnswer:
		return e.evaluateShortAnswer(ctx, q, userAnswer)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, q.Type)
}

// EvaluateMCQ compares a chosen option with the correct one. An index answer
// is resolved to its option text and compared exactly. A literal answer is
// compared exactly and then by first letter, case-insensitively.
func EvaluateMCQ(q question.Question, userAnswer string) *Result {
	correctText := q.CorrectAnswer.String()
	var correct bool

	if i, ok := q.CorrectAnswer.OptionIndex(len(q.Options)); ok {
		correctText = q.Options[i]
		correct = userAnswer == correctText
	} else if !q.CorrectAnswer.IsIndex && q.CorrectAnswer.Text != "" {
		correct = userAnswer == q.CorrectAnswer.Text
		if !correct {
			u, c := firstLetter(userAnswer), firstLetter(q.CorrectAnswer.Text)
			correct = u != 0 && u == c
		}
	}

	res := &Result{
		IsCorrect:     correct,
		CorrectAnswer: correctText,
		UserAnswer:    userAnswer,
		GradedBy:      GradedLocal,
	}
	if correct {
		res.Score = 100
		res.Feedback = "Correct! " + q.Explanation
	} else {
		res.Feedback = fmt.Sprintf("Incorrect. The correct answer is %s. %s", correctText, q.Explanation)
	}
	return res
}

func firstLetter(s string) rune {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.ToUpper(r)
}

func (e *Evaluator) evaluateSingleWord(ctx context.Context, q question.Question, userAnswer string) (*Result, error) {
	res := &Result{
		CorrectAnswer:     q.CorrectAnswer.String(),
		AcceptableAnswers: q.AcceptableAnswers,
		UserAnswer:        userAnswer,
	}

	if matchesAccepted(q, userAnswer) {
		res.IsCorrect = true
		res.Score = 100
		res.Feedback = "Correct! " + q.Explanation
		res.GradedBy = GradedLocal
		return res, nil
	}
	if strings.TrimSpace(userAnswer) == "" {
		res.Feedback = "No answer given. The expected answer is " + res.CorrectAnswer + "."
		res.GradedBy = GradedLocal
		return res, nil
	}

	p, err := prompt.SingleWordEvaluation(prompt.SingleWordInput{
		Question:          q.Question,
		CorrectAnswer:     res.CorrectAnswer,
		AcceptableAnswers: q.AcceptableAnswers,
		UserAnswer:        userAnswer,
	})
	if err != nil {
		return nil, fmt.Errorf("build single-word evaluation prompt: %w", err)
	}

	v, err := e.grade(ctx, p, e.cfg.SingleWordMaxTokens, SingleWordVerdictSchema)
	if err != nil {
		return nil, fmt.Errorf("evaluate single-word answer: %w", err)
	}

	res.IsCorrect = v.IsCorrect
	res.Score = clampScore(v.Score)
	res.Feedback = v.Feedback
	res.GradedBy = GradedModel
	return res, nil
}

func (e *Evaluator) evaluateShortAnswer(ctx context.Context, q question.Question, userAnswer string) (*Result, error) {
	res := &Result{
		ModelAnswer: q.ModelAnswer,
		KeyPoints:   q.KeyPoints,
		UserAnswer:  userAnswer,
	}

	if strings.TrimSpace(userAnswer) == "" {
		res.Feedback = "No answer given."
		res.Missing = q.KeyPoints
		res.GradedBy = GradedLocal
		return res, nil
	}

	p, err := prompt.ShortAnswerEvaluation(prompt.ShortAnswerInput{
		Question:    q.Question,
		ModelAnswer: q.ModelAnswer,
		KeyPoints:   q.KeyPoints,
		UserAnswer:  userAnswer,
	})
	if err != nil {
		return nil, fmt.Errorf("build short-answer evaluation prompt: %w", err)
	}

	v, err := e.grade(ctx, p, e.cfg.ShortAnswerMaxTokens, ShortAnswerVerdictSchema)
	if err != nil {
		return nil, fmt.Errorf("evaluate short answer: %w", err)
	}

	res.Score = clampScore(v.Score)
	res.IsCorrect = res.Score >= prompt.PassingScore
	res.Feedback = v.Feedback
	res.Strengths = v.Strengths
	res.Missing = v.Missing
	res.Errors = v.Errors
	res.GradedBy = GradedModel
	return res, nil
}

// verdict is the grader's raw reply.
type verdict struct {
	IsCorrect bool     `json:"isCorrect"`
	Score     float64  `json:"score"`
	Feedback  string   `json:"feedback"`
	Strengths []string `json:"strengths"`
	Missing   []string `json:"missing"`
	Errors    []string `json:"errors"`
}

// grade calls the model without a system prompt and decodes its verdict.
func (e *Evaluator) grade(ctx context.Context, p string, maxTokens int, schema *llmjson.Schema) (*verdict, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluation)

	raw, err := e.caller.Call(ctx, p, "", maxTokens)
	if err != nil {
		return nil, err
	}

	obj, err := llmjson.ParseObject(raw)
	if err != nil {
		return nil, err
	}
	if err := llmjson.Validate(schema, obj); err != nil {
		return nil, err
	}

	var v verdict
	if err := json.Unmarshal(obj, &v); err != nil {
		return nil, &llmjson.ParseError{Raw: raw, Err: err}
	}
	return &v, nil
}

func matchesAccepted(q question.Question, userAnswer string) bool {
	answer := strings.ToLower(strings.TrimSpace(userAnswer))
	if answer == "" {
		return false
	}
	if answer == strings.ToLower(strings.TrimSpace(q.CorrectAnswer.String())) {
		return true
	}
	for _, a := range q.AcceptableAnswers {
		if answer == strings.ToLower(strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}

func clampScore(score float64) int {
	s := int(math.Round(score))
	return max(0, min(100, s))
}
