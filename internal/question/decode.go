package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/prepwise/internal/llmjson"
)

// ValidationError describes a generated item that failed a structural check.
type ValidationError struct {
	Type      Type   // Question type the item was decoded as
	Validator string // "schema" or "structure"
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s item failed %s check: %s", e.Type, e.Validator, e.Message)
}

// Decode turns one raw generated item into a Question of type t. The item
// must match the type's schema and invariants. Answers of singleWord items
// are normalized to lowercase. The returned Question has its Type set but no
// ID.
func Decode(t Type, raw json.RawMessage) (Question, error) {
	schema := SchemaFor(t)
	if schema == nil {
		return Question{}, &ValidationError{Type: t, Validator: "structure", Message: "unknown question type"}
	}

	if err := llmjson.Validate(schema, raw); err != nil {
		var serr *llmjson.SchemaError
		if errors.As(err, &serr) {
			return Question{}, &ValidationError{Type: t, Validator: "schema", Message: serr.Err.Error()}
		}
		return Question{}, err
	}

	var q Question
	if err := json.Unmarshal(raw, &q); err != nil {
		return Question{}, &ValidationError{Type: t, Validator: "schema", Message: err.Error()}
	}
	q.ID = ""
	q.Type = t
	q.Question = strings.TrimSpace(q.Question)
	q.Explanation = strings.TrimSpace(q.Explanation)

	if err := normalize(&q); err != nil {
		return Question{}, err
	}
	return q, nil
}

func normalize(q *Question) error {
	fail := func(format string, args ...any) error {
		return &ValidationError{Type: q.Type, Validator: "structure", Message: fmt.Sprintf(format, args...)}
	}

	if q.Question == "" {
		return fail("question text is blank")
	}
	if q.Explanation == "" {
		return fail("explanation is blank")
	}

	switch q.Type {
	case TypeMCQ:
		if len(q.Options) != 4 {
			return fail("expected 4 options, got %d", len(q.Options))
		}
		if !q.CorrectAnswer.IsIndex {
			return fail("correctAnswer must be an option index")
		}
		if _, ok := q.CorrectAnswer.OptionIndex(len(q.Options)); !ok {
			return fail("correctAnswer %d out of range", q.CorrectAnswer.Index)
		}
		q.AcceptableAnswers, q.ModelAnswer, q.KeyPoints = nil, "", nil

	case TypeSingleWord:
		canonical := normalizeAnswer(q.CorrectAnswer.Text)
		if q.CorrectAnswer.IsIndex || canonical == "" {
			return fail("correctAnswer must be a non-empty string")
		}
		q.CorrectAnswer = TextAnswer(canonical)
		q.AcceptableAnswers = acceptable(canonical, q.AcceptableAnswers)
		q.Options, q.ModelAnswer, q.KeyPoints = nil, "", nil

	case TypeShortAnswer:
		q.ModelAnswer = strings.TrimSpace(q.ModelAnswer)
		if q.ModelAnswer == "" {
			return fail("modelAnswer is blank")
		}
		q.KeyPoints = nonBlank(q.KeyPoints)
		if len(q.KeyPoints) == 0 {
			return fail("keyPoints is empty")
		}
		q.Options, q.CorrectAnswer, q.AcceptableAnswers = nil, Answer{}, nil
	}
	return nil
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// acceptable returns the normalized, de-duplicated variants with the
// canonical answer first.
func acceptable(canonical string, variants []string) []string {
	out := []string{canonical}
	seen := map[string]bool{canonical: true}
	for _, v := range variants {
		v = normalizeAnswer(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func nonBlank(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
