// Package question defines the quiz question model shared by generation,
// evaluation and storage.
package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Type identifies a question variant.
type Type string

const (
	TypeMCQ         Type = "mcq"
	TypeSingleWord  Type = "singleWord"
	TypeShortAnswer Type = "shortAnswer"
)

// Types lists every question type in generation order.
var Types = []Type{TypeMCQ, TypeSingleWord, TypeShortAnswer}

// Valid reports whether t is a known question type.
func (t Type) Valid() bool {
	switch t {
	case TypeMCQ, TypeSingleWord, TypeShortAnswer:
		return true
	}
	return false
}

// Prefix returns the ID prefix for questions of type t.
func (t Type) Prefix() string {
	switch t {
	case TypeMCQ:
		return "mcq"
	case TypeSingleWord:
		return "sw"
	case TypeShortAnswer:
		return "sa"
	}
	return "q"
}

// Label returns a human-readable name for t.
func (t Type) Label() string {
	switch t {
	case TypeMCQ:
		return "multiple-choice"
	case TypeSingleWord:
		return "single-word"
	case TypeShortAnswer:
		return "short-answer"
	}
	return string(t)
}

// ParseType accepts the canonical type names plus their kebab-case labels.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mcq", "multiple-choice":
		return TypeMCQ, nil
	case "singleword", "single-word":
		return TypeSingleWord, nil
	case "shortanswer", "short-answer":
		return TypeShortAnswer, nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// NewID returns a fresh question ID for type t, e.g. "mcq_1b4e...".
func NewID(t Type) string {
	return t.Prefix() + "_" + uuid.NewString()
}

// Question is a single quiz question. Which fields are populated depends on
// Type.
type Question struct {
	ID          string `json:"id"`
	Type        Type   `json:"type"`
	Question    string `json:"question"`
	Explanation string `json:"explanation"`

	// Options holds exactly 4 choices for mcq questions.
	Options []string `json:"options,omitempty"`

	// CorrectAnswer is an option index for mcq questions and the lowercase
	// canonical answer for singleWord questions.
	CorrectAnswer Answer `json:"correctAnswer,omitzero"`

	// AcceptableAnswers always contains the canonical answer (singleWord).
	AcceptableAnswers []string `json:"acceptableAnswers,omitempty"`

	ModelAnswer string   `json:"modelAnswer,omitempty"`
	KeyPoints   []string `json:"keyPoints,omitempty"`
}

// Answer is an mcq option index or a literal answer string. Stored mcq
// questions from older versions carry the option text instead of the index.
type Answer struct {
	Index   int
	Text    string
	IsIndex bool
}

// IndexAnswer returns an Answer referring to option i.
func IndexAnswer(i int) Answer { return Answer{Index: i, IsIndex: true} }

// TextAnswer returns a literal Answer.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// IsZero reports whether the answer is unset.
func (a Answer) IsZero() bool { return !a.IsIndex && a.Text == "" }

// OptionIndex resolves a to an option index in [0, n). Numeric strings count
// as indexes when in range.
func (a Answer) OptionIndex(n int) (int, bool) {
	i := a.Index
	if !a.IsIndex {
		parsed, err := strconv.Atoi(strings.TrimSpace(a.Text))
		if err != nil {
			return 0, false
		}
		i = parsed
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func (a Answer) String() string {
	if a.IsIndex {
		return strconv.Itoa(a.Index)
	}
	return a.Text
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsIndex {
		return json.Marshal(a.Index)
	}
	return json.Marshal(a.Text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	}
	var i int
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("correctAnswer must be an integer or a string: %w", err)
	}
	*a = IndexAnswer(i)
	return nil
}
