package question

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Bank is the full set of generated questions for one material.
type Bank struct {
	MCQ            []Question `json:"mcq"`
	SingleWord     []Question `json:"singleWord"`
	ShortAnswer    []Question `json:"shortAnswer"`
	TotalQuestions int        `json:"totalQuestions"`
}

// NewBank builds a Bank from per-type slices. The slices are copied.
func NewBank(mcq, singleWord, shortAnswer []Question) Bank {
	b := Bank{
		MCQ:         clone(mcq),
		SingleWord:  clone(singleWord),
		ShortAnswer: clone(shortAnswer),
	}
	b.TotalQuestions = len(b.MCQ) + len(b.SingleWord) + len(b.ShortAnswer)
	return b
}

func clone(qs []Question) []Question {
	out := make([]Question, len(qs))
	copy(out, qs)
	return out
}

// Of returns the questions of type t.
func (b Bank) Of(t Type) []Question {
	switch t {
	case TypeMCQ:
		return b.MCQ
	case TypeSingleWord:
		return b.SingleWord
	case TypeShortAnswer:
		return b.ShortAnswer
	}
	return nil
}

// WithType returns a copy of b whose questions of type t are replaced by qs.
func (b Bank) WithType(t Type, qs []Question) Bank {
	mcq, sw, sa := b.MCQ, b.SingleWord, b.ShortAnswer
	switch t {
	case TypeMCQ:
		mcq = qs
	case TypeSingleWord:
		sw = qs
	case TypeShortAnswer:
		sa = qs
	}
	return NewBank(mcq, sw, sa)
}

// Counts returns the number of questions per type.
func (b Bank) Counts() Counts {
	return Counts{MCQ: len(b.MCQ), SingleWord: len(b.SingleWord), ShortAnswer: len(b.ShortAnswer)}
}

// Find returns the question with the given ID.
func (b Bank) Find(id string) (Question, bool) {
	for _, t := range Types {
		for _, q := range b.Of(t) {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

// Counts holds a number per question type.
type Counts struct {
	MCQ         int `json:"mcq" validate:"min=0,max=100"`
	SingleWord  int `json:"singleWord" validate:"min=0,max=100"`
	ShortAnswer int `json:"shortAnswer" validate:"min=0,max=100"`
}

var validate = validator.New()

// Validate checks that every count is within 0..100.
func (c Counts) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid question counts: %w", err)
	}
	return nil
}

// Of returns the count for type t.
func (c Counts) Of(t Type) int {
	switch t {
	case TypeMCQ:
		return c.MCQ
	case TypeSingleWord:
		return c.SingleWord
	case TypeShortAnswer:
		return c.ShortAnswer
	}
	return 0
}

// Add increments the count for type t by n.
func (c *Counts) Add(t Type, n int) {
	switch t {
	case TypeMCQ:
		c.MCQ += n
	case TypeSingleWord:
		c.SingleWord += n
	case TypeShortAnswer:
		c.ShortAnswer += n
	}
}

// Total returns the sum over all types.
func (c Counts) Total() int {
	return c.MCQ + c.SingleWord + c.ShortAnswer
}
