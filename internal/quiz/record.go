package quiz

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/prepwise/internal/question"
	"github.com/abhisek/prepwise/internal/store"
)

// recordData is the JSON payload of a stored quiz.
type recordData struct {
	Questions []question.Question `json:"questions"`
	Answers   map[string]Answer   `json:"answers"`
	Results   *Results            `json:"results,omitempty"`
}

// ToRecord converts q to its storage form.
func (q *Quiz) ToRecord() (*store.QuizRecord, error) {
	data, err := json.Marshal(recordData{
		Questions: q.Questions,
		Answers:   q.Answers,
		Results:   q.Results,
	})
	if err != nil {
		return nil, fmt.Errorf("encode quiz %s: %w", q.ID, err)
	}
	return &store.QuizRecord{
		ID:          q.ID,
		MaterialID:  q.MaterialID,
		Status:      string(q.Status),
		CreatedAt:   q.CreatedAt,
		CompletedAt: q.CompletedAt,
		Data:        data,
	}, nil
}

// FromRecord rebuilds a quiz from its storage form.
func FromRecord(r *store.QuizRecord) (*Quiz, error) {
	var data recordData
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &data); err != nil {
			return nil, fmt.Errorf("decode quiz %s: %w", r.ID, err)
		}
	}
	if data.Answers == nil {
		data.Answers = make(map[string]Answer)
	}
	return &Quiz{
		ID:          r.ID,
		MaterialID:  r.MaterialID,
		Questions:   data.Questions,
		Answers:     data.Answers,
		Status:      Status(r.Status),
		CreatedAt:   r.CreatedAt,
		CompletedAt: r.CompletedAt,
		Results:     data.Results,
	}, nil
}
