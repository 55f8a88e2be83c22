package evaluation

import "github.com/abhisek/prepwise/internal/llmjson"

var stringList = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// SingleWordVerdictSchema describes the grader's reply for a single-word answer.
var SingleWordVerdictSchema = &llmjson.Schema{
	Name:        "single-word-verdict",
	Description: "Grade for a single-word answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isCorrect": map[string]any{"type": "boolean"},
			"score":     map[string]any{"type": "number"},
			"feedback":  map[string]any{"type": "string"},
		},
		"required": []any{"isCorrect", "score", "feedback"},
	},
}

// ShortAnswerVerdictSchema describes the grader's reply for a short answer.
// The list fields may be omitted.
var ShortAnswerVerdictSchema = &llmjson.Schema{
	Name:        "short-answer-verdict",
	Description: "Graded short answer with strengths, gaps and errors",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isCorrect": map[string]any{"type": "boolean"},
			"score":     map[string]any{"type": "number"},
			"feedback":  map[string]any{"type": "string"},
			"strengths": stringList,
			"missing":   stringList,
			"errors":    stringList,
		},
		"required": []any{"isCorrect", "score", "feedback"},
	},
}
