package question

import "github.com/abhisek/prepwise/internal/llmjson"

var nonEmptyString = map[string]any{"type": "string", "minLength": 1}

// MCQSchema describes one generated multiple-choice item.
var MCQSchema = &llmjson.Schema{
	Name:        "mcq-item",
	Description: "A multiple-choice question with four options and the index of the correct one",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": nonEmptyString,
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 4,
				"maxItems": 4,
			},
			"correctAnswer": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": 3,
			},
			"explanation": nonEmptyString,
		},
		"required": []any{"question", "options", "correctAnswer", "explanation"},
	},
}

// SingleWordSchema describes one generated single-word item.
var SingleWordSchema = &llmjson.Schema{
	Name:        "single-word-item",
	Description: "A question answered by one word, with accepted variants",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question":      nonEmptyString,
			"correctAnswer": nonEmptyString,
			"acceptableAnswers": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"explanation": nonEmptyString,
		},
		"required": []any{"question", "correctAnswer", "acceptableAnswers", "explanation"},
	},
}

// ShortAnswerSchema describes one generated short-answer item.
var ShortAnswerSchema = &llmjson.Schema{
	Name:        "short-answer-item",
	Description: "A question answered in a few sentences, graded against key points",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question":    nonEmptyString,
			"modelAnswer": nonEmptyString,
			"keyPoints": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 1,
			},
			"explanation": nonEmptyString,
		},
		"required": []any{"question", "modelAnswer", "keyPoints", "explanation"},
	},
}

// SchemaFor returns the item schema for type t.
func SchemaFor(t Type) *llmjson.Schema {
	switch t {
	case TypeMCQ:
		return MCQSchema
	case TypeSingleWord:
		return SingleWordSchema
	case TypeShortAnswer:
		return ShortAnswerSchema
	}
	return nil
}
