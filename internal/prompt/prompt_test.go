package prompt

import (
	"strings"
	"testing"

	"github.com/abhisek/prepwise/internal/question"
)

func TestGeneration_EmbedsChunkAndCount(t *testing.T) {
	chunk := "The mitochondria is the powerhouse of the cell.\n\nRibosomes build proteins."
	tests := []struct {
		typ  question.Type
		keys []string
	}{
		{question.TypeMCQ, []string{`"options"`, `"correctAnswer": 0`, "index (0-3)"}},
		{question.TypeSingleWord, []string{`"acceptableAnswers"`, "ONE-WORD"}},
		{question.TypeShortAnswer, []string{`"modelAnswer"`, `"keyPoints"`}},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			p, err := Generation(tt.typ, chunk, 7)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(p, chunk) {
				t.Error("prompt should embed the chunk verbatim")
			}
			if !strings.Contains(p, "Generate exactly 7") {
				t.Error("prompt should state the exact count")
			}
			if !strings.Contains(p, "JSON array") {
				t.Error("prompt should require a JSON array")
			}
			for _, k := range tt.keys {
				if !strings.Contains(p, k) {
					t.Errorf("prompt missing %q", k)
				}
			}
		})
	}
}

func TestGeneration_DoesNotEscapeChunk(t *testing.T) {
	chunk := `Use <b>bold</b> & "quotes"`
	p, err := MCQ(chunk, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(p, chunk) {
		t.Error("chunk should not be HTML-escaped")
	}
}

func TestGeneration_UnknownType(t *testing.T) {
	if _, err := Generation(question.Type("essay"), "text", 1); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestSystem_RequiresJSON(t *testing.T) {
	if !strings.Contains(System, "valid JSON") {
		t.Error("system prompt should demand JSON output")
	}
}

func TestSingleWordEvaluation(t *testing.T) {
	p, err := SingleWordEvaluation(SingleWordInput{
		Question:          "Which organelle produces ATP?",
		CorrectAnswer:     "mitochondria",
		AcceptableAnswers: []string{"mitochondria", "mitochondrion"},
		UserAnswer:        "mitocondria",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		`Question: "Which organelle produces ATP?"`,
		`Expected Answer: "mitochondria"`,
		`Also Accepted: "mitochondria", "mitochondrion"`,
		`Student's Answer: "mitocondria"`,
		"minor typos",
		"Singular/plural",
		`"isCorrect"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSingleWordEvaluation_NoVariants(t *testing.T) {
	p, err := SingleWordEvaluation(SingleWordInput{Question: "q", CorrectAnswer: "a", UserAnswer: "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(p, "Also Accepted") {
		t.Error("expected no accepted-variants line")
	}
}

func TestShortAnswerEvaluation(t *testing.T) {
	p, err := ShortAnswerEvaluation(ShortAnswerInput{
		Question:    "Explain photosynthesis.",
		ModelAnswer: "Plants convert light into chemical energy.",
		KeyPoints:   []string{"light energy", "glucose"},
		UserAnswer:  "Plants eat sunlight.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"1. light energy\n2. glucose\n",
		`"Plants convert light into chemical energy."`,
		`"Plants eat sunlight."`,
		"90-100",
		"Below 60",
		`"isCorrect" as true if score >= 70`,
		`"strengths"`,
		`"missing"`,
		`"errors"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
