package cmd

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/evaluation"
	"github.com/abhisek/prepwise/internal/llm"
	"github.com/abhisek/prepwise/internal/question"
	"github.com/abhisek/prepwise/internal/store"
)

func TestResolveAnswer(t *testing.T) {
	mcq := question.Question{
		Type:    question.TypeMCQ,
		Options: []string{"Paris", "Lyon", "Nice", "Rome"},
	}
	sw := question.Question{Type: question.TypeSingleWord}

	tests := []struct {
		name string
		q    question.Question
		in   string
		want string
	}{
		{"upper letter", mcq, "A", "Paris"},
		{"lower letter", mcq, "c", "Nice"},
		{"number", mcq, "4", "Rome"},
		{"letter out of range", mcq, "e", "e"},
		{"number out of range", mcq, "5", "5"},
		{"literal option", mcq, "Lyon", "Lyon"},
		{"single word untouched", sw, "a", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveAnswer(tt.q, tt.in); got != tt.want {
				t.Fatalf("resolveAnswer(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCountsFromFlags(t *testing.T) {
	c := &cobra.Command{}
	addCountFlags(c, 10, 10, 5)

	got, err := countsFromFlags(c)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if got != (question.Counts{MCQ: 10, SingleWord: 10, ShortAnswer: 5}) {
		t.Fatalf("counts = %+v", got)
	}

	if err := c.Flags().Set("mcq", "101"); err != nil {
		t.Fatal(err)
	}
	if _, err := countsFromFlags(c); err == nil {
		t.Fatal("expected error for mcq=101")
	}
}

func TestLoadLLMConfig(t *testing.T) {
	for _, k := range []string{"PREPWISE_LLM_PROVIDER", "PREPWISE_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	t.Run("prepwise key wins", func(t *testing.T) {
		t.Setenv("PREPWISE_API_KEY", "sk-prep")
		t.Setenv("OPENAI_API_KEY", "sk-openai")
		cfg := loadLLMConfig()
		if cfg.Provider != llm.ProviderMessages || cfg.Credential() != "sk-prep" {
			t.Fatalf("cfg = %s/%q", cfg.Provider, cfg.Credential())
		}
	})

	t.Run("discovers vendor key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "sk-openai")
		t.Setenv("PREPWISE_LLM_TIMEOUT", "5s")
		cfg := loadLLMConfig()
		if cfg.Provider != llm.ProviderOpenAI || cfg.Credential() != "sk-openai" {
			t.Fatalf("cfg = %s/%q", cfg.Provider, cfg.Credential())
		}
		if cfg.Timeout.String() != "5s" {
			t.Fatalf("Timeout = %v, want 5s", cfg.Timeout)
		}
	})

	t.Run("explicit provider is kept", func(t *testing.T) {
		t.Setenv("PREPWISE_LLM_PROVIDER", "mock")
		t.Setenv("OPENAI_API_KEY", "sk-openai")
		if cfg := loadLLMConfig(); cfg.Provider != llm.ProviderMock {
			t.Fatalf("Provider = %s, want mock", cfg.Provider)
		}
	})
}

// flakyGrader fails the first failures calls, then grades everything correct.
type flakyGrader struct {
	failures int
	err      error
	answers  []string
}

func (g *flakyGrader) Evaluate(ctx context.Context, q question.Question, answer string) (*evaluation.Result, error) {
	g.answers = append(g.answers, answer)
	if len(g.answers) <= g.failures {
		return nil, g.err
	}
	return &evaluation.Result{IsCorrect: true, Score: 100, UserAnswer: answer}, nil
}

func scriptedInput(lines ...string) func() (string, bool) {
	return func() (string, bool) {
		if len(lines) == 0 {
			return "", false
		}
		l := lines[0]
		lines = lines[1:]
		return l, true
	}
}

func TestGradeWithRetry(t *testing.T) {
	sw := question.Question{ID: "sw_1", Type: question.TypeSingleWord}
	mcq := question.Question{ID: "mcq_1", Type: question.TypeMCQ, Options: []string{"Paris", "Lyon"}}
	transient := &llm.ErrRetriesExhausted{Attempts: 3, Err: errors.New("503")}

	t.Run("retries on enter", func(t *testing.T) {
		g := &flakyGrader{failures: 1, err: transient}
		answer, res := gradeWithRetry(context.Background(), g, sw, "osmosis", scriptedInput(""), io.Discard)
		if res == nil || answer != "osmosis" {
			t.Fatalf("got %q %+v", answer, res)
		}
		if len(g.answers) != 2 {
			t.Fatalf("calls = %d, want 2", len(g.answers))
		}
	})

	t.Run("new answer replaces the old one", func(t *testing.T) {
		g := &flakyGrader{failures: 1, err: transient}
		answer, res := gradeWithRetry(context.Background(), g, mcq, "Paris", scriptedInput("b"), io.Discard)
		if res == nil || answer != "Lyon" {
			t.Fatalf("got %q %+v", answer, res)
		}
	})

	t.Run("skip gives up", func(t *testing.T) {
		g := &flakyGrader{failures: 5, err: transient}
		_, res := gradeWithRetry(context.Background(), g, sw, "osmosis", scriptedInput("skip"), io.Discard)
		if res != nil || len(g.answers) != 1 {
			t.Fatalf("res = %+v calls = %d", res, len(g.answers))
		}
	})

	t.Run("end of input gives up", func(t *testing.T) {
		g := &flakyGrader{failures: 5, err: transient}
		_, res := gradeWithRetry(context.Background(), g, sw, "osmosis", scriptedInput(), io.Discard)
		if res != nil {
			t.Fatalf("res = %+v", res)
		}
	})

	t.Run("authentication failure is not retried", func(t *testing.T) {
		g := &flakyGrader{failures: 5, err: &llm.ErrAuthentication{StatusCode: 401, Err: errors.New("bad key")}}
		_, res := gradeWithRetry(context.Background(), g, sw, "osmosis", scriptedInput("", ""), io.Discard)
		if res != nil || len(g.answers) != 1 {
			t.Fatalf("res = %+v calls = %d", res, len(g.answers))
		}
	})
}

func TestGroupUsage(t *testing.T) {
	stats := []store.LLMUsageStats{
		{Purpose: "answer-eval", Calls: 4, InputTokens: 400, OutputTokens: 100, AvgLatencyMs: 50},
		{Purpose: "legacy", Calls: 1, InputTokens: 1, OutputTokens: 1, AvgLatencyMs: 10},
		{Purpose: "question-gen", Calls: 3, InputTokens: 3000, OutputTokens: 1500, AvgLatencyMs: 200},
		{Purpose: "question-regen", Calls: 1, InputTokens: 1000, OutputTokens: 500, AvgLatencyMs: 600},
	}

	groups := groupUsage(stats)
	if len(groups) != 3 {
		t.Fatalf("groups = %+v", groups)
	}

	gen := groups[0]
	if gen.Label != "Question generation" || gen.Calls != 4 || gen.InputTokens != 4000 || gen.OutputTokens != 2000 {
		t.Errorf("generation group = %+v", gen)
	}
	if gen.AvgLatencyMs() != 300 {
		t.Errorf("weighted latency = %v, want 300", gen.AvgLatencyMs())
	}
	if len(gen.Purposes) != 2 || gen.Purposes[0].Purpose != "question-gen" {
		t.Errorf("generation purposes = %+v", gen.Purposes)
	}

	if groups[1].Label != "Answer grading" || groups[1].Calls != 4 {
		t.Errorf("grading group = %+v", groups[1])
	}
	if groups[2].Label != "Other" || groups[2].Calls != 1 {
		t.Errorf("other group = %+v", groups[2])
	}
}

func TestPurposesFor(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"generation", []string{"question-gen", "question-regen"}, false},
		{"grading", []string{"answer-eval"}, false},
		{"key", []string{"key-check"}, false},
		{"question-regen", []string{"question-regen"}, false},
		{"chat", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := purposesFor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("purposesFor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
