// Package questiongen turns study material into a question bank by asking
// the model for each question type, chunk by chunk.
package questiongen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/prepwise/internal/chunk"
	"github.com/abhisek/prepwise/internal/llm"
	"github.com/abhisek/prepwise/internal/llmjson"
	"github.com/abhisek/prepwise/internal/logger"
	"github.com/abhisek/prepwise/internal/prompt"
	"github.com/abhisek/prepwise/internal/question"
)

// Caller sends one prompt to the model and returns its text. *llm.Gateway
// satisfies it.
type Caller interface {
	Call(ctx context.Context, prompt, systemPrompt string, maxTokens int) (string, error)
}

// Config controls the behavior of the Generator.
type Config struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkDelay is the pause between consecutive chunk calls of one type.
	ChunkDelay time.Duration

	// MaxTokens is the response budget of a generation call.
	MaxTokens int

	// Clock performs the inter-chunk delay. Nil uses llm.SystemClock.
	Clock llm.Clock
}

// DefaultConfig returns the standard generation settings.
func DefaultConfig() Config {
	return Config{
		ChunkSize:  chunk.DefaultMaxSize,
		ChunkDelay: time.Second,
		MaxTokens:  4096,
		Clock:      llm.SystemClock,
	}
}

// ProgressFunc receives coarse progress: step of total, plus a message.
type ProgressFunc func(step, total int, message string)

var (
	ErrEmptyText        = errors.New("no text to generate questions from")
	ErrNothingRequested = errors.New("no questions requested")
)

// NoQuestionsGeneratedError is returned when a run produced nothing at all.
type NoQuestionsGeneratedError struct {
	FailedChunks int
	Dropped      int
	LastErr      error // last per-chunk failure, if any
}

func (e *NoQuestionsGeneratedError) Error() string {
	msg := fmt.Sprintf("no questions could be generated (%d failed chunks, %d invalid items)", e.FailedChunks, e.Dropped)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *NoQuestionsGeneratedError) Unwrap() error { return e.LastErr }

// Result is the outcome of a generation run.
type Result struct {
	Bank question.Bank

	Requested    question.Counts
	Achieved     question.Counts
	Dropped      question.Counts // items rejected by validation
	FailedChunks question.Counts // chunk calls that yielded nothing usable
}

// Partial reports whether any type came up short of its request.
func (r *Result) Partial() bool {
	for _, t := range question.Types {
		if r.Achieved.Of(t) < r.Requested.Of(t) {
			return true
		}
	}
	return false
}

// Generator runs the generation pipeline. Calls are strictly sequential.
type Generator struct {
	caller Caller
	cfg    Config
	log    *logger.Logger
}

// New creates a Generator. Zero config fields take their defaults.
func New(caller Caller, cfg Config, log *logger.Logger) *Generator {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkDelay < 0 {
		cfg.ChunkDelay = 0
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{caller: caller, cfg: cfg, log: log}
}

// Generate builds a question bank from text with up to counts questions per
// type. Per-chunk failures are tolerated; an authentication failure or a
// cancelled context aborts the run.
func (g *Generator) Generate(ctx context.Context, text string, counts question.Counts, onProgress ProgressFunc) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := counts.Validate(); err != nil {
		return nil, err
	}
	if counts.Total() == 0 {
		return nil, ErrNothingRequested
	}
	if onProgress == nil {
		onProgress = func(int, int, string) {}
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeGeneration)
	chunks := chunk.Split(text, g.cfg.ChunkSize)
	total := len(question.Types)

	g.log.Info("generating question bank",
		"chunks", len(chunks), "mcq", counts.MCQ, "single_word", counts.SingleWord, "short_answer", counts.ShortAnswer)

	res := &Result{Requested: counts}
	byType := make(map[question.Type][]question.Question, total)
	var lastErr error

	for step, t := range question.Types {
		onProgress(step+1, total, fmt.Sprintf("Generating %s questions...", t.Label()))

		want := counts.Of(t)
		if want == 0 {
			continue
		}

		out, err := g.generateType(ctx, chunks, t, want)
		if err != nil {
			return nil, err
		}
		byType[t] = out.questions
		res.Dropped.Add(t, out.dropped)
		res.FailedChunks.Add(t, out.failedChunks)
		if out.lastErr != nil {
			lastErr = out.lastErr
		}
	}

	res.Bank = question.NewBank(byType[question.TypeMCQ], byType[question.TypeSingleWord], byType[question.TypeShortAnswer])
	res.Achieved = res.Bank.Counts()

	if res.Bank.TotalQuestions == 0 {
		return nil, &NoQuestionsGeneratedError{
			FailedChunks: res.FailedChunks.Total(),
			Dropped:      res.Dropped.Total(),
			LastErr:      lastErr,
		}
	}

	g.log.Info("question bank generated",
		"total", res.Bank.TotalQuestions, "partial", res.Partial(),
		"dropped", res.Dropped.Total(), "failed_chunks", res.FailedChunks.Total())
	onProgress(total, total, fmt.Sprintf("Generated %d questions", res.Bank.TotalQuestions))
	return res, nil
}

// Regenerate produces a fresh set of up to count questions of one type.
func (g *Generator) Regenerate(ctx context.Context, text string, t question.Type, count int) ([]question.Question, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if !t.Valid() {
		return nil, fmt.Errorf("unknown question type %q", t)
	}
	var counts question.Counts
	counts.Add(t, count)
	if err := counts.Validate(); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNothingRequested
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeRegeneration)
	chunks := chunk.Split(text, g.cfg.ChunkSize)

	out, err := g.generateType(ctx, chunks, t, count)
	if err != nil {
		return nil, err
	}
	if len(out.questions) == 0 {
		return nil, &NoQuestionsGeneratedError{FailedChunks: out.failedChunks, Dropped: out.dropped, LastErr: out.lastErr}
	}
	g.log.Info("questions regenerated", "type", t, "requested", count, "achieved", len(out.questions))
	return out.questions, nil
}

type typeOutcome struct {
	questions    []question.Question
	dropped      int
	failedChunks int
	lastErr      error
}

// generateType walks the chunks in order, asking each for its share of the
// remaining shortfall, and truncates the result to want.
func (g *Generator) generateType(ctx context.Context, chunks []string, t question.Type, want int) (typeOutcome, error) {
	var (
		out    typeOutcome
		called bool
	)

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return typeOutcome{}, err
		}
		remaining := want - len(out.questions)
		if remaining <= 0 {
			break
		}
		quota := ceilDiv(remaining, len(chunks)-i)

		if called {
			if err := g.cfg.Clock.Sleep(ctx, g.cfg.ChunkDelay); err != nil {
				return typeOutcome{}, err
			}
		}
		called = true

		qs, dropped, err := g.generateChunk(ctx, t, c, quota)
		out.dropped += dropped
		if err != nil {
			if fatal(ctx, err) {
				return typeOutcome{}, err
			}
			g.log.Warn("chunk generation failed", "type", t, "chunk", i+1, "of", len(chunks), "error", err)
			out.failedChunks++
			out.lastErr = err
			continue
		}
		out.questions = append(out.questions, qs...)
	}

	if len(out.questions) > want {
		out.questions = out.questions[:want]
	}
	return out, nil
}

// generateChunk makes one model call and returns the valid items plus the
// number of dropped ones.
func (g *Generator) generateChunk(ctx context.Context, t question.Type, text string, quota int) ([]question.Question, int, error) {
	p, err := prompt.Generation(t, text, quota)
	if err != nil {
		return nil, 0, fmt.Errorf("build %s prompt: %w", t, err)
	}

	raw, err := g.caller.Call(ctx, p, prompt.System, g.cfg.MaxTokens)
	if err != nil {
		return nil, 0, err
	}

	items, err := llmjson.ParseArray(raw)
	if err != nil {
		return nil, 0, err
	}

	var (
		out     []question.Question
		dropped int
	)
	for _, item := range items {
		q, err := question.Decode(t, item)
		if err != nil {
			dropped++
			g.log.Debug("dropping generated item", "type", t, "reason", err)
			continue
		}
		q.ID = question.NewID(t)
		out = append(out, q)
	}
	return out, dropped, nil
}

// fatal reports whether err must abort the whole run rather than just the
// current chunk.
func fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var auth *llm.ErrAuthentication
	return errors.As(err, &auth)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
