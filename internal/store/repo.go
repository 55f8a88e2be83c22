package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abhisek/prepwise/internal/question"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // id > After
	Before int64     // id < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	Purposes   []string // purpose in Purposes, when non-empty
	FailedOnly bool     // only unsuccessful requests
}

// Material is an uploaded document with its extracted text and the question
// bank generated from it.
type Material struct {
	ID         string
	Title      string
	FileName   string
	FileSize   int64
	PageCount  int
	TotalWords int
	Text       string
	Bank       question.Bank
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MaterialRepo persists materials.
type MaterialRepo interface {
	// Put inserts or replaces a material. UpdatedAt is set to now and a zero
	// CreatedAt is filled in.
	Put(ctx context.Context, m *Material) error

	// Get returns the material with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Material, error)

	// List returns all materials, newest first.
	List(ctx context.Context) ([]*Material, error)

	// Delete removes a material and every quiz taken on it.
	Delete(ctx context.Context, id string) error
}

// QuizRecord is the stored form of a quiz. The quiz body is opaque JSON
// owned by the quiz package.
type QuizRecord struct {
	ID          string
	MaterialID  string
	Status      string
	CreatedAt   time.Time
	CompletedAt time.Time // zero while in progress
	Data        json.RawMessage
}

// QuizRepo persists quizzes.
type QuizRepo interface {
	Put(ctx context.Context, q *QuizRecord) error
	Get(ctx context.Context, id string) (*QuizRecord, error)
	Delete(ctx context.Context, id string) error

	// ListByMaterial returns the quizzes taken on a material, newest first.
	ListByMaterial(ctx context.Context, materialID string) ([]*QuizRecord, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns a single event or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates calls, tokens and latency per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates calls and tokens per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
