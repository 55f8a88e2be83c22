package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepwise/internal/question"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by the file-based test.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpen_FileDatabaseUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prepwise.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	// Reopening runs the idempotent schema again.
	s2, err := Open(path)
	require.NoError(t, err)
	s2.Close()
}

func sampleMaterial(id string) *Material {
	return &Material{
		ID:         id,
		Title:      "Cell Biology",
		FileName:   "cells.pdf",
		FileSize:   2048,
		PageCount:  3,
		TotalWords: 900,
		Text:       "--- Page 1 ---\nThe mitochondria is the powerhouse of the cell.",
		Bank: question.NewBank(
			[]question.Question{{
				ID: "mcq_1", Type: question.TypeMCQ, Question: "Powerhouse?",
				Options:       []string{"Nucleus", "Mitochondria", "Ribosome", "Golgi"},
				CorrectAnswer: question.IndexAnswer(1), Explanation: "Energy.",
			}},
			[]question.Question{{
				ID: "sw_1", Type: question.TypeSingleWord, Question: "Organelle for ATP?",
				CorrectAnswer: question.TextAnswer("mitochondria"), AcceptableAnswers: []string{"mitochondria"},
				Explanation: "ATP.",
			}},
			nil,
		),
	}
}

func TestMaterialRepo_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.MaterialRepo()
	ctx := context.Background()

	m := sampleMaterial("mat_1")
	require.NoError(t, repo.Put(ctx, m))
	assert.False(t, m.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "mat_1")
	require.NoError(t, err)
	assert.Equal(t, m.Title, got.Title)
	assert.Equal(t, m.FileSize, got.FileSize)
	assert.Equal(t, m.Text, got.Text)
	assert.Equal(t, 2, got.Bank.TotalQuestions)
	require.Len(t, got.Bank.MCQ, 1)
	assert.Equal(t, question.IndexAnswer(1), got.Bank.MCQ[0].CorrectAnswer)
	assert.Equal(t, "mitochondria", got.Bank.SingleWord[0].CorrectAnswer.String())
	assert.Equal(t, m.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
}

func TestMaterialRepo_PutReplaces(t *testing.T) {
	s := openTestStore(t)
	repo := s.MaterialRepo()
	ctx := context.Background()

	m := sampleMaterial("mat_1")
	require.NoError(t, repo.Put(ctx, m))

	m.Bank = m.Bank.WithType(question.TypeMCQ, nil)
	m.Title = "Renamed"
	require.NoError(t, repo.Put(ctx, m))

	got, err := repo.Get(ctx, "mat_1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 1, got.Bank.TotalQuestions)
	assert.Empty(t, got.Bank.MCQ)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMaterialRepo_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.MaterialRepo().Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	err = s.MaterialRepo().Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestMaterialRepo_DeleteRemovesQuizzes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	materials, quizzes := s.MaterialRepo(), s.QuizRepo()

	require.NoError(t, materials.Put(ctx, sampleMaterial("mat_1")))
	require.NoError(t, materials.Put(ctx, sampleMaterial("mat_2")))

	now := time.Now().UTC()
	for i, mid := range []string{"mat_1", "mat_1", "mat_2"} {
		require.NoError(t, quizzes.Put(ctx, &QuizRecord{
			ID: fmt.Sprintf("quiz_%d", i), MaterialID: mid, Status: "in_progress",
			CreatedAt: now.Add(time.Duration(i) * time.Second), Data: json.RawMessage(`{}`),
		}))
	}

	require.NoError(t, materials.Delete(ctx, "mat_1"))

	left, err := quizzes.ListByMaterial(ctx, "mat_1")
	require.NoError(t, err)
	assert.Empty(t, left)

	other, err := quizzes.ListByMaterial(ctx, "mat_2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestQuizRepo_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := &QuizRecord{
		ID: "quiz_a", MaterialID: "mat_1", Status: "in_progress",
		CreatedAt: created, Data: json.RawMessage(`{"questions":[]}`),
	}
	require.NoError(t, repo.Put(ctx, rec))

	got, err := repo.Get(ctx, "quiz_a")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", got.Status)
	assert.True(t, got.CompletedAt.IsZero())
	assert.JSONEq(t, `{"questions":[]}`, string(got.Data))
	assert.True(t, created.Equal(got.CreatedAt))

	rec.Status = "completed"
	rec.CompletedAt = created.Add(5 * time.Minute)
	require.NoError(t, repo.Put(ctx, rec))

	got, err = repo.Get(ctx, "quiz_a")
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.True(t, rec.CompletedAt.Equal(got.CompletedAt))

	require.NoError(t, repo.Delete(ctx, "quiz_a"))
	_, err = repo.Get(ctx, "quiz_a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuizRepo_ListByMaterialNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, repo.Put(ctx, &QuizRecord{
			ID: fmt.Sprintf("quiz_%d", i), MaterialID: "mat_1", Status: "completed",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := repo.ListByMaterial(ctx, "mat_1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "quiz_2", list[0].ID)
	assert.Equal(t, "quiz_0", list[2].ID)
	assert.JSONEq(t, `{}`, string(list[0].Data))
}

func TestEventRepo_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "messages", Model: "claude-sonnet-4-20250514", Purpose: "question-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true, RequestBody: "[user]\nhi", ResponseBody: "[]"},
		{Provider: "messages", Model: "claude-sonnet-4-20250514", Purpose: "question-gen", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{Provider: "messages", Model: "claude-haiku-4-5-20251001", Purpose: "answer-eval", InputTokens: 20, OutputTokens: 10, LatencyMs: 100, Success: false, ErrorMessage: "overloaded"},
	}
	for _, ev := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, ev))
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "answer-eval", all[0].Purpose, "newest first")
	assert.False(t, all[0].Success)
	assert.Equal(t, "overloaded", all[0].ErrorMessage)

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: int64(all[1].ID)})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, all[0].ID, after[0].ID)

	first, err := repo.GetLLMEvent(ctx, all[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "[user]\nhi", first.RequestBody)
	assert.Equal(t, "[]", first.ResponseBody)
	assert.True(t, first.Success)
	assert.False(t, first.Timestamp.IsZero())

	_, err = repo.GetLLMEvent(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventRepo_PurposeAndFailureFilters(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, ev := range []LLMRequestEventData{
		{Provider: "mock", Model: "mock", Purpose: "question-gen", Success: true},
		{Provider: "mock", Model: "mock", Purpose: "answer-eval", Success: true},
		{Provider: "mock", Model: "mock", Purpose: "question-regen", Success: false, ErrorMessage: "timeout"},
		{Provider: "mock", Model: "mock", Purpose: "answer-eval", Success: false, ErrorMessage: "overloaded"},
		{Provider: "mock", Model: "mock", Purpose: "answer-eval", Success: true},
	} {
		require.NoError(t, repo.AppendLLMRequest(ctx, ev))
	}

	gen, err := repo.QueryLLMEvents(ctx, QueryOpts{Purposes: []string{"question-gen", "question-regen"}})
	require.NoError(t, err)
	require.Len(t, gen, 2)
	assert.Equal(t, "question-regen", gen[0].Purpose)
	assert.Equal(t, "question-gen", gen[1].Purpose)

	// Limit applies after the purpose filter.
	eval, err := repo.QueryLLMEvents(ctx, QueryOpts{Purposes: []string{"answer-eval"}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, eval, 2)
	for _, e := range eval {
		assert.Equal(t, "answer-eval", e.Purpose)
	}

	failed, err := repo.QueryLLMEvents(ctx, QueryOpts{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "overloaded", failed[0].ErrorMessage)
	assert.Equal(t, "timeout", failed[1].ErrorMessage)
}

func TestEventRepo_TimeWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &eventRepo{db: s.DB(), now: func() time.Time { return clock }}
	for range 3 {
		require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "x", Success: true}))
		clock = clock.Add(time.Hour)
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{
		From: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 1, 1, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Timestamp.Hour())
}

func TestEventRepo_Usage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, ev := range []LLMRequestEventData{
		{Provider: "messages", Model: "m-a", Purpose: "question-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "messages", Model: "m-a", Purpose: "question-gen", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{Provider: "messages", Model: "m-b", Purpose: "answer-eval", InputTokens: 20, OutputTokens: 10, LatencyMs: 100, Success: true},
	} {
		require.NoError(t, repo.AppendLLMRequest(ctx, ev))
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, LLMUsageStats{Purpose: "answer-eval", Calls: 1, InputTokens: 20, OutputTokens: 10, AvgLatencyMs: 100}, byPurpose[0])
	assert.Equal(t, LLMUsageStats{Purpose: "question-gen", Calls: 2, InputTokens: 400, OutputTokens: 200, AvgLatencyMs: 300}, byPurpose[1])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, LLMModelUsage{Model: "m-a", Calls: 2, InputTokens: 400, OutputTokens: 200}, byModel[0])
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("PREPWISE_DB", filepath.Join(dir, "custom", "x.db"))
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom", "x.db"), p)
	assert.DirExists(t, filepath.Join(dir, "custom"))

	t.Setenv("PREPWISE_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prepwise", "prepwise.db"), p)
}
