package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var quizColumns = []string{"id", "material_id", "status", "created_at", "completed_at", "data"}

// quizRepo implements QuizRepo on SQLite.
type quizRepo struct {
	db *sql.DB
}

func (r *quizRepo) Put(ctx context.Context, q *QuizRecord) error {
	var completed any
	if !q.CompletedAt.IsZero() {
		completed = q.CompletedAt.UnixMilli()
	}
	data := string(q.Data)
	if data == "" {
		data = "{}"
	}

	query, args := builder().Insert(tableQuizzes).
		Columns(quizColumns...).
		Values(q.ID, q.MaterialID, q.Status, q.CreatedAt.UnixMilli(), completed, data).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (r *quizRepo) Get(ctx context.Context, id string) (*QuizRecord, error) {
	query, args := builder().Select(quizColumns...).
		From(entsql.Table(tableQuizzes)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()

	q, err := scanQuiz(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query quiz: %w", err)
	}
	return q, nil
}

func (r *quizRepo) Delete(ctx context.Context, id string) error {
	query, args := builder().Delete(tableQuizzes).Where(entsql.EQ("id", id)).Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *quizRepo) ListByMaterial(ctx context.Context, materialID string) ([]*QuizRecord, error) {
	query, args := builder().Select(quizColumns...).
		From(entsql.Table(tableQuizzes)).
		Where(entsql.EQ("material_id", materialID)).
		OrderBy(entsql.Desc("created_at"), "id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	var out []*QuizRecord
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func scanQuiz(row rowScanner) (*QuizRecord, error) {
	var (
		q         QuizRecord
		created   int64
		completed sql.NullInt64
		data      string
	)
	if err := row.Scan(&q.ID, &q.MaterialID, &q.Status, &created, &completed, &data); err != nil {
		return nil, err
	}
	q.CreatedAt = time.UnixMilli(created).UTC()
	if completed.Valid {
		q.CompletedAt = time.UnixMilli(completed.Int64).UTC()
	}
	q.Data = []byte(data)
	return &q, nil
}
