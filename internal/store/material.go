package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var materialColumns = []string{
	"id", "title", "file_name", "file_size", "page_count", "total_words",
	"text", "bank", "created_at", "updated_at",
}

// materialRepo implements MaterialRepo on SQLite.
type materialRepo struct {
	db *sql.DB
}

func (r *materialRepo) Put(ctx context.Context, m *Material) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	bank, err := json.Marshal(m.Bank)
	if err != nil {
		return fmt.Errorf("marshal question bank: %w", err)
	}

	query, args := builder().Insert(tableMaterials).
		Columns(materialColumns...).
		Values(m.ID, m.Title, m.FileName, m.FileSize, m.PageCount, m.TotalWords,
			m.Text, string(bank), m.CreatedAt.UnixMilli(), m.UpdatedAt.UnixMilli()).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save material: %w", err)
	}
	return nil
}

func (r *materialRepo) Get(ctx context.Context, id string) (*Material, error) {
	query, args := builder().Select(materialColumns...).
		From(entsql.Table(tableMaterials)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()

	m, err := scanMaterial(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("material %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query material: %w", err)
	}
	return m, nil
}

func (r *materialRepo) List(ctx context.Context) ([]*Material, error) {
	query, args := builder().Select(materialColumns...).
		From(entsql.Table(tableMaterials)).
		OrderBy(entsql.Desc("created_at"), "id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	var out []*Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *materialRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	query, args := builder().Delete(tableQuizzes).Where(entsql.EQ("material_id", id)).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete quizzes: %w", err)
	}

	query, args = builder().Delete(tableMaterials).Where(entsql.EQ("id", id)).Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("material %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func scanMaterial(row rowScanner) (*Material, error) {
	var (
		m                Material
		bank             string
		created, updated int64
	)
	if err := row.Scan(&m.ID, &m.Title, &m.FileName, &m.FileSize, &m.PageCount, &m.TotalWords,
		&m.Text, &bank, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bank), &m.Bank); err != nil {
		return nil, fmt.Errorf("decode question bank of %s: %w", m.ID, err)
	}
	m.CreatedAt = time.UnixMilli(created).UTC()
	m.UpdatedAt = time.UnixMilli(updated).UTC()
	return &m, nil
}
