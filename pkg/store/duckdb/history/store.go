package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/piranna/projectlint/pkg/models/store"
	"github.com/piranna/projectlint/pkg/store/duckdb"
)

// Store persists one row per rule per project root per engine run and
// serves the run history back to the CLI and the web API.
type Store interface {
	Add(ctx context.Context, results []store.RunResult) error
	ListByRoot(ctx context.Context, root string, limit int) ([]store.RunResult, error)
	ListByRun(ctx context.Context, runID string) ([]store.RunResult, error)
}

type historyStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &historyStore{db: db}, nil
}

func (h *historyStore) Add(ctx context.Context, results []store.RunResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO run_results (
			run_id, project_root, rule, status, level, failure, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	tx := duckdb.GetTransaction(ctx)
	var stmt *sql.Stmt
	var err error
	if tx == nil {
		stmt, err = h.db.PrepareContext(ctx, query)
	} else {
		stmt, err = tx.PrepareContext(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err = stmt.ExecContext(ctx,
			r.RunID, r.ProjectRoot, r.Rule, r.Status, r.Level, r.Failure, r.Error, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert run result for rule %q: %w", r.Rule, err)
		}
	}
	return nil
}

func (h *historyStore) ListByRoot(ctx context.Context, root string, limit int) ([]store.RunResult, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT run_id, project_root, rule, status, level, failure, error, created_at
		FROM run_results
		WHERE project_root = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := h.db.QueryContext(ctx, query, root, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func (h *historyStore) ListByRun(ctx context.Context, runID string) ([]store.RunResult, error) {
	query := `
		SELECT run_id, project_root, rule, status, level, failure, error, created_at
		FROM run_results
		WHERE run_id = ?
		ORDER BY project_root, rule`

	rows, err := h.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]store.RunResult, error) {
	var results []store.RunResult
	for rows.Next() {
		var (
			r     store.RunResult
			level sql.NullInt64
		)
		err := rows.Scan(
			&r.RunID, &r.ProjectRoot, &r.Rule, &r.Status, &level, &r.Failure, &r.Error, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		if level.Valid {
			l := int(level.Int64)
			r.Level = &l
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
