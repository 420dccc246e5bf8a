package history

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piranna/projectlint/pkg/models/store"
	"github.com/piranna/projectlint/pkg/store/duckdb"
)

func intPtr(v int) *int { return &v }

func TestNewStore_NilDB(t *testing.T) {
	s, err := NewStore(nil)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestStore_Add(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	now := time.Now().UTC()
	results := []store.RunResult{
		{
			RunID:       "run-1",
			ProjectRoot: "/repo",
			Rule:        "line-length",
			Status:      "failed",
			Level:       intPtr(2),
			Failure:     "lines exceed the column limit",
			CreatedAt:   now,
		},
		{
			RunID:       "run-1",
			ProjectRoot: "/repo",
			Rule:        "trailing-whitespace",
			Status:      "ok",
			CreatedAt:   now,
		},
	}

	prepared := mock.ExpectPrepare("INSERT INTO run_results")
	prepared.ExpectExec().
		WithArgs("run-1", "/repo", "line-length", "failed", 2, "lines exceed the column limit", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prepared.ExpectExec().
		WithArgs("run-1", "/repo", "trailing-whitespace", "ok", nil, "", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Add(context.Background(), results))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Add_JoinsAmbientTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	now := time.Now().UTC()

	mock.ExpectBegin()
	prepared := mock.ExpectPrepare("INSERT INTO run_results")
	prepared.ExpectExec().
		WithArgs("run-3", "/repo", "line-length", "ok", nil, "", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	ctx := duckdb.WithTransaction(context.Background(), tx)
	require.NoError(t, s.Add(ctx, []store.RunResult{{
		RunID:       "run-3",
		ProjectRoot: "/repo",
		Rule:        "line-length",
		Status:      "ok",
		CreatedAt:   now,
	}}))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Add_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	require.NoError(t, s.Add(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListByRoot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"run_id", "project_root", "rule", "status", "level", "failure", "error", "created_at",
	}).
		AddRow("run-2", "/repo", "line-length", "failed", 2, "too wide", "", now).
		AddRow("run-1", "/repo", "line-length", "ok", nil, "", "", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM run_results").
		WithArgs("/repo", 100).
		WillReturnRows(rows)

	results, err := s.ListByRoot(context.Background(), "/repo", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "run-2", results[0].RunID)
	require.NotNil(t, results[0].Level)
	assert.Equal(t, 2, *results[0].Level)
	assert.Nil(t, results[1].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListByRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewStore(db)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{
		"run_id", "project_root", "rule", "status", "level", "failure", "error", "created_at",
	}).AddRow("run-1", "/repo", "project-files", "crashed", nil, "", "walk failed", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM run_results").
		WithArgs("run-1").
		WillReturnRows(rows)

	results, err := s.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "walk failed", results[0].Error)
	assert.Equal(t, "crashed", results[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
