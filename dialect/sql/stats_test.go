package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persist/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	var buf bytes.Buffer
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(-1),
		WithStatsLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM account").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE account").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	require.NoError(t, drv.Exec(ctx, "DELETE FROM account", []any{}, nil))
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.Error(t, tx.Exec(ctx, "UPDATE account SET name = ?", []any{"a"}, nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Snapshot()
	assert.Equal(t, int64(2), s.Execs)
	assert.Zero(t, s.Queries)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(2), s.Slow)
	assert.Contains(t, buf.String(), "slow statement")
	assert.Contains(t, s.String(), "execs=2")
	assert.Equal(t, slog.KindGroup, s.LogValue().Kind())

	drv.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.QueryStats().Snapshot())
	assert.Zero(t, StatsSnapshot{}.Avg())
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	var buf bytes.Buffer
	drv := NewDebugDriver(OpenDB(dialect.SQLite, db), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO account").WithArgs(1).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "INSERT INTO account (id) VALUES (?)", []any{1}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	for _, msg := range []string{"begin transaction", "tx exec", "INSERT INTO account", "commit transaction"} {
		assert.Contains(t, out, msg)
	}
}

func TestRecorder(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	rec := NewRecorder(OpenDB(dialect.SQLite, db))

	mock.ExpectExec(`UPDATE "account" SET "name"=? WHERE "id"=?`).
		WithArgs("b", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	b := NewBuilder(dialect.SQLite).SQL("UPDATE ").Ident("account").SQL(" SET ").
		SuffixIdents([]string{"name"}, "=?").Arg("b").
		SQL(" WHERE ").Join(Equal(dialect.SQLite, []string{"id"}, []any{1}))
	n, err := ExecBuilder(context.Background(), rec, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())

	stmts := rec.Statements()
	require.Len(t, stmts, 1)
	assert.True(t, stmts[0].Exec)
	assert.Equal(t, `UPDATE "account" SET "name"=? WHERE "id"=?`, stmts[0].Query)
	assert.Equal(t, []any{"b", 1}, stmts[0].Args)
	rec.Reset()
	assert.Empty(t, rec.Statements())
}
