package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/syssam/persist/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenDB tests the OpenDB function with different dialects.
func TestOpenDB(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		want    string
	}{
		{"Postgres", dialect.Postgres, dialect.Postgres},
		{"MySQL", dialect.MySQL, dialect.MySQL},
		{"SQLite", dialect.SQLite, dialect.SQLite},
		{"Wrapped", "postgres-otel", dialect.Postgres},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.dialect, db)
			assert.NotNil(t, drv)
			assert.Equal(t, tt.want, drv.Dialect())
		})
	}
}

// TestDriverQuery tests query operations.
func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("query_with_args", func(t *testing.T) {
		mock.ExpectQuery("SELECT name FROM account WHERE id = \\$1").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a8m"))

		rows := &Rows{}
		err := drv.Query(context.Background(), "SELECT name FROM account WHERE id = $1", []any{1}, rows)
		require.NoError(t, err)
		require.NoError(t, rows.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_error", func(t *testing.T) {
		expectedErr := errors.New("database error")
		mock.ExpectQuery("SELECT").WillReturnError(expectedErr)

		rows := &Rows{}
		err := drv.Query(context.Background(), "SELECT", []any{}, rows)
		require.ErrorIs(t, err, expectedErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Query(context.Background(), "SELECT 1", "not-a-slice", &Rows{})
		require.EqualError(t, err, "dialect/sql: invalid type string. expect []any for args")
		err = drv.Query(context.Background(), "SELECT 1", []any{}, nil)
		require.Error(t, err)
	})
}

// TestDriverExec tests execute operations.
func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	t.Run("exec_with_result", func(t *testing.T) {
		mock.ExpectExec("UPDATE account SET name = \\$1 WHERE id = \\$2").
			WithArgs("a8m", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		var res Result
		err := drv.Exec(context.Background(), "UPDATE account SET name = $1 WHERE id = $2", []any{"a8m", 1}, &res)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		expectedErr := errors.New("constraint violation")
		mock.ExpectExec("DELETE").WillReturnError(expectedErr)

		err := drv.Exec(context.Background(), "DELETE FROM account", []any{}, nil)
		require.ErrorIs(t, err, expectedErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_result", func(t *testing.T) {
		var n int
		err := drv.Exec(context.Background(), "DELETE FROM account", []any{}, &n)
		require.EqualError(t, err, "dialect/sql: invalid type *int. expect *sql.Result")
	})
}

// TestDriverTransaction tests transaction operations.
func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLite, db)

	t.Run("successful_commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO account").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)

		err = tx.Exec(context.Background(), "INSERT INTO account (name) VALUES ('a8m')", []any{}, nil)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO account").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)

		err = tx.Exec(context.Background(), "INSERT INTO account (name) VALUES ('a8m')", []any{}, nil)
		require.Error(t, err)
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin_error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("busy"))
		tx, err := drv.Tx(context.Background())
		require.Error(t, err)
		assert.Nil(t, tx)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tx_keeps_dialect", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()
		tx, err := drv.BeginTx(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, dialect.SQLite, tx.Dialect())
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExecBuilder(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)
	b := NewBuilder(dialect.Postgres).SQL("DELETE FROM ").Ident("account").SQL(" WHERE ").
		Join(Equal(dialect.Postgres, []string{"id"}, []any{7}))

	mock.ExpectExec(`DELETE FROM "account" WHERE "id"=$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := ExecBuilder(context.Background(), drv, b)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryScalar(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLite, db)

	t.Run("value", func(t *testing.T) {
		mock.ExpectQuery("SELECT max(id)+1").
			WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(int64(42)))
		v, err := QueryScalar(context.Background(), drv, NewBuilder(dialect.SQLite).SQL("SELECT max(id)+1"))
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("no_rows", func(t *testing.T) {
		mock.ExpectQuery("SELECT 1 WHERE 0").
			WillReturnRows(sqlmock.NewRows([]string{"v"}))
		_, err := QueryScalar(context.Background(), drv, NewBuilder(dialect.SQLite).SQL("SELECT 1 WHERE 0"))
		require.ErrorIs(t, err, ErrNoRows)
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestNullValues tests handling of NULL values.
func TestNullValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.Postgres, db)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow(nil))

	v, err := QueryScalar(context.Background(), drv, NewBuilder(dialect.Postgres).SQL("SELECT NULL"))
	require.NoError(t, err)
	assert.Nil(t, v)
	require.NoError(t, mock.ExpectationsWereMet())
}
