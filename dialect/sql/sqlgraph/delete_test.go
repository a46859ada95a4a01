package sqlgraph_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sql/sqlgraph"
)

func TestDelete(t *testing.T) {
	m := newModels()
	drv, mock := mock(t)
	mock.ExpectExec(`DELETE FROM "account_nickname" WHERE "account_id"=?`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "account_tags" WHERE "account_id"=? AND "tags"=?`).
		WithArgs(1, "x").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "account_team" WHERE "account_id"=? AND "group_id"=?`).
		WithArgs(1, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "wallet" WHERE "account_id"=?`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "account" WHERE "id"=?`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "address" WHERE "id"=?`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := sqlgraph.Delete(ctx, drv, dialect.SQLite, "account", m.account, record("Account",
		"id", int64(1),
		"nickname", "n",
		"tags", []string{"x"},
		"address", record("Address", "id", int64(3)),
		"team", record("Group", "id", int64(9)),
		"payment", record("Wallet", "id", "w1"),
	))
	require.NoError(t, err)
	assert.Equal(t, persist.Count(1), res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProperty(t *testing.T) {
	m := newModels()
	owner := record("Account", "id", int64(1))

	t.Run("all_links", func(t *testing.T) {
		drv, mock := mock(t)
		mock.ExpectExec(`DELETE FROM "account_team" WHERE "account_id"=?`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 2))
		p, pm := mapper(t, m.account, "team", 0)
		res, err := sqlgraph.New().DeleteProperty(ctx, drv, dialect.SQLite, "account", m.account, owner, p, pm, nil)
		require.NoError(t, err)
		assert.Equal(t, persist.Count(2), res)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("model_table", func(t *testing.T) {
		drv, mock := mock(t)
		mock.ExpectExec(`UPDATE "account" SET "address_id"=NULL WHERE "id"=?`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "address" WHERE "id"=?`).
			WithArgs(3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		p, pm := mapper(t, m.account, "address", 0)
		res, err := sqlgraph.New().DeleteProperty(ctx, drv, dialect.SQLite, "account", m.account, owner, p, pm,
			record("Address", "id", int64(3)))
		require.NoError(t, err)
		assert.Equal(t, persist.Count(1), res)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("tags", func(t *testing.T) {
		drv, mock := mock(t)
		mock.ExpectExec(`DELETE FROM "account_tags" WHERE "account_id"=? AND "tags"=?`).
			WithArgs(1, "x").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "account_tags" WHERE "account_id"=? AND "tags"=?`).
			WithArgs(1, "y").
			WillReturnResult(sqlmock.NewResult(0, 0))
		p, pm := mapper(t, m.account, "tags", 0)
		res, err := sqlgraph.New().DeleteProperty(ctx, drv, dialect.SQLite, "account", m.account, owner, p, pm,
			[]string{"x", "y"})
		require.NoError(t, err)
		assert.Equal(t, persist.Count(1), res)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDelete_NilObject(t *testing.T) {
	m := newModels()
	drv, _ := mock(t)
	_, err := sqlgraph.Delete(ctx, drv, dialect.SQLite, "account", m.account, nil)
	require.ErrorIs(t, err, persist.ErrNilObject)
}
