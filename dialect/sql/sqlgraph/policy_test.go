package sqlgraph_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sql/sqlgraph"
	"github.com/syssam/persist/privacy"
)

func TestPersister_Policy(t *testing.T) {
	m := newModels()
	p := sqlgraph.New(sqlgraph.WithPolicy(privacy.MutationPolicy{
		privacy.DenyMutationOperationRule(persist.OpDelete),
		privacy.DenyIfNoViewer(),
		privacy.IsOwner("name"),
		privacy.AlwaysDenyRule(),
	}))
	owner := privacy.WithViewer(context.Background(), &privacy.SimpleViewer{UserID: "u1"})

	t.Run("allow", func(t *testing.T) {
		drv, mock := mock(t)
		mock.ExpectExec(`INSERT INTO "account" ("id","name") VALUES (?,?)`).
			WithArgs(1, "u1").
			WillReturnResult(sqlmock.NewResult(1, 1))
		res, err := p.Insert(owner, drv, dialect.SQLite, "account", m.account, record("Account", "id", int64(1), "name", "u1"))
		require.NoError(t, err)
		assert.Equal(t, persist.Count(1), res)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no_viewer", func(t *testing.T) {
		drv, mock := mock(t)
		_, err := p.Insert(ctx, drv, dialect.SQLite, "account", m.account, record("Account", "id", int64(1), "name", "u1"))
		require.ErrorIs(t, err, privacy.Deny)
		assert.ErrorContains(t, err, "viewer required")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("change_owner", func(t *testing.T) {
		drv, mock := mock(t)
		_, err := p.Update(owner, drv, dialect.SQLite, "account", m.account,
			record("Account", "id", int64(1), "name", "u1"),
			record("Account", "id", int64(1), "name", "u2"))
		require.ErrorIs(t, err, privacy.Deny)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		drv, mock := mock(t)
		_, err := p.Delete(owner, drv, dialect.SQLite, "account", m.account, record("Account", "id", int64(1), "name", "u1"))
		require.ErrorIs(t, err, privacy.Deny)
		assert.ErrorContains(t, err, "operation OpDelete is not allowed")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("property", func(t *testing.T) {
		drv, mock := mock(t)
		prop, pm := mapper(t, m.account, "tags", 0)
		_, err := p.InsertProperty(ctx, drv, dialect.SQLite, "account", m.account, record("Account", "id", int64(1)), prop, pm, "x")
		require.ErrorIs(t, err, privacy.Deny)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("decision_context", func(t *testing.T) {
		drv, mock := mock(t)
		mock.ExpectExec(`INSERT INTO "account" ("id","name") VALUES (?,?)`).
			WithArgs(2, "u2").
			WillReturnResult(sqlmock.NewResult(2, 1))
		system := privacy.DecisionContext(ctx, privacy.Allow)
		res, err := p.Insert(system, drv, dialect.SQLite, "account", m.account, record("Account", "id", int64(2), "name", "u2"))
		require.NoError(t, err)
		assert.Equal(t, persist.Count(1), res)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
