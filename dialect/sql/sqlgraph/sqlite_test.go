package sqlgraph_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sql"
	"github.com/syssam/persist/dialect/sql/sqlgraph"
	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
	"github.com/syssam/persist/schema/edge"
	"github.com/syssam/persist/schema/field"
)

const ddl = `
CREATE TABLE account (id INTEGER PRIMARY KEY, name TEXT, seen TEXT, modified TEXT, secret TEXT, address_id INTEGER, payment_id INTEGER);
CREATE TABLE account_nickname (account_id INTEGER, nickname TEXT);
CREATE TABLE account_tags (account_id INTEGER, tags TEXT);
CREATE TABLE address (id INTEGER PRIMARY KEY, street TEXT);
CREATE TABLE "group" (id INTEGER PRIMARY KEY, name TEXT);
CREATE TABLE account_team (account_id INTEGER, group_id INTEGER);
CREATE TABLE profile (id INTEGER PRIMARY KEY, bio TEXT);
CREATE TABLE account_profile (account_id INTEGER, profile_id INTEGER);
CREATE TABLE card (id INTEGER PRIMARY KEY, number TEXT);
CREATE TABLE wallet (id TEXT PRIMARY KEY, provider TEXT, account_id INTEGER);
`

func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	drv, err := sql.Open("sqlite", "file:persist?mode=memory")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	_, err = drv.DB().ExecContext(ctx, ddl)
	require.NoError(t, err)
	_, err = drv.DB().ExecContext(ctx, `INSERT INTO "group" (id, name) VALUES (9, 'core'), (10, 'ops')`)
	require.NoError(t, err)
	return drv
}

func rows(t *testing.T, drv *sql.Driver, table string) int {
	t.Helper()
	var n int
	require.NoError(t, drv.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
	return n
}

func TestSQLite(t *testing.T) {
	m := newModels()
	drv := openSQLite(t)
	require.Equal(t, dialect.SQLite, drv.Dialect())
	p := sqlgraph.New()

	original := graph()
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	res, err := p.Insert(ctx, tx, drv.Dialect(), "account", m.account, original)
	require.NoError(t, err)
	require.Equal(t, persist.Count(1), res)
	require.NoError(t, tx.Commit())

	for table, n := range map[string]int{
		"account": 1, "account_nickname": 1, "account_tags": 2, "address": 1,
		"account_team": 1, "profile": 1, "account_profile": 1, "card": 1, "wallet": 0,
	} {
		assert.Equal(t, n, rows(t, drv, table), table)
	}

	update := graph().
		Set("name", "b").
		Set("nickname", "nn").
		Set("seen", sqlgraph.Expr("datetime('now')")).
		Set("payment", record("Wallet", "id", "w1", "provider", "pp"))
	tx, err = drv.Tx(ctx)
	require.NoError(t, err)
	res, err = p.Update(ctx, tx, drv.Dialect(), "account", m.account, original, update)
	require.NoError(t, err)
	require.Equal(t, persist.Count(1), res)
	require.NoError(t, tx.Commit())
	assert.IsType(t, time.Time{}, update.Get("seen"))

	var (
		name, nickname string
		payment        *int64
	)
	require.NoError(t, drv.DB().QueryRowContext(ctx, `SELECT name, payment_id FROM account WHERE id = 1`).Scan(&name, &payment))
	require.NoError(t, drv.DB().QueryRowContext(ctx, `SELECT nickname FROM account_nickname WHERE account_id = 1`).Scan(&nickname))
	assert.Equal(t, "b", name)
	assert.Nil(t, payment)
	assert.Equal(t, "nn", nickname)
	assert.Equal(t, 0, rows(t, drv, "card"))
	assert.Equal(t, 1, rows(t, drv, "wallet"))

	res, err = p.Update(ctx, drv, drv.Dialect(), "account", m.account, update, update)
	require.NoError(t, err)
	assert.Equal(t, persist.Unchanged, res)

	res, err = p.Delete(ctx, drv, drv.Dialect(), "account", m.account, update)
	require.NoError(t, err)
	assert.Equal(t, persist.Count(1), res)
	for _, table := range []string{"account", "account_nickname", "account_tags", "address", "account_team", "account_profile", "wallet"} {
		assert.Zero(t, rows(t, drv, table), table)
	}
	// The profile is privately owned but reached through a join table.
	assert.Zero(t, rows(t, drv, "profile"))
	assert.Equal(t, 2, rows(t, drv, "group"))
}

func TestSQLite_AttachNestedPropertyTable(t *testing.T) {
	detail := &schema.Model{Name: "Detail", Keys: []string{"id"}, Properties: []*schema.Property{
		field.Int64("id").Descriptor(),
		field.String("note").Annotations(sqlschema.Map(&sqlschema.PropertyTable{})).Descriptor(),
	}}
	doc := &schema.Model{Name: "Doc", Keys: []string{"id"}, Properties: []*schema.Property{
		field.Int64("id").Descriptor(),
		edge.To("detail", detail).Private().
			Annotations(sqlschema.Map(&sqlschema.PropertyTable{})).
			Descriptor(),
	}}
	drv, err := sql.Open("sqlite", "file:nested?mode=memory")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	_, err = drv.DB().ExecContext(ctx, `
CREATE TABLE doc (id INTEGER PRIMARY KEY);
CREATE TABLE detail (id INTEGER PRIMARY KEY, doc_id INTEGER);
CREATE TABLE detail_note (detail_id INTEGER, note TEXT);
INSERT INTO doc (id) VALUES (1);
INSERT INTO detail_note (detail_id, note) VALUES (NULL, 'stray');
`)
	require.NoError(t, err)

	rec := sql.NewRecorder(drv)
	res, err := sqlgraph.New().Update(ctx, rec, dialect.SQLite, "doc", doc,
		record("Doc", "id", int64(1)),
		record("Doc", "id", int64(1), "detail", record("Detail", "id", int64(5), "note", "hello")),
	)
	require.NoError(t, err)
	assert.Equal(t, persist.Unchanged, res)

	var queries []string
	for _, s := range rec.Statements() {
		queries = append(queries, s.Query)
	}
	assert.Equal(t, []string{
		`INSERT INTO "detail" ("id","doc_id") VALUES (?,?)`,
		`INSERT INTO "detail_note" ("detail_id","note") VALUES (?,?)`,
	}, queries)
	assert.Equal(t, 1, rows(t, drv, "detail"))
	assert.Equal(t, 2, rows(t, drv, "detail_note"))

	var stray string
	require.NoError(t, drv.DB().QueryRowContext(ctx, `SELECT note FROM detail_note WHERE detail_id IS NULL`).Scan(&stray))
	assert.Equal(t, "stray", stray)
	var note string
	require.NoError(t, drv.DB().QueryRowContext(ctx, `SELECT note FROM detail_note WHERE detail_id = 5`).Scan(&note))
	assert.Equal(t, "hello", note)
}
