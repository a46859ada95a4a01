// Package sql provides the statement builder and the database/sql backed
// driver used by the persistence engine.
//
// # Builder
//
// A Builder accumulates the text of one statement and its positional
// arguments, quoting identifiers for the builder's dialect:
//
//	b := sql.NewBuilder(dialect.Postgres)
//	b.SQL("UPDATE ").Ident("account").SQL(" SET ").Delimit(",")
//	mark := b.Len()
//	b.SuffixIdents([]string{"name"}, "=?").Arg("b")
//	if b.Len() == mark {
//	    // nothing to update
//	}
//	b.SQL(" WHERE ").Join(sql.Equal(dialect.Postgres, []string{"id"}, []any{1}))
//	query, args := b.Query() // UPDATE "account" SET "name"=$1 WHERE "id"=$2
//
// # Drivers
//
// Driver wraps a *sql.DB and implements dialect.Driver. StatsDriver and
// DebugDriver wrap any dialect.Driver to count or log statements, and
// Recorder captures the statements run through a dialect.ExecQuerier in
// execution order.
//
//	drv, err := sql.Open("sqlite", "file:app.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    return err
//	}
//	debug := sql.NewDebugDriver(drv, logger)
package sql
