// Package dialect provides database dialect abstraction for the persist engine.
//
// This package defines the interfaces used to talk to a live database and the
// small set of vendor differences the engine cares about: identifier quoting
// and bind parameter markers.
//
// # Supported Dialects
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Interfaces
//
// The write engines only need an ExecQuerier, which is implemented by both
// Driver and Tx. Transaction boundaries stay with the caller:
//
//	tx, err := drv.Tx(ctx)
//	if err != nil {
//	    return err
//	}
//	res, err := p.Update(ctx, tx, dialect.Postgres, "account", account, original, update)
//	if err != nil {
//	    return errors.Join(err, tx.Rollback())
//	}
//	return tx.Commit()
//
// # Quoting
//
//	dialect.Quote(dialect.Postgres, "account")  // "account"
//	dialect.Quote(dialect.MySQL, "account")     // `account`
//	dialect.Placeholder(dialect.Postgres, 2)    // $2
//
// # Sub-packages
//
//   - dialect/sql: statement builder and database/sql backed driver
//   - dialect/sqlschema: table and relation mapping annotations
//   - dialect/sql/sqlgraph: insert, update and delete engines
package dialect
