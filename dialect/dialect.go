package dialect

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the persistence engine.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}

// Valid reports whether name is one of the supported dialects.
func Valid(name string) bool {
	switch name {
	case MySQL, SQLite, Postgres:
		return true
	}
	return false
}

// Check returns an error if name is not a supported dialect.
func Check(name string) error {
	if !Valid(name) {
		return fmt.Errorf("dialect: unsupported dialect %q", name)
	}
	return nil
}

// Quote quotes the given identifier according to the dialect.
// Qualified names ("schema.table") are quoted part by part.
func Quote(name, ident string) string {
	open, closing := `"`, `"`
	if name == MySQL {
		open, closing = "`", "`"
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		p = strings.ReplaceAll(p, closing, closing+closing)
		parts[i] = open + p + closing
	}
	return strings.Join(parts, ".")
}

// Placeholder returns the bind parameter marker for the i-th (1-based) argument.
func Placeholder(name string, i int) string {
	if name == Postgres {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}
