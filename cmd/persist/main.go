// Package main provides the persist CLI, which writes JSON objects of a YAML
// model schema to a SQL database.
//
// Usage:
//
//	persist [flags] <command>
//
// Commands:
//   - validate: load the schema and check its mappings
//   - insert: insert one object
//   - apply: update a stored object from its original and updated forms
//   - delete: delete one object with its private relations
//
// Every write runs in its own transaction.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "persist:", err)
		stop()
		os.Exit(1)
	}
}
