// Package persist holds the types shared by the persistence engine packages:
// the write Result and the engine errors.
//
// The engine itself lives in dialect/sql/sqlgraph. Models are described with
// the schema package and mapped to tables with dialect/sqlschema:
//
//	p := sqlgraph.New(sqlgraph.WithLogger(logger))
//	res, err := p.Update(ctx, tx, dialect.Postgres, "account", account, original, update)
//	switch {
//	case err != nil:
//	    return err
//	case res.IsUnchanged():
//	    // no column changed, nothing was sent to the database
//	}
package persist

import (
	"fmt"
	"strconv"
)

// Legacy result codes. Both are negative so they never collide with a row count.
const (
	CodeIgnored   = -1
	CodeUnchanged = CodeIgnored - 1
)

type resultKind uint8

const (
	kindCount resultKind = iota
	kindUnchanged
	kindIgnored
)

// Result is the outcome of a write. It is either a count of affected rows,
// Unchanged (no column level difference was found, no statement was issued)
// or Ignored (the write is not applicable to the mapping, e.g. a shared join
// reference without a key update object).
type Result struct {
	kind resultKind
	n    int64
}

var (
	// Unchanged reports that nothing differed and no statement was issued.
	Unchanged = Result{kind: kindUnchanged}
	// Ignored reports that the write does not apply to the mapping.
	Ignored = Result{kind: kindIgnored}
)

// Count returns a Result holding n affected rows.
func Count(n int64) Result {
	return Result{kind: kindCount, n: n}
}

// Affected returns the number of affected rows and true if r is a count.
func (r Result) Affected() (int64, bool) {
	return r.n, r.kind == kindCount
}

// IsUnchanged reports whether r is Unchanged.
func (r Result) IsUnchanged() bool { return r.kind == kindUnchanged }

// IsIgnored reports whether r is Ignored.
func (r Result) IsIgnored() bool { return r.kind == kindIgnored }

// IsZero reports whether r is a count of zero rows, the signal that a
// relation did not exist yet and has to be inserted.
func (r Result) IsZero() bool { return r.kind == kindCount && r.n == 0 }

// Code returns the integer form of r: the row count, CodeUnchanged or CodeIgnored.
func (r Result) Code() int64 {
	switch r.kind {
	case kindUnchanged:
		return CodeUnchanged
	case kindIgnored:
		return CodeIgnored
	default:
		return r.n
	}
}

// Add sums two results. Counts add up; a count wins over a sentinel and
// Unchanged wins over Ignored.
func (r Result) Add(o Result) Result {
	switch {
	case r.kind == kindCount && o.kind == kindCount:
		return Count(r.n + o.n)
	case r.kind == kindCount:
		return r
	case o.kind == kindCount:
		return o
	case r.kind == kindUnchanged || o.kind == kindUnchanged:
		return Unchanged
	default:
		return Ignored
	}
}

func (r Result) String() string {
	switch r.kind {
	case kindUnchanged:
		return "unchanged"
	case kindIgnored:
		return "ignored"
	default:
		return "count=" + strconv.FormatInt(r.n, 10)
	}
}

// Op is a write operation.
type Op uint

// Operation types.
const (
	OpInsert Op = 1 << iota
	OpUpdate
	OpDelete
)

// Is reports whether o matches the given operation.
func (o Op) Is(op Op) bool { return o&op != 0 }

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "OpInsert"
	case OpUpdate:
		return "OpUpdate"
	case OpDelete:
		return "OpDelete"
	default:
		return fmt.Sprintf("Op(%d)", uint(o))
	}
}
