package sqlgraph

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/syssam/persist"
)

// IsConstraintError reports whether err is a persist.ConstraintError or a
// driver error raised by a constraint violation.
func IsConstraintError(err error) bool {
	return persist.IsConstraintError(err) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports whether err resulted from a uniqueness
// violation, e.g. a duplicate key.
func IsUniqueConstraintError(err error) bool { return unique.match(err) }

// IsForeignKeyConstraintError reports whether err resulted from a foreign
// key violation, e.g. a missing parent row.
func IsForeignKeyConstraintError(err error) bool { return foreignKey.match(err) }

// IsCheckConstraintError reports whether err resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool { return check.match(err) }

// ConstraintError wraps err in a persist.ConstraintError if it resulted from
// a constraint violation, and returns it unchanged otherwise.
func ConstraintError(err error) error {
	if err == nil || persist.IsConstraintError(err) || !IsConstraintError(err) {
		return err
	}
	return persist.NewConstraintError(err.Error(), err)
}

// sqlState is implemented by postgres drivers other than pq, e.g. pgx.
type sqlState interface {
	SQLState() string
}

// coder is implemented by drivers exposing string error codes.
type coder interface {
	Code() string
}

// violation describes how each driver reports one kind of constraint
// violation. messages hold the fallbacks for drivers that expose no codes.
type violation struct {
	states   []string
	numbers  []uint16
	messages []string
}

var (
	unique = violation{
		states:   []string{"23505"},
		numbers:  []uint16{1062},
		messages: []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	}
	foreignKey = violation{
		states:   []string{"23503"},
		numbers:  []uint16{1451, 1452},
		messages: []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	}
	check = violation{
		states:   []string{"23514"},
		numbers:  []uint16{3819},
		messages: []string{"Error 3819", "violates check constraint", "CHECK constraint failed"},
	}
)

func (v violation) match(err error) bool {
	if err == nil {
		return false
	}
	var pe *pq.Error
	if errors.As(err, &pe) && contains(v.states, string(pe.Code)) {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) && contains(v.numbers, me.Number) {
		return true
	}
	if e, ok := asError[sqlState](err); ok && contains(v.states, e.SQLState()) {
		return true
	}
	if e, ok := asError[coder](err); ok && contains(v.states, e.Code()) {
		return true
	}
	msg := err.Error()
	for _, m := range v.messages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// asError returns the first error in the chain of err that implements T.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func contains[T comparable](vs []T, v T) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
