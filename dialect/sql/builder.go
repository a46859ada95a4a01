package sql

import (
	"strings"

	"github.com/syssam/persist/dialect"
)

// Builder is the low-level statement builder. It accumulates SQL text and the
// positional arguments bound to it, in emission order. A Builder holds exactly
// one statement (or one condition fragment) and is not safe for reuse across
// statements or goroutines.
//
//	b := sql.NewBuilder(dialect.Postgres)
//	b.SQL("UPDATE ").Ident("account").SQL(" SET ").Delimit(",")
//	b.SuffixIdents([]string{"name", "email"}, "=?").Arg("a8m", "a8m@example.com")
//	b.SQL(" WHERE ").Join(sql.Equal(dialect.Postgres, []string{"id"}, []any{1}))
//	query, args := b.Query()
//	// UPDATE "account" SET "name"=$1,"email"=$2 WHERE "id"=$3
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
	// delim is the separator of the current delimited region,
	// and items counts what was appended since the region began.
	delim string
	items int
}

// NewBuilder returns a new Builder for the given dialect.
func NewBuilder(d string) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string { return b.dialect }

// SQL appends raw SQL text to the builder. It closes any open delimited region.
func (b *Builder) SQL(s string) *Builder {
	b.delim, b.items = "", 0
	b.sb.WriteString(s)
	return b
}

// Ident appends the quoted identifier to the builder.
func (b *Builder) Ident(s string) *Builder {
	b.sb.WriteString(b.Quote(s))
	return b
}

// Quote quotes the identifier using the builder dialect.
func (b *Builder) Quote(ident string) string {
	return dialect.Quote(b.dialect, ident)
}

// Delimit begins a delimited region. Items appended with Sqld or SuffixIdents
// until the next call to SQL are joined by sep.
func (b *Builder) Delimit(sep string) *Builder {
	b.delim, b.items = sep, 0
	return b
}

// Sqld appends raw items to the current delimited region.
func (b *Builder) Sqld(items ...string) *Builder {
	for _, s := range items {
		if b.items > 0 {
			b.sb.WriteString(b.delim)
		}
		b.sb.WriteString(s)
		b.items++
	}
	return b
}

// SuffixIdents appends quoted(column)+suffix for each column to the current
// delimited region. For example, SuffixIdents([]string{"a", "b"}, "=?") in a
// "," region appends `"a"=?,"b"=?`.
func (b *Builder) SuffixIdents(columns []string, suffix string) *Builder {
	for _, c := range columns {
		b.Sqld(b.Quote(c) + suffix)
	}
	return b
}

// Idents appends the quoted columns to the current delimited region.
func (b *Builder) Idents(columns ...string) *Builder {
	return b.SuffixIdents(columns, "")
}

// Arg appends positional arguments to the builder.
func (b *Builder) Arg(args ...any) *Builder {
	b.args = append(b.args, args...)
	return b
}

// Join appends the text and arguments of other to the builder.
func (b *Builder) Join(other *Builder) *Builder {
	if other == nil {
		return b
	}
	b.sb.WriteString(other.sb.String())
	b.args = append(b.args, other.args...)
	return b
}

// Wrap appends the other builder wrapped with parentheses.
func (b *Builder) Wrap(other *Builder) *Builder {
	b.sb.WriteByte('(')
	b.Join(other)
	b.sb.WriteByte(')')
	return b
}

// Len returns the length of the accumulated SQL text. Callers use it as a
// marker to detect that nothing was appended since a given point.
func (b *Builder) Len() int { return b.sb.Len() }

// Empty reports whether the builder holds no text.
func (b *Builder) Empty() bool { return b == nil || b.sb.Len() == 0 }

// Args returns the accumulated arguments.
func (b *Builder) Args() []any { return b.args }

// String returns the accumulated text with "?" markers.
func (b *Builder) String() string { return b.sb.String() }

// Clone returns a deep copy of the builder.
func (b *Builder) Clone() *Builder {
	c := &Builder{dialect: b.dialect, delim: b.delim, items: b.items}
	c.sb.WriteString(b.sb.String())
	c.args = append([]any(nil), b.args...)
	return c
}

// Query returns the statement text in the dialect's placeholder style and
// its arguments.
func (b *Builder) Query() (string, []any) {
	query := b.sb.String()
	if b.dialect == dialect.Postgres {
		query = numberPlaceholders(query)
	}
	return query, b.args
}

// numberPlaceholders replaces "?" markers outside of string literals and
// quoted identifiers with $1, $2, ...
func numberPlaceholders(s string) string {
	var (
		sb    strings.Builder
		n     int
		quote byte
	)
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			sb.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			sb.WriteByte(c)
		case c == '?':
			n++
			sb.WriteString(dialect.Placeholder(dialect.Postgres, n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// Equal returns a condition builder matching each column to its value:
// `"a"=? AND "b"=?`. Nil values produce `"b" IS NULL` and bind nothing.
func Equal(d string, columns []string, values []any) *Builder {
	b := NewBuilder(d)
	for i, c := range columns {
		if i > 0 {
			b.SQL(" AND ")
		}
		b.Ident(c)
		var v any
		if i < len(values) {
			v = values[i]
		}
		if v == nil {
			b.SQL(" IS NULL")
			continue
		}
		b.SQL("=?").Arg(v)
	}
	return b
}

// And joins the non-empty conditions with AND.
func And(d string, conds ...*Builder) *Builder {
	b := NewBuilder(d)
	for _, c := range conds {
		if c.Empty() {
			continue
		}
		if !b.Empty() {
			b.SQL(" AND ")
		}
		b.Join(c)
	}
	return b
}
