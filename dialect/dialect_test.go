package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		dialect string
		ident   string
		want    string
	}{
		{Postgres, "account", `"account"`},
		{SQLite, "account", `"account"`},
		{MySQL, "account", "`account`"},
		{Postgres, "public.account", `"public"."account"`},
		{Postgres, `we"ird`, `"we""ird"`},
		{MySQL, "a`b", "`a``b`"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, Quote(tt.dialect, tt.ident))
		})
	}
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", Placeholder(Postgres, 1))
	assert.Equal(t, "$12", Placeholder(Postgres, 12))
	assert.Equal(t, "?", Placeholder(MySQL, 3))
	assert.Equal(t, "?", Placeholder(SQLite, 3))
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check(Postgres))
	require.NoError(t, Check(MySQL))
	require.NoError(t, Check(SQLite))
	require.EqualError(t, Check("oracle"), `dialect: unsupported dialect "oracle"`)
	assert.False(t, Valid(""))
}
