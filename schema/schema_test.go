package schema_test

import (
	"testing"
	"time"

	"github.com/syssam/persist/schema"
	"github.com/syssam/persist/schema/edge"
	"github.com/syssam/persist/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCommentAnnotation tests the CommentAnnotation type.
func TestCommentAnnotation(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		ann := &schema.CommentAnnotation{Text: "test comment"}
		assert.Equal(t, "Comment", ann.Name())
	})

	t.Run("Comment_constructor", func(t *testing.T) {
		ann := schema.Comment("Account represents a user account.")
		require.NotNil(t, ann)
		assert.Equal(t, "Account represents a user account.", ann.Text)
	})

	t.Run("implements_Annotation", func(_ *testing.T) {
		var _ schema.Annotation = (*schema.CommentAnnotation)(nil)
	})
}

// mockMerger implements both Annotation and Merger.
type mockMerger struct {
	name   string
	values []string
}

func (m *mockMerger) Name() string {
	return m.name
}

func (m *mockMerger) Merge(other schema.Annotation) schema.Annotation {
	if o, ok := other.(*mockMerger); ok {
		return &mockMerger{
			name:   m.name,
			values: append(append([]string(nil), m.values...), o.values...),
		}
	}
	return m
}

func TestModelAnnotation(t *testing.T) {
	m := &schema.Model{
		Name: "Account",
		Annotations: []schema.Annotation{
			&mockMerger{name: "Test", values: []string{"a"}},
			schema.Comment("first"),
			&mockMerger{name: "Test", values: []string{"b", "c"}},
			schema.Comment("second"),
		},
	}

	merged, ok := m.Annotation("Test").(*mockMerger)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, merged.values)

	// Non-mergers: the last one wins.
	c, ok := m.Annotation("Comment").(*schema.CommentAnnotation)
	require.True(t, ok)
	assert.Equal(t, "second", c.Text)

	assert.Nil(t, m.Annotation("Missing"))
}

func newAccount() *schema.Model {
	account := &schema.Model{Name: "Account", Keys: []string{"id"}}
	account.Properties = []*schema.Property{
		field.Int64("id").Descriptor(),
		field.String("name").Descriptor(),
		field.String("tags").Multiple().Descriptor(),
		edge.To("spouse", account).Descriptor(),
	}
	return account
}

func TestModel(t *testing.T) {
	account := newAccount()

	assert.Equal(t, 1, account.PropertyIndex("name"))
	assert.Equal(t, -1, account.PropertyIndex("missing"))
	assert.Nil(t, account.Property("missing"))
	require.Len(t, account.KeyProperties(), 1)
	assert.Equal(t, "id", account.KeyProperties()[0].Name)
	assert.False(t, account.Primitive())
	assert.True(t, schema.String.Primitive())

	obj := account.New()
	account.Set(obj, "id", int64(1))
	account.Set(obj, "name", "a")
	assert.True(t, account.Is(obj))
	assert.Equal(t, []any{int64(1), "a", nil, nil}, account.Values(obj))
	assert.Equal(t, make([]any, 4), account.Values(nil))
	assert.Nil(t, account.Get(nil, "id"))

	// Setting nil clears the value.
	account.Set(obj, "name", nil)
	assert.Nil(t, account.Get(obj, "name"))
}

func TestPrimitiveIs(t *testing.T) {
	assert.True(t, schema.String.Is("x"))
	assert.False(t, schema.String.Is(1))
	assert.True(t, schema.Int64.Is(int64(1)))
	assert.True(t, schema.Time.Is(time.Now()))
	assert.True(t, schema.Bytes.Is([]byte("x")))
	assert.False(t, schema.Bytes.Is([]byte(nil)))
	assert.False(t, schema.String.Is(nil))
	assert.Contains(t, schema.Primitives(), "int64")
}

func TestPropertyElements(t *testing.T) {
	tags := field.String("tags").Multiple().Descriptor()
	assert.Equal(t, []any{"a", "b"}, tags.Elements([]string{"a", "b"}))
	assert.Equal(t, []any{"a"}, tags.Elements([]any{"a"}))
	assert.Equal(t, []any{"a"}, tags.Elements("a"))
	assert.Nil(t, tags.Elements(nil))

	blob := field.Bytes("blob").Multiple().Descriptor()
	assert.Equal(t, []any{[]byte("x")}, blob.Elements([]byte("x")))
}

func TestRecord(t *testing.T) {
	r := schema.NewRecord("Account", nil)
	r.Set("id", 1).Set("name", "a")
	assert.Equal(t, 1, r.Get("id"))

	c := r.Clone()
	c.Set("name", "b")
	assert.Equal(t, "a", r.Get("name"))
	assert.Equal(t, "b", c.Get("name"))

	var nilRecord *schema.Record
	assert.Nil(t, nilRecord.Get("id"))
	assert.True(t, schema.IsNil(nilRecord))
}

type address struct {
	ID     int64  `persist:"id"`
	Street string `persist:"street"`
}

type person struct {
	ID       int64      `persist:"id"`
	Nickname *string    `persist:"nickname"`
	Born     *time.Time `persist:"born"`
	Home     *address   `persist:"home"`
	Note     string     `persist:"-"`
	Age      int
	secret   string
}

func TestStructAccessor(t *testing.T) {
	acc := schema.StructAccessor[person]()
	m := &schema.Model{Name: "Person", Keys: []string{"id"}, Accessor: acc}

	obj := m.New()
	require.IsType(t, &person{}, obj)
	assert.True(t, m.Is(obj))
	assert.False(t, m.Is(person{}))
	assert.False(t, m.Is((*person)(nil)))

	p := obj.(*person)
	p.ID = 7
	assert.Equal(t, int64(7), m.Get(obj, "id"))

	// Nil pointers read as absent, scalar pointers as their value.
	assert.Nil(t, m.Get(obj, "nickname"))
	m.Set(obj, "nickname", "bob")
	require.NotNil(t, p.Nickname)
	assert.Equal(t, "bob", m.Get(obj, "nickname"))

	born := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	m.Set(obj, "born", born)
	assert.Equal(t, born, m.Get(obj, "born"))

	// Struct pointers read as the object itself.
	home := &address{ID: 3}
	m.Set(obj, "home", home)
	assert.Same(t, home, m.Get(obj, "home"))

	// Field name fallback and conversion.
	m.Set(obj, "age", int64(30))
	assert.Equal(t, 30, p.Age)
	assert.Equal(t, 30, m.Get(obj, "Age"))

	// Skipped and unexported fields are not mapped.
	m.Set(obj, "note", "x")
	assert.Empty(t, p.Note)
	assert.Nil(t, m.Get(obj, "secret"))

	m.Set(obj, "nickname", nil)
	assert.Nil(t, p.Nickname)
}

func TestStructAccessorPanics(t *testing.T) {
	assert.Panics(t, func() { schema.StructAccessor[int]() })
}
