package mixin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
	"github.com/syssam/persist/schema/field"
	"github.com/syssam/persist/schema/mixin"
)

// TestAnnotation is a test annotation type.
type TestAnnotation string

func (TestAnnotation) Name() string { return "TestAnnotation" }

// audit is a custom mixin for testing.
type audit struct {
	mixin.Schema
}

func (audit) Properties() []*schema.Property {
	return []*schema.Property{
		field.String("created_by").Descriptor(),
		field.String("updated_by").Descriptor(),
	}
}

func names(m *schema.Model) []string {
	var ns []string
	for _, p := range m.Properties {
		ns = append(ns, p.Name)
	}
	return ns
}

func TestSchemaBaseMixin(t *testing.T) {
	m := mixin.Schema{}
	assert.Nil(t, m.Properties())
	assert.Nil(t, m.Annotations())
}

func TestApply(t *testing.T) {
	account := &schema.Model{Name: "Account", Properties: []*schema.Property{
		field.String("name").Descriptor(),
		field.Int64("updated_by").Descriptor(),
	}}
	mixin.Apply(account, mixin.ID{}, mixin.Time{}, audit{}, mixin.UpdateTime{})

	assert.Equal(t, []string{"id", "created_at", "updated_at", "created_by", "name", "updated_by"}, names(account))
	assert.Same(t, schema.Int64, account.Property("updated_by").Models[0], "model properties win")
	assert.Equal(t, []string{"id"}, account.Keys)
	assert.Equal(t, sqlschema.UUIDv7, sqlschema.GeneratorOf(account))
	assert.True(t, account.Property("id").Has(schema.NotEditable{}))
	assert.True(t, account.Property("created_at").Has(schema.NotEditable{}))
	assert.False(t, account.Property("updated_at").Has(schema.NotEditable{}))
	require.NoError(t, sqlschema.Validate(account))
}

func TestApply_KeepsKeys(t *testing.T) {
	m := &schema.Model{Name: "Card", Keys: []string{"number"}, Properties: []*schema.Property{
		field.String("number").Descriptor(),
	}}
	mixin.Apply(m, mixin.ID{})
	assert.Equal(t, []string{"number"}, m.Keys)
	assert.Equal(t, []string{"id", "number"}, names(m))
}

func TestAnnotateProperties(t *testing.T) {
	tests := []struct {
		name        string
		annotations []schema.Annotation
		want        int
	}{
		{"one", []schema.Annotation{TestAnnotation("foo")}, 1},
		{"many", []schema.Annotation{TestAnnotation("foo"), TestAnnotation("bar"), TestAnnotation("baz")}, 3},
		{"none", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := mixin.AnnotateProperties(audit{}, tt.annotations...).Properties()
			require.Len(t, props, 2)
			for _, p := range props {
				assert.Len(t, p.Annotations, tt.want)
			}
		})
	}

	t.Run("keeps_own", func(t *testing.T) {
		props := mixin.AnnotateProperties(mixin.CreateTime{}, TestAnnotation("foo")).Properties()
		require.Len(t, props, 1)
		assert.True(t, props[0].Has(schema.NotEditable{}))
		assert.True(t, props[0].Has(TestAnnotation("")))
	})

	t.Run("keys", func(t *testing.T) {
		m := mixin.Apply(&schema.Model{Name: "Tag"}, mixin.AnnotateProperties(mixin.ID{}, TestAnnotation("foo")))
		assert.Equal(t, []string{"id"}, m.Keys)
	})
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"id", "time", "create_time", "update_time", "soft_delete", "tenant_id"} {
		m, ok := mixin.Lookup(name)
		assert.True(t, ok, name)
		assert.NotEmpty(t, m.Properties(), name)
	}
	_, ok := mixin.Lookup("audit")
	assert.False(t, ok)
}
