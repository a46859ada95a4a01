package field

import (
	"github.com/syssam/persist/schema"
)

// A Builder builds a primitive property.
type Builder struct {
	desc *schema.Property
}

// Of returns a builder for a property holding values of the primitive model m.
func Of(name string, m *schema.Model) *Builder {
	return &Builder{desc: &schema.Property{Name: name, Models: []*schema.Model{m}}}
}

// String returns a new string property.
func String(name string) *Builder { return Of(name, schema.String) }

// Int returns a new int property.
func Int(name string) *Builder { return Of(name, schema.Int) }

// Int64 returns a new int64 property.
func Int64(name string) *Builder { return Of(name, schema.Int64) }

// Float64 returns a new float64 property.
func Float64(name string) *Builder { return Of(name, schema.Float64) }

// Bool returns a new bool property.
func Bool(name string) *Builder { return Of(name, schema.Bool) }

// Time returns a new time.Time property.
func Time(name string) *Builder { return Of(name, schema.Time) }

// Bytes returns a new []byte property.
func Bytes(name string) *Builder { return Of(name, schema.Bytes) }

// Multiple makes the property a collection of values.
func (b *Builder) Multiple() *Builder {
	b.desc.Multiple = true
	return b
}

// NotEditable excludes the property from updates.
func (b *Builder) NotEditable() *Builder {
	return b.Annotations(schema.NotEditable{})
}

// NotReadable excludes the property from updates.
func (b *Builder) NotReadable() *Builder {
	return b.Annotations(schema.NotReadable{})
}

// Comment attaches a description to the property.
func (b *Builder) Comment(text string) *Builder {
	return b.Annotations(schema.Comment(text))
}

// Annotations adds a list of annotations to the property.
//
//	field.String("name").
//	    Annotations(sqlschema.Map(&sqlschema.ModelTable{Column: "full_name"}))
func (b *Builder) Annotations(annotations ...schema.Annotation) *Builder {
	b.desc.Annotations = append(b.desc.Annotations, annotations...)
	return b
}

// Descriptor returns the built property.
func (b *Builder) Descriptor() *schema.Property {
	return b.desc
}
